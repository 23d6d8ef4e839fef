package service

import (
	"context"
	"log/slog"

	"github.com/renderauth/renderauth/internal/auth/domain"
	"github.com/renderauth/renderauth/pkg/jwtx"
	"github.com/renderauth/renderauth/pkg/slogx"
	"github.com/renderauth/renderauth/pkg/tierstore"
)

// SessionService keeps a session's token pair in the tier store and derives
// the visible authentication state from whatever tier answers first.
type SessionService struct {
	Verifier jwtx.Verifier
}

func accessKey(sessionID string) string  { return "sess:" + sessionID + ":access" }
func refreshKey(sessionID string) string { return "sess:" + sessionID + ":refresh" }

// Persist writes both halves of the pair through every reachable tier.
func (s *SessionService) Persist(
	ctx context.Context,
	resolver *tierstore.Resolver,
	ec tierstore.ExecutionContext,
	sessionID string,
	pair *domain.TokenPair,
) error {
	if err := resolver.Set(ctx, ec, accessKey(sessionID), pair.AccessToken); err != nil {
		return err
	}
	return resolver.Set(ctx, ec, refreshKey(sessionID), pair.RefreshToken)
}

// AccessToken returns the stored access token, or tierstore.ErrNoValue.
func (s *SessionService) AccessToken(
	ctx context.Context,
	resolver *tierstore.Resolver,
	ec tierstore.ExecutionContext,
	sessionID string,
) (string, error) {
	return resolver.Get(ctx, ec, accessKey(sessionID))
}

// RefreshToken returns the stored refresh token, or tierstore.ErrNoValue.
func (s *SessionService) RefreshToken(
	ctx context.Context,
	resolver *tierstore.Resolver,
	ec tierstore.ExecutionContext,
	sessionID string,
) (string, error) {
	return resolver.Get(ctx, ec, refreshKey(sessionID))
}

// Clear removes both halves of the pair from every reachable tier.
func (s *SessionService) Clear(
	ctx context.Context,
	resolver *tierstore.Resolver,
	ec tierstore.ExecutionContext,
	sessionID string,
) error {
	accessErr := resolver.Clear(ctx, ec, accessKey(sessionID))
	refreshErr := resolver.Clear(ctx, ec, refreshKey(sessionID))
	if accessErr != nil {
		return accessErr
	}
	return refreshErr
}

// Principal resolves the caller's authentication state: look up the stored
// access token, verify it, and only then decode the payload into identity
// fields. Any failure along the way, missing token, bad signature, expired,
// yields the anonymous principal rather than an error.
func (s *SessionService) Principal(
	ctx context.Context,
	resolver *tierstore.Resolver,
	ec tierstore.ExecutionContext,
	sessionID string,
) domain.Principal {
	log := slogx.FromContext(ctx)

	token, err := s.AccessToken(ctx, resolver, ec, sessionID)
	if err != nil {
		return domain.Anonymous()
	}

	// Verification comes first; the decoded payload is only trusted after
	// the signature and expiry checks pass.
	if _, err := s.Verifier.Verify(token); err != nil {
		log.Debug("stored token failed verification", slog.String("session_id", sessionID), "err", err)
		return domain.Anonymous()
	}

	cs, err := jwtx.DecodeClaimSet(token)
	if err != nil {
		return domain.Anonymous()
	}

	return domain.Principal{
		Authenticated: true,
		SubjectID:     cs.SubjectID,
		Email:         cs.Email,
		DisplayName:   cs.DisplayName,
		Roles:         cs.Roles,
		ExpiresAt:     cs.ExpiresAt,
		RawToken:      cs.RawToken,
	}
}
