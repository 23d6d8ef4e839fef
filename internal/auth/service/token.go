package service

import (
	"context"
	"errors"
	"time"

	"github.com/renderauth/renderauth/internal/auth/domain"
	"github.com/renderauth/renderauth/internal/auth/store"
	"github.com/renderauth/renderauth/pkg/cryptox"
	"github.com/renderauth/renderauth/pkg/idx"
	"github.com/renderauth/renderauth/pkg/jwtx"
)

// TokenService mints access/refresh pairs and rotates refresh tokens.
type TokenService struct {
	Signer     jwtx.Signer
	Store      store.Store
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssuePair mints a fresh token pair for a user under a new session ID.
// The opaque refresh token leaves this function exactly once; only its
// fingerprint is persisted.
func (s *TokenService) IssuePair(ctx context.Context, user domain.User) (*domain.TokenPair, string, error) {
	now := time.Now()
	sessionID := idx.New().String()

	accessToken, err := s.signAccess(user, now)
	if err != nil {
		return nil, "", err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.RefreshTokenSize)
	if err != nil {
		return nil, "", err
	}

	refresh := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		SessionID: sessionID,
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}

	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, refresh); err != nil {
		return nil, "", err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		ExpiresAt:    now.Add(s.AccessTTL),
	}, sessionID, nil
}

// Refresh validates a refresh token by fingerprint lookup plus
// expiry/revocation check, then rotates it: the old token is revoked and a
// new one created in the same transaction, so each opaque value is usable
// exactly once.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, string, error) {
	now := time.Now()

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidRefresh
		}
		return nil, "", err
	}

	if rt.Revoked {
		return nil, "", ErrInvalidRefresh
	}
	if now.After(rt.ExpiresAt) {
		return nil, "", ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidRefresh
		}
		return nil, "", err
	}
	if !user.Active {
		return nil, "", ErrInvalidRefresh
	}

	accessToken, err := s.signAccess(user, now)
	if err != nil {
		return nil, "", err
	}

	newRefreshOpaque, err := cryptox.GenerateToken(cryptox.RefreshTokenSize)
	if err != nil {
		return nil, "", err
	}

	newRT := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(newRefreshOpaque),
		SessionID: rt.SessionID, // session ID survives rotation
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}

	// Atomically revoke the old token and create the new one.
	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, newRT)
	}); err != nil {
		return nil, "", err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		ExpiresAt:    now.Add(s.AccessTTL),
	}, rt.SessionID, nil
}

// RevokeSession revokes every refresh token tied to a session (logout).
func (s *TokenService) RevokeSession(ctx context.Context, sessionID string) error {
	return s.Store.RefreshTokens().RevokeSessionRefreshTokens(ctx, sessionID)
}

// RevokeUser revokes every refresh token for a user, e.g. on password reset
// or deactivation.
func (s *TokenService) RevokeUser(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
}

func (s *TokenService) signAccess(user domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		user.ID, user.Email, user.DisplayName, user.Roles,
		s.AccessTTL, s.Issuer, s.Audience, now,
	)
	return s.Signer.Sign(claims)
}
