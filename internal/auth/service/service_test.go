package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renderauth/renderauth/internal/auth/domain"
	"github.com/renderauth/renderauth/internal/auth/store"
	"github.com/renderauth/renderauth/internal/auth/store/drivers/sqlite"
	"github.com/renderauth/renderauth/pkg/cryptox"
	"github.com/renderauth/renderauth/pkg/idx"
	"github.com/renderauth/renderauth/pkg/jwtx"
	"github.com/renderauth/renderauth/pkg/tierstore"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s store.Store, password string, active bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        "alice@example.com",
		DisplayName:  "Alice",
		PasswordHash: hash,
		Roles:        []string{"user", "admin"},
		Active:       active,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func newTokenService(t *testing.T, s store.Store) *TokenService {
	t.Helper()

	signer, err := jwtx.NewSignerHS256(testSigningKey)
	require.NoError(t, err)

	return &TokenService{
		Signer:     signer,
		Store:      s,
		Issuer:     "renderauth",
		Audience:   []string{"renderauth"},
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func TestCredentialVerify(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "correct horse battery staple", true)

	cs := &CredentialService{Store: s}

	t.Run("valid credentials", func(t *testing.T) {
		got, err := cs.Verify(ctx, "alice@example.com", "correct horse battery staple")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("email matches case-insensitively", func(t *testing.T) {
		got, err := cs.Verify(ctx, "ALICE@EXAMPLE.COM", "correct horse battery staple")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := cs.Verify(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := cs.Verify(ctx, "nobody@example.com", "correct horse battery staple")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestCredentialVerifyInactiveUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedUser(t, s, "hunter2hunter2", false)

	cs := &CredentialService{Store: s}
	_, err := cs.Verify(ctx, "alice@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssuePair(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "pw-pw-pw-pw", true)
	ts := newTokenService(t, s)

	pair, sessionID, err := ts.IssuePair(ctx, u)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.NotEmpty(t, sessionID)
	require.WithinDuration(t, time.Now().Add(ts.AccessTTL), pair.ExpiresAt, 5*time.Second)

	// The access token must verify and carry the user's identity.
	verifier := jwtx.NewVerifierHS256(testSigningKey, "renderauth", []string{"renderauth"})
	claims, err := verifier.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, u.Email, claims.Email)
	require.Equal(t, u.Roles, claims.Roles)

	// Only the fingerprint is stored, never the opaque token.
	rt, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(pair.RefreshToken))
	require.NoError(t, err)
	require.Equal(t, u.ID, rt.UserID)
	require.Equal(t, sessionID, rt.SessionID)
	require.NotEqual(t, pair.RefreshToken, rt.TokenHash)
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "pw-pw-pw-pw", true)
	ts := newTokenService(t, s)

	pair, sessionID, err := ts.IssuePair(ctx, u)
	require.NoError(t, err)

	rotated, rotatedSID, err := ts.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	require.Equal(t, sessionID, rotatedSID, "session ID survives rotation")
	require.WithinDuration(t, time.Now().Add(ts.AccessTTL), rotated.ExpiresAt, 5*time.Second)

	// The old refresh token is single-use.
	_, _, err = ts.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The new one still works.
	_, _, err = ts.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedUser(t, s, "pw-pw-pw-pw", true)
	ts := newTokenService(t, s)

	_, _, err := ts.Refresh(ctx, "not-a-real-token")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRejectsInactiveUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "pw-pw-pw-pw", true)
	ts := newTokenService(t, s)

	pair, _, err := ts.IssuePair(ctx, u)
	require.NoError(t, err)

	require.NoError(t, s.Users().SetActive(ctx, u.ID, false))

	_, _, err = ts.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRevokeSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "pw-pw-pw-pw", true)
	ts := newTokenService(t, s)

	pair, sessionID, err := ts.IssuePair(ctx, u)
	require.NoError(t, err)

	require.NoError(t, ts.RevokeSession(ctx, sessionID))

	_, _, err = ts.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestSessionPersistAndPrincipal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "pw-pw-pw-pw", true)
	ts := newTokenService(t, s)

	pair, sessionID, err := ts.IssuePair(ctx, u)
	require.NoError(t, err)

	mem := tierstore.NewMemoryTier("mem")
	resolver := tierstore.NewResolver(nil, mem)
	ec := tierstore.ReachAll(mem)

	sessions := &SessionService{
		Verifier: jwtx.NewVerifierHS256(testSigningKey, "renderauth", []string{"renderauth"}),
	}

	require.NoError(t, sessions.Persist(ctx, resolver, ec, sessionID, pair))

	access, err := sessions.AccessToken(ctx, resolver, ec, sessionID)
	require.NoError(t, err)
	require.Equal(t, pair.AccessToken, access)

	p := sessions.Principal(ctx, resolver, ec, sessionID)
	require.True(t, p.Authenticated)
	require.Equal(t, u.ID, p.SubjectID)
	require.Equal(t, u.Email, p.Email)
	require.Equal(t, u.DisplayName, p.DisplayName)
	require.Equal(t, u.Roles, p.Roles)
	require.False(t, p.ExpiresAt.IsZero())
	require.Equal(t, pair.AccessToken, p.RawToken)
}

func TestSessionPrincipalAnonymousCases(t *testing.T) {
	ctx := context.Background()

	mem := tierstore.NewMemoryTier("mem")
	resolver := tierstore.NewResolver(nil, mem)
	ec := tierstore.ReachAll(mem)

	sessions := &SessionService{
		Verifier: jwtx.NewVerifierHS256(testSigningKey, "renderauth", []string{"renderauth"}),
	}

	t.Run("no stored token", func(t *testing.T) {
		p := sessions.Principal(ctx, resolver, ec, "missing-session")
		require.False(t, p.Authenticated)
	})

	t.Run("garbage stored token", func(t *testing.T) {
		require.NoError(t, mem.Set(ctx, accessKey("bad-session"), "not.a.jwt"))
		p := sessions.Principal(ctx, resolver, ec, "bad-session")
		require.False(t, p.Authenticated)
	})

	t.Run("expired stored token", func(t *testing.T) {
		signer, err := jwtx.NewSignerHS256(testSigningKey)
		require.NoError(t, err)

		claims := jwtx.NewAccessClaims(
			"user-1", "alice@example.com", "Alice", []string{"user"},
			-time.Minute, "renderauth", []string{"renderauth"}, time.Now(),
		)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		require.NoError(t, mem.Set(ctx, accessKey("expired-session"), token))
		p := sessions.Principal(ctx, resolver, ec, "expired-session")
		require.False(t, p.Authenticated)
	})
}

func TestSessionClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "pw-pw-pw-pw", true)
	ts := newTokenService(t, s)

	pair, sessionID, err := ts.IssuePair(ctx, u)
	require.NoError(t, err)

	mem := tierstore.NewMemoryTier("mem")
	resolver := tierstore.NewResolver(nil, mem)
	ec := tierstore.ReachAll(mem)

	sessions := &SessionService{
		Verifier: jwtx.NewVerifierHS256(testSigningKey, "renderauth", []string{"renderauth"}),
	}

	require.NoError(t, sessions.Persist(ctx, resolver, ec, sessionID, pair))
	require.NoError(t, sessions.Clear(ctx, resolver, ec, sessionID))

	_, err = sessions.AccessToken(ctx, resolver, ec, sessionID)
	require.ErrorIs(t, err, tierstore.ErrNoValue)

	p := sessions.Principal(ctx, resolver, ec, sessionID)
	require.False(t, p.Authenticated)
}

func TestHousekeepingCleansExpiredTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "pw-pw-pw-pw", true)

	expired := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: "expired-hash",
		SessionID: "sess-old",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, expired))

	hk := NewHousekeepingService(s, testLogger(), time.Hour)
	hk.Start()
	hk.Stop()

	_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "expired-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}
