package domain

import "time"

// TokenPair is what the login and refresh endpoints return: the short-lived
// access token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until access token expiry
	ExpiresAt    time.Time     `json:"expires_at"`           // absolute access token expiry
}

// RefreshToken models the stored refresh token record in the DB. Only the
// fingerprint of the opaque token is persisted, never the token itself.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	SessionID string // session ID (SID) that persists across token refreshes
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
