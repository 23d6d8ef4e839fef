package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// RefreshTokenSize is the entropy of an opaque refresh token in bytes.
// 256 bits of randomness, 43 chars once base64url-encoded.
const RefreshTokenSize = 32

// GenerateToken creates a cryptographically secure random token of the given
// byte length, returned base64url-encoded without padding. The token carries
// no structure: no claims, no embedded expiry.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded. Refresh tokens are stored by fingerprint so a database
// leak does not expose usable credentials.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
