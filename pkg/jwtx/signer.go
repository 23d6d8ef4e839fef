package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeySize is the smallest HS256 key the signer accepts. HMAC-SHA256 keys
// shorter than the hash output weaken the MAC, so anything below 32 bytes is
// treated as a fatal misconfiguration.
const MinKeySize = 32

// Signer is anything that can sign access-token claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs tokens with a symmetric HMAC-SHA256 key. The key is
// loaded once at startup and never mutated afterwards, so a single instance
// is safe for concurrent use.
type HS256Signer struct {
	key []byte
}

// NewSignerHS256 validates the key material and returns a signer. A missing
// or short key is a configuration error the process must not start with.
func NewSignerHS256(key []byte) (*HS256Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("jwtx: signing key is required")
	}
	if len(key) < MinKeySize {
		return nil, errors.New("jwtx: signing key must be at least 32 bytes")
	}
	return &HS256Signer{key: key}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign turns claims into a compact three-part signed token,
// header.payload.signature, base64url-encoded without padding.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}
