package domain

import "time"

// Principal is the authentication state derived from a stored access token.
// It is what state queries report; an anonymous principal means no tier held
// a valid token.
type Principal struct {
	Authenticated bool
	SubjectID     string
	Email         string
	DisplayName   string
	Roles         []string
	ExpiresAt     time.Time

	// RawToken carries the access token verbatim so callers can forward it
	// as a bearer credential on downstream requests.
	RawToken string
}

// Anonymous is the principal for a caller with no valid token.
func Anonymous() Principal {
	return Principal{}
}

// HasRole reports whether the principal holds the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
