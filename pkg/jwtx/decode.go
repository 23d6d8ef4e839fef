package jwtx

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClaimSet is the normalized view of a token payload: explicit fields for the
// canonical claims plus an escape hatch for everything else. It is what the
// authentication-state path builds a Principal from.
type ClaimSet struct {
	SubjectID   string
	Email       string
	DisplayName string
	Roles       []string // de-duplicated, original order preserved
	IssuedAt    time.Time
	ExpiresAt   time.Time

	// RawToken is the original token string, retained so downstream calls
	// can re-attach it verbatim as a bearer credential.
	RawToken string

	// Extra holds claims with no canonical mapping. Multi-valued payload
	// entries contribute one element per list item.
	Extra map[string][]string
}

// IsEmpty reports whether the claim set carries no identity at all.
func (c ClaimSet) IsEmpty() bool {
	return c.SubjectID == "" && c.Email == "" && len(c.Roles) == 0 && len(c.Extra) == 0
}

// DecodeClaimSet splits a compact token, decodes its payload segment, and
// applies the canonical-name mapping: "sub" populates the subject id,
// "email" the email, "name" the display name, and "role"/"roles" entries are
// folded into a de-duplicated role set instead of overwriting each other.
//
// DecodeClaimSet does NOT verify the signature. Callers building a visible
// authentication state must pair it with Verifier.Verify; on its own the
// payload is untrusted input.
//
// Malformed input of any kind, wrong segment count, bad base64, bad JSON,
// returns the zero ClaimSet and an error; callers treat that identically to
// "no token present".
func DecodeClaimSet(token string) (ClaimSet, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ClaimSet{}, ErrMalformed
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return ClaimSet{}, fmt.Errorf("jwtx: decode payload: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ClaimSet{}, fmt.Errorf("jwtx: parse payload: %w", err)
	}

	cs := ClaimSet{RawToken: token}
	for key, value := range raw {
		values := flatten(value)
		switch key {
		case "sub":
			if cs.SubjectID == "" && len(values) > 0 {
				cs.SubjectID = values[0]
			}
		case "email":
			if len(values) > 0 {
				cs.Email = values[0]
			}
		case "name":
			if len(values) > 0 {
				cs.DisplayName = values[0]
			}
		case "role", "roles":
			cs.Roles = appendRoles(cs.Roles, values)
		case "iat":
			cs.IssuedAt = numericTime(value)
		case "exp":
			cs.ExpiresAt = numericTime(value)
		default:
			if cs.Extra == nil {
				cs.Extra = make(map[string][]string)
			}
			cs.Extra[key] = append(cs.Extra[key], values...)
		}
	}

	return cs, nil
}

// decodeSegment restores base64 padding ('=' until the length is a multiple
// of 4) before decoding, so both padded and unpadded segments are accepted.
func decodeSegment(seg string) ([]byte, error) {
	if rem := len(seg) % 4; rem != 0 {
		seg += strings.Repeat("=", 4-rem)
	}
	return base64.URLEncoding.DecodeString(seg)
}

// flatten renders a payload value as strings, one per list element for
// multi-valued claims.
func flatten(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, flatten(item)...)
		}
		return out
	case float64:
		if t == float64(int64(t)) {
			return []string{strconv.FormatInt(int64(t), 10)}
		}
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case bool:
		return []string{strconv.FormatBool(t)}
	case nil:
		return nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return []string{string(b)}
	}
}

func appendRoles(roles, values []string) []string {
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		seen[r] = struct{}{}
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		roles = append(roles, v)
	}
	return roles
}

func numericTime(v any) time.Time {
	f, ok := v.(float64)
	if !ok {
		return time.Time{}
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
