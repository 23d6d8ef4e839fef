package authsdk

import "time"

// LoginRequest is the JSON body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the JSON body for POST /v1/auth/refresh. The refresh
// token may be omitted when the caller relies on the session cookie instead.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Principal identifies the authenticated user in the login response.
type Principal struct {
	SubjectID   string   `json:"sub"`
	Email       string   `json:"email"`
	DisplayName string   `json:"name,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// TokenResponse is returned by the login and refresh endpoints. ExpiresAt is
// the absolute access token expiry as a Unix timestamp; ExpiresIn carries the
// same instant as a relative TTL in seconds. Principal is only present on
// login responses.
type TokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	Principal    *Principal `json:"principal,omitempty"`
}

// StateResponse describes the caller's current authentication state as
// resolved from whichever token tier answered first.
type StateResponse struct {
	Authenticated bool     `json:"authenticated"`
	SubjectID     string   `json:"subject_id,omitempty"`
	Email         string   `json:"email,omitempty"`
	DisplayName   string   `json:"display_name,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	ExpiresAt     int64    `json:"expires_at,omitempty"`
}

// UserInfoResponse is the profile payload behind the bearer-protected
// userinfo endpoint.
type UserInfoResponse struct {
	SubjectID   string   `json:"sub"`
	Email       string   `json:"email"`
	DisplayName string   `json:"name,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// UserSummary is one row of the admin user listing.
type UserSummary struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Roles       []string  `json:"roles,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserListResponse is returned by GET /v1/admin/users.
type UserListResponse struct {
	Users []UserSummary `json:"users"`
}

// ErrorResponse is the standard OAuth2-style error payload.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database  string `json:"database"`
	TierStore string `json:"tier_store"`
}
