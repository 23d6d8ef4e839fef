package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/renderauth/renderauth/pkg/httpx"
)

// OAuth2 error codes per RFC 6749.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeInvalidGrant      = "invalid_grant"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeInsufficientScope = "insufficient_scope"
	ErrorCodeServerError       = "server_error"
)

// OAuth2Error is an RFC 6749 error payload. It implements the error
// interface and is shared by the server handlers (to write responses) and
// the SDK client (to surface failures).
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// NewOAuth2Error builds an OAuth2Error with a custom description while
// keeping the wire format compliant.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{StatusCode: statusCode, Code: code, Description: description}
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this OAuth2Error to an HTTP response writer.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest covers malformed requests and missing parameters.
	ErrInvalidRequest = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest,
		"the request is malformed or missing required parameters")

	// ErrInvalidGrant covers bad credentials and bad refresh tokens alike.
	// Unknown user, wrong password, inactive account, and a revoked or
	// expired refresh token all read the same on the wire.
	ErrInvalidGrant = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeInvalidGrant,
		"invalid credentials")

	// ErrInvalidToken covers a missing, invalid, expired or revoked access token.
	ErrInvalidToken = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeInvalidToken,
		"the access token is missing, invalid, expired or revoked")

	// ErrInsufficientRole is returned when the token lacks a required role.
	ErrInsufficientRole = NewOAuth2Error(http.StatusForbidden, ErrorCodeInsufficientScope,
		"the access token does not grant the required role")

	ErrServerError = NewOAuth2Error(http.StatusInternalServerError, ErrorCodeServerError,
		"internal server error")

	ErrMethodNotAllowed = NewOAuth2Error(http.StatusMethodNotAllowed, ErrorCodeInvalidRequest,
		"method not allowed")

	ErrInvalidJSONBody = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest,
		"invalid JSON body")
)

// parseErrorResponse turns a non-2xx HTTP response into a typed error.
// Returns nil for success status codes.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var payload ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return NewOAuth2Error(resp.StatusCode, payload.Error, payload.ErrorDescription)
	}

	return NewOAuth2Error(resp.StatusCode, ErrorCodeServerError,
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
}
