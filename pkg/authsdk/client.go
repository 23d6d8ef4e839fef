// Package authsdk is a small client for the renderauth HTTP API, shared by
// integration tests and downstream services that need to log in, refresh,
// and inspect authentication state programmatically.
package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client talks to a renderauth server. The underlying http.Client carries a
// cookie jar so the server's session cookies round-trip like a browser's
// would.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doJSON performs a request with an optional JSON body and optional bearer
// token, decoding a JSON response into target when target is non-nil.
func (c *Client) doJSON(
	ctx context.Context,
	method, path string,
	body any,
	bearer string,
	target any,
	expectedStatus int,
) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if target != nil {
		if err := json.Unmarshal(bodyBytes, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login",
		LoginRequest{Email: email, Password: password}, "", &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates a refresh token into a fresh pair. Pass an empty token to
// rely on the session cookie.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/refresh",
		RefreshRequest{RefreshToken: refreshToken}, "", &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the current session's tokens.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", nil, "", nil, http.StatusNoContent)
}

// State reports the caller's authentication state as the server resolves it
// from cookies; no bearer token is required.
func (c *Client) State(ctx context.Context) (*StateResponse, error) {
	var out StateResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/auth/state", nil, "", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserInfo fetches the profile behind the bearer-protected endpoint.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*UserInfoResponse, error) {
	var out UserInfoResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/userinfo", nil, accessToken, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers fetches the admin user listing. Requires a token with the admin
// role.
func (c *Client) ListUsers(ctx context.Context, accessToken string) (*UserListResponse, error) {
	var out UserListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/admin/users", nil, accessToken, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Livez checks process liveness.
func (c *Client) Livez(ctx context.Context) error {
	var out HealthResponse
	return c.doJSON(ctx, http.MethodGet, "/livez", nil, "", &out, http.StatusOK)
}

// Readyz checks readiness of the backing stores.
func (c *Client) Readyz(ctx context.Context) error {
	var out HealthResponse
	return c.doJSON(ctx, http.MethodGet, "/readyz", nil, "", &out, http.StatusOK)
}
