package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/renderauth/renderauth/internal/auth/service"
	"github.com/renderauth/renderauth/pkg/authsdk"
	"github.com/renderauth/renderauth/pkg/httpx"
	"github.com/renderauth/renderauth/pkg/slogx"
)

// LoginHandler exchanges an email/password pair for tokens, starts a new
// session, and persists the pair across every reachable storage tier.
type LoginHandler struct {
	Router *Router
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.Router.CredentialService.Verify(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			authsdk.ErrInvalidGrant.WriteError(w)
			return
		}
		log.Error("credential verification failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	pair, sessionID, err := h.Router.TokenService.IssuePair(ctx, user)
	if err != nil {
		log.Error("token issuance failed", "user_id", user.ID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	// The session cookie must be set before the cookie tier writes token
	// cookies, so both land on the same response.
	h.Router.setSessionCookie(w, sessionID)

	resolver, ec := h.Router.requestResolver(w, r)
	if err := h.Router.SessionService.Persist(ctx, resolver, ec, sessionID, pair); err != nil {
		log.Error("session persist failed", "session_id", sessionID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("login succeeded", "user_id", user.ID, "session_id", sessionID)

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		ExpiresAt:    pair.ExpiresAt.Unix(),
		Principal: &authsdk.Principal{
			SubjectID:   user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Roles:       user.Roles,
		},
	})
}
