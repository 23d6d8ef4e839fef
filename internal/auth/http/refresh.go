package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/renderauth/renderauth/internal/auth/service"
	"github.com/renderauth/renderauth/pkg/authsdk"
	"github.com/renderauth/renderauth/pkg/httpx"
	"github.com/renderauth/renderauth/pkg/slogx"
)

// RefreshHandler rotates a refresh token into a fresh pair. The token comes
// from the request body when present, otherwise from whatever tier holds the
// current session's refresh token.
type RefreshHandler struct {
	Router *Router
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			authsdk.ErrInvalidJSONBody.WriteError(w)
			return
		}
	}

	// The session cookie has to be set before the cookie tier writes on
	// this response, same ordering as login.
	resolver, ec := h.Router.requestResolver(w, r)

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		sid := h.Router.sessionID(r)
		if sid == "" {
			authsdk.ErrInvalidGrant.WriteError(w)
			return
		}
		stored, err := h.Router.SessionService.RefreshToken(ctx, resolver, ec, sid)
		if err != nil {
			authsdk.ErrInvalidGrant.WriteError(w)
			return
		}
		refreshToken = stored
	}

	pair, sessionID, err := h.Router.TokenService.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			authsdk.ErrInvalidGrant.WriteError(w)
			return
		}
		log.Error("refresh failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	h.Router.setSessionCookie(w, sessionID)

	if err := h.Router.SessionService.Persist(ctx, resolver, ec, sessionID, pair); err != nil {
		log.Error("session persist failed", "session_id", sessionID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("refresh succeeded", "session_id", sessionID)

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		ExpiresAt:    pair.ExpiresAt.Unix(),
	})
}
