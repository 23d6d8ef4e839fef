package http

import (
	"net/http"

	"github.com/renderauth/renderauth/pkg/authsdk"
	"github.com/renderauth/renderauth/pkg/httpx"
)

// StateHandler reports the caller's authentication state as resolved from
// the storage tiers. It always answers 200; an anonymous caller simply gets
// authenticated=false.
type StateHandler struct {
	Router *Router
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sid := h.Router.sessionID(r)
	if sid == "" {
		httpx.WriteJSON(w, http.StatusOK, authsdk.StateResponse{Authenticated: false})
		return
	}

	resolver, ec := h.Router.requestResolver(w, r)
	p := h.Router.SessionService.Principal(ctx, resolver, ec, sid)
	if !p.Authenticated {
		httpx.WriteJSON(w, http.StatusOK, authsdk.StateResponse{Authenticated: false})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.StateResponse{
		Authenticated: true,
		SubjectID:     p.SubjectID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		Roles:         p.Roles,
		ExpiresAt:     p.ExpiresAt.Unix(),
	})
}
