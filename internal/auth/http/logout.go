package http

import (
	"net/http"

	"github.com/renderauth/renderauth/pkg/httpx"
	"github.com/renderauth/renderauth/pkg/slogx"
)

// LogoutHandler revokes the session's refresh tokens and clears the stored
// pair from every reachable tier. Logging out without a session is a no-op
// success rather than an error.
type LogoutHandler struct {
	Router *Router
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sid := h.Router.sessionID(r)
	if sid == "" {
		httpx.NoCache(w)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.Router.TokenService.RevokeSession(ctx, sid); err != nil {
		// Revocation failure is logged but does not block clearing the
		// tiers; the stored tokens still stop resolving.
		log.Error("session revocation failed", "session_id", sid, "err", err)
	}

	resolver, ec := h.Router.requestResolver(w, r)
	if err := h.Router.SessionService.Clear(ctx, resolver, ec, sid); err != nil {
		log.Warn("session clear incomplete", "session_id", sid, "err", err)
	}

	h.Router.clearSessionCookie(w)

	log.Info("logout", "session_id", sid)

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
