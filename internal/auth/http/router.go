package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/renderauth/renderauth/internal/auth/service"
	"github.com/renderauth/renderauth/internal/auth/store"
	"github.com/renderauth/renderauth/pkg/httpx"
	"github.com/renderauth/renderauth/pkg/jwtx"
	"github.com/renderauth/renderauth/pkg/slogx"
	"github.com/renderauth/renderauth/pkg/tierstore"
)

// SessionCookieName carries the session ID between requests. It identifies
// the session only; the tokens themselves live in the tier store.
const SessionCookieName = "ra_sid"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	resolver *tierstore.Resolver

	// CookieOpts is applied to the per-request cookie tier and the session
	// ID cookie.
	CookieOpts tierstore.CookieOptions

	// TierPing checks the durable tier's backend for readiness. Nil when no
	// such tier is configured.
	TierPing func(r *http.Request) error

	CredentialService *service.CredentialService
	TokenService      *service.TokenService
	SessionService    *service.SessionService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	resolver *tierstore.Resolver,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		resolver:     resolver,
		logger:       logger,
	}

	// Default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (rt *Router) ApplyRoutes() {
	rt.registerAuth()
	rt.registerUsers()
	rt.registerAdmin()
	rt.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(rt.Mux, rt.middlewares...).ServeHTTP(w, req)
}

func (rt *Router) registerAuth() {
	loginHandler := &LoginHandler{Router: rt}
	rt.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.ThrottleByIP(httpx.StrictLimit),
		),
	)

	refreshHandler := &RefreshHandler{Router: rt}
	rt.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.ThrottleByIP(httpx.ModerateLimit),
		),
	)

	logoutHandler := &LogoutHandler{Router: rt}
	rt.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.ThrottleByIP(httpx.ModerateLimit),
		),
	)

	stateHandler := &StateHandler{Router: rt}
	rt.Mux.Handle("GET /v1/auth/state",
		httpx.Chain(stateHandler,
			httpx.ThrottleByIP(httpx.PublicLimit),
		),
	)
}

func (rt *Router) registerUsers() {
	h := &UserInfoHandler{Store: rt.store}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(rt.verifier), // verify JWT (iss/aud/exp)
		httpx.ThrottleBySubject(httpx.ModerateLimit),
	)

	rt.Mux.Handle("GET /v1/userinfo", secured)
}

func (rt *Router) registerAdmin() {
	h := &AdminUsersHandler{Store: rt.store}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(rt.verifier),
		httpx.RequireAnyRole("admin"),
		httpx.ThrottleBySubject(httpx.ModerateLimit),
	)

	rt.Mux.Handle("GET /v1/admin/users", secured)
}

func (rt *Router) registerSystem() {
	// Monitoring systems may poll these frequently.
	rt.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(rt.startTime, rt.buildVersion),
			httpx.ThrottleByIP(httpx.PublicLimit),
		),
	)
	rt.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(rt.startTime, rt.buildVersion, rt.store, rt.TierPing),
			httpx.ThrottleByIP(httpx.PublicLimit),
		),
	)
}

// requestResolver extends the long-lived resolver with a cookie tier bound
// to this request, and builds the execution context reaching every tier.
func (rt *Router) requestResolver(w http.ResponseWriter, r *http.Request) (*tierstore.Resolver, tierstore.ExecutionContext) {
	cookie := tierstore.NewCookieTier("cookie", w, r, rt.CookieOpts)
	resolver := rt.resolver.With(cookie)
	return resolver, tierstore.ReachAll(resolver.Tiers()...)
}

// sessionID reads the session cookie, or "" when absent.
func (rt *Router) sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (rt *Router) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   rt.CookieOpts.MaxAge,
		Secure:   rt.CookieOpts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (rt *Router) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   rt.CookieOpts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
