package tierstore

import (
	"context"
	"net/http"
	"strings"
)

// CookieOptions controls the attributes stamped on every cookie the tier
// writes. Defaults are applied by NewCookieTier for zero-value fields.
type CookieOptions struct {
	Path     string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// CookieTier round-trips values through browser cookies. It is bound to a
// single request/response pair, so it is attached per request via
// Resolver.With rather than registered at construction time.
type CookieTier struct {
	name string
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions
}

func NewCookieTier(name string, w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieTier {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	return &CookieTier{name: name, w: w, r: r, opts: opts}
}

func (t *CookieTier) Name() string { return t.name }

// cookieName maps a store key to a legal cookie name. Colons are common in
// store keys (sess:<id>:access) but invalid in cookie names per RFC 6265.
func cookieName(key string) string {
	return strings.ReplaceAll(key, ":", "_")
}

func (t *CookieTier) Get(ctx context.Context, key string) (string, error) {
	cookie, err := t.r.Cookie(cookieName(key))
	if err != nil || cookie.Value == "" {
		return "", ErrNoValue
	}
	return cookie.Value, nil
}

func (t *CookieTier) Set(ctx context.Context, key, value string) error {
	http.SetCookie(t.w, &http.Cookie{
		Name:     cookieName(key),
		Value:    value,
		Path:     t.opts.Path,
		MaxAge:   t.opts.MaxAge,
		Secure:   t.opts.Secure,
		HttpOnly: t.opts.HTTPOnly,
		SameSite: t.opts.SameSite,
	})
	return nil
}

func (t *CookieTier) Clear(ctx context.Context, key string) error {
	http.SetCookie(t.w, &http.Cookie{
		Name:     cookieName(key),
		Value:    "",
		Path:     t.opts.Path,
		MaxAge:   -1,
		Secure:   t.opts.Secure,
		HttpOnly: t.opts.HTTPOnly,
		SameSite: t.opts.SameSite,
	})
	return nil
}
