package tierstore_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderauth/renderauth/pkg/tierstore"
)

func TestCookieTierGet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sess_abc_access", Value: "token"})
	w := httptest.NewRecorder()

	tier := tierstore.NewCookieTier("cookie", w, r, tierstore.CookieOptions{})

	value, err := tier.Get(context.Background(), "sess:abc:access")
	require.NoError(t, err)
	assert.Equal(t, "token", value)
}

func TestCookieTierGetMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	tier := tierstore.NewCookieTier("cookie", w, r, tierstore.CookieOptions{})

	_, err := tier.Get(context.Background(), "sess:abc:access")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)
}

func TestCookieTierSet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	tier := tierstore.NewCookieTier("cookie", w, r, tierstore.CookieOptions{
		Secure:   true,
		HTTPOnly: true,
		MaxAge:   3600,
	})

	require.NoError(t, tier.Set(context.Background(), "sess:abc:refresh", "token"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	c := cookies[0]
	assert.Equal(t, "sess_abc_refresh", c.Name)
	assert.Equal(t, "token", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestCookieTierClear(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	tier := tierstore.NewCookieTier("cookie", w, r, tierstore.CookieOptions{})

	require.NoError(t, tier.Clear(context.Background(), "sess:abc:access"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sess_abc_access", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestCookieTierAttachedViaWith(t *testing.T) {
	mem := tierstore.NewMemoryTier("mem")
	base := tierstore.NewResolver(nil, mem)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sess_abc_access", Value: "from-cookie"})
	w := httptest.NewRecorder()

	cookie := tierstore.NewCookieTier("cookie", w, r, tierstore.CookieOptions{})
	resolver := base.With(cookie)

	value, err := resolver.Get(context.Background(), tierstore.Reach("mem", "cookie"), "sess:abc:access")
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", value)
}
