package tierstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderauth/renderauth/pkg/tierstore"
)

func newRedisTier(t *testing.T, ttl time.Duration) (*tierstore.RedisTier, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return tierstore.NewRedisTier("redis", client, "authtest", ttl), mr
}

func TestRedisTierRoundtrip(t *testing.T) {
	tier, _ := newRedisTier(t, time.Hour)
	ctx := context.Background()

	assert.Equal(t, "redis", tier.Name())

	_, err := tier.Get(ctx, "k")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)

	require.NoError(t, tier.Set(ctx, "k", "v"))

	value, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	require.NoError(t, tier.Clear(ctx, "k"))

	_, err = tier.Get(ctx, "k")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)
}

func TestRedisTierKeyPrefix(t *testing.T) {
	tier, mr := newRedisTier(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "sess:abc:access", "token"))

	got, err := mr.Get("authtest:sess:abc:access")
	require.NoError(t, err)
	assert.Equal(t, "token", got)
}

func TestRedisTierTTLExpiry(t *testing.T) {
	tier, mr := newRedisTier(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", "v"))

	mr.FastForward(2 * time.Minute)

	_, err := tier.Get(ctx, "k")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)
}

func TestRedisTierClearAbsentKey(t *testing.T) {
	tier, _ := newRedisTier(t, time.Hour)

	assert.NoError(t, tier.Clear(context.Background(), "never-set"))
}
