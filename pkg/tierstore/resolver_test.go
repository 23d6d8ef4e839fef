package tierstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderauth/renderauth/pkg/tierstore"
)

// faultyTier fails every operation, standing in for a tier whose backend is
// reachable but misbehaving.
type faultyTier struct {
	name string
}

func (t *faultyTier) Name() string { return t.name }

func (t *faultyTier) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("backend down")
}

func (t *faultyTier) Set(ctx context.Context, key, value string) error {
	return errors.New("backend down")
}

func (t *faultyTier) Clear(ctx context.Context, key string) error {
	return errors.New("backend down")
}

func TestResolverGetPriorityOrder(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	slow := tierstore.NewMemoryTier("slow")
	r := tierstore.NewResolver(nil, fast, slow)

	ctx := context.Background()
	ec := tierstore.ReachAll(fast, slow)

	require.NoError(t, slow.Set(ctx, "k", "from-slow"))
	require.NoError(t, fast.Set(ctx, "k", "from-fast"))

	value, err := r.Get(ctx, ec, "k")
	require.NoError(t, err)
	assert.Equal(t, "from-fast", value, "first reachable tier in order wins")
}

func TestResolverGetSkipsUnreachableTier(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	slow := tierstore.NewMemoryTier("slow")
	r := tierstore.NewResolver(nil, fast, slow)

	ctx := context.Background()
	require.NoError(t, fast.Set(ctx, "k", "from-fast"))
	require.NoError(t, slow.Set(ctx, "k", "from-slow"))

	value, err := r.Get(ctx, tierstore.Reach("slow"), "k")
	require.NoError(t, err)
	assert.Equal(t, "from-slow", value)
}

func TestResolverGetNoValue(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	r := tierstore.NewResolver(nil, fast)

	_, err := r.Get(context.Background(), tierstore.ReachAll(fast), "missing")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)
}

func TestResolverGetZeroContextReachesNothing(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	r := tierstore.NewResolver(nil, fast)

	ctx := context.Background()
	require.NoError(t, fast.Set(ctx, "k", "v"))

	_, err := r.Get(ctx, tierstore.ExecutionContext{}, "k")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)
}

func TestResolverSetWritesThroughAllReachable(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	slow := tierstore.NewMemoryTier("slow")
	r := tierstore.NewResolver(nil, fast, slow)

	ctx := context.Background()
	require.NoError(t, r.Set(ctx, tierstore.ReachAll(fast, slow), "k", "v"))

	for _, tier := range []*tierstore.MemoryTier{fast, slow} {
		value, err := tier.Get(ctx, "k")
		require.NoError(t, err, tier.Name())
		assert.Equal(t, "v", value, tier.Name())
	}
}

func TestResolverSetSkipsUnreachableAndDoesNotBackfill(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	slow := tierstore.NewMemoryTier("slow")
	r := tierstore.NewResolver(nil, fast, slow)

	ctx := context.Background()

	// Write while only the slow tier is reachable.
	require.NoError(t, r.Set(ctx, tierstore.Reach("slow"), "k", "v"))

	_, err := fast.Get(ctx, "k")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)

	// Later read with every tier reachable still finds the value, served
	// by the slow tier, and does not copy it into the fast one.
	value, err := r.Get(ctx, tierstore.ReachAll(fast, slow), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	_, err = fast.Get(ctx, "k")
	assert.ErrorIs(t, err, tierstore.ErrNoValue, "read must not backfill")
}

func TestResolverSetPartialFailureCountsAsSuccess(t *testing.T) {
	broken := &faultyTier{name: "broken"}
	slow := tierstore.NewMemoryTier("slow")
	r := tierstore.NewResolver(nil, broken, slow)

	ctx := context.Background()
	ec := tierstore.Reach("broken", "slow")

	require.NoError(t, r.Set(ctx, ec, "k", "v"))

	value, err := r.Get(ctx, ec, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestResolverSetNoReachableTier(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	r := tierstore.NewResolver(nil, fast)

	err := r.Set(context.Background(), tierstore.Reach("elsewhere"), "k", "v")
	assert.ErrorIs(t, err, tierstore.ErrNoTier)
}

func TestResolverSetAllTiersFail(t *testing.T) {
	broken := &faultyTier{name: "broken"}
	r := tierstore.NewResolver(nil, broken)

	err := r.Set(context.Background(), tierstore.Reach("broken"), "k", "v")
	assert.ErrorIs(t, err, tierstore.ErrNoTier)
}

func TestResolverClear(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	slow := tierstore.NewMemoryTier("slow")
	r := tierstore.NewResolver(nil, fast, slow)

	ctx := context.Background()
	ec := tierstore.ReachAll(fast, slow)

	require.NoError(t, r.Set(ctx, ec, "k", "v"))
	require.NoError(t, r.Clear(ctx, ec, "k"))

	_, err := r.Get(ctx, ec, "k")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)
}

func TestResolverClearAbsentKey(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	r := tierstore.NewResolver(nil, fast)

	err := r.Clear(context.Background(), tierstore.ReachAll(fast), "never-set")
	assert.NoError(t, err)
}

func TestResolverGetSkipsFaultyTier(t *testing.T) {
	broken := &faultyTier{name: "broken"}
	slow := tierstore.NewMemoryTier("slow")
	r := tierstore.NewResolver(nil, broken, slow)

	ctx := context.Background()
	require.NoError(t, slow.Set(ctx, "k", "v"))

	value, err := r.Get(ctx, tierstore.Reach("broken", "slow"), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestResolverWithExtendsWithoutMutating(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	base := tierstore.NewResolver(nil, fast)

	extra := tierstore.NewMemoryTier("extra")
	extended := base.With(extra)

	assert.Len(t, base.Tiers(), 1)
	require.Len(t, extended.Tiers(), 2)
	assert.Equal(t, "extra", extended.Tiers()[1].Name(), "request-scoped tier is lowest priority")

	ctx := context.Background()
	require.NoError(t, extra.Set(ctx, "k", "v"))

	value, err := extended.Get(ctx, tierstore.Reach("extra"), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	_, err = base.Get(ctx, tierstore.Reach("extra"), "k")
	assert.ErrorIs(t, err, tierstore.ErrNoValue)
}

func TestResolverIdempotentSet(t *testing.T) {
	fast := tierstore.NewMemoryTier("fast")
	r := tierstore.NewResolver(nil, fast)

	ctx := context.Background()
	ec := tierstore.ReachAll(fast)

	require.NoError(t, r.Set(ctx, ec, "k", "v"))
	require.NoError(t, r.Set(ctx, ec, "k", "v"))

	value, err := r.Get(ctx, ec, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}
