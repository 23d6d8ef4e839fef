package tierstore

import (
	"context"
	"sync"
)

// MemoryTier is the fast-volatile tier: an in-process map guarded by a
// RWMutex. Contents do not survive a restart, which is fine; anything stored
// here is also written through to the slower tiers.
type MemoryTier struct {
	name string

	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryTier creates an empty in-process tier.
func NewMemoryTier(name string) *MemoryTier {
	return &MemoryTier{
		name:   name,
		values: make(map[string]string),
	}
}

func (t *MemoryTier) Name() string { return t.name }

func (t *MemoryTier) Get(ctx context.Context, key string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	value, ok := t.values[key]
	if !ok || value == "" {
		return "", ErrNoValue
	}
	return value, nil
}

func (t *MemoryTier) Set(ctx context.Context, key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.values[key] = value
	return nil
}

func (t *MemoryTier) Clear(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.values, key)
	return nil
}
