package tierstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier is the durable tier: values live in redis under a key prefix
// with a TTL, surviving process restarts and shared across instances.
type RedisTier struct {
	name   string
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisTier wraps a redis client as a tier. The TTL bounds how long an
// orphaned entry can linger; it should comfortably exceed the refresh token
// lifetime so the tier never expires a pair that is still refreshable.
func NewRedisTier(name string, client redis.UniversalClient, prefix string, ttl time.Duration) *RedisTier {
	if prefix == "" {
		prefix = "tier"
	}
	return &RedisTier{name: name, client: client, prefix: prefix, ttl: ttl}
}

func (t *RedisTier) Name() string { return t.name }

func (t *RedisTier) key(key string) string {
	return t.prefix + ":" + key
}

func (t *RedisTier) Get(ctx context.Context, key string) (string, error) {
	value, err := t.client.Get(ctx, t.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoValue
		}
		return "", err
	}
	if value == "" {
		return "", ErrNoValue
	}
	return value, nil
}

func (t *RedisTier) Set(ctx context.Context, key, value string) error {
	return t.client.Set(ctx, t.key(key), value, t.ttl).Err()
}

func (t *RedisTier) Clear(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.key(key)).Err()
}
