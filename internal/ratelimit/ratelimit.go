// Package ratelimit implements fixed-window admission control backed by an
// expiring key-value cache. The cache's own TTL expiry performs the window
// rollover; there is no explicit reset logic.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the expiring counter the limiter runs on. Incr creates the key
// at 1 when absent; Expire arms the TTL that resets the window.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Limiter is a per-key fixed-window request counter.
type Limiter struct {
	counter Counter
	prefix  string
}

// New creates a limiter on the given counter store. The prefix namespaces
// limiter keys within a shared cache.
func New(counter Counter, prefix string) *Limiter {
	return &Limiter{counter: counter, prefix: prefix}
}

// Allow reports whether the request identified by key is admitted under the
// given limit and window. The first call in a window creates the counter with
// TTL = window; the call that would exceed the limit is itself rejected.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := l.prefix + ":" + key

	count, err := l.counter.Incr(ctx, fullKey)
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	// Arm the TTL only on the first hit of a window so a steady stream of
	// requests cannot keep the window alive forever.
	if count == 1 {
		if err := l.counter.Expire(ctx, fullKey, window); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// RedisCounter adapts a go-redis client to the Counter interface.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps the given Redis client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

func (c *RedisCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}
