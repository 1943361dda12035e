package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCounterStore implements CounterStore on Redis so rate limits stay
// globally consistent across instances.
type RedisCounterStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisCounterStore creates a Redis-backed counter store
func NewRedisCounterStore(client *redis.Client, prefix string) *RedisCounterStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisCounterStore{redis: client, prefix: prefix}
}

// Incr implements CounterStore. INCR and EXPIRE run in one pipeline; the
// expiry only needs setting on the first hit of a window, but NX keeps the
// pipeline a single round trip without a race.
func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	redisKey := fmt.Sprintf("%s:%s", s.prefix, key)

	pipe := s.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)
	ttl := pipe.TTL(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redis counter: %w", err)
	}

	resetIn := ttl.Val()
	if resetIn < 0 {
		resetIn = window
	}
	return incr.Val(), resetIn, nil
}

// Reset clears the counter for a key (tests and admin tooling)
func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	return s.redis.Del(ctx, fmt.Sprintf("%s:%s", s.prefix, key)).Err()
}
