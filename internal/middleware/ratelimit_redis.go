// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore backed by Redis, so limits
// are shared across API instances. It uses a fixed window counter: INCR on a
// per-key counter with an expiry set to the window duration on first hit.
//
// The store fails open: if Redis is unreachable, requests are allowed and the
// error is counted so an outage degrades to per-instance limiting instead of
// blocking all traffic.
type RedisRateLimitStore struct {
	client  *redis.Client
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// WithMetrics attaches middleware metrics for fail-open error counting.
func (s *RedisRateLimitStore) WithMetrics(metrics *Metrics) *RedisRateLimitStore {
	s.metrics = metrics
	return s
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX so only the first request in a window sets the expiry; later INCRs
	// must not extend the window.
	pipe.ExpireNX(ctx, key, config.WindowDuration)

	if _, err := pipe.Exec(ctx); err != nil {
		s.failOpen(ctx, err)
		return true, config.RequestsPerWindow - 1, 0
	}

	count := int(incr.Val())
	if count <= config.RequestsPerWindow {
		return true, config.RequestsPerWindow - count, 0
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		if err != nil {
			s.failOpen(ctx, err)
		}
		return false, 0, int(config.WindowDuration.Seconds())
	}

	retryAfter := int(ttl.Round(time.Second).Seconds())
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, 0, retryAfter
}

func (s *RedisRateLimitStore) failOpen(ctx context.Context, err error) {
	slog.WarnContext(ctx, "redis rate limit check failed, allowing request", "error", err)
	if s.metrics != nil {
		s.metrics.IncRateLimitRedisErrors()
	}
}
