package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/wayfarer-ai/planner/internal/cache"
)

// RedisLimiter enforces the same per-client request budget as Limiter
// but through a shared Redis counter, so every planner-server replica
// behind a load balancer counts against one limit instead of each
// replica granting its own burst. Wraps cache.CacheManager.RateLimitCheck
// rather than reimplementing the counter/window logic.
type RedisLimiter struct {
	cache  *cache.CacheManager
	max    int64
	window time.Duration
}

// NewRedis builds a RedisLimiter allowing max requests per window per
// client, same RATE_LIMIT_MAX/RATE_LIMIT_WINDOW knobs as New.
func NewRedis(cm *cache.CacheManager, max int, window time.Duration) *RedisLimiter {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{cache: cm, max: int64(max), window: window}
}

// Allow reports whether clientKey is still within its window budget.
// A Redis error fails open — a rate limiter that's down must not take
// the whole API down with it — and is logged rather than surfaced.
func (r *RedisLimiter) Allow(ctx context.Context, clientKey string) bool {
	ok, err := r.cache.RateLimitCheck(ctx, clientKey, r.max, r.window)
	if err != nil {
		log.Printf("ratelimit: redis check failed, allowing request: %v", err)
		return true
	}
	return ok
}
