// Package ratelimit throttles per-client request volume ahead of the
// orchestrator, generalized from the teacher's IP-keyed HTTP rate
// limiter (internal/middleware/security.go's RateLimiter) to key on
// whatever client identifier the caller presents — a bearer token, a
// session ID, or (absent both) the remote IP.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Allower is satisfied by both Limiter (in-process, per-replica) and
// RedisLimiter (shared counter across replicas); Middleware wraps
// whichever one main.go wires in for the deployment.
type Allower interface {
	Allow(ctx context.Context, clientKey string) bool
}

// Limiter tracks one token-bucket limiter per client identifier. The
// bucket refills at rate and holds up to burst tokens, mirroring the
// teacher's rate.NewLimiter(rl.rate, rl.burst) construction.
type Limiter struct {
	mu       sync.Mutex
	clients  map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	cleanup  time.Duration
	lastSeen map[string]time.Time
}

// New builds a Limiter allowing max requests per window per client,
// per RATE_LIMIT_MAX/RATE_LIMIT_WINDOW. max also sets the burst
// size, so a client can spend its whole window's allowance in one
// instant rather than being forced to trickle requests evenly.
func New(max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	perSecond := rate.Limit(float64(max) / window.Seconds())

	l := &Limiter{
		clients:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     perSecond,
		burst:    max,
		cleanup:  window * 10,
	}
	go l.sweep()
	return l
}

// Allow reports whether the request identified by clientKey should
// proceed. A new client gets a fresh bucket starting full. ctx is
// unused here — the in-process bucket never blocks on I/O — and is
// only part of the signature to satisfy Allower alongside RedisLimiter.
func (l *Limiter) Allow(ctx context.Context, clientKey string) bool {
	l.mu.Lock()
	limiter, ok := l.clients[clientKey]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.clients[clientKey] = limiter
	}
	l.lastSeen[clientKey] = time.Now()
	l.mu.Unlock()

	return limiter.Allow()
}

// sweep periodically drops clients that have been quiet for a full
// cleanup window, so a long-running process doesn't accumulate one
// limiter per distinct client forever.
func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-l.cleanup)
		l.mu.Lock()
		for key, seen := range l.lastSeen {
			if seen.Before(cutoff) {
				delete(l.clients, key)
				delete(l.lastSeen, key)
			}
		}
		l.mu.Unlock()
	}
}
