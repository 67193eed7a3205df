package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry wraps a cached value with the time it should expire, so the
// LRU's own eviction (by recency) and our TTL (by age) work together
// instead of one overriding the other.
type entry[V any] struct {
	value   V
	expires time.Time
}

// LRU is a fixed-size, TTL-bounded in-process cache — the L1 tier in
// front of the teacher's Redis-backed L2 (`redis.go`). Adapted from the
// teacher's `internal/cache.Cache` Get/Set/Delete surface, but backed
// by `hashicorp/golang-lru/v2` instead of Redis so hot POI-query and
// route lookups never leave the process.
type LRU[V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[string, entry[V]]
	ttl time.Duration
}

// NewLRU builds a size-bounded, TTL-bounded L1 cache. size and ttl come
// from the unified cache policy (10,000 entries / 1h, per the Cache
// section's Open-question decision).
func NewLRU[V any](size int, ttl time.Duration) (*LRU[V], error) {
	inner, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &LRU[V]{lru: inner, ttl: ttl}, nil
}

// Get returns the cached value and true if present and not expired. An
// expired entry is evicted on read rather than left for a background
// sweep — this cache has no janitor goroutine.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expires) {
		c.lru.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the cache's configured TTL.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry[V]{value: value, expires: time.Now().Add(c.ttl)})
}

// Remove evicts key if present.
func (c *LRU[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Len reports the current number of entries, including any not yet
// lazily expired.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
