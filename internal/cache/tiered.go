package cache

import (
	"context"
	"encoding/json"
	"time"
)

// RouteEntry is the payload a Tiered[RouteEntry] stores for a RouteBetween
// lookup — just the two fields callers actually need back out.
type RouteEntry struct {
	TravelMinutes     int
	RoutingConfidence float64
}

// Tiered combines the in-process LRU (L1) with the Redis-backed Cache (L2)
// behind one typed lookup surface. A miss on L1 falls through to L2 and,
// on an L2 hit, backfills L1 so the next lookup for the same key never
// leaves the process. Values cross the L1/L2 boundary JSON-encoded since
// L2 only knows how to store bytes.
type Tiered[V any] struct {
	l1     *LRU[V]
	l2     *Cache
	prefix string
	l2ttl  time.Duration
}

// NewTiered builds a combined L1/L2 lookup for one cache-key prefix (e.g.
// POIQueryPrefix or RoutePrefix). l2 may be nil, in which case the cache
// runs L1-only — useful for tests and for deployments with no Redis.
func NewTiered[V any](l1 *LRU[V], l2 *Cache, prefix string, l2ttl time.Duration) *Tiered[V] {
	return &Tiered[V]{l1: l1, l2: l2, prefix: prefix, l2ttl: l2ttl}
}

// Get checks L1, then L2, backfilling L1 on an L2 hit. It reports false
// only when neither tier has the key (or the entry is expired in both).
func (t *Tiered[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	fullKey := CacheKey(t.prefix, key)

	if v, ok := t.l1.Get(fullKey); ok {
		return v, true
	}

	if t.l2 == nil {
		return zero, false
	}

	var raw json.RawMessage
	if err := t.l2.Get(ctx, fullKey, &raw); err != nil {
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}

	t.l1.Set(fullKey, v)
	return v, true
}

// Set writes through both tiers. An L2 write failure is non-fatal — the
// value still lands in L1, and a future miss just costs a provider call
// instead of returning stale or inconsistent data.
func (t *Tiered[V]) Set(ctx context.Context, key string, value V) error {
	fullKey := CacheKey(t.prefix, key)
	t.l1.Set(fullKey, value)

	if t.l2 == nil {
		return nil
	}
	return t.l2.Set(ctx, fullKey, value, t.l2ttl)
}

// Invalidate removes key from both tiers.
func (t *Tiered[V]) Invalidate(ctx context.Context, key string) error {
	fullKey := CacheKey(t.prefix, key)
	t.l1.Remove(fullKey)
	if t.l2 == nil {
		return nil
	}
	return t.l2.Delete(ctx, fullKey)
}
