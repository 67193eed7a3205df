package retrieval

import (
	"time"

	"github.com/wayfarer-ai/planner/internal/cache"
)

// poiCacheSize/routeCacheSize bound the L1 tier; cacheTTL applies to
// both caches in both tiers (the unified 10,000-entry / 1h policy).
const (
	poiCacheSize = 10_000
	routeCacheSize = 10_000
	cacheTTL = time.Hour
)

// WrapWithCache builds the L1/L2 tiered caches for POI-search and routing
// lookups and wraps provider with them. redisCache may be nil (L1-only,
// e.g. in tests or a no-Redis deployment).
func WrapWithCache(provider Provider, redisCache *cache.Cache) (*CachedProvider, error) {
	l1Pois, err := cache.NewLRU[poiBatch](poiCacheSize, cacheTTL)
	if err != nil {
		return nil, err
	}
	l1Routes, err := cache.NewLRU[cache.RouteEntry](routeCacheSize, cacheTTL)
	if err != nil {
		return nil, err
	}

	pois := cache.NewTiered[poiBatch](l1Pois, redisCache, cache.POIQueryPrefix, cacheTTL)
	routes := cache.NewTiered[cache.RouteEntry](l1Routes, redisCache, cache.RoutePrefix, cacheTTL)

	return NewCachedProvider(provider, pois, routes), nil
}
