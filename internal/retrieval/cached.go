package retrieval

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wayfarer-ai/planner/internal/cache"
	"github.com/wayfarer-ai/planner/internal/models"
)

var cachedTracer = otel.Tracer("retrieval.cached")

// poiBatch is what a CachedProvider stores per PoiSearch key — the raw
// slice plus nothing else, kept as a named type so the generic Tiered
// cache has something concrete to decode into.
type poiBatch struct {
	POIs []*models.POI
}

// CachedProvider wraps any Provider with cache-first PoiSearch and
// RouteBetween lookups, so a map or LLM provider's external calls are
// only paid once per distinct query within the cache's TTL. Generate is
// passed straight through uncached since intake/clarify prompts are
// rarely repeated verbatim.
type CachedProvider struct {
	inner  Provider
	pois   *cache.Tiered[poiBatch]
	routes *cache.Tiered[cache.RouteEntry]
}

// NewCachedProvider builds a caching decorator around inner, using pois
// and routes as the (already-shared) tiered caches for POI-search and
// routing lookups respectively.
func NewCachedProvider(inner Provider, pois *cache.Tiered[poiBatch], routes *cache.Tiered[cache.RouteEntry]) *CachedProvider {
	return &CachedProvider{inner: inner, pois: pois, routes: routes}
}

func (p *CachedProvider) Name() string    { return p.inner.Name() }
func (p *CachedProvider) Variant() Variant { return p.inner.Variant() }

func (p *CachedProvider) PoiSearch(ctx context.Context, req PoiSearchRequest) ([]*models.POI, error) {
	ctx, span := cachedTracer.Start(ctx, "cached.poi_search")
	defer span.End()

	key := poiSearchKey(p.inner.Name(), req)
	if batch, ok := p.pois.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return batch.POIs, nil
	}

	pois, err := p.inner.PoiSearch(ctx, req)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	_ = p.pois.Set(ctx, key, poiBatch{POIs: pois})
	return pois, nil
}

func (p *CachedProvider) RouteBetween(ctx context.Context, from, to *models.POI, mode models.TransportMode) (RouteResult, error) {
	ctx, span := cachedTracer.Start(ctx, "cached.route_between")
	defer span.End()

	key := routeKey(p.inner.Name(), from, to, mode)
	if r, ok := p.routes.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return RouteResult{TravelMinutes: r.TravelMinutes, RoutingConfidence: r.RoutingConfidence}, nil
	}

	result, err := p.inner.RouteBetween(ctx, from, to, mode)
	if err != nil {
		return RouteResult{}, err
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	_ = p.routes.Set(ctx, key, cache.RouteEntry{TravelMinutes: result.TravelMinutes, RoutingConfidence: result.RoutingConfidence})
	return result, nil
}

func (p *CachedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.inner.Generate(ctx, prompt)
}

func poiSearchKey(providerName string, req PoiSearchRequest) string {
	themes := append([]string(nil), req.Themes...)
	sortStrings(themes)
	raw := fmt.Sprintf("%s|%s|%s|%d", providerName, strings.ToLower(req.City), strings.Join(themes, ","), req.Limit)
	return hashKey(raw)
}

func routeKey(providerName string, from, to *models.POI, mode models.TransportMode) string {
	raw := fmt.Sprintf("%s|%s|%s|%s", providerName, from.ID, to.ID, mode)
	return hashKey(raw)
}

func hashKey(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// sortStrings does an in-place insertion sort — themes lists are short
// (single digits), so this avoids pulling in sort for one call site.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
