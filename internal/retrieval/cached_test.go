package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner/internal/models"
)

// countingProvider records how many times each method was called, so
// tests can assert the cache actually avoided a second call.
type countingProvider struct {
	poiCalls   int
	routeCalls int
	pois       []*models.POI
	route      RouteResult
}

func (p *countingProvider) Name() string    { return "counting" }
func (p *countingProvider) Variant() Variant { return VariantFixture }

func (p *countingProvider) PoiSearch(ctx context.Context, req PoiSearchRequest) ([]*models.POI, error) {
	p.poiCalls++
	return p.pois, nil
}

func (p *countingProvider) RouteBetween(ctx context.Context, from, to *models.POI, mode models.TransportMode) (RouteResult, error) {
	p.routeCalls++
	return p.route, nil
}

func (p *countingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func TestCachedProvider_PoiSearchHitsCacheOnSecondCall(t *testing.T) {
	inner := &countingProvider{pois: []*models.POI{{ID: "p1", Name: "Temple"}}}
	cached, err := WrapWithCache(inner, nil)
	require.NoError(t, err)

	ctx := context.Background()
	req := PoiSearchRequest{City: "Beijing", Themes: []string{"history"}, Limit: 5}

	first, err := cached.PoiSearch(ctx, req)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := cached.PoiSearch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.poiCalls, "second identical search must be served from cache")
}

func TestCachedProvider_DifferentQueriesDoNotShareCacheEntries(t *testing.T) {
	inner := &countingProvider{pois: []*models.POI{{ID: "p1"}}}
	cached, err := WrapWithCache(inner, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cached.PoiSearch(ctx, PoiSearchRequest{City: "Beijing", Limit: 5})
	require.NoError(t, err)
	_, err = cached.PoiSearch(ctx, PoiSearchRequest{City: "Shanghai", Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.poiCalls)
}

func TestCachedProvider_RouteBetweenCached(t *testing.T) {
	inner := &countingProvider{route: RouteResult{TravelMinutes: 12, RoutingConfidence: 1.0}}
	cached, err := WrapWithCache(inner, nil)
	require.NoError(t, err)

	ctx := context.Background()
	from := &models.POI{ID: "a"}
	to := &models.POI{ID: "b"}

	r1, err := cached.RouteBetween(ctx, from, to, models.TransportPublicTransit)
	require.NoError(t, err)
	r2, err := cached.RouteBetween(ctx, from, to, models.TransportPublicTransit)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.routeCalls)
}
