// Package retrieval produces the ranked POI candidate pool Retriever
// hands to the Scheduler (§4.4). It defines a small provider interface
// with four concrete variants — curated, mapreal, llm, fixture — in
// place of the teacher's LLMProvider dynamic dispatch, generalized to
// cover POI search and routing as well as generation.
package retrieval

import (
	"context"
	"errors"

	"github.com/wayfarer-ai/planner/internal/models"
)

// ErrProviderUnavailable is returned when a required external provider
// could not be reached; under strict mode the caller must treat this as
// fatal rather than degrading to the next source (§4.4 "Strict mode").
var ErrProviderUnavailable = errors.New("provider_unavailable")

// ErrUnsupported is returned by a provider for an operation its variant
// does not implement (e.g. the curated provider has no RouteBetween).
var ErrUnsupported = errors.New("operation not supported by this provider")

// Variant names the four provider flavors a Factory can construct.
type Variant string

const (
	VariantCurated Variant = "curated"
	VariantMapReal Variant = "mapreal"
	VariantLLM     Variant = "llm"
	VariantFixture Variant = "fixture"
)

// PoiSearchRequest parametrizes a POI search call.
type PoiSearchRequest struct {
	City   string
	Themes []string
	Limit  int
}

// RouteResult is the outcome of a RouteBetween call. RoutingConfidence
// is downgraded to 0.5 whenever the result came from a fixture rather
// than a live routing provider (§4.5 Phase 2).
type RouteResult struct {
	TravelMinutes     int
	RoutingConfidence float64
}

// Provider is the capability surface every retrieval source implements
// a subset of. A source that doesn't support an operation returns
// ErrUnsupported rather than being force-fit into an interface it only
// partially satisfies.
type Provider interface {
	Name() string
	Variant() Variant
	PoiSearch(ctx context.Context, req PoiSearchRequest) ([]*models.POI, error)
	RouteBetween(ctx context.Context, from, to *models.POI, mode models.TransportMode) (RouteResult, error)
	Generate(ctx context.Context, prompt string) (string, error)
}
