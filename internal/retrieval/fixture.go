package retrieval

import (
	"context"
	"fmt"

	"github.com/wayfarer-ai/planner/internal/models"
)

// FixtureProvider is a deterministic stand-in used when no real map key
// is configured and strict mode is off; it never reaches the network.
// Results always carry routing_confidence 0.5 per §4.5 Phase 2.
type FixtureProvider struct{}

// NewFixtureProvider builds a FixtureProvider.
func NewFixtureProvider() *FixtureProvider { return &FixtureProvider{} }

func (p *FixtureProvider) Name() string    { return "fixture" }
func (p *FixtureProvider) Variant() Variant { return VariantFixture }

func (p *FixtureProvider) PoiSearch(_ context.Context, req PoiSearchRequest) ([]*models.POI, error) {
	out := make([]*models.POI, 0, req.Limit)
	for i := 0; i < req.Limit; i++ {
		out = append(out, &models.POI{
			ID:                 fmt.Sprintf("fixture-%s-%d", normalizeCity(req.City), i),
			Name:               fmt.Sprintf("%s Landmark %d", req.City, i+1),
			City:               req.City,
			Lat:                39.9 + float64(i)*0.01,
			Lon:                116.4 + float64(i)*0.01,
			Themes:             req.Themes,
			TypicalDurationHrs: 1.5,
			TicketPrice:        5,
			OpenHours:          "09:00-18:00",
			Popularity:         0.3,
			FactSources: map[string]models.FactSource{
				"name": models.SourceFallback, "location": models.SourceFallback,
				"open_hours": models.SourceFallback, "ticket_price": models.SourceFallback,
				"duration": models.SourceFallback,
			},
		})
	}
	return out, nil
}

func (p *FixtureProvider) RouteBetween(_ context.Context, from, to *models.POI, mode models.TransportMode) (RouteResult, error) {
	return RouteResult{TravelMinutes: 20, RoutingConfidence: 0.5}, nil
}

func (p *FixtureProvider) Generate(_ context.Context, prompt string) (string, error) {
	return "[]", nil
}
