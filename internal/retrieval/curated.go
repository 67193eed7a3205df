package retrieval

import (
	"context"
	"strings"

	"github.com/wayfarer-ai/planner/internal/models"
)

// CuratedProvider answers POI searches from an in-process, city-keyed
// dataset, adapted from the document-store lookup pattern in
// internal/rag/document_loader.go — here the "documents" are POI
// records instead of travel-guide text, and lookup is by exact city key
// rather than vector similarity.
type CuratedProvider struct {
	byCity map[string][]*models.POI
}

// NewCuratedProvider builds a provider over the given dataset, keyed by
// lowercased city name.
func NewCuratedProvider(dataset map[string][]*models.POI) *CuratedProvider {
	p := &CuratedProvider{byCity: make(map[string][]*models.POI, len(dataset))}
	for city, pois := range dataset {
		p.byCity[normalizeCity(city)] = pois
	}
	return p
}

// NewDefaultCuratedProvider builds a provider over the bundled seed
// dataset (§4.4 "Curated local dataset keyed by city").
func NewDefaultCuratedProvider() *CuratedProvider {
	return NewCuratedProvider(seedDataset())
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

func (p *CuratedProvider) Name() string       { return "curated-dataset" }
func (p *CuratedProvider) Variant() Variant    { return VariantCurated }

func (p *CuratedProvider) PoiSearch(_ context.Context, req PoiSearchRequest) ([]*models.POI, error) {
	pois, ok := p.byCity[normalizeCity(req.City)]
	if !ok {
		return nil, nil
	}
	if req.Limit > 0 && len(pois) > req.Limit {
		return pois[:req.Limit], nil
	}
	return pois, nil
}

func (p *CuratedProvider) RouteBetween(context.Context, *models.POI, *models.POI, models.TransportMode) (RouteResult, error) {
	return RouteResult{}, ErrUnsupported
}

func (p *CuratedProvider) Generate(context.Context, string) (string, error) {
	return "", ErrUnsupported
}

// seedDataset is a small hand-curated set covering the acceptance
// scenario's city. Every attribute here is tagged "curated" rather than
// "verified" — nothing here has been checked against a live source.
func seedDataset() map[string][]*models.POI {
	curated := func(attrs ...string) map[string]models.FactSource {
		m := make(map[string]models.FactSource, len(attrs))
		for _, a := range attrs {
			m[a] = models.SourceCurated
		}
		return m
	}

	return map[string][]*models.POI{
		"beijing": {
			{ID: "bj-forbidden-city", Name: "Forbidden City", City: "Beijing", Lat: 39.9163, Lon: 116.3972,
				Themes: []string{"history"}, TypicalDurationHrs: 3, Cost: 12, TicketPrice: 12,
				IndoorFlag: false, ClosedRules: "mon", OpenHours: "08:30-17:00",
				Description: "Imperial palace complex at the heart of old Beijing.",
				Popularity:  0.95, FactSources: curated("name", "location", "open_hours", "ticket_price", "duration", "closed_rules")},
			{ID: "bj-tiananmen", Name: "Tiananmen Square", City: "Beijing", Lat: 39.9055, Lon: 116.3976,
				Themes: []string{"history"}, TypicalDurationHrs: 1, Cost: 0, TicketPrice: 0,
				IndoorFlag: false, OpenHours: "05:00-22:00",
				Popularity: 0.85, FactSources: curated("name", "location", "open_hours", "ticket_price", "duration")},
			{ID: "bj-temple-heaven", Name: "Temple of Heaven", City: "Beijing", Lat: 39.8822, Lon: 116.4066,
				Themes: []string{"history"}, TypicalDurationHrs: 2, Cost: 8, TicketPrice: 8,
				IndoorFlag: false, ClosedRules: "", OpenHours: "06:00-21:00",
				Popularity: 0.8, FactSources: curated("name", "location", "open_hours", "ticket_price", "duration")},
			{ID: "bj-summer-palace", Name: "Summer Palace", City: "Beijing", Lat: 39.9999, Lon: 116.2755,
				Themes: []string{"history", "nature"}, TypicalDurationHrs: 3, Cost: 10, TicketPrice: 10,
				IndoorFlag: false, OpenHours: "06:30-18:00",
				Popularity: 0.85, FactSources: curated("name", "location", "open_hours", "ticket_price", "duration")},
			{ID: "bj-798", Name: "798 Art District", City: "Beijing", Lat: 39.9843, Lon: 116.4957,
				Themes: []string{"art"}, TypicalDurationHrs: 2, Cost: 0, TicketPrice: 0,
				IndoorFlag: true, OpenHours: "10:00-18:00",
				Popularity: 0.6, FactSources: curated("name", "location", "open_hours", "ticket_price", "duration")},
			{ID: "bj-wangfujing", Name: "Wangfujing Snack Street", City: "Beijing", Lat: 39.9139, Lon: 116.4109,
				Themes: []string{"food"}, TypicalDurationHrs: 1, Cost: 15, TicketPrice: 0,
				IndoorFlag: true, OpenHours: "10:00-22:00",
				Popularity: 0.7, FactSources: curated("name", "location", "open_hours", "ticket_price", "duration")},
			{ID: "bj-houhai", Name: "Houhai Lake", City: "Beijing", Lat: 39.9400, Lon: 116.3858,
				Themes: []string{"food", "nature"}, TypicalDurationHrs: 2, Cost: 20, TicketPrice: 0,
				IndoorFlag: false, OpenHours: "00:00-23:59",
				Popularity: 0.65, FactSources: curated("name", "location", "open_hours", "ticket_price", "duration")},
			{ID: "bj-national-museum", Name: "National Museum of China", City: "Beijing", Lat: 39.9046, Lon: 116.3978,
				Themes: []string{"history", "art"}, TypicalDurationHrs: 2.5, Cost: 0, TicketPrice: 0,
				IndoorFlag: true, ClosedRules: "mon", OpenHours: "09:00-17:00",
				Popularity: 0.75, FactSources: curated("name", "location", "open_hours", "ticket_price", "duration", "closed_rules")},
		},
	}
}
