package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	gmaps "googlemaps.github.io/maps"

	"github.com/wayfarer-ai/planner/internal/models"
)

// MapRealProvider searches and routes against the live Google Maps API,
// grounded on the client wrapper in
// va6996-travelingman/plugins/googlemaps/client.go — generalized here
// from place-autocomplete/geocoding to text search and distance-matrix
// routing.
type MapRealProvider struct {
	client *gmaps.Client
	tracer trace.Tracer
}

// NewMapRealProvider constructs a provider backed by a live Maps client.
func NewMapRealProvider(apiKey string) (*MapRealProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no map provider API key configured", ErrProviderUnavailable)
	}
	c, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return &MapRealProvider{client: c, tracer: otel.Tracer("retrieval.mapreal")}, nil
}

func (p *MapRealProvider) Name() string    { return "google-maps" }
func (p *MapRealProvider) Variant() Variant { return VariantMapReal }

func (p *MapRealProvider) PoiSearch(ctx context.Context, req PoiSearchRequest) ([]*models.POI, error) {
	ctx, span := p.tracer.Start(ctx, "mapreal.poi_search")
	defer span.End()
	span.SetAttributes(attribute.String("city", req.City), attribute.StringSlice("themes", req.Themes))

	query := fmt.Sprintf("%s in %s", strings.Join(req.Themes, " "), req.City)
	resp, err := p.client.TextSearch(ctx, &gmaps.TextSearchRequest{Query: query})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: text search failed: %v", ErrProviderUnavailable, err)
	}

	out := make([]*models.POI, 0, len(resp.Results))
	for _, r := range resp.Results {
		if req.Limit > 0 && len(out) >= req.Limit {
			break
		}
		out = append(out, &models.POI{
			ID:          "map-" + uuid.NewString(),
			Name:        r.Name,
			City:        req.City,
			Lat:         r.Geometry.Location.Lat,
			Lon:         r.Geometry.Location.Lng,
			Themes:      req.Themes,
			Popularity:  float64(r.Rating) / 5.0,
			Description: r.FormattedAddress,
			FactSources: map[string]models.FactSource{
				"name":     models.SourceVerified,
				"location": models.SourceVerified,
			},
		})
	}
	span.SetAttributes(attribute.Int("results.count", len(out)))
	return out, nil
}

var modeToGMaps = map[models.TransportMode]gmaps.Mode{
	models.TransportWalking:       gmaps.TravelModeWalking,
	models.TransportPublicTransit: gmaps.TravelModeTransit,
	models.TransportTaxi:          gmaps.TravelModeDriving,
	models.TransportDriving:       gmaps.TravelModeDriving,
}

func (p *MapRealProvider) RouteBetween(ctx context.Context, from, to *models.POI, mode models.TransportMode) (RouteResult, error) {
	ctx, span := p.tracer.Start(ctx, "mapreal.route_between")
	defer span.End()

	gmode, ok := modeToGMaps[mode]
	if !ok {
		gmode = gmaps.TravelModeWalking
	}

	resp, err := p.client.DistanceMatrix(ctx, &gmaps.DistanceMatrixRequest{
		Origins:      []string{latLngString(from)},
		Destinations: []string{latLngString(to)},
		Mode:         gmode,
	})
	if err != nil {
		span.RecordError(err)
		return RouteResult{}, fmt.Errorf("%w: distance matrix failed: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return RouteResult{}, fmt.Errorf("%w: empty distance matrix response", ErrProviderUnavailable)
	}

	el := resp.Rows[0].Elements[0]
	minutes := int(el.Duration.Minutes())
	return RouteResult{TravelMinutes: minutes, RoutingConfidence: 1.0}, nil
}

func latLngString(p *models.POI) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

func (p *MapRealProvider) Generate(context.Context, string) (string, error) {
	return "", ErrUnsupported
}
