package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-ai/planner/internal/llm/providers"
	"github.com/wayfarer-ai/planner/internal/models"
)

// LLMProvider is the §4.4 step-3 fallback: when curated and map sources
// together yield fewer than min_pool candidates, ask the configured LLM
// for POIs directly. Every POI it produces is tagged heuristic — it is
// asserted, not observed.
type LLMProvider struct {
	inner  providers.LLMProvider
	tracer trace.Tracer
}

// NewLLMProvider wraps an already-constructed teacher-style LLMProvider.
func NewLLMProvider(inner providers.LLMProvider) *LLMProvider {
	return &LLMProvider{inner: inner, tracer: otel.Tracer("retrieval.llm")}
}

func (p *LLMProvider) Name() string    { return p.inner.GetName() }
func (p *LLMProvider) Variant() Variant { return VariantLLM }

type llmPOI struct {
	Name               string   `json:"name"`
	Lat                float64  `json:"lat"`
	Lon                float64  `json:"lon"`
	Themes             []string `json:"themes"`
	TypicalDurationHrs float64  `json:"typical_duration_hours"`
	TicketPrice        float64  `json:"ticket_price"`
	OpenHours          string   `json:"open_hours"`
}

func (p *LLMProvider) PoiSearch(ctx context.Context, req PoiSearchRequest) ([]*models.POI, error) {
	ctx, span := p.tracer.Start(ctx, "retrieval.llm.poi_search")
	defer span.End()
	span.SetAttributes(attribute.String("city", req.City), attribute.StringSlice("themes", req.Themes))

	prompt := fmt.Sprintf(
		`List %d real points of interest in %s matching the themes [%s]. `+
			`Respond with a JSON array only, each element shaped exactly as `+
			`{"name":"","lat":0.0,"lon":0.0,"themes":[""],"typical_duration_hours":0.0,"ticket_price":0.0,"open_hours":"HH:MM-HH:MM"}.`,
		req.Limit, req.City, strings.Join(req.Themes, ", "))

	resp, err := p.inner.GenerateResponse(ctx, &providers.GenerateRequest{
		Messages: []providers.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: llm generation failed: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: llm returned no choices", ErrProviderUnavailable)
	}

	var parsed []llmPOI
	content := extractJSONArray(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("llm poi response was not valid JSON: %w", err)
	}

	out := make([]*models.POI, 0, len(parsed))
	for i, lp := range parsed {
		if req.Limit > 0 && i >= req.Limit {
			break
		}
		out = append(out, &models.POI{
			ID:                 fmt.Sprintf("llm-%s-%d", normalizeCity(req.City), i),
			Name:               lp.Name,
			City:               req.City,
			Lat:                lp.Lat,
			Lon:                lp.Lon,
			Themes:             lp.Themes,
			TypicalDurationHrs: lp.TypicalDurationHrs,
			TicketPrice:        lp.TicketPrice,
			OpenHours:          lp.OpenHours,
			Popularity:         0.4,
			FactSources: map[string]models.FactSource{
				"name": models.SourceHeuristic, "location": models.SourceHeuristic,
				"open_hours": models.SourceHeuristic, "ticket_price": models.SourceHeuristic,
				"duration": models.SourceHeuristic,
			},
		})
	}
	return out, nil
}

// extractJSONArray trims surrounding prose an LLM sometimes wraps the
// array in despite instructions, keeping only the bracketed body.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

func (p *LLMProvider) RouteBetween(context.Context, *models.POI, *models.POI, models.TransportMode) (RouteResult, error) {
	return RouteResult{}, ErrUnsupported
}

func (p *LLMProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.inner.GenerateResponse(ctx, &providers.GenerateRequest{
		Messages: []providers.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: llm returned no choices", ErrProviderUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
