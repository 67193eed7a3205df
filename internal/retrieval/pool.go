package retrieval

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wayfarer-ai/planner/internal/models"
)

var tracer = otel.Tracer("retrieval.pool")

// maxParallelCalls bounds the Retriever's fan-out to external providers
// in a single BuildPool call, per the Design Notes' "parallel fan-out of
// up to 4 external calls" guidance — each theme gets its own call, but
// no more than this many run concurrently.
const maxParallelCalls = 4

// Sources bundles whichever providers are wired in for this request;
// Map and LLM may be nil when no key/provider is configured.
type Sources struct {
	Curated Provider
	Map     Provider // nil if no map API key configured
	LLM     Provider // nil if no LLM configured
}

// Options carries the request-level knobs BuildPool needs beyond the
// providers themselves.
type Options struct {
	Constraints        *models.TripConstraints
	Profile            *models.UserProfile
	StrictExternalData bool
}

// Result is everything BuildPool hands back to the orchestrator: the
// ranked, size-capped arena plus the provenance signals Trust needs.
type Result struct {
	Arena             *models.Arena
	RoutingConfidence float64
	UsedMapProvider   bool
	UsedLLMFallback   bool
	RealtimeProviders bool
}

// BuildPool assembles the candidate pool per §4.4: curated dataset
// first, then the map provider, then an LLM fallback if still short of
// min_pool, fused, must-visit/avoid-adjusted, ranked, and capped to the
// pace-scaled pool size.
func BuildPool(ctx context.Context, sources Sources, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "retrieval.build_pool")
	defer span.End()

	c := opts.Constraints
	poolSize := int(math.Ceil(float64(c.Days) * c.PaceMultiplier() * 1.5))
	minPool := 2 * c.Days
	span.SetAttributes(attribute.Int("pool_size_target", poolSize), attribute.Int("min_pool", minPool))

	var batches [][]*models.POI
	realtimeProviders := true

	if sources.Curated != nil {
		curated, err := sources.Curated.PoiSearch(ctx, PoiSearchRequest{City: c.City, Themes: themesOf(opts.Profile), Limit: poolSize})
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("retrieval: %w", ctx.Err())
			}
			span.RecordError(err)
		} else {
			batches = append(batches, curated)
		}
	}

	usedMap := false
	if countAll(batches) < poolSize {
		if sources.Map == nil {
			if opts.StrictExternalData {
				return nil, fmt.Errorf("retrieval: %w", ErrProviderUnavailable)
			}
			realtimeProviders = false
		} else {
			mapResults, err := fanOutThemes(ctx, sources.Map, c.City, themesOf(opts.Profile), poolSize)
			if err != nil {
				// A genuinely expired request deadline is not a
				// "degrade and continue" situation even under relaxed
				// StrictExternalData — there's no time left for the LLM
				// fallback either.
				if ctx.Err() == context.DeadlineExceeded {
					return nil, fmt.Errorf("retrieval: %w", ctx.Err())
				}
				if opts.StrictExternalData {
					return nil, fmt.Errorf("retrieval: %w", err)
				}
				realtimeProviders = false
			} else {
				batches = append(batches, mapResults)
				usedMap = true
			}
		}
	}

	usedLLM := false
	if countAll(batches) < minPool && sources.LLM != nil {
		llmResults, err := sources.LLM.PoiSearch(ctx, PoiSearchRequest{City: c.City, Themes: themesOf(opts.Profile), Limit: minPool - countAll(batches)})
		if err != nil && ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("retrieval: %w", ctx.Err())
		}
		if err == nil && len(llmResults) > 0 {
			batches = append(batches, llmResults)
			usedLLM = true
			realtimeProviders = false
		}
	}

	fused := fuse(batches...)
	fused = applyAvoidAndMustVisit(fused, c.Avoid, c.MustVisit)
	fused = rank(fused, opts.Profile, c.DailyBudget)

	if len(fused) > poolSize {
		pinned, rest := splitPinnedPOIs(fused)
		keep := poolSize - len(pinned)
		if keep < 0 {
			keep = 0
		}
		if keep < len(rest) {
			rest = rest[:keep]
		}
		fused = append(pinned, rest...)
	}

	routingConfidence := 1.0
	if !usedMap {
		routingConfidence = 0.5
	}

	span.SetAttributes(
		attribute.Int("fused.count", len(fused)),
		attribute.Bool("used_map", usedMap),
		attribute.Bool("used_llm_fallback", usedLLM),
	)

	return &Result{
		Arena:             models.NewArena(fused),
		RoutingConfidence: routingConfidence,
		UsedMapProvider:   usedMap,
		UsedLLMFallback:   usedLLM,
		RealtimeProviders: realtimeProviders,
	}, nil
}

func themesOf(profile *models.UserProfile) []string {
	if profile == nil {
		return nil
	}
	return profile.Themes
}

func countAll(batches [][]*models.POI) int {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	return n
}

func splitPinnedPOIs(pois []*models.POI) (pinned, rest []*models.POI) {
	for _, p := range pois {
		if p.Pinned {
			pinned = append(pinned, p)
		} else {
			rest = append(rest, p)
		}
	}
	return pinned, rest
}

// fanOutThemes runs one PoiSearch per theme concurrently (bounded by
// maxParallelCalls) and concatenates the results, so a multi-theme
// request doesn't pay the map provider's latency serially.
func fanOutThemes(ctx context.Context, provider Provider, city string, themes []string, limit int) ([]*models.POI, error) {
	if len(themes) == 0 {
		themes = []string{""}
	}

	sem := make(chan struct{}, maxParallelCalls)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var all []*models.POI
	var firstErr error

	for _, theme := range themes {
		theme := theme
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := provider.PoiSearch(ctx, PoiSearchRequest{City: city, Themes: []string{theme}, Limit: limit})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			all = append(all, res...)
		}()
	}
	wg.Wait()

	if len(all) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}
