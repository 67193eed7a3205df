// Package trust tags facts by provenance and derives the per-itinerary
// confidence score and degrade level, per §4.8. Once a fact enters as
// verified no later stage may downgrade it — callers must never
// construct a POI.FactSources map from scratch after retrieval; they
// may only add attributes, never overwrite existing tiers.
package trust

import (
	"github.com/wayfarer-ai/planner/internal/models"
)

// trackedAttrs are the POI fields whose provenance feeds the confidence
// formula; anything not in FactSources counts as SourceUnknown.
var trackedAttrs = []string{"name", "location", "open_hours", "ticket_price", "duration", "closed_rules"}

// Options carries the run-level signals the formula needs beyond what's
// tagged on individual POIs.
type Options struct {
	RoutingConfidence float64 // 1.0 for a real route provider, 0.5 if it fell back to a fixture
	RealtimeProviders bool    // true only if every provider consulted this run was live, non-fixture
}

// Score is the computed trust summary for one itinerary.
type Score struct {
	VerifiedFactRatio float64
	FallbackRate      float64
	ConfidenceScore   float64
	DegradeLevel      models.DegradeLevel
}

// Evaluate scans every POI referenced by the itinerary's schedule items
// and computes the confidence score and degrade level.
func Evaluate(itinerary *models.Itinerary, arena *models.Arena, opts Options) Score {
	var verifiedOrCurated, fallback, total int

	for _, day := range itinerary.Days {
		for _, item := range day.Items {
			p, ok := arena.Get(item.POIRef)
			if !ok {
				continue
			}
			for _, attr := range trackedAttrs {
				total++
				switch p.FactSourceOf(attr) {
				case models.SourceVerified, models.SourceCurated:
					verifiedOrCurated++
				case models.SourceFallback:
					fallback++
				}
			}
		}
	}

	var verifiedRatio, fallbackRate float64
	if total > 0 {
		verifiedRatio = float64(verifiedOrCurated) / float64(total)
		fallbackRate = float64(fallback) / float64(total)
	}

	confidence := clamp(0.6*verifiedRatio+0.3*(1-fallbackRate)+0.1*opts.RoutingConfidence, 0, 1)

	return Score{
		VerifiedFactRatio: verifiedRatio,
		FallbackRate:      fallbackRate,
		ConfidenceScore:   confidence,
		DegradeLevel:      degradeLevel(confidence, opts.RealtimeProviders),
	}
}

func degradeLevel(confidence float64, realtime bool) models.DegradeLevel {
	switch {
	case realtime && confidence >= 0.85:
		return models.DegradeL0
	case confidence >= 0.7:
		return models.DegradeL1
	case confidence >= 0.5:
		return models.DegradeL2
	default:
		return models.DegradeL3
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Fingerprint assembles the auditable RunFingerprint record (§3).
func Fingerprint(runMode models.RunMode, poiProvider, routeProvider, llmProvider, envSource, traceID string, strict bool) models.RunFingerprint {
	return models.RunFingerprint{
		RunMode:            runMode,
		POIProvider:        poiProvider,
		RouteProvider:      routeProvider,
		LLMProvider:        llmProvider,
		StrictExternalData: strict,
		EnvSource:          envSource,
		TraceID:            traceID,
	}
}

// ApplyDegradeLevel elevates an itinerary's degrade level one step after
// a repair strategy consumes a rung of the ladder; it never lowers the
// level, matching the provenance-preservation rule that trust tags only
// move toward less trust, never more, once a stage has recorded them.
func ApplyDegradeLevel(current models.DegradeLevel) models.DegradeLevel {
	switch current {
	case models.DegradeL0:
		return models.DegradeL1
	case models.DegradeL1:
		return models.DegradeL2
	case models.DegradeL2, models.DegradeL3:
		return models.DegradeL3
	default:
		return models.DegradeL1
	}
}
