package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner/internal/config"
	"github.com/wayfarer-ai/planner/internal/models"
	"github.com/wayfarer-ai/planner/internal/retrieval"
)

func testDeps() Dependencies {
	return Dependencies{
		Config: &config.Config{
			MaxRepairRounds:        3,
			RequestDeadline:        5 * time.Second,
			MapCallTimeout:         time.Second,
			LLMCallTimeout:         time.Second,
			FoodMinPerPersonPerDay: 15,
		},
		RetrievalSources: retrieval.Sources{
			Curated: retrieval.NewDefaultCuratedProvider(),
		},
	}
}

func TestPlan_FreshRequestProducesItinerary(t *testing.T) {
	budget := 300.0
	req := Request{
		SessionID: "s1",
		Message:   "Beijing 3 days, history and food",
		StructuredHint: &models.TripConstraints{
			City: "Beijing", Days: 3, DailyBudget: &budget,
			TransportMode: models.TransportPublicTransit, Pace: models.PaceModerate,
		},
	}

	result := Plan(context.Background(), req, testDeps())
	require.NotNil(t, result)
	require.Equal(t, StatusOK, result.Status)
	require.NotNil(t, result.Itinerary)
	assert.Len(t, result.Itinerary.Days, 3)
	assert.NotEmpty(t, result.RunFingerprint.RunMode)
}

func TestPlan_MissingFieldsReturnsClarification(t *testing.T) {
	req := Request{SessionID: "s2", Message: "I want a relaxing trip"}

	result := Plan(context.Background(), req, testDeps())
	require.NotNil(t, result)
	assert.Equal(t, StatusNeedsClarification, result.Status)
	assert.NotEmpty(t, result.ClarifyingQuestions)
}

func TestPlan_EditPatchRetimesSingleDayOnly(t *testing.T) {
	budget := 300.0
	constraints := &models.TripConstraints{
		City: "Beijing", Days: 2, DailyBudget: &budget,
		TransportMode: models.TransportPublicTransit, Pace: models.PaceModerate,
	}

	fresh := Plan(context.Background(), Request{SessionID: "s3", StructuredHint: constraints, Message: "Beijing 2 days"}, testDeps())
	require.Equal(t, StatusOK, fresh.Status)
	require.Len(t, fresh.Itinerary.Days, 2)

	arena := arenaFromCurated(t)
	day1Before := fresh.Itinerary.Days[0]
	require.NotEmpty(t, day1Before.Items)
	target := day1Before.Items[0].POIRef

	editReq := Request{
		SessionID:      "s3",
		StructuredHint: constraints,
		PriorItinerary: fresh.Itinerary,
		PriorArena:     arena,
		EditPatch: &EditPatch{
			DayNumber: day1Before.DayNumber,
			Operation: OpRemoveStop,
			TargetPOIRef: target,
		},
	}

	edited := Plan(context.Background(), editReq, testDeps())
	require.Equal(t, StatusOK, edited.Status)
	for _, item := range edited.Itinerary.Days[0].Items {
		assert.NotEqual(t, target, item.POIRef)
	}
	// Day 2 is untouched by an edit patch targeting day 1.
	assert.Equal(t, fresh.Itinerary.Days[1].Items, edited.Itinerary.Days[1].Items)
}

func arenaFromCurated(t *testing.T) *models.Arena {
	t.Helper()
	provider := retrieval.NewDefaultCuratedProvider()
	pois, err := provider.PoiSearch(context.Background(), retrieval.PoiSearchRequest{City: "Beijing", Limit: 20})
	require.NoError(t, err)
	return models.NewArena(pois)
}
