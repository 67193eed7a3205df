package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wayfarer-ai/planner/internal/models"
)

func TestEvaluate_AllVerifiedHighConfidence(t *testing.T) {
	poi := &models.POI{ID: "p1", FactSources: map[string]models.FactSource{
		"name": models.SourceVerified, "location": models.SourceVerified,
		"open_hours": models.SourceVerified, "ticket_price": models.SourceVerified,
		"duration": models.SourceVerified, "closed_rules": models.SourceVerified,
	}}
	arena := models.NewArena([]*models.POI{poi})
	itinerary := &models.Itinerary{Days: []models.ItineraryDay{
		{Items: []models.ScheduleItem{{POIRef: "p1"}}},
	}}

	score := Evaluate(itinerary, arena, Options{RoutingConfidence: 1.0, RealtimeProviders: true})

	assert.InDelta(t, 1.0, score.VerifiedFactRatio, 0.001)
	assert.Equal(t, 0.0, score.FallbackRate)
	assert.InDelta(t, 1.0, score.ConfidenceScore, 0.001)
	assert.Equal(t, models.DegradeL0, score.DegradeLevel)
}

func TestEvaluate_AllFallbackLowConfidence(t *testing.T) {
	poi := &models.POI{ID: "p1", FactSources: map[string]models.FactSource{
		"name": models.SourceFallback, "location": models.SourceFallback,
	}}
	arena := models.NewArena([]*models.POI{poi})
	itinerary := &models.Itinerary{Days: []models.ItineraryDay{
		{Items: []models.ScheduleItem{{POIRef: "p1"}}},
	}}

	score := Evaluate(itinerary, arena, Options{RoutingConfidence: 0.5, RealtimeProviders: false})

	assert.Equal(t, models.DegradeL3, score.DegradeLevel)
}

func TestApplyDegradeLevel_NeverLowers(t *testing.T) {
	assert.Equal(t, models.DegradeL1, ApplyDegradeLevel(models.DegradeL0))
	assert.Equal(t, models.DegradeL3, ApplyDegradeLevel(models.DegradeL3))
}
