package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayfarer-ai/planner/internal/models"
)

func sampleArena() *models.Arena {
	return models.NewArena([]*models.POI{
		{ID: "p1", Name: "Museum A", Themes: []string{"history"}, Popularity: 0.9, Cost: 10},
		{ID: "p2", Name: "Museum B", Themes: []string{"history"}, Popularity: 0.5, Cost: 5},
		{ID: "p3", Name: "Park C", Themes: []string{"nature"}, Popularity: 0.4, Cost: 0, Pinned: true},
	})
}

func TestApply_SubstituteNearerPOI(t *testing.T) {
	arena := models.NewArena([]*models.POI{
		{ID: "p1", Name: "Museum A", Themes: []string{"history"}, Popularity: 0.9, Cost: 10},
		{ID: "p3", Name: "Park C", Themes: []string{"nature"}, Popularity: 0.4, Cost: 0, Pinned: true, Lat: 0, Lon: 0},
		// p4 is within the 0.6x proxy bound (~1.1km) and should win.
		{ID: "p4", Name: "Park D", Themes: []string{"nature"}, Popularity: 0.3, Cost: 0, Lat: 0, Lon: 0.01},
		// p5 scores higher on popularity alone but sits ~157km away,
		// well past the bound, and must be rejected.
		{ID: "p5", Name: "Park E", Themes: []string{"nature"}, Popularity: 0.95, Cost: 0, Lat: 1, Lon: 1},
	})
	day := models.ItineraryDay{
		DayNumber: 1,
		Items: []models.ScheduleItem{
			{POIRef: "p1", TravelMinutes: 5},
			{POIRef: "p3", TravelMinutes: 90},
		},
	}
	itinerary := &models.Itinerary{Days: []models.ItineraryDay{day}}
	issues := []models.Issue{{Code: models.IssueTooMuchTravel, DayNumber: dayNumPtr(1)}}

	result := Apply(itinerary, issues, Options{Arena: arena, Mode: "walking"})

	require.Equal(t, "substitute", result.StrategyUsed)
	assert.Equal(t, "p4", result.Itinerary.Days[0].Items[1].POIRef, "must pick the nearer candidate, not the merely higher-scoring farther one")
}

func TestApply_DropLowPriorityItem(t *testing.T) {
	arena := sampleArena()
	day := models.ItineraryDay{
		DayNumber: 1,
		Items: []models.ScheduleItem{
			{POIRef: "p1"},
			{POIRef: "p2"},
			{POIRef: "p3"},
		},
	}
	itinerary := &models.Itinerary{Days: []models.ItineraryDay{day}}
	issues := []models.Issue{{Code: models.IssueOverTime, DayNumber: dayNumPtr(1)}}

	result := Apply(itinerary, issues, Options{Arena: arena, Mode: "walking"})

	require.Equal(t, "drop", result.StrategyUsed)
	assert.Len(t, result.Itinerary.Days[0].Items, 2)
	for _, item := range result.Itinerary.Days[0].Items {
		assert.NotEqual(t, "p3", item.POIRef, "pinned POI must never be dropped")
	}
}

func TestApply_UpgradeTransportMode(t *testing.T) {
	itinerary := &models.Itinerary{Days: []models.ItineraryDay{{DayNumber: 1}}}
	issues := []models.Issue{{Code: models.IssueTooMuchTravel, DayNumber: dayNumPtr(1)}}

	result := Apply(itinerary, issues, Options{Arena: models.NewArena(nil), Mode: "taxi"})

	require.Equal(t, "upgrade_transport", result.StrategyUsed)
	assert.Equal(t, "driving", result.Mode)
	assert.Len(t, result.Assumptions, 1)
}

func TestApply_AcceptWhenLadderExhausted(t *testing.T) {
	itinerary := &models.Itinerary{Days: []models.ItineraryDay{{DayNumber: 1}}}
	issues := []models.Issue{{Code: models.IssueMissingBackup, DayNumber: dayNumPtr(1)}}

	result := Apply(itinerary, issues, Options{Arena: models.NewArena(nil), Mode: "walking"})

	assert.Equal(t, "accept", result.StrategyUsed)
}

func dayNumPtr(n int) *int { return &n }
