package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wayfarer-ai/planner/internal/models"
)

func TestValidate_DuplicatePOIDay(t *testing.T) {
	poi := &models.POI{ID: "p1", Name: "A", OpenHours: "09:00-18:00", TypicalDurationHrs: 1}
	arena := models.NewArena([]*models.POI{poi})

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	it := &models.Itinerary{
		Days: []models.ItineraryDay{
			{DayNumber: 1, Items: []models.ScheduleItem{{POIRef: "p1", StartTime: start, EndTime: start.Add(time.Hour)}}},
			{DayNumber: 2, Items: []models.ScheduleItem{{POIRef: "p1", StartTime: start, EndTime: start.Add(time.Hour)}}},
		},
	}

	issues := Validate(it, Options{Constraints: &models.TripConstraints{Days: 2, Pace: models.PaceModerate}, Arena: arena})

	found := false
	for _, i := range issues {
		if i.Code == models.IssueDuplicatePOIDay {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_MissingFacts(t *testing.T) {
	poi := &models.POI{ID: "p1", Name: "A"} // no open hours, no duration
	arena := models.NewArena([]*models.POI{poi})
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	it := &models.Itinerary{
		Days: []models.ItineraryDay{
			{DayNumber: 1, Items: []models.ScheduleItem{{POIRef: "p1", StartTime: start, EndTime: start.Add(time.Hour)}}},
		},
	}

	issues := Validate(it, Options{Constraints: &models.TripConstraints{Days: 1, Pace: models.PaceModerate}, Arena: arena})

	found := false
	for _, i := range issues {
		if i.Code == models.IssueMissingFacts {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_OverBudget(t *testing.T) {
	budget := 50.0
	it := &models.Itinerary{TotalCost: 1000, MinimumFeasibleBudget: 10}
	issues := Validate(it, Options{
		Constraints: &models.TripConstraints{Days: 2, DailyBudget: &budget, Pace: models.PaceModerate},
		Arena:       models.NewArena(nil),
	})

	found := false
	for _, i := range issues {
		if i.Code == models.IssueOverBudget {
			found = true
		}
	}
	assert.True(t, found)
}
