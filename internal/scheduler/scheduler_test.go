package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayfarer-ai/planner/internal/models"
)

func samplePOIs() []*models.POI {
	return []*models.POI{
		{ID: "p1", Name: "Forbidden City", City: "Beijing", Lat: 39.916, Lon: 116.397, Themes: []string{"history"}, TypicalDurationHrs: 2, TicketPrice: 10, Popularity: 0.9},
		{ID: "p2", Name: "Tiananmen Square", City: "Beijing", Lat: 39.903, Lon: 116.397, Themes: []string{"history"}, TypicalDurationHrs: 1, TicketPrice: 0, Popularity: 0.8},
		{ID: "p3", Name: "Temple of Heaven", City: "Beijing", Lat: 39.882, Lon: 116.406, Themes: []string{"history"}, TypicalDurationHrs: 1.5, TicketPrice: 5, Popularity: 0.7},
		{ID: "p4", Name: "Wangfujing Snack Street", City: "Beijing", Lat: 39.914, Lon: 116.410, Themes: []string{"food"}, TypicalDurationHrs: 1, TicketPrice: 8, Popularity: 0.6},
		{ID: "p5", Name: "798 Art District", City: "Beijing", Lat: 39.984, Lon: 116.496, Themes: []string{"art"}, TypicalDurationHrs: 2, TicketPrice: 0, Popularity: 0.5},
		{ID: "p6", Name: "Summer Palace", City: "Beijing", Lat: 39.999, Lon: 116.275, Themes: []string{"history"}, TypicalDurationHrs: 2.5, TicketPrice: 12, Popularity: 0.85},
	}
}

func TestSchedule_NoDuplicatePOIsAcrossDays(t *testing.T) {
	pois := samplePOIs()
	arena := models.NewArena(pois)

	opts := Options{
		Constraints: &models.TripConstraints{City: "Beijing", Days: 2, TransportMode: models.TransportPublicTransit, Pace: models.PaceModerate},
		Profile:     &models.UserProfile{TravelersType: models.TravelersSolo},
		Arena:       arena,
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	itinerary, err := Schedule(opts)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, day := range itinerary.Days {
		for _, item := range day.Items {
			assert.False(t, seen[item.POIRef], "POI %s scheduled twice", item.POIRef)
			seen[item.POIRef] = true
		}
	}
}

func TestSchedule_TimelineFeasible(t *testing.T) {
	pois := samplePOIs()
	arena := models.NewArena(pois)

	opts := Options{
		Constraints: &models.TripConstraints{City: "Beijing", Days: 1, TransportMode: models.TransportWalking, Pace: models.PaceRelaxed},
		Profile:     &models.UserProfile{TravelersType: models.TravelersSolo},
		Arena:       arena,
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	itinerary, err := Schedule(opts)
	require.NoError(t, err)
	require.Len(t, itinerary.Days, 1)

	day := itinerary.Days[0]
	for i := 0; i+1 < len(day.Items); i++ {
		cur, next := day.Items[i], day.Items[i+1]
		assert.True(t, !cur.EndTime.Add(time.Duration(next.TravelMinutes)*time.Minute).After(next.StartTime),
			"item %d end+travel must not exceed item %d start", i, i+1)
	}
}

func TestSchedule_EmptyPoolErrors(t *testing.T) {
	_, err := Schedule(Options{
		Constraints: &models.TripConstraints{City: "Nowhere", Days: 1},
		Arena:       models.NewArena(nil),
	})
	assert.Error(t, err)
}

func TestIsClosedOn_WeekdayAndDate(t *testing.T) {
	mon := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	assert.True(t, isClosedOn("mon", mon))
	assert.False(t, isClosedOn("tue", mon))
	assert.True(t, isClosedOn("2026-03-02", mon))
	assert.False(t, isClosedOn("", mon))
}

func TestIsPeakWindow(t *testing.T) {
	anchor := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	assert.True(t, isPeakWindow(anchor.AddDate(0, 0, 3), anchor))
	assert.False(t, isPeakWindow(anchor.AddDate(0, 0, 10), anchor))
}
