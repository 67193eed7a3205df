package scheduler

import (
	"fmt"
	"time"

	"github.com/wayfarer-ai/planner/internal/models"
)

// RetimeDay re-runs Phase 2 (ordering) and Phase 3 (time-boxing) for a
// single day only, without touching cluster/day assignment. Edit patches
// (§4.7) call this after inserting, removing, or substituting a stop so
// the day's timeline, buffers, and backups stay internally consistent
// without re-running Schedule end to end for every other day.
func RetimeDay(day models.ItineraryDay, pois []*models.POI, opts Options) (models.ItineraryDay, []models.Issue, error) {
	if opts.Constraints == nil {
		return models.ItineraryDay{}, nil, fmt.Errorf("scheduler: retime requires constraints")
	}

	mode := string(opts.Constraints.TransportMode)
	if mode == "" {
		mode = "public_transit"
	}

	date, err := time.Parse("2006-01-02", day.Date)
	if err != nil {
		return models.ItineraryDay{}, nil, fmt.Errorf("scheduler: retime: invalid day date %q: %w", day.Date, err)
	}
	peak := isPeakWindow(date, opts.PeakAnchor)

	ordered := orderDay(sortedByID(pois), mode)
	retimed, backups, issues := timeboxDay(day.DayNumber, date, ordered, opts, mode, peak)
	retimed.Backups = backups
	return retimed, issues, nil
}
