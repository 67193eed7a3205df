package orchestrator

import (
	"fmt"
	"time"

	"github.com/wayfarer-ai/planner/internal/models"
	"github.com/wayfarer-ai/planner/internal/scheduler"
)

// EditOperation is one of the five restricted edit-patch operations of
// §4.7 — intentionally narrower than full itinerary rewriting, so a
// patch can only ever nudge a single day's stops, never reshuffle the
// whole trip.
type EditOperation string

const (
	OpReplaceStop EditOperation = "replace_stop"
	OpAddStop     EditOperation = "add_stop"
	OpRemoveStop  EditOperation = "remove_stop"
	OpAdjustTime  EditOperation = "adjust_time"
	OpLunchBreak  EditOperation = "lunch_break"
)

// EditPatch targets exactly one day; applying it always re-runs
// Scheduler Phase 2/3 for that day only via scheduler.RetimeDay, per
// §4.7 — every other day in the itinerary is left untouched.
type EditPatch struct {
	DayNumber    int
	Operation    EditOperation
	TargetPOIRef string // replace_stop, remove_stop, adjust_time
	NewPOIRef    string // replace_stop, add_stop — must already exist in Arena
	NewStartTime *time.Time
}

// ApplyEditPatch mutates a copy of itinerary's targeted day in place and
// returns the updated itinerary plus any issues the local retime
// surfaced (e.g. the day now runs over DAY_END).
func ApplyEditPatch(itinerary *models.Itinerary, arena *models.Arena, patch EditPatch, opts scheduler.Options) (*models.Itinerary, []models.Issue, error) {
	dayIdx := -1
	for i := range itinerary.Days {
		if itinerary.Days[i].DayNumber == patch.DayNumber {
			dayIdx = i
			break
		}
	}
	if dayIdx == -1 {
		return nil, nil, fmt.Errorf("orchestrator: edit patch targets day %d, itinerary has no such day", patch.DayNumber)
	}

	out := cloneItineraryForPatch(itinerary)
	day := out.Days[dayIdx]

	pois, err := resolveDayPOIs(day, arena)
	if err != nil {
		return nil, nil, err
	}

	switch patch.Operation {
	case OpReplaceStop:
		pois, err = replaceStop(pois, arena, patch.TargetPOIRef, patch.NewPOIRef)
	case OpAddStop:
		pois, err = addStop(pois, arena, patch.NewPOIRef)
	case OpRemoveStop:
		pois, err = removeStop(pois, patch.TargetPOIRef)
	case OpAdjustTime:
		pois, err = adjustTime(pois, patch.TargetPOIRef)
		if err == nil && patch.NewStartTime != nil {
			if opts.Anchors == nil {
				opts.Anchors = make(map[string]time.Time, 1)
			}
			opts.Anchors[patch.TargetPOIRef] = *patch.NewStartTime
		}
	case OpLunchBreak:
		pois, err = insertLunchBreak(arena, pois, patch.DayNumber)
	default:
		err = fmt.Errorf("orchestrator: unknown edit operation %q", patch.Operation)
	}
	if err != nil {
		return nil, nil, err
	}

	retimed, issues, err := scheduler.RetimeDay(day, pois, opts)
	if err != nil {
		return nil, nil, err
	}
	out.Days[dayIdx] = retimed
	return out, issues, nil
}

func resolveDayPOIs(day models.ItineraryDay, arena *models.Arena) ([]*models.POI, error) {
	pois := make([]*models.POI, 0, len(day.Items))
	for _, item := range day.Items {
		p, ok := arena.Get(item.POIRef)
		if !ok {
			return nil, fmt.Errorf("orchestrator: day %d references unknown POI %q", day.DayNumber, item.POIRef)
		}
		pois = append(pois, p)
	}
	return pois, nil
}

func replaceStop(pois []*models.POI, arena *models.Arena, target, replacement string) ([]*models.POI, error) {
	newPOI, ok := arena.Get(replacement)
	if !ok {
		return nil, fmt.Errorf("orchestrator: replacement POI %q not found in arena", replacement)
	}
	out := make([]*models.POI, 0, len(pois))
	replaced := false
	for _, p := range pois {
		if p.ID == target {
			out = append(out, newPOI)
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		return nil, fmt.Errorf("orchestrator: target POI %q not scheduled on this day", target)
	}
	return out, nil
}

func addStop(pois []*models.POI, arena *models.Arena, newRef string) ([]*models.POI, error) {
	p, ok := arena.Get(newRef)
	if !ok {
		return nil, fmt.Errorf("orchestrator: new POI %q not found in arena", newRef)
	}
	for _, existing := range pois {
		if existing.ID == p.ID {
			return nil, fmt.Errorf("orchestrator: POI %q already scheduled this day", newRef)
		}
	}
	return append(append([]*models.POI{}, pois...), p), nil
}

func removeStop(pois []*models.POI, target string) ([]*models.POI, error) {
	out := make([]*models.POI, 0, len(pois))
	removed := false
	for _, p := range pois {
		if p.ID == target {
			removed = true
			continue
		}
		out = append(out, p)
	}
	if !removed {
		return nil, fmt.Errorf("orchestrator: target POI %q not scheduled on this day", target)
	}
	return out, nil
}

// adjustTime moves the target POI to lead the day's visiting order by
// temporarily marking it pinned, which is how Phase 2's ordering already
// picks a forced start point (internal/scheduler/scheduler.go orderDay).
// ApplyEditPatch additionally registers patch.NewStartTime, if set, as a
// scheduler.Options.Anchors entry so timeboxDay starts that stop at (or
// after, if infeasible) the requested clock time rather than merely
// placing it first with whatever time the natural cursor reaches.
func adjustTime(pois []*models.POI, target string) ([]*models.POI, error) {
	out := make([]*models.POI, len(pois))
	found := false
	for i, p := range pois {
		if p.ID == target {
			cp := *p
			cp.Pinned = true
			out[i] = &cp
			found = true
			continue
		}
		out[i] = p
	}
	if !found {
		return nil, fmt.Errorf("orchestrator: target POI %q not scheduled on this day", target)
	}
	return out, nil
}

// insertLunchBreak synthesizes a standalone meal stop and registers it
// in the arena so later stages (Validate, Trust) can resolve its
// POIRef; timeboxDay's existing lunch-window logic (internal/
// scheduler/timebox.go hasMealTheme) then slots it into the midday gap
// instead of auto-inserting an implicit one.
func insertLunchBreak(arena *models.Arena, pois []*models.POI, dayNumber int) ([]*models.POI, error) {
	id := fmt.Sprintf("lunch-break-day-%d", dayNumber)
	lunch := &models.POI{
		ID:                 id,
		Name:               "Lunch break",
		Themes:             []string{"food"},
		TypicalDurationHrs: 1.0,
		FactSources:        map[string]models.FactSource{"name": models.SourceCurated},
	}
	arena.Add(lunch)
	return append(append([]*models.POI{}, pois...), lunch), nil
}

func cloneItineraryForPatch(it *models.Itinerary) *models.Itinerary {
	cp := *it
	cp.Days = append([]models.ItineraryDay(nil), it.Days...)
	return &cp
}
