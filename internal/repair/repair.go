// Package repair applies the strategy ladder of §4.7 to remediate
// validator issues, in order, until the issue set improves or the
// ladder is exhausted.
package repair

import (
	"fmt"
	"math"
	"sort"

	"github.com/wayfarer-ai/planner/internal/models"
)

// Options carries the mutable-per-round context the ladder needs.
type Options struct {
	Constraints *models.TripConstraints
	Arena       *models.Arena
	Mode        string // current effective transport mode, may be upgraded by strategy 3
}

// Result is what one ladder pass produced.
type Result struct {
	Itinerary    *models.Itinerary
	Mode         string
	Assumptions  []string
	StrategyUsed string
}

// strategyOrder names the four ladder rungs in the order they're tried,
// grounded on the teacher's WithRetry backoff-ladder idiom
// (internal/tools/tool.go) repurposed from "retry the call" to "try the
// next remediation strategy".
var strategyOrder = []string{"substitute", "drop", "upgrade_transport", "accept"}

// Apply runs the ladder once against the given issues and returns the
// repaired itinerary. The caller (orchestrator) re-validates and loops.
func Apply(itinerary *models.Itinerary, issues []models.Issue, opts Options) Result {
	for _, strategy := range strategyOrder {
		switch strategy {
		case "substitute":
			if applies(issues, models.IssueTooMuchTravel, models.IssueRouteBacktracking, models.IssueMustVisitClosed) {
				if next, ok := substituteNearerPOI(itinerary, issues, opts); ok {
					return Result{Itinerary: next, Mode: opts.Mode, StrategyUsed: "substitute"}
				}
			}
		case "drop":
			if applies(issues, models.IssueOverTime, models.IssueOverBudget, models.IssuePaceMismatch) {
				if next, ok := dropLowPriorityItems(itinerary, issues, opts); ok {
					return Result{Itinerary: next, Mode: opts.Mode, StrategyUsed: "drop"}
				}
			}
		case "upgrade_transport":
			if applies(issues, models.IssueTooMuchTravel) {
				if next, newMode, assumption, ok := upgradeTransportMode(itinerary, opts); ok {
					return Result{Itinerary: next, Mode: newMode, Assumptions: []string{assumption}, StrategyUsed: "upgrade_transport"}
				}
			}
		case "accept":
			return Result{Itinerary: itinerary, Mode: opts.Mode, StrategyUsed: "accept"}
		}
	}
	return Result{Itinerary: itinerary, Mode: opts.Mode, StrategyUsed: "accept"}
}

func applies(issues []models.Issue, codes ...models.IssueCode) bool {
	set := make(map[models.IssueCode]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	for _, i := range issues {
		if set[i.Code] {
			return true
		}
	}
	return false
}

var nextFasterMode = map[string]string{
	"walking":        "public_transit",
	"public_transit": "taxi",
	"taxi":           "driving",
}

// upgradeTransportMode shifts the whole trip to the next faster mode.
// Only the returned mode and assumption change: the itinerary is
// returned as it was, with its existing times and travel minutes, and
// the orchestrator does not re-run the Scheduler with the new mode. The
// assumption does not state a cost difference.
func upgradeTransportMode(itinerary *models.Itinerary, opts Options) (*models.Itinerary, string, string, bool) {
	next, ok := nextFasterMode[opts.Mode]
	if !ok {
		return nil, "", "", false
	}
	assumption := fmt.Sprintf("upgraded transport mode from %s to %s to reduce travel time", opts.Mode, next)
	return itinerary, next, assumption, true
}

// substituteNearerPOI finds, for each flagged day, a same-theme POI
// within 0.6x the offending leg's distance and swaps it in.
func substituteNearerPOI(itinerary *models.Itinerary, issues []models.Issue, opts Options) (*models.Itinerary, bool) {
	next := cloneItinerary(itinerary)
	changed := false

	for _, issue := range issues {
		if issue.Code != models.IssueTooMuchTravel && issue.Code != models.IssueRouteBacktracking && issue.Code != models.IssueMustVisitClosed {
			continue
		}
		if issue.DayNumber == nil {
			continue
		}
		day := dayByNumber(next, *issue.DayNumber)
		if day == nil || len(day.Items) == 0 {
			continue
		}

		worstIdx := worstTravelItem(day)
		if worstIdx < 0 {
			continue
		}
		current, ok := opts.Arena.Get(day.Items[worstIdx].POIRef)
		if !ok {
			continue
		}
		currentDist := distanceToPrev(day, worstIdx)
		sub := bestSubstitute(opts.Arena, current, currentDist*0.6, usedInItinerary(next))
		if sub == nil {
			continue
		}
		day.Items[worstIdx].POIRef = sub.ID
		changed = true
	}

	if !changed {
		return nil, false
	}
	return next, true
}

func worstTravelItem(day *models.ItineraryDay) int {
	worst := -1
	worstVal := -1
	for i, item := range day.Items {
		if item.TravelMinutes > worstVal {
			worstVal = item.TravelMinutes
			worst = i
		}
	}
	return worst
}

func distanceToPrev(day *models.ItineraryDay, idx int) float64 {
	// Distance isn't stored directly; travel_minutes is a reasonable
	// stand-in proxy for "current item's distance" here since both are
	// monotonic in the haversine distance for a fixed mode.
	return float64(day.Items[idx].TravelMinutes)
}

// bestSubstitute picks the highest-scoring same-theme candidate whose
// distance from current stays within maxProxyDistance (§4.7 strategy 1's
// "distance <= current item's distance x 0.6" bound), so a substitution
// that fixes TOO_MUCH_TRAVEL/ROUTE_BACKTRACKING can't itself swap in
// something farther away.
func bestSubstitute(arena *models.Arena, current *models.POI, maxProxyDistance float64, used map[string]bool) *models.POI {
	var best *models.POI
	bestScore := -1.0
	for _, cand := range arena.All() {
		if cand.ID == current.ID || used[cand.ID] {
			continue
		}
		if !sharesTheme(cand.Themes, current.Themes) {
			continue
		}
		if haversineKM(current.Lat, current.Lon, cand.Lat, cand.Lon) > maxProxyDistance {
			continue
		}
		score := cand.Popularity*3 - cand.Cost*0.5
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

const earthRadiusKM = 6371.0

// haversineKM returns the great-circle distance between two lat/lon
// points in kilometers.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

func sharesTheme(a, b []string) bool {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	for _, t := range a {
		if set[t] {
			return true
		}
	}
	return false
}

func usedInItinerary(it *models.Itinerary) map[string]bool {
	used := make(map[string]bool)
	for _, d := range it.Days {
		for _, item := range d.Items {
			used[item.POIRef] = true
		}
	}
	return used
}

// dropLowPriorityItems removes one lowest-popularity non-pinned item per
// flagged issue (from the issue's day, or from the most expensive day for
// OVER_BUDGET); later repair rounds drop more if the issue persists.
func dropLowPriorityItems(itinerary *models.Itinerary, issues []models.Issue, opts Options) (*models.Itinerary, bool) {
	next := cloneItinerary(itinerary)
	changed := false

	for _, issue := range issues {
		if issue.Code != models.IssueOverTime && issue.Code != models.IssueOverBudget && issue.Code != models.IssuePaceMismatch {
			continue
		}
		if issue.Code == models.IssueOverBudget {
			// Budget issues are trip-wide; drop from the most expensive day.
			idx := mostExpensiveDay(next)
			if idx >= 0 && dropOneLowPriorityItem(&next.Days[idx], opts.Arena) {
				changed = true
			}
			continue
		}
		if issue.DayNumber == nil {
			continue
		}
		day := dayByNumber(next, *issue.DayNumber)
		if day == nil {
			continue
		}
		if dropOneLowPriorityItem(day, opts.Arena) {
			changed = true
		}
	}

	if !changed {
		return nil, false
	}
	return next, true
}

func mostExpensiveDay(it *models.Itinerary) int {
	idx := -1
	best := -1.0
	for i := range it.Days {
		if it.Days[i].EstimatedCost > best {
			best = it.Days[i].EstimatedCost
			idx = i
		}
	}
	return idx
}

func dropOneLowPriorityItem(day *models.ItineraryDay, arena *models.Arena) bool {
	type ranked struct {
		idx   int
		score float64
	}
	var candidates []ranked
	for i, item := range day.Items {
		p, ok := arena.Get(item.POIRef)
		if !ok || p.Pinned {
			continue
		}
		candidates = append(candidates, ranked{idx: i, score: p.Popularity})
	}
	if len(candidates) == 0 {
		return false
	}
	sort.Slice(candidates, func(a, b int) bool { return candidates[a].score < candidates[b].score })
	drop := candidates[0].idx
	day.Items = append(day.Items[:drop], day.Items[drop+1:]...)
	return true
}

func dayByNumber(it *models.Itinerary, n int) *models.ItineraryDay {
	for i := range it.Days {
		if it.Days[i].DayNumber == n {
			return &it.Days[i]
		}
	}
	return nil
}

// cloneItinerary makes a value-type deep-enough copy so repair
// transitions never mutate the state the caller still holds a
// reference to, matching the orchestrator's "mutations yield new
// states" ownership rule (spec.md §3).
func cloneItinerary(it *models.Itinerary) *models.Itinerary {
	next := *it
	next.Days = make([]models.ItineraryDay, len(it.Days))
	for i, d := range it.Days {
		nd := d
		nd.Items = append([]models.ScheduleItem(nil), d.Items...)
		nd.Backups = append([]models.ScheduleItem(nil), d.Backups...)
		next.Days[i] = nd
	}
	next.Issues = append([]models.Issue(nil), it.Issues...)
	next.Assumptions = append([]string(nil), it.Assumptions...)
	return &next
}
