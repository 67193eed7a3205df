// Package scheduler turns a candidate POI pool into a day-by-day,
// time-boxed itinerary. It is deliberately greedy (§1 Non-goals: no
// global-optimum search) and organized as four independently testable
// phases, matching the teacher's preference for small composable
// node-shaped units (internal/workflow/nodes.go) over one monolith.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/wayfarer-ai/planner/internal/models"
)

const (
	dailyBudgetMinHours = 8.0
	dayStartHour        = 9
	dayEndHour          = 21
	lunchWindowStart    = 11*60 + 30
	lunchWindowEnd      = 13*60 + 30
	dinnerWindowStart   = 17*60 + 30
	dinnerWindowEnd     = 19*60 + 30
	mealDurationMin     = 60
)

// Options bundles everything the Scheduler needs; constraints and
// profile are read-only, the arena is the shared POI pool.
type Options struct {
	Constraints            *models.TripConstraints
	Profile                *models.UserProfile
	Arena                  *models.Arena
	StartDate              time.Time
	PeakAnchor             time.Time
	FoodMinPerPersonPerDay float64

	// Anchors maps a POI id to a requested clock time (§4.7 adjust_time
	// edits); timeboxDay treats it as the earliest acceptable start for
	// that stop instead of the next slot the natural cursor reaches.
	Anchors map[string]time.Time
}

// Schedule runs all four phases and returns an un-validated Itinerary.
// Validation is the Validator's job (§4.6); Schedule only builds a
// structurally sound plan.
func Schedule(opts Options) (*models.Itinerary, error) {
	if opts.Arena == nil || opts.Arena.Len() == 0 {
		return nil, fmt.Errorf("scheduler: empty candidate pool")
	}
	if opts.Constraints.Days < 1 {
		return nil, fmt.Errorf("scheduler: days must be >= 1")
	}

	mode := string(opts.Constraints.TransportMode)
	if mode == "" {
		mode = "public_transit"
	}

	candidates := sortedByID(opts.Arena.All())
	pinned, unpinned := splitPinned(candidates)

	clusters := singleLinkCluster(unpinned, clusterRadiusKM(mode))
	// Pinned POIs each form their own singleton cluster so they are
	// never dropped from day assignment, and can anchor Phase 2 ordering.
	for _, p := range pinned {
		clusters = append(clusters, &cluster{pois: []*models.POI{p}, totalHours: p.TypicalDurationHrs})
	}

	byDay := assignClustersToDays(clusters, opts.Constraints.Days, dailyBudgetMinHours)

	itinerary := &models.Itinerary{
		City: opts.Constraints.City,
		Days: make([]models.ItineraryDay, opts.Constraints.Days),
	}

	usedPOIs := make(map[string]bool)
	var assumptions []string
	var issues []models.Issue

	for d := 0; d < opts.Constraints.Days; d++ {
		dayNumber := d + 1
		date := opts.StartDate.AddDate(0, 0, d)
		peak := isPeakWindow(date, opts.PeakAnchor)
		if peak {
			assumptions = append(assumptions, fmt.Sprintf("day %d falls in a peak-season window; buffers inflated 1.5x", dayNumber))
		}

		dayPOIs := dedupeAgainstUsed(flattenClusters(byDay[d]), usedPOIs)
		ordered := orderDay(dayPOIs, mode)

		day, backups, dayIssues := timeboxDay(dayNumber, date, ordered, opts, mode, peak)
		for _, it := range day.Items {
			usedPOIs[it.POIRef] = true
		}
		day.Backups = backups
		itinerary.Days[d] = day
		issues = append(issues, dayIssues...)
	}

	breakdown, minFeasible := accountBudget(itinerary, opts, mode)
	itinerary.BudgetBreakdown = breakdown
	itinerary.TotalCost = breakdown.Total()
	itinerary.MinimumFeasibleBudget = minFeasible
	itinerary.Assumptions = assumptions
	itinerary.Issues = issues

	return itinerary, nil
}

func sortedByID(pois []*models.POI) []*models.POI {
	out := append([]*models.POI(nil), pois...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func splitPinned(pois []*models.POI) (pinned, unpinned []*models.POI) {
	for _, p := range pois {
		if p.Pinned {
			pinned = append(pinned, p)
		} else {
			unpinned = append(unpinned, p)
		}
	}
	return
}

func flattenClusters(clusters []*cluster) []*models.POI {
	var out []*models.POI
	for _, c := range clusters {
		out = append(out, c.pois...)
	}
	return out
}

// dedupeAgainstUsed drops any POI already scheduled on a prior day. No
// duplicate POI may ever appear across all days (§4.5 edge cases, §8).
func dedupeAgainstUsed(pois []*models.POI, used map[string]bool) []*models.POI {
	var out []*models.POI
	for _, p := range pois {
		if !used[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// orderDay performs the Phase 2 greedy nearest-neighbor walk, starting
// from the first pinned POI if any, else the cluster's outermost
// northwest point.
func orderDay(pois []*models.POI, mode string) []*models.POI {
	if len(pois) == 0 {
		return nil
	}

	remaining := append([]*models.POI(nil), pois...)
	var start *models.POI
	for i, p := range remaining {
		if p.Pinned {
			start = p
			remaining = append(remaining[:i], remaining[i+1:]...)
			break
		}
	}
	if start == nil {
		c := &cluster{pois: remaining}
		start = c.outermostNorthwest()
		for i, p := range remaining {
			if p == start {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}

	ordered := []*models.POI{start}
	current := start
	for len(remaining) > 0 {
		bestIdx := 0
		bestDist := haversineKM(current.Lat, current.Lon, remaining[0].Lat, remaining[0].Lon)
		for i := 1; i < len(remaining); i++ {
			d := haversineKM(current.Lat, current.Lon, remaining[i].Lat, remaining[i].Lon)
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		current = remaining[bestIdx]
		ordered = append(ordered, current)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	_ = mode
	return ordered
}
