// Package validator runs the independent rule checks of §4.6 over a
// scheduled Itinerary, collecting every issue rather than
// short-circuiting on the first one found.
package validator

import (
	"fmt"

	"github.com/wayfarer-ai/planner/internal/models"
)

// Options carries the constraint context the rule checks need.
type Options struct {
	Constraints *models.TripConstraints
	Arena       *models.Arena
}

type check func(itinerary *models.Itinerary, opts Options) []models.Issue

// checks is the fixed table of independent rule checks, grounded on
// the teacher's table-of-named-checks style in
// internal/security/validation.go.
var checks = []check{
	checkOverTime,
	checkTooMuchTravel,
	checkOverBudget,
	checkBudgetUnrealistic,
	checkPaceMismatch,
	checkTravelTimeInvalid,
	checkMissingFacts,
	checkRouteBacktracking,
	checkDuplicatePOIDay,
	checkMissingBackup,
}

// Validate runs every check and returns the union of all issues found.
func Validate(itinerary *models.Itinerary, opts Options) []models.Issue {
	var issues []models.Issue
	for _, c := range checks {
		issues = append(issues, c(itinerary, opts)...)
	}
	return issues
}

func dayNum(n int) *int { return &n }
func poiRef(s string) *string { return &s }

func checkOverTime(it *models.Itinerary, _ Options) []models.Issue {
	var out []models.Issue
	for i := range it.Days {
		d := &it.Days[i]
		if d.WallClockMinutes() > 12*60 {
			out = append(out, models.Issue{
				Code: models.IssueOverTime, Severity: models.SeverityHigh,
				DayNumber: dayNum(d.DayNumber),
				Evidence:  fmt.Sprintf("day %d wall-clock is %dmin, exceeds 12h", d.DayNumber, d.WallClockMinutes()),
			})
		}
	}
	return out
}

func checkTooMuchTravel(it *models.Itinerary, _ Options) []models.Issue {
	var out []models.Issue
	for i := range it.Days {
		d := &it.Days[i]
		wallClock := d.WallClockMinutes()
		if wallClock == 0 {
			continue
		}
		if float64(d.TotalTravelMinutes) > 0.35*float64(wallClock) {
			out = append(out, models.Issue{
				Code: models.IssueTooMuchTravel, Severity: models.SeverityHigh,
				DayNumber: dayNum(d.DayNumber),
				Evidence:  fmt.Sprintf("day %d travel=%dmin exceeds 35%% of %dmin wall-clock", d.DayNumber, d.TotalTravelMinutes, wallClock),
			})
		}
	}
	return out
}

func checkOverBudget(it *models.Itinerary, opts Options) []models.Issue {
	if opts.Constraints.DailyBudget == nil {
		return nil
	}
	limit := *opts.Constraints.DailyBudget * float64(opts.Constraints.Days) * 1.05
	if it.TotalCost > limit {
		return []models.Issue{{
			Code: models.IssueOverBudget, Severity: models.SeverityHigh,
			Evidence: fmt.Sprintf("total_cost %.2f exceeds budget*days*1.05 %.2f", it.TotalCost, limit),
		}}
	}
	return nil
}

func checkBudgetUnrealistic(it *models.Itinerary, _ Options) []models.Issue {
	if it.TotalCost < it.MinimumFeasibleBudget*0.85 {
		return []models.Issue{{
			Code: models.IssueBudgetUnrealistic, Severity: models.SeverityMedium,
			Evidence: fmt.Sprintf("total_cost %.2f is below 0.85x minimum_feasible_budget %.2f", it.TotalCost, it.MinimumFeasibleBudget),
		}}
	}
	return nil
}

func checkPaceMismatch(it *models.Itinerary, opts Options) []models.Issue {
	var out []models.Issue
	for i := range it.Days {
		d := &it.Days[i]
		count := len(d.Items)
		ok := true
		switch opts.Constraints.Pace {
		case models.PaceRelaxed:
			ok = count <= 3
		case models.PaceIntensive:
			ok = count >= 5 && count <= 8
		default: // moderate
			ok = count >= 3 && count <= 5
		}
		if !ok {
			out = append(out, models.Issue{
				Code: models.IssuePaceMismatch, Severity: models.SeverityMedium,
				DayNumber: dayNum(d.DayNumber),
				Evidence:  fmt.Sprintf("day %d has %d POIs, mismatched with pace %s", d.DayNumber, count, opts.Constraints.Pace),
			})
		}
	}
	return out
}

func checkTravelTimeInvalid(it *models.Itinerary, _ Options) []models.Issue {
	var out []models.Issue
	for i := range it.Days {
		d := &it.Days[i]
		for j, item := range d.Items {
			if j == 0 {
				continue
			}
			if item.TravelMinutes < 1 || item.TravelMinutes > 180 {
				out = append(out, models.Issue{
					Code: models.IssueTravelTimeInvalid, Severity: models.SeverityHigh,
					DayNumber: dayNum(d.DayNumber), POIRef: poiRef(item.POIRef),
					Evidence: fmt.Sprintf("leg into %s has travel_minutes=%d", item.POIRef, item.TravelMinutes),
				})
			}
		}
	}
	return out
}

func checkMissingFacts(it *models.Itinerary, opts Options) []models.Issue {
	var out []models.Issue
	for i := range it.Days {
		d := &it.Days[i]
		for _, item := range d.Items {
			p, ok := opts.Arena.Get(item.POIRef)
			if !ok {
				continue
			}
			if p.OpenHours == "" || p.TypicalDurationHrs <= 0 {
				out = append(out, models.Issue{
					Code: models.IssueMissingFacts, Severity: models.SeverityHigh,
					DayNumber: dayNum(d.DayNumber), POIRef: poiRef(item.POIRef),
					Evidence: fmt.Sprintf("%s missing open_hours or duration", p.Name),
				})
			}
		}
	}
	return out
}

func checkRouteBacktracking(it *models.Itinerary, opts Options) []models.Issue {
	var out []models.Issue
	maxSwitches := 2
	if opts.Constraints.Days/2 > maxSwitches {
		maxSwitches = opts.Constraints.Days / 2
	}
	for i := range it.Days {
		d := &it.Days[i]
		switches := 0
		var prevCluster string
		for _, item := range d.Items {
			p, ok := opts.Arena.Get(item.POIRef)
			if !ok {
				continue
			}
			cl := roundedCluster(p.Lat, p.Lon)
			if prevCluster != "" && cl != prevCluster {
				switches++
			}
			prevCluster = cl
		}
		if switches > maxSwitches {
			out = append(out, models.Issue{
				Code: models.IssueRouteBacktracking, Severity: models.SeverityMedium,
				DayNumber: dayNum(d.DayNumber),
				Evidence:  fmt.Sprintf("day %d switches geographic clusters %d times", d.DayNumber, switches),
			})
		}
	}
	return out
}

func roundedCluster(lat, lon float64) string {
	return fmt.Sprintf("%.1f,%.1f", lat, lon)
}

func checkDuplicatePOIDay(it *models.Itinerary, _ Options) []models.Issue {
	var out []models.Issue
	seen := map[string]int{}
	for i := range it.Days {
		d := &it.Days[i]
		for _, item := range d.Items {
			if seen[item.POIRef] > 0 {
				out = append(out, models.Issue{
					Code: models.IssueDuplicatePOIDay, Severity: models.SeverityHigh,
					DayNumber: dayNum(d.DayNumber), POIRef: poiRef(item.POIRef),
					Evidence: fmt.Sprintf("%s scheduled more than once across the trip", item.POIRef),
				})
			}
			seen[item.POIRef]++
		}
	}
	return out
}

func checkMissingBackup(it *models.Itinerary, _ Options) []models.Issue {
	var out []models.Issue
	for i := range it.Days {
		d := &it.Days[i]
		if len(d.Backups) == 0 {
			out = append(out, models.Issue{
				Code: models.IssueMissingBackup, Severity: models.SeverityLow,
				DayNumber: dayNum(d.DayNumber),
				Evidence:  fmt.Sprintf("day %d has no backup POIs", d.DayNumber),
			})
		}
	}
	return out
}
