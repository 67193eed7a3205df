package scheduler

import (
	"fmt"
	"time"

	"github.com/wayfarer-ai/planner/internal/models"
)

// securityBuffer returns the buffer minutes inserted after a POI visit,
// per §4.5 Phase 3, scaled by 1.5x during peak-season windows.
func securityBuffer(p *models.POI, peak bool) time.Duration {
	base := 0
	switch {
	case p.ReservationRequired:
		base = 15
	}
	// High-peak calendar days get the larger 30-minute buffer regardless
	// of reservation status; detected via the peak flag passed in.
	if peak {
		base = 30
	}
	mins := float64(base)
	if peak {
		mins *= 1.5
	}
	return time.Duration(mins) * time.Minute
}

// hasMealTheme reports whether a POI's themes already cover a meal,
// so the scheduler doesn't double-insert a lunch/dinner window.
func hasMealTheme(p *models.POI) bool {
	for _, t := range p.Themes {
		if t == "food" || t == "dining" || t == "restaurant" {
			return true
		}
	}
	return false
}

// timeboxDay implements Phase 3: walk the day from DAY_START, consuming
// typical_duration + buffer + travel for each POI, inserting meal
// windows, demoting overflow to backups, and substituting closed POIs.
func timeboxDay(dayNumber int, date time.Time, ordered []*models.POI, opts Options, mode string, peak bool) (models.ItineraryDay, []models.ScheduleItem, []models.Issue) {
	day := models.ItineraryDay{DayNumber: dayNumber, Date: date.Format("2006-01-02")}
	var backups []models.ScheduleItem
	var issues []models.Issue

	cursor := time.Date(date.Year(), date.Month(), date.Day(), dayStartHour, 0, 0, 0, date.Location())
	dayEnd := time.Date(date.Year(), date.Month(), date.Day(), dayEndHour, 0, 0, 0, date.Location())

	lunchServed, dinnerServed := false, false
	var prev *models.POI

	resolved := make([]*models.POI, 0, len(ordered))
	for _, p := range ordered {
		if isClosedOn(p.ClosedRules, date) {
			sub := findSubstitute(opts.Arena, p, resolved)
			if sub == nil {
				if p.Pinned {
					dn := dayNumber
					ref := p.ID
					issues = append(issues, models.Issue{
						Code:      models.IssueMustVisitClosed,
						Severity:  models.SeverityHigh,
						DayNumber: &dn,
						POIRef:    &ref,
						Evidence:  fmt.Sprintf("%s is closed on %s and no substitute was found", p.Name, day.Date),
					})
					resolved = append(resolved, p) // keep it scheduled anyway, per §4.5 edge case
				}
				continue
			}
			resolved = append(resolved, sub)
			continue
		}
		resolved = append(resolved, p)
	}

	for _, p := range resolved {
		travel := 0
		if prev != nil {
			travel = travelMinutes(prev.Lat, prev.Lon, p.Lat, p.Lon, mode)
		}

		// Insert lunch window before the next item if we've crossed into
		// it and no meal-themed POI has covered it yet.
		if !lunchServed && !hasMealTheme(p) {
			windowStart := dayStartOf(date, lunchWindowStart)
			windowEnd := dayStartOf(date, lunchWindowEnd)
			if !cursor.Add(time.Duration(travel) * time.Minute).Before(windowStart) && cursor.Before(windowEnd) {
				cursor = maxTime(cursor, windowStart)
				cursor = cursor.Add(mealDurationMin * time.Minute)
				lunchServed = true
			}
		}
		if !dinnerServed && !hasMealTheme(p) {
			windowStart := dayStartOf(date, dinnerWindowStart)
			windowEnd := dayStartOf(date, dinnerWindowEnd)
			if !cursor.Add(time.Duration(travel) * time.Minute).Before(windowStart) && cursor.Before(windowEnd) {
				cursor = maxTime(cursor, windowStart)
				cursor = cursor.Add(mealDurationMin * time.Minute)
				dinnerServed = true
			}
		}
		if hasMealTheme(p) {
			if cursor.Hour()*60+cursor.Minute() < dinnerWindowStart {
				lunchServed = true
			} else {
				dinnerServed = true
			}
		}

		start := cursor.Add(time.Duration(travel) * time.Minute)
		if anchor, ok := opts.Anchors[p.ID]; ok {
			anchored := time.Date(date.Year(), date.Month(), date.Day(), anchor.Hour(), anchor.Minute(), 0, 0, date.Location())
			start = maxTime(start, anchored)
		}
		duration := time.Duration(p.TypicalDurationHrs * float64(time.Hour))
		buffer := securityBuffer(p, peak)
		end := start.Add(duration)

		slot := slotFor(start)

		item := models.ScheduleItem{
			POIRef:        p.ID,
			TimeSlot:      slot,
			StartTime:     start,
			EndTime:       end,
			TravelMinutes: travel,
		}

		if end.Add(buffer).After(dayEnd) {
			item.IsBackup = true
			backups = append(backups, item)
			continue
		}

		day.Items = append(day.Items, item)
		day.TotalTravelMinutes += travel
		cursor = end.Add(buffer)
		prev = p
	}

	if len(backups) == 0 && len(day.Items) > 0 {
		// MISSING_BACKUP is a validator concern (low severity); the
		// scheduler just records the fact by leaving Backups empty.
	}

	return day, backups, issues
}

func dayStartOf(date time.Time, minutesFromMidnight int) time.Time {
	base := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return base.Add(time.Duration(minutesFromMidnight) * time.Minute)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func slotFor(t time.Time) models.TimeSlot {
	mins := t.Hour()*60 + t.Minute()
	switch {
	case mins < lunchWindowStart:
		return models.SlotMorning
	case mins < lunchWindowEnd:
		return models.SlotLunch
	case mins < dinnerWindowStart:
		return models.SlotAfternoon
	case mins < dinnerWindowEnd:
		return models.SlotDinner
	default:
		return models.SlotEvening
	}
}

// findSubstitute looks for the next-best same-theme candidate within 2km
// of the closed POI that hasn't already been used today, per §4.5's
// closed-day substitution rule.
func findSubstitute(arena *models.Arena, closed *models.POI, alreadyResolved []*models.POI) *models.POI {
	if arena == nil {
		return nil
	}
	used := make(map[string]bool, len(alreadyResolved))
	for _, p := range alreadyResolved {
		used[p.ID] = true
	}

	var best *models.POI
	bestScore := -1.0
	for _, cand := range arena.All() {
		if cand.ID == closed.ID || used[cand.ID] {
			continue
		}
		if !shareTheme(cand.Themes, closed.Themes) {
			continue
		}
		d := haversineKM(closed.Lat, closed.Lon, cand.Lat, cand.Lon)
		if d > 2.0 {
			continue
		}
		score := cand.Popularity*1 - d*0.1
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

func shareTheme(a, b []string) bool {
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
