package scheduler

import (
	"strings"
	"time"
)

var weekdayAliases = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// isClosedOn evaluates a POI's closed_rules textual predicate against a
// concrete date. Rules are a comma-separated list of either a 3-letter
// weekday alias ("mon") or an ISO date ("2026-02-10"); an empty rule
// string means never closed.
func isClosedOn(closedRules string, date time.Time) bool {
	if closedRules == "" {
		return false
	}
	for _, tok := range strings.Split(closedRules, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if wd, ok := weekdayAliases[tok]; ok {
			if date.Weekday() == wd {
				return true
			}
			continue
		}
		if d, err := time.Parse("2006-01-02", tok); err == nil {
			if d.Year() == date.Year() && d.Month() == date.Month() && d.Day() == date.Day() {
				return true
			}
		}
	}
	return false
}

// isPeakWindow reports whether date falls within anchorDate ± 7 days,
// the peak-season detection rule (§4.5 edge cases). anchorDate may be
// the zero value, meaning no peak window is configured.
func isPeakWindow(date, anchorDate time.Time) bool {
	if anchorDate.IsZero() {
		return false
	}
	diff := date.Sub(anchorDate)
	const week = 7 * 24 * time.Hour
	return diff >= -week && diff <= week
}
