package models

import "time"

// TimeSlot is the coarse part of the day a ScheduleItem occupies.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotLunch     TimeSlot = "lunch"
	SlotAfternoon TimeSlot = "afternoon"
	SlotDinner    TimeSlot = "dinner"
	SlotEvening   TimeSlot = "evening"
)

// ScheduleItem is one visit within a day. POIRef indexes into the
// shared Arena rather than embedding the POI, per the Design Notes'
// arena pattern.
type ScheduleItem struct {
	POIRef        string    `json:"poi_ref"`
	TimeSlot      TimeSlot  `json:"time_slot"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	TravelMinutes int       `json:"travel_minutes"`
	Notes         string    `json:"notes,omitempty"`
	IsBackup      bool      `json:"is_backup"`
}

// ItineraryDay is the ordered plan for a single calendar day.
type ItineraryDay struct {
	DayNumber          int            `json:"day_number"`
	Date               string         `json:"date,omitempty"`
	Items              []ScheduleItem `json:"items"`
	Backups            []ScheduleItem `json:"backups,omitempty"`
	DaySummary         string         `json:"day_summary,omitempty"`
	EstimatedCost      float64        `json:"estimated_cost"`
	TotalTravelMinutes int            `json:"total_travel_minutes"`
}

// WallClockMinutes returns the span from the first item's start to the
// last item's end, the basis for the OVER_TIME validator check.
func (d *ItineraryDay) WallClockMinutes() int {
	if len(d.Items) == 0 {
		return 0
	}
	first := d.Items[0].StartTime
	last := d.Items[len(d.Items)-1].EndTime
	return int(last.Sub(first).Minutes())
}

// BudgetBreakdown itemizes total_cost by category.
type BudgetBreakdown struct {
	Tickets         float64 `json:"tickets"`
	LocalTransport  float64 `json:"local_transport"`
	FoodMin         float64 `json:"food_min"`
}

// Total sums the breakdown's categories.
func (b BudgetBreakdown) Total() float64 {
	return b.Tickets + b.LocalTransport + b.FoodMin
}

// DegradeLevel is an ordinal tag indicating how far the produced
// itinerary is from a fully verified, realtime-sourced result.
type DegradeLevel string

const (
	DegradeL0 DegradeLevel = "L0"
	DegradeL1 DegradeLevel = "L1"
	DegradeL2 DegradeLevel = "L2"
	DegradeL3 DegradeLevel = "L3"
)

// Severity is an Issue's severity tier.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IssueCode enumerates the validator's rule codes (§6 of spec.md).
type IssueCode string

const (
	IssueOverTime           IssueCode = "OVER_TIME"
	IssueTooMuchTravel      IssueCode = "TOO_MUCH_TRAVEL"
	IssueOverBudget         IssueCode = "OVER_BUDGET"
	IssueBudgetUnrealistic  IssueCode = "BUDGET_UNREALISTIC"
	IssuePaceMismatch       IssueCode = "PACE_MISMATCH"
	IssueTravelTimeInvalid  IssueCode = "TRAVEL_TIME_INVALID"
	IssueMissingFacts       IssueCode = "MISSING_FACTS"
	IssueRouteBacktracking  IssueCode = "ROUTE_BACKTRACKING"
	IssueDuplicatePOIDay    IssueCode = "DUPLICATE_POI_DAY"
	IssueMissingBackup      IssueCode = "MISSING_BACKUP"
	IssueMustVisitClosed    IssueCode = "MUST_VISIT_CLOSED"
)

// severityWeight gives each severity a numeric weight used by the
// repair loop's progress invariant (budget-monotonicity, §8).
var severityWeight = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 3,
	SeverityHigh:   9,
}

// Issue is a single validator (or must-visit-closed) finding.
type Issue struct {
	Code      IssueCode `json:"code"`
	Severity  Severity  `json:"severity"`
	DayNumber *int      `json:"day_number,omitempty"`
	POIRef    *string   `json:"poi_ref,omitempty"`
	Evidence  string    `json:"evidence"`
}

// IssuesSeverityWeight sums the severity weights of a slice of issues;
// a strictly decreasing value across a Repair transition, or a strict
// decrease in total_cost, proves the repair ladder is making progress.
func IssuesSeverityWeight(issues []Issue) int {
	total := 0
	for _, i := range issues {
		total += severityWeight[i.Severity]
	}
	return total
}

// HasAtLeastMedium reports whether any issue is medium or high
// severity, the condition that sends the orchestrator from Validate to
// Repair (§4.1).
func HasAtLeastMedium(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityMedium || i.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// RunMode distinguishes a fully realtime-sourced run from one that had
// to degrade to heuristic/fixture data.
type RunMode string

const (
	RunModeRealtime RunMode = "REALTIME"
	RunModeDegraded RunMode = "DEGRADED"
)

// RunFingerprint is an auditable record of which providers served a
// given request.
type RunFingerprint struct {
	RunMode             RunMode `json:"run_mode"`
	POIProvider         string  `json:"poi_provider"`
	RouteProvider       string  `json:"route_provider"`
	LLMProvider         string  `json:"llm_provider"`
	StrictExternalData  bool    `json:"strict_external_data"`
	EnvSource           string  `json:"env_source"`
	TraceID             string  `json:"trace_id"`
}

// Itinerary is the finalized (or in-progress) multi-day plan.
type Itinerary struct {
	City                  string           `json:"city"`
	Days                  []ItineraryDay   `json:"days"`
	TotalCost             float64          `json:"total_cost"`
	Assumptions           []string         `json:"assumptions,omitempty"`
	BudgetBreakdown       BudgetBreakdown  `json:"budget_breakdown"`
	MinimumFeasibleBudget float64          `json:"minimum_feasible_budget"`
	ConfidenceScore       float64          `json:"confidence_score"`
	DegradeLevel          DegradeLevel     `json:"degrade_level"`
	Issues                []Issue          `json:"issues,omitempty"`
}
