// Package orchestrator runs the full Intake -> Retrieve -> Schedule ->
// Validate -> Repair -> Finalize pipeline of §9 as an explicit state
// machine: a PlanState struct plus a sequence of stage functions, each
// updating that state in place and returning a terminal error or nil. This
// replaces a dynamic graph-executor node/edge traversal with a fixed,
// statically readable call sequence — the itinerary pipeline has one
// path through it, not an arbitrary graph, so there is nothing a
// dynamic executor buys here that a direct call chain doesn't.
package orchestrator

import (
	"time"

	"github.com/wayfarer-ai/planner/internal/models"
)

// Stage names the pipeline step a PlanState is at or just completed,
// recorded for tracing and for the orchestrator's NodesVisited-style
// history.
type Stage string

const (
	StageIntake    Stage = "intake"
	StageClarify   Stage = "clarify"
	StageRetrieve  Stage = "retrieve"
	StageSchedule  Stage = "schedule"
	StageValidate  Stage = "validate"
	StageRepair    Stage = "repair"
	StageFinalize  Stage = "finalize"
)

// PlanState threads through every stage function. Stages mutate it in
// place rather than passing loose parameters, matching the
// teacher's State-object convention in internal/langgraph/state.go.
type PlanState struct {
	RequestID string
	SessionID string
	StartedAt time.Time

	Message        string
	StructuredHint *models.TripConstraints
	ProfileHint    *models.UserProfile

	Constraints *models.TripConstraints
	Profile     *models.UserProfile

	Arena *models.Arena

	Itinerary *models.Itinerary
	Issues    []models.Issue

	RepairRounds    int
	RepairHistory   []string
	StrategyLadder  []string
	RepairExhausted bool   // true iff MAX_REPAIR_ROUNDS ran out with medium+ issues still open
	EffectiveMode   string // transport mode actually used after any upgrade_transport rungs

	RoutingConfidence float64
	RealtimeProviders bool

	MissingFields       []string
	ClarifyingQuestions []string

	RunFingerprint models.RunFingerprint

	StagesVisited []Stage
}

func (s *PlanState) visit(stage Stage) {
	s.StagesVisited = append(s.StagesVisited, stage)
}
