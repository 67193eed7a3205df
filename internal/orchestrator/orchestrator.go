package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-ai/planner/internal/callwrap"
	"github.com/wayfarer-ai/planner/internal/clarify"
	"github.com/wayfarer-ai/planner/internal/config"
	"github.com/wayfarer-ai/planner/internal/intake"
	"github.com/wayfarer-ai/planner/internal/llm/providers"
	"github.com/wayfarer-ai/planner/internal/models"
	"github.com/wayfarer-ai/planner/internal/planerr"
	"github.com/wayfarer-ai/planner/internal/repair"
	"github.com/wayfarer-ai/planner/internal/retrieval"
	"github.com/wayfarer-ai/planner/internal/scheduler"
	"github.com/wayfarer-ai/planner/internal/trust"
	"github.com/wayfarer-ai/planner/internal/validator"
)

var tracer = otel.Tracer("orchestrator")

// Dependencies bundles every external collaborator Plan needs, built
// once at startup and shared across requests — the same "wire once,
// pass by reference" shape as config.Config.
type Dependencies struct {
	Config           *config.Config
	LLM              providers.LLMProvider
	RetrievalSources retrieval.Sources
}

// Request is one inbound planning call. EditPatch and PriorItinerary/
// PriorArena are set only on a follow-up edit against an existing plan
// (§4.7) — the session layer is responsible for loading them before
// calling Plan.
type Request struct {
	SessionID      string
	Message        string
	StructuredHint *models.TripConstraints
	ProfileHint    *models.UserProfile

	EditPatch      *EditPatch
	PriorItinerary *models.Itinerary
	PriorArena     *models.Arena
}

// Status is the terminal outcome Plan reports to its caller.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusNeedsClarification Status = "needs_clarification"
	StatusError              Status = "error"
)

// Result is what Plan hands back to the API layer. Constraints/Profile/
// Arena are included (not just the Itinerary) so the API layer can
// persist them as session artifacts without re-deriving anything the
// orchestrator already computed — needed for GET /plans/.../export and
// for a later POST /chat edit_patch to resolve PriorArena.
type Result struct {
	RequestID           string
	SessionID           string
	Status              Status
	Itinerary           *models.Itinerary
	Constraints         *models.TripConstraints
	Profile             *models.UserProfile
	Arena               *models.Arena
	ClarifyingQuestions []string
	RepairRounds        int
	RunFingerprint      models.RunFingerprint
	Err                 *planerr.Error
}

// Plan runs one request through the full pipeline under deps and the
// per-request deadline from config (default 60s, §9). A request
// carrying an EditPatch short-circuits straight to a local retime plus
// Validate, skipping Intake/Retrieve/Schedule entirely.
func Plan(ctx context.Context, req Request, deps Dependencies) *Result {
	requestID := uuid.New().String()
	deadline := deps.Config.RequestDeadline
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ctx, span := tracer.Start(ctx, "orchestrator.plan")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID), attribute.String("session.id", req.SessionID))

	state := &PlanState{
		RequestID:      requestID,
		SessionID:      req.SessionID,
		StartedAt:      time.Now(),
		Message:        req.Message,
		StructuredHint: req.StructuredHint,
		ProfileHint:    req.ProfileHint,
	}

	if req.EditPatch != nil {
		return planEditPatch(ctx, req, state, deps)
	}
	return planFresh(ctx, req, state, deps)
}

func planFresh(ctx context.Context, req Request, state *PlanState, deps Dependencies) *Result {
	if err := stageIntake(ctx, state, deps); err != nil {
		return errorResult(state, err)
	}
	if len(state.MissingFields) > 0 {
		stageClarify(ctx, state, deps)
		return &Result{
			RequestID:           state.RequestID,
			SessionID:           state.SessionID,
			Status:              StatusNeedsClarification,
			ClarifyingQuestions: state.ClarifyingQuestions,
		}
	}

	if err := stageRetrieve(ctx, state, deps); err != nil {
		return errorResult(state, err)
	}
	if err := stageSchedule(ctx, state, deps); err != nil {
		return errorResult(state, err)
	}
	if err := runValidateRepairLoop(ctx, state, deps); err != nil {
		return errorResult(state, err)
	}
	stageFinalize(ctx, state, deps)

	return &Result{
		RequestID:      state.RequestID,
		SessionID:      state.SessionID,
		Status:         StatusOK,
		Itinerary:      state.Itinerary,
		Constraints:    state.Constraints,
		Profile:        state.Profile,
		Arena:          state.Arena,
		RepairRounds:   state.RepairRounds,
		RunFingerprint: state.RunFingerprint,
	}
}

func planEditPatch(ctx context.Context, req Request, state *PlanState, deps Dependencies) *Result {
	if req.PriorItinerary == nil || req.PriorArena == nil || req.StructuredHint == nil {
		return errorResult(state, planerr.New(planerr.InputInvalid, "edit patch requires a prior itinerary, arena, and constraints"))
	}
	state.Arena = req.PriorArena
	state.Constraints = req.StructuredHint

	opts := scheduler.Options{Constraints: state.Constraints, Arena: state.Arena}
	patched, patchIssues, err := ApplyEditPatch(req.PriorItinerary, state.Arena, *req.EditPatch, opts)
	if err != nil {
		return errorResult(state, planerr.Wrap(planerr.InputInvalid, "edit patch could not be applied", err))
	}
	patched.Issues = patchIssues
	state.Itinerary = patched

	if err := runValidateRepairLoop(ctx, state, deps); err != nil {
		return errorResult(state, err)
	}
	stageFinalize(ctx, state, deps)

	return &Result{
		RequestID:      state.RequestID,
		SessionID:      state.SessionID,
		Status:         StatusOK,
		Itinerary:      state.Itinerary,
		Constraints:    state.Constraints,
		Profile:        state.Profile,
		Arena:          state.Arena,
		RepairRounds:   state.RepairRounds,
		RunFingerprint: state.RunFingerprint,
	}
}

func stageIntake(ctx context.Context, state *PlanState, deps Dependencies) error {
	ctx, span := tracer.Start(ctx, "orchestrator.intake")
	defer span.End()
	state.visit(StageIntake)

	var result *intake.Result
	err := callwrap.Call(ctx, callwrap.DefaultPolicy(deps.Config.LLMCallTimeout), func(ctx context.Context) error {
		r, err := intake.Parse(ctx, state.Message, state.StructuredHint, state.ProfileHint, intake.Options{LLM: deps.LLM})
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return wrapStageErr(ctx, planerr.InputInvalid, "intake parse failed", err)
	}
	if ctx.Err() == context.DeadlineExceeded {
		// intake.Parse treats an LLM-strategy failure as non-fatal and
		// falls back to the heuristic pass, so a deadline that expired
		// mid-call never surfaces as err above; check it explicitly.
		return planerr.Wrap(planerr.DeadlineExceeded, "request deadline exceeded during intake", ctx.Err())
	}

	state.Constraints = result.Constraints
	state.Profile = result.Profile
	state.MissingFields = result.MissingFields
	return nil
}

func stageClarify(ctx context.Context, state *PlanState, deps Dependencies) {
	ctx, span := tracer.Start(ctx, "orchestrator.clarify")
	defer span.End()
	state.visit(StageClarify)

	state.ClarifyingQuestions = clarify.Questions(ctx, state.MissingFields, state.Constraints, clarify.Options{LLM: deps.LLM})
}

func stageRetrieve(ctx context.Context, state *PlanState, deps Dependencies) error {
	ctx, span := tracer.Start(ctx, "orchestrator.retrieve")
	defer span.End()
	state.visit(StageRetrieve)

	var result *retrieval.Result
	err := callwrap.Call(ctx, callwrap.DefaultPolicy(deps.Config.MapCallTimeout), func(ctx context.Context) error {
		r, err := retrieval.BuildPool(ctx, deps.RetrievalSources, retrieval.Options{
			Constraints:        state.Constraints,
			Profile:            state.Profile,
			StrictExternalData: deps.Config.StrictExternalData,
		})
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return wrapStageErr(ctx, planerr.ProviderUnavailable, "retrieval could not build a candidate pool", err)
	}

	state.Arena = result.Arena
	state.RoutingConfidence = result.RoutingConfidence
	state.RealtimeProviders = result.RealtimeProviders
	return nil
}

func stageSchedule(ctx context.Context, state *PlanState, deps Dependencies) error {
	ctx, span := tracer.Start(ctx, "orchestrator.schedule")
	defer span.End()
	state.visit(StageSchedule)

	startDate := time.Now()
	if state.Constraints.DateStart != nil {
		if t, err := time.Parse("2006-01-02", *state.Constraints.DateStart); err == nil {
			startDate = t
		}
	}
	var peakAnchor time.Time
	if deps.Config.SpringFestivalDate != "" {
		if t, err := time.Parse(time.RFC3339, deps.Config.SpringFestivalDate); err == nil {
			peakAnchor = t
		}
	}

	itinerary, err := scheduler.Schedule(scheduler.Options{
		Constraints:            state.Constraints,
		Profile:                state.Profile,
		Arena:                  state.Arena,
		StartDate:              startDate,
		PeakAnchor:             peakAnchor,
		FoodMinPerPersonPerDay: deps.Config.FoodMinPerPersonPerDay,
	})
	if err != nil {
		span.RecordError(err)
		return wrapStageErr(ctx, planerr.InternalInvariantViolated, "scheduler failed to produce an itinerary", err)
	}
	if ctx.Err() == context.DeadlineExceeded {
		return planerr.Wrap(planerr.DeadlineExceeded, "request deadline exceeded during scheduling", ctx.Err())
	}

	state.Itinerary = itinerary
	return nil
}

// wrapStageErr classifies a stage failure as DeadlineExceeded when the
// request's own per-request deadline (§9, default 60s) has actually
// elapsed, distinct from a single provider call timing out and being
// folded into a retry or degrade decision by callwrap/retrieval. Falls
// back to the stage's ordinary taxonomy code otherwise.
func wrapStageErr(ctx context.Context, fallback planerr.Code, msg string, err error) *planerr.Error {
	if ctx.Err() == context.DeadlineExceeded {
		return planerr.Wrap(planerr.DeadlineExceeded, msg, err)
	}
	return planerr.Wrap(fallback, msg, err)
}

// runValidateRepairLoop bounds Validate -> Repair -> Validate at
// MAX_REPAIR_ROUNDS (§9); each repair round must strictly improve the
// issue set (§8 budget monotonicity) or the loop stops early and
// accepts the itinerary as-is, same as the repair ladder's own "accept"
// rung.
func runValidateRepairLoop(ctx context.Context, state *PlanState, deps Dependencies) error {
	maxRounds := deps.Config.MaxRepairRounds
	if maxRounds <= 0 {
		maxRounds = 3
	}

	vopts := validator.Options{Constraints: state.Constraints, Arena: state.Arena}
	state.Issues = runValidate(ctx, state.Itinerary, vopts)

	mode := string(state.Constraints.TransportMode)
	state.EffectiveMode = mode
	prevWeight := models.IssuesSeverityWeight(state.Issues)
	prevCost := state.Itinerary.TotalCost

	round := 0
	for ; round < maxRounds; round++ {
		if !models.HasAtLeastMedium(state.Issues) {
			break
		}

		result := repair.Apply(state.Itinerary, state.Issues, repair.Options{
			Constraints: state.Constraints,
			Arena:       state.Arena,
			Mode:        mode,
		})
		state.RepairRounds++
		state.RepairHistory = append(state.RepairHistory, result.StrategyUsed)
		mode = result.Mode
		state.Itinerary.Assumptions = append(state.Itinerary.Assumptions, result.Assumptions...)

		if result.StrategyUsed == "accept" {
			break
		}

		state.Itinerary = result.Itinerary
		state.Itinerary.TotalCost = recomputeTotalCost(state.Itinerary, state.Arena)
		state.Issues = runValidate(ctx, state.Itinerary, vopts)

		newWeight := models.IssuesSeverityWeight(state.Issues)
		newCost := state.Itinerary.TotalCost
		if newWeight >= prevWeight && newCost >= prevCost {
			// Progress invariant violated: the rung didn't actually
			// improve anything. Stop rather than loop to no effect.
			break
		}
		prevWeight, prevCost = newWeight, newCost
	}

	// The loop only runs to completion (round == maxRounds) when every
	// round was spent and medium+ issues are still open; a break via
	// convergence, "accept", or the no-progress guard above leaves
	// round < maxRounds.
	state.RepairExhausted = round == maxRounds && models.HasAtLeastMedium(state.Issues)

	state.Itinerary.Issues = state.Issues
	state.EffectiveMode = mode

	if ctx.Err() == context.DeadlineExceeded {
		return planerr.Wrap(planerr.DeadlineExceeded, "request deadline exceeded during validate/repair", ctx.Err())
	}
	return nil
}

// recomputeTotalCost sums each scheduled POI's ticket cost across every
// day, so a repair round that drops or substitutes stops is reflected
// immediately rather than trusting a BudgetBreakdown computed before
// the round ran — the repair ladder doesn't re-run Scheduler Phase 4.
func recomputeTotalCost(itinerary *models.Itinerary, arena *models.Arena) float64 {
	total := 0.0
	for _, day := range itinerary.Days {
		for _, item := range day.Items {
			if p, ok := arena.Get(item.POIRef); ok {
				total += p.TicketPrice
			}
		}
	}
	total += itinerary.BudgetBreakdown.LocalTransport + itinerary.BudgetBreakdown.FoodMin
	return total
}

func runValidate(ctx context.Context, itinerary *models.Itinerary, opts validator.Options) []models.Issue {
	_, span := tracer.Start(ctx, "orchestrator.validate")
	defer span.End()
	issues := validator.Validate(itinerary, opts)
	span.SetAttributes(attribute.Int("issues.count", len(issues)))
	return issues
}

func stageFinalize(ctx context.Context, state *PlanState, deps Dependencies) {
	_, span := tracer.Start(ctx, "orchestrator.finalize")
	defer span.End()
	state.visit(StageFinalize)

	score := trust.Evaluate(state.Itinerary, state.Arena, trust.Options{
		RoutingConfidence: state.RoutingConfidence,
		RealtimeProviders: state.RealtimeProviders,
	})
	switch {
	case state.RepairExhausted:
		// MAX_REPAIR_ROUNDS ran out with medium+ issues still open:
		// forced straight to the floor rather than the usual one-step
		// climb (§4.1).
		score.DegradeLevel = models.DegradeL3
	case len(state.RepairHistory) > 0:
		score.DegradeLevel = trust.ApplyDegradeLevel(score.DegradeLevel)
	}

	state.Itinerary.ConfidenceScore = score.ConfidenceScore
	state.Itinerary.DegradeLevel = score.DegradeLevel

	runMode := models.RunModeRealtime
	if !state.RealtimeProviders {
		runMode = models.RunModeDegraded
	}

	state.RunFingerprint = trust.Fingerprint(
		runMode,
		providerNameOf(deps.RetrievalSources),
		routeProviderNameOf(deps.RetrievalSources),
		llmProviderName(deps.LLM),
		deps.Config.Environment,
		traceIDOf(ctx),
		deps.Config.StrictExternalData,
	)
}

func providerNameOf(sources retrieval.Sources) string {
	if sources.Map != nil {
		return sources.Map.Name()
	}
	if sources.Curated != nil {
		return sources.Curated.Name()
	}
	return "none"
}

func routeProviderNameOf(sources retrieval.Sources) string {
	if sources.Map != nil {
		return sources.Map.Name()
	}
	return "fixture"
}

func llmProviderName(llm providers.LLMProvider) string {
	if llm == nil {
		return "none"
	}
	return llm.GetName()
}

func traceIDOf(ctx context.Context) string {
	span := trace.SpanContextFromContext(ctx)
	if !span.HasTraceID() {
		return ""
	}
	return span.TraceID().String()
}

func errorResult(state *PlanState, err error) *Result {
	code := planerr.CodeOf(err)
	var pe *planerr.Error
	if e, ok := err.(*planerr.Error); ok {
		pe = e
	} else {
		pe = planerr.Wrap(code, "plan failed", err)
	}
	return &Result{RequestID: state.RequestID, SessionID: state.SessionID, Status: StatusError, Err: pe, RepairRounds: state.RepairRounds}
}
