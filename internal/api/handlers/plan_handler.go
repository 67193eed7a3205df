package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-ai/planner/internal/audit"
	"github.com/wayfarer-ai/planner/internal/metrics"
	"github.com/wayfarer-ai/planner/internal/models"
	"github.com/wayfarer-ai/planner/internal/orchestrator"
	"github.com/wayfarer-ai/planner/internal/session"
)

// PlanHandler serves POST /plan and POST /chat, the two entrypoints
// into orchestrator.Plan. Adapted from ai_handler.go's Chat handler
// shape (BodyParser + fiber.Map error responses + span-per-request),
// generalized from a single chat turn to the full plan/clarify/repair
// response envelope of §6.
type PlanHandler struct {
	deps    orchestrator.Dependencies
	store   *session.Store
	audit   *audit.Logger
	metrics *metrics.MetricsCollector
	tracer  trace.Tracer
}

// NewPlanHandler builds a PlanHandler. auditLogger and metricsCollector
// may be nil in tests that don't care about side-channel recording.
func NewPlanHandler(deps orchestrator.Dependencies, store *session.Store, auditLogger *audit.Logger, metricsCollector *metrics.MetricsCollector) *PlanHandler {
	return &PlanHandler{
		deps:    deps,
		store:   store,
		audit:   auditLogger,
		metrics: metricsCollector,
		tracer:  otel.Tracer("api.plan_handler"),
	}
}

// PlanRequestBody is the body of POST /plan.
type PlanRequestBody struct {
	Message     string                  `json:"message"`
	Constraints *models.TripConstraints `json:"constraints,omitempty"`
	UserProfile *models.UserProfile     `json:"user_profile,omitempty"`
	Metadata    map[string]interface{}  `json:"metadata,omitempty"`
}

// ChatRequestBody is the body of POST /chat.
type ChatRequestBody struct {
	SessionID string                 `json:"session_id"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Plan handles POST /plan: always starts a fresh session.
func (h *PlanHandler) Plan(c *fiber.Ctx) error {
	ctx, span := h.tracer.Start(c.Context(), "plan_handler.plan")
	defer span.End()

	var body PlanRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("request body could not be parsed"))
	}
	if body.Message == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("message is required"))
	}

	sessionID := uuid.New().String()
	if err := h.store.EnsureSession(ctx, sessionID); err != nil {
		span.RecordError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(internalErrorResponse())
	}
	unlock := h.store.Lock(sessionID)
	defer unlock()

	span.SetAttributes(attribute.String("session.id", sessionID))

	result := orchestrator.Plan(ctx, orchestrator.Request{
		SessionID:      sessionID,
		Message:        body.Message,
		StructuredHint: body.Constraints,
		ProfileHint:    body.UserProfile,
	}, h.deps)

	return h.respond(c, ctx, result, body.Constraints, sessionID, body.Message)
}

// Chat handles POST /chat: continues an existing session, optionally
// applying metadata.edit_patch against its most recent plan.
func (h *PlanHandler) Chat(c *fiber.Ctx) error {
	ctx, span := h.tracer.Start(c.Context(), "plan_handler.chat")
	defer span.End()

	var body ChatRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("request body could not be parsed"))
	}
	if body.SessionID == "" || body.Message == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("session_id and message are required"))
	}

	if err := h.store.EnsureSession(ctx, body.SessionID); err != nil {
		span.RecordError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(internalErrorResponse())
	}
	unlock := h.store.Lock(body.SessionID)
	defer unlock()

	span.SetAttributes(attribute.String("session.id", body.SessionID))

	editPatch, err := parseEditPatch(body.Metadata)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse(err.Error()))
	}

	req := orchestrator.Request{SessionID: body.SessionID, Message: body.Message}
	var hint *models.TripConstraints

	if editPatch != nil {
		prior, err := h.store.GetLatestRequest(ctx, body.SessionID)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("no prior plan found for this session"))
		}
		priorPlan, err := h.store.GetPlan(ctx, prior.ID)
		if err != nil || priorPlan.Itinerary == nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("no prior itinerary found for this session"))
		}
		priorArena, err := h.store.GetArena(ctx, prior.ID)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("no prior candidate pool found for this session"))
		}
		req.EditPatch = editPatch
		req.PriorItinerary = priorPlan.Itinerary
		req.PriorArena = priorArena
		req.StructuredHint = prior.Constraints
		hint = prior.Constraints
	}

	result := orchestrator.Plan(ctx, req, h.deps)
	return h.respond(c, ctx, result, hint, body.SessionID, body.Message)
}

// respond persists the request/plan/arena artifacts, records audit and
// metrics side effects, and writes the HTTP response common to Plan
// and Chat.
func (h *PlanHandler) respond(c *fiber.Ctx, ctx context.Context, result *orchestrator.Result, hint *models.TripConstraints, sessionID, message string) error {
	seq, _ := h.store.NextSequenceNumber(ctx, sessionID) // best-effort; a sequencing failure shouldn't block the response

	traceID := traceIDFromContext(ctx)
	resp, status := toResponse(result, hint, sessionID, seq, traceID)

	h.persist(ctx, result, sessionID, message, seq)
	h.recordSideEffects(ctx, result, sessionID)

	return c.Status(status).JSON(resp)
}

// persist writes the request/plan/arena artifacts this result produced,
// swallowing storage errors — a persistence failure must not turn a
// successfully computed plan into a 5xx for the caller.
func (h *PlanHandler) persist(ctx context.Context, result *orchestrator.Result, sessionID, message string, seq int) {
	_ = h.store.SaveRequest(ctx, session.RequestRecord{
		ID:             result.RequestID,
		SessionID:      sessionID,
		SequenceNumber: seq,
		Message:        message,
		Constraints:    result.Constraints,
		Profile:        result.Profile,
	})

	if result.Status != orchestrator.StatusOK {
		return
	}

	_ = h.store.SavePlan(ctx, session.PlanRecord{
		RequestID:      result.RequestID,
		SessionID:      sessionID,
		Status:         string(result.Status),
		Itinerary:      result.Itinerary,
		RunFingerprint: result.RunFingerprint,
	})
	if result.Arena != nil {
		_ = h.store.SaveArena(ctx, result.RequestID, result.Arena)
	}
}

// recordSideEffects logs an audit trail entry and a metrics sample for
// this result — both best-effort, neither gates the HTTP response.
func (h *PlanHandler) recordSideEffects(ctx context.Context, result *orchestrator.Result, sessionID string) {
	degradeLevel := ""
	if result.Itinerary != nil {
		degradeLevel = string(result.Itinerary.DegradeLevel)
	}

	if h.metrics != nil {
		h.metrics.RecordPlanRequest(string(result.Status), degradeLevel, result.RepairRounds, 0)
	}
	if h.audit == nil {
		return
	}

	switch result.Status {
	case orchestrator.StatusOK:
		h.audit.Record(ctx, audit.CategoryPlan, "plan_completed", sessionID, result.RequestID, map[string]interface{}{
			"degrade_level": degradeLevel,
			"repair_rounds": result.RepairRounds,
		})
		if result.RepairRounds > 0 {
			h.audit.Record(ctx, audit.CategoryRepair, "repair_applied", sessionID, result.RequestID, map[string]interface{}{
				"rounds": result.RepairRounds,
			})
		}
	case orchestrator.StatusNeedsClarification:
		h.audit.Record(ctx, audit.CategoryClarify, "clarification_requested", sessionID, result.RequestID, map[string]interface{}{
			"questions": len(result.ClarifyingQuestions),
		})
	case orchestrator.StatusError:
		code := "unknown"
		if result.Err != nil {
			code = string(result.Err.Code)
		}
		h.audit.Record(ctx, audit.CategoryPlan, "plan_failed", sessionID, result.RequestID, map[string]interface{}{
			"error_code": code,
		})
	}
}

func traceIDFromContext(ctx context.Context) string {
	span := trace.SpanContextFromContext(ctx)
	if !span.HasTraceID() {
		return ""
	}
	return span.TraceID().String()
}

func inputInvalidResponse(message string) *PlanResponse {
	return &PlanResponse{Status: "error", Message: message, ErrorCode: "input_invalid"}
}

func internalErrorResponse() *PlanResponse {
	return &PlanResponse{Status: "error", Message: "an internal error occurred", ErrorCode: "internal_invariant_violated"}
}
