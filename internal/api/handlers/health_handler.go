package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-ai/planner/internal/orchestrator"
	"github.com/wayfarer-ai/planner/internal/retrieval"
)

// HealthHandler serves /health, /ready, and /live. Adapted
// from the teacher's Ollama/LLM-provider health probes, generalized
// from "is this one model provider up" to "are the orchestrator's own
// dependencies up" (the LLM provider and every retrieval source).
type HealthHandler struct {
	deps   orchestrator.Dependencies
	tracer trace.Tracer
}

func NewHealthHandler(deps orchestrator.Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps, tracer: otel.Tracer("api.health_handler")}
}

var startTime = time.Now()

// HealthResponse is the body of GET /health — §6 only requires
// {"status":"ok"}, kept minimal so a load balancer's probe stays cheap.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health answers the liveness-style /health check. It never touches a
// dependency: a slow LLM provider must not make the process look down.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok"})
}

// ServiceStatus is the per-dependency detail behind /ready.
type ServiceStatus struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// ReadinessResponse is the body of GET /ready.
type ReadinessResponse struct {
	Ready     bool                      `json:"ready"`
	Timestamp time.Time                 `json:"timestamp"`
	Checks    map[string]*ServiceStatus `json:"checks"`
}

// Ready checks the LLM provider and every retrieval source the
// orchestrator depends on, so a load balancer can pull a pod out of
// rotation before it starts failing plan requests.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, span := h.tracer.Start(c.Context(), "health_handler.ready")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	checks := make(map[string]*ServiceStatus)
	ready := true

	llmStatus := checkLLMProvider(ctx, h.deps)
	checks["llm_provider"] = llmStatus
	// The LLM provider is optional: only a configured provider that fails
	// its probe fails readiness.
	if llmStatus.Status == "unhealthy" {
		ready = false
	}

	checks["retrieval_curated"] = checkRetrievalSource(h.deps.RetrievalSources.Curated)
	checks["retrieval_map"] = checkRetrievalSource(h.deps.RetrievalSources.Map)
	checks["retrieval_llm"] = checkRetrievalSource(h.deps.RetrievalSources.LLM)
	// Curated is the only source §4.4 treats as required; Map/LLM are
	// optional fallbacks, so their absence never fails readiness.
	if checks["retrieval_curated"].Status != "healthy" {
		ready = false
	}

	span.SetAttributes(
		attribute.Bool("readiness.ready", ready),
		attribute.Int("readiness.checks_count", len(checks)),
	)

	statusCode := fiber.StatusOK
	if !ready {
		statusCode = fiber.StatusServiceUnavailable
	}
	return c.Status(statusCode).JSON(ReadinessResponse{Ready: ready, Timestamp: time.Now(), Checks: checks})
}

func checkLLMProvider(ctx context.Context, deps orchestrator.Dependencies) *ServiceStatus {
	if deps.LLM == nil {
		return &ServiceStatus{Status: "unavailable", Error: "no LLM provider configured"}
	}
	start := time.Now()
	_, err := deps.LLM.GetModels(ctx)
	if err != nil {
		return &ServiceStatus{Status: "unhealthy", ResponseTime: time.Since(start), Error: err.Error()}
	}
	return &ServiceStatus{Status: "healthy", ResponseTime: time.Since(start)}
}

// checkRetrievalSource reports presence rather than probing live:
// retrieval.Provider has no cheap no-op call, and a real PoiSearch is
// too expensive to run on every /ready poll.
func checkRetrievalSource(src retrieval.Provider) *ServiceStatus {
	if src == nil {
		return &ServiceStatus{Status: "unavailable", Error: "not configured"}
	}
	return &ServiceStatus{Status: "healthy"}
}

// LivenessResponse is the body of GET /live.
type LivenessResponse struct {
	Alive  bool          `json:"alive"`
	Uptime time.Duration `json:"uptime"`
}

// Live answers the process-liveness probe: reachable means alive,
// regardless of downstream dependency health.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(LivenessResponse{Alive: true, Uptime: time.Since(startTime)})
}
