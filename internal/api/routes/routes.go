// Package routes wires the planning API's handlers into a Fiber
// route table. Grounded on ai_routes.go's grouping style
// (api := app.Group(...), then per-concern subgroups), generalized
// from the AI-chat-demo surface to the full planning API of §6.
package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wayfarer-ai/planner/internal/api/handlers"
	"github.com/wayfarer-ai/planner/internal/auth"
	"github.com/wayfarer-ai/planner/internal/ratelimit"
)

// Handlers bundles every handler Setup wires into the route table.
type Handlers struct {
	Plan        *handlers.PlanHandler
	Session     *handlers.SessionHandler
	Export      *handlers.ExportHandler
	Diagnostics *handlers.DiagnosticsHandler
	Health      *handlers.HealthHandler
}

// Setup registers every route in §6's external interface. limiter and
// tokenManager may be nil — in which case their middleware is skipped
// entirely, which test setups rely on.
func Setup(app *fiber.App, h Handlers, limiter ratelimit.Allower, tokenManager *auth.TokenManager, allowUnauthenticated bool) {
	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)
	app.Get("/live", h.Health.Live)

	api := app.Group("/api/v1")
	if limiter != nil {
		api.Use(ratelimit.Middleware(limiter))
	}

	api.Post("/plan", h.Plan.Plan)
	api.Post("/chat", h.Plan.Chat)

	api.Get("/sessions", h.Session.List)
	api.Get("/sessions/:id/history", h.Session.History)
	api.Get("/plans/:request_id/export", h.Export.Export)

	ops := api.Group("")
	if tokenManager != nil {
		ops.Use(auth.RequireBearerToken(tokenManager, allowUnauthenticated))
	}
	ops.Get("/metrics", h.Diagnostics.Metrics)
	ops.Get("/metrics/prometheus", h.Diagnostics.Prometheus)
	ops.Get("/diagnostics", h.Diagnostics.Diagnostics)
}
