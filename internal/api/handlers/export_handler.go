package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-ai/planner/internal/models"
	"github.com/wayfarer-ai/planner/internal/session"
)

// ExportHandler serves GET /plans/{request_id}/export, returning a
// persisted plan as JSON by default or as Markdown with
// ?format=markdown. Grounded on the teacher's plain JSON-response
// handler shape, with a Markdown renderer added for the structural
// day-by-day layout only — no narrative text generation.
type ExportHandler struct {
	store  *session.Store
	tracer trace.Tracer
}

func NewExportHandler(store *session.Store) *ExportHandler {
	return &ExportHandler{store: store, tracer: otel.Tracer("api.export_handler")}
}

// Export handles GET /plans/{request_id}/export[?format=markdown].
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	ctx, span := h.tracer.Start(c.Context(), "export_handler.export")
	defer span.End()

	requestID := c.Params("request_id")
	if requestID == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("request_id is required"))
	}

	plan, err := h.store.GetPlan(ctx, requestID)
	if err != nil {
		if err == session.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(inputInvalidResponse("no plan found for this request id"))
		}
		span.RecordError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(internalErrorResponse())
	}
	if plan.Itinerary == nil {
		return c.Status(fiber.StatusNotFound).JSON(inputInvalidResponse("this request produced no itinerary"))
	}

	if c.Query("format") == "markdown" {
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		return c.SendString(renderMarkdown(plan.Itinerary))
	}

	return c.JSON(fiber.Map{
		"request_id":      requestID,
		"status":          plan.Status,
		"itinerary":       plan.Itinerary,
		"run_fingerprint": plan.RunFingerprint,
	})
}

// renderMarkdown produces a structural day-by-day rendering of an
// itinerary: headings, a stop list per day, and the budget summary.
// Deliberately not a natural-language narrative.
func renderMarkdown(it *models.Itinerary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %d-day itinerary: %s\n\n", len(it.Days), it.City)
	fmt.Fprintf(&b, "Total cost: %.2f | Confidence: %.2f | Degrade level: %s\n\n", it.TotalCost, it.ConfidenceScore, it.DegradeLevel)

	for _, day := range it.Days {
		fmt.Fprintf(&b, "## Day %d", day.DayNumber)
		if day.Date != "" {
			fmt.Fprintf(&b, " (%s)", day.Date)
		}
		b.WriteString("\n\n")

		for _, item := range day.Items {
			fmt.Fprintf(&b, "- %s–%s: %s",
				item.StartTime.Format("15:04"), item.EndTime.Format("15:04"), item.POIRef)
			if item.TravelMinutes > 0 {
				fmt.Fprintf(&b, " (%d min travel)", item.TravelMinutes)
			}
			if item.Notes != "" {
				fmt.Fprintf(&b, " — %s", item.Notes)
			}
			b.WriteString("\n")
		}

		if day.DaySummary != "" {
			fmt.Fprintf(&b, "\n%s\n", day.DaySummary)
		}
		fmt.Fprintf(&b, "\nEstimated cost: %.2f | Travel time: %d min\n\n", day.EstimatedCost, day.TotalTravelMinutes)
	}

	if len(it.Assumptions) > 0 {
		b.WriteString("## Assumptions\n\n")
		for _, a := range it.Assumptions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		b.WriteString("\n")
	}

	if len(it.Issues) > 0 {
		b.WriteString("## Known issues\n\n")
		for _, iss := range it.Issues {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", iss.Severity, iss.Code, iss.Evidence)
		}
	}

	return b.String()
}
