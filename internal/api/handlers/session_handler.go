package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-ai/planner/internal/session"
)

// SessionHandler serves the read-only session listing and history
// endpoints. Grounded on ai_handler.go's thin query-param-to-store
// handler shape.
type SessionHandler struct {
	store  *session.Store
	tracer trace.Tracer
}

func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store, tracer: otel.Tracer("api.session_handler")}
}

// SessionListResponse is the body of GET /sessions.
type SessionListResponse struct {
	Sessions []string `json:"sessions"`
}

// List handles GET /sessions?limit=N.
func (h *SessionHandler) List(c *fiber.Ctx) error {
	ctx, span := h.tracer.Start(c.Context(), "session_handler.list")
	defer span.End()

	limit := queryInt(c, "limit", 20)
	ids, err := h.store.ListSessions(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(internalErrorResponse())
	}
	return c.JSON(SessionListResponse{Sessions: ids})
}

// HistoryEntryResponse is one entry of GET /sessions/{id}/history.
type HistoryEntryResponse struct {
	RequestID string    `json:"request_id"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse is the body of GET /sessions/{id}/history.
type HistoryResponse struct {
	SessionID string                 `json:"session_id"`
	History   []HistoryEntryResponse `json:"history"`
}

// History handles GET /sessions/{id}/history?limit=N.
func (h *SessionHandler) History(c *fiber.Ctx) error {
	ctx, span := h.tracer.Start(c.Context(), "session_handler.history")
	defer span.End()

	sessionID := c.Params("id")
	if sessionID == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(inputInvalidResponse("session id is required"))
	}

	limit := queryInt(c, "limit", 20)
	entries, err := h.store.History(ctx, sessionID, limit)
	if err != nil {
		span.RecordError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(internalErrorResponse())
	}

	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			RequestID: e.RequestID,
			Message:   e.Message,
			Status:    e.Status,
			CreatedAt: e.CreatedAt,
		})
	}
	return c.JSON(HistoryResponse{SessionID: sessionID, History: out})
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
