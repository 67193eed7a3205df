package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner/internal/audit"
	"github.com/wayfarer-ai/planner/internal/metrics"
)

func TestDiagnosticsHandler_MetricsUnavailableWithoutCollector(t *testing.T) {
	app := fiber.New()
	h := NewDiagnosticsHandler(nil, nil, nil)
	app.Get("/metrics", h.Metrics)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestDiagnosticsHandler_Diagnostics(t *testing.T) {
	app := fiber.New()
	collector := metrics.NewMetricsCollector()
	collector.RecordPlanRequest("ok", "L0", 0, 0)

	logger := audit.NewLogger(audit.NewRingStorage(10))
	logger.Start()
	defer logger.Stop()

	h := NewDiagnosticsHandler(collector, logger, nil)
	app.Get("/diagnostics", h.Diagnostics)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/diagnostics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestDiagnosticsHandler_Prometheus(t *testing.T) {
	app := fiber.New()
	collector := metrics.NewMetricsCollector()
	h := NewDiagnosticsHandler(collector, nil, nil)
	app.Get("/metrics/prometheus", h.Prometheus)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics/prometheus", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")
}
