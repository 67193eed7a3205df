package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner/internal/orchestrator"
)

func TestHealthHandler_Health(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler(orchestrator.Dependencies{})
	app.Get("/health", h.Health)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthHandler_Live(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler(orchestrator.Dependencies{})
	app.Get("/live", h.Live)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthHandler_ReadyDegradesWithoutCuratedSource(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler(orchestrator.Dependencies{})
	app.Get("/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode, "no curated provider configured means not ready")
}

func TestCheckRetrievalSource_NilIsUnavailable(t *testing.T) {
	status := checkRetrievalSource(nil)
	assert.Equal(t, "unavailable", status.Status)
}

func TestCheckLLMProvider_NilIsUnavailable(t *testing.T) {
	status := checkLLMProvider(nil, orchestrator.Dependencies{})
	assert.Equal(t, "unavailable", status.Status)
}
