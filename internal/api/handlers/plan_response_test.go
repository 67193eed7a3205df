package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner/internal/models"
	"github.com/wayfarer-ai/planner/internal/orchestrator"
	"github.com/wayfarer-ai/planner/internal/planerr"
)

func budget(v float64) *float64 { return &v }

func TestToResponse_OK(t *testing.T) {
	hint := &models.TripConstraints{City: "Lisbon", Days: 3, Pace: models.PaceModerate}
	final := &models.TripConstraints{City: "Lisbon", Days: 3, Pace: models.PaceModerate, TransportMode: models.TransportWalking, DailyBudget: budget(80)}

	result := &orchestrator.Result{
		RequestID:   "req-1",
		Status:      orchestrator.StatusOK,
		Constraints: final,
		Itinerary: &models.Itinerary{
			City:            "Lisbon",
			DegradeLevel:    models.DegradeL0,
			ConfidenceScore: 0.9,
		},
		RunFingerprint: models.RunFingerprint{TraceID: "trace-1"},
	}

	resp, status := toResponse(result, hint, "sess-1", 1, "")
	require.Equal(t, 200, status)
	assert.Equal(t, "done", resp.Status)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "trace-1", resp.TraceID, "falls back to the run fingerprint's trace id when none came from the span")
	assert.Equal(t, "user_stated", resp.FieldEvidence["city"])
	assert.Equal(t, "inferred", resp.FieldEvidence["transport_mode"])
	assert.Equal(t, "inferred", resp.FieldEvidence["daily_budget"])
}

func TestToResponse_NeedsClarification(t *testing.T) {
	result := &orchestrator.Result{
		RequestID:           "req-2",
		Status:              orchestrator.StatusNeedsClarification,
		ClarifyingQuestions: []string{"how many days?"},
	}

	resp, status := toResponse(result, nil, "sess-2", 1, "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "clarifying", resp.Status)
	assert.Equal(t, []string{"how many days?"}, resp.NextQuestions)
}

func TestToResponse_Error(t *testing.T) {
	result := &orchestrator.Result{
		RequestID: "req-3",
		Status:    orchestrator.StatusError,
		Err:       &planerr.Error{Code: planerr.ProviderUnavailable, Message: "map down"},
	}

	resp, status := toResponse(result, nil, "sess-3", 1, "")
	assert.Equal(t, planerr.HTTPStatus(planerr.ProviderUnavailable), status)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "provider_unavailable", resp.ErrorCode)
	assert.Equal(t, errorMessages["provider_unavailable"], resp.Message)
}

func TestDeriveFieldEvidence_NilHint(t *testing.T) {
	final := &models.TripConstraints{City: "Porto", Days: 2}
	ev := deriveFieldEvidence(nil, final)
	assert.Equal(t, "inferred", ev["city"])
	assert.Equal(t, "inferred", ev["days"])
}

func TestDeriveFieldEvidence_MustVisitMatch(t *testing.T) {
	hint := &models.TripConstraints{City: "Porto", Days: 2, MustVisit: []string{"a", "b"}}
	final := &models.TripConstraints{City: "Porto", Days: 2, MustVisit: []string{"a", "b"}}
	ev := deriveFieldEvidence(hint, final)
	assert.Equal(t, "user_stated", ev["must_visit"])
}
