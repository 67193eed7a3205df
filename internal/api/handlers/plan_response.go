package handlers

import (
	"github.com/wayfarer-ai/planner/internal/models"
	"github.com/wayfarer-ai/planner/internal/orchestrator"
	"github.com/wayfarer-ai/planner/internal/planerr"
)

// PlanResponse is the wire shape returned by POST /plan and POST /chat.
type PlanResponse struct {
	Status          string                 `json:"status"`
	Message         string                 `json:"message"`
	Itinerary       *models.Itinerary      `json:"itinerary,omitempty"`
	SessionID       string                 `json:"session_id"`
	RequestID       string                 `json:"request_id"`
	TraceID         string                 `json:"trace_id,omitempty"`
	DegradeLevel    models.DegradeLevel    `json:"degrade_level,omitempty"`
	ConfidenceScore float64                `json:"confidence_score,omitempty"`
	Issues          []models.Issue         `json:"issues,omitempty"`
	NextQuestions   []string               `json:"next_questions,omitempty"`
	FieldEvidence   map[string]string      `json:"field_evidence,omitempty"`
	RunFingerprint  *models.RunFingerprint `json:"run_fingerprint,omitempty"`
	SequenceNumber  int                    `json:"sequence_number,omitempty"`
	ErrorCode       string                 `json:"error_code,omitempty"`
}

// errorMessages maps each orchestrator error taxonomy code to the
// human-readable text §7 requires alongside error_code — no stack
// trace or internal detail leaks past this string.
var errorMessages = map[string]string{
	"input_invalid":               "the request could not be understood; please clarify",
	"provider_unavailable":        "an upstream provider is unavailable",
	"deadline_exceeded":           "the request took too long and was aborted",
	"internal_invariant_violated": "an internal error occurred while building the itinerary",
	"rate_limited":                "too many requests; please retry later",
}

// toResponse translates an orchestrator Result into the wire shape,
// computing field_evidence against the caller's original hint since
// Result only carries the final, intake-settled constraints.
func toResponse(result *orchestrator.Result, hint *models.TripConstraints, sessionID string, sequenceNumber int, traceID string) (*PlanResponse, int) {
	resp := &PlanResponse{
		SessionID:      sessionID,
		RequestID:      result.RequestID,
		TraceID:        traceID,
		SequenceNumber: sequenceNumber,
	}

	switch result.Status {
	case orchestrator.StatusOK:
		resp.Status = "done"
		resp.Message = "itinerary ready"
		resp.Itinerary = result.Itinerary
		resp.DegradeLevel = result.Itinerary.DegradeLevel
		resp.ConfidenceScore = result.Itinerary.ConfidenceScore
		resp.Issues = result.Itinerary.Issues
		resp.FieldEvidence = deriveFieldEvidence(hint, result.Constraints)
		fingerprint := result.RunFingerprint
		resp.RunFingerprint = &fingerprint
		if resp.TraceID == "" {
			resp.TraceID = fingerprint.TraceID
		}
		return resp, 200

	case orchestrator.StatusNeedsClarification:
		resp.Status = "clarifying"
		resp.Message = "more information is needed before an itinerary can be built"
		resp.NextQuestions = result.ClarifyingQuestions
		return resp, 200

	default: // StatusError
		resp.Status = "error"
		code := "internal_invariant_violated"
		if result.Err != nil {
			code = string(result.Err.Code)
			resp.Message = result.Err.Error()
		}
		resp.ErrorCode = code
		if msg, ok := errorMessages[code]; ok {
			resp.Message = msg
		}
		status := 500
		if result.Err != nil {
			status = planerr.HTTPStatus(result.Err.Code)
		}
		return resp, status
	}
}

// deriveFieldEvidence classifies each settled constraint field as
// "user_stated" (the caller's hint already carried this exact value)
// or "inferred" (Intake filled it in — a default, an LLM guess, or a
// clarify-loop answer). There is no richer provenance signal available
// past Intake, so this is a coarse two-way split rather than a full
// per-field source trail.
func deriveFieldEvidence(hint, final *models.TripConstraints) map[string]string {
	if final == nil {
		return nil
	}
	ev := make(map[string]string)

	var hintCity string
	var hintDays int
	var hintDailyBudget *float64
	var hintTransport models.TransportMode
	var hintPace models.Pace
	var hintMustVisit, hintAvoid []string
	if hint != nil {
		hintCity = hint.City
		hintDays = hint.Days
		hintDailyBudget = hint.DailyBudget
		hintTransport = hint.TransportMode
		hintPace = hint.Pace
		hintMustVisit = hint.MustVisit
		hintAvoid = hint.Avoid
	}

	setEvidence(ev, "city", final.City != "", hintCity == final.City && hintCity != "")
	setEvidence(ev, "days", final.Days > 0, hintDays == final.Days && hintDays > 0)
	setEvidence(ev, "transport_mode", final.TransportMode != "", string(hintTransport) == string(final.TransportMode) && hintTransport != "")
	setEvidence(ev, "pace", final.Pace != "", string(hintPace) == string(final.Pace) && hintPace != "")

	budgetMatches := hintDailyBudget != nil && final.DailyBudget != nil && *hintDailyBudget == *final.DailyBudget
	setEvidence(ev, "daily_budget", final.DailyBudget != nil, budgetMatches)

	setEvidence(ev, "must_visit", len(final.MustVisit) > 0, sameStrings(hintMustVisit, final.MustVisit))
	setEvidence(ev, "avoid", len(final.Avoid) > 0, sameStrings(hintAvoid, final.Avoid))

	return ev
}

func setEvidence(ev map[string]string, field string, present, userStated bool) {
	if !present {
		return
	}
	if userStated {
		ev[field] = "user_stated"
	} else {
		ev[field] = "inferred"
	}
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
