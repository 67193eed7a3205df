// Package clarify emits targeted follow-up questions when Intake could
// not fill every required or high-priority field, per §4.3. It never
// schedules anything — callers checking len(Questions) > 0 know to stop
// and wait for the user's answer instead of proceeding to Retrieve.
package clarify

import (
	"context"
	"fmt"

	"github.com/wayfarer-ai/planner/internal/llm/providers"
	"github.com/wayfarer-ai/planner/internal/models"
)

// maxQuestions bounds a single clarify round to 1–3 questions (§4.3).
const maxQuestions = 3

// fieldPriority orders candidate clarifying fields city > days > dates
// > budget > themes, matching §4.3 exactly.
var fieldPriority = []string{"city", "days", "dates", "budget", "themes"}

var templates = map[string]string{
	"city":   "Which city would you like to visit?",
	"days":   "How many days will your trip be?",
	"dates":  "Do you have specific travel dates in mind?",
	"budget": "What's your daily budget for this trip?",
	"themes": "What kind of experiences are you after — history, food, art, nature?",
}

// Options carries the optional LLM provider used to phrase questions
// more naturally; nil falls back to the fixed templates.
type Options struct {
	LLM providers.LLMProvider
}

// Questions produces up to maxQuestions prompts, ordered by priority,
// for whichever of missingFields appear in fieldPriority. Fields not in
// missingFields are never asked about.
func Questions(ctx context.Context, missingFields []string, constraints *models.TripConstraints, opts Options) []string {
	candidates := rankByPriority(missingFields)
	if len(candidates) > maxQuestions {
		candidates = candidates[:maxQuestions]
	}

	if opts.LLM != nil {
		if phrased, err := llmPhrase(ctx, candidates, constraints, opts.LLM); err == nil {
			return phrased
		}
	}

	out := make([]string, 0, len(candidates))
	for _, field := range candidates {
		out = append(out, templates[field])
	}
	return out
}

func rankByPriority(fields []string) []string {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f] = true
	}
	var ordered []string
	for _, f := range fieldPriority {
		if present[f] {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

func llmPhrase(ctx context.Context, fields []string, constraints *models.TripConstraints, llm providers.LLMProvider) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	prompt := fmt.Sprintf("Write %d short, friendly follow-up questions (one per line, no numbering) "+
		"asking the traveler for these missing trip details, in this order: %v. "+
		"Known so far: city=%q days=%d.", len(fields), fields, constraints.City, constraints.Days)

	resp, err := llm.GenerateResponse(ctx, &providers.GenerateRequest{
		Messages: []providers.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}
	return splitLines(resp.Choices[0].Message.Content, len(fields)), nil
}

func splitLines(s string, limit int) []string {
	var out []string
	line := ""
	for _, r := range s {
		if r == '\n' {
			if line != "" {
				out = append(out, line)
				line = ""
			}
			continue
		}
		line += string(r)
	}
	if line != "" {
		out = append(out, line)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
