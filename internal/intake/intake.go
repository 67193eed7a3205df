// Package intake converts a free-form user message (plus optional
// structured hints from the caller) into TripConstraints + UserProfile,
// per §4.2. Two strategies run in order: an LLM-guided JSON parse when a
// provider is configured, then a regex/heuristic safety net that always
// runs and fills whatever the LLM strategy left empty.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wayfarer-ai/planner/internal/llm/providers"
	"github.com/wayfarer-ai/planner/internal/models"
)

var tracer = otel.Tracer("intake")

// Options carries the optional LLM provider; nil means only the
// heuristic strategy runs.
type Options struct {
	LLM providers.LLMProvider
}

// Result is what Intake hands to the orchestrator.
type Result struct {
	Constraints   *models.TripConstraints
	Profile       *models.UserProfile
	MissingFields []string
}

// Parse runs both strategies in order and returns the merged result.
// structuredHint, when the caller already supplied partial constraints,
// seeds the result before either strategy runs — Intake only fills gaps.
func Parse(ctx context.Context, message string, structuredHint *models.TripConstraints, profileHint *models.UserProfile, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "intake.parse")
	defer span.End()
	span.SetAttributes(attribute.Int("message.length", len(message)))

	constraints := cloneConstraints(structuredHint)
	profile := cloneProfile(profileHint)

	if opts.LLM != nil {
		if parsed, prof, err := llmGuidedParse(ctx, message, opts.LLM); err == nil {
			fillConstraints(constraints, parsed)
			fillProfile(profile, prof)
		}
		// An LLM parse failure is not fatal; the heuristic pass below
		// is the safety net, not a fallback triggered only on error.
	}

	heuristicConstraints, heuristicProfile, _ := heuristicParse(message)
	fillConstraints(constraints, heuristicConstraints)
	fillProfile(profile, heuristicProfile)

	if constraints.TransportMode == "" {
		constraints.TransportMode = models.TransportPublicTransit
	}
	if constraints.Pace == "" {
		constraints.Pace = models.PaceModerate
	}

	missing := constraints.Validate()
	span.SetAttributes(attribute.StringSlice("missing_fields", missing))

	return &Result{Constraints: constraints, Profile: profile, MissingFields: missing}, nil
}

func cloneConstraints(c *models.TripConstraints) *models.TripConstraints {
	if c == nil {
		return &models.TripConstraints{}
	}
	cp := *c
	return &cp
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	if p == nil {
		return &models.UserProfile{}
	}
	cp := *p
	return &cp
}

// fillConstraints copies any field set on src that is still zero-valued
// on dst; it never overwrites a field the caller or an earlier strategy
// already populated.
func fillConstraints(dst, src *models.TripConstraints) {
	if src == nil {
		return
	}
	if dst.City == "" {
		dst.City = src.City
	}
	if dst.Days == 0 {
		dst.Days = src.Days
	}
	if dst.DateStart == nil {
		dst.DateStart = src.DateStart
	}
	if dst.DateEnd == nil {
		dst.DateEnd = src.DateEnd
	}
	if dst.DailyBudget == nil {
		dst.DailyBudget = src.DailyBudget
	}
	if dst.TransportMode == "" {
		dst.TransportMode = src.TransportMode
	}
	if dst.Pace == "" {
		dst.Pace = src.Pace
	}
	if len(dst.MustVisit) == 0 {
		dst.MustVisit = src.MustVisit
	}
	if len(dst.Avoid) == 0 {
		dst.Avoid = src.Avoid
	}
}

func fillProfile(dst, src *models.UserProfile) {
	if src == nil {
		return
	}
	if dst.TravelersType == "" {
		dst.TravelersType = src.TravelersType
	}
	if len(dst.Themes) == 0 {
		dst.Themes = src.Themes
	}
}

type llmParseResult struct {
	City          string   `json:"city"`
	Days          int      `json:"days"`
	DailyBudget   float64  `json:"daily_budget"`
	TransportMode string   `json:"transport_mode"`
	Pace          string   `json:"pace"`
	MustVisit     []string `json:"must_visit"`
	Avoid         []string `json:"avoid"`
	TravelersType string   `json:"travelers_type"`
	Themes        []string `json:"themes"`
}

func llmGuidedParse(ctx context.Context, message string, llm providers.LLMProvider) (*models.TripConstraints, *models.UserProfile, error) {
	prompt := fmt.Sprintf(
		`Extract trip-planning fields from this request and respond with JSON only, `+
			`shaped exactly as {"city":"","days":0,"daily_budget":0.0,`+
			`"transport_mode":"walking|public_transit|taxi|driving",`+
			`"pace":"relaxed|moderate|intensive","must_visit":[],"avoid":[],`+
			`"travelers_type":"solo|couple|family|friends|elderly","themes":[]}. `+
			`Omit a field (zero value) if not stated. Request: %q`, message)

	resp, err := llm.GenerateResponse(ctx, &providers.GenerateRequest{
		Messages: []providers.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("llm returned no choices")
	}

	var parsed llmParseResult
	body := extractJSONObject(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, nil, fmt.Errorf("llm intake response was not valid JSON: %w", err)
	}

	constraints := &models.TripConstraints{
		City:          parsed.City,
		Days:          parsed.Days,
		TransportMode: models.TransportMode(parsed.TransportMode),
		Pace:          models.Pace(parsed.Pace),
		MustVisit:     parsed.MustVisit,
		Avoid:         parsed.Avoid,
	}
	if parsed.DailyBudget > 0 {
		constraints.DailyBudget = &parsed.DailyBudget
	}

	profile := &models.UserProfile{
		TravelersType: models.TravelersType(parsed.TravelersType),
		Themes:        parsed.Themes,
	}
	return constraints, profile, nil
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

var (
	daysRe       = regexp.MustCompile(`(?i)(\d+)\s*[- ]?\s*day`)
	budgetRe     = regexp.MustCompile(`(?i)budget\D{0,12}(\d+(?:\.\d+)?)`)
	cityPrepRe   = regexp.MustCompile(`(?i)\b(?:in|to|visit(?:ing)?)\s+([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)?)\b`)
	cityLeadRe   = regexp.MustCompile(`^([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)?)\b`)
	mustVisitRe  = regexp.MustCompile(`(?i)must[- ]?visit\s+([A-Za-z ]+?)(?:[.,;]|$)`)
	avoidRe      = regexp.MustCompile(`(?i)avoid\s+([A-Za-z ]+?)(?:[.,;]|$)`)
)

var transportKeywords = map[string]models.TransportMode{
	"walk":     models.TransportWalking,
	"transit":  models.TransportPublicTransit,
	"subway":   models.TransportPublicTransit,
	"metro":    models.TransportPublicTransit,
	"bus":      models.TransportPublicTransit,
	"taxi":     models.TransportTaxi,
	"cab":      models.TransportTaxi,
	"driving":  models.TransportDriving,
	"car":      models.TransportDriving,
}

var paceKeywords = map[string]models.Pace{
	"relaxed":   models.PaceRelaxed,
	"laid back": models.PaceRelaxed,
	"intensive": models.PaceIntensive,
	"packed":    models.PaceIntensive,
	"fast":      models.PaceIntensive,
	"moderate":  models.PaceModerate,
}

var themeKeywords = []string{"history", "food", "art", "nature", "shopping", "nightlife", "architecture", "museum"}

// heuristicParse is the regex/keyword safety net that always runs,
// per §4.2's "strategy 2... always run". It deliberately stays
// conservative — false negatives leave a field for Clarify to ask
// about, false positives would be worse.
func heuristicParse(message string) (*models.TripConstraints, *models.UserProfile, error) {
	constraints := &models.TripConstraints{}
	profile := &models.UserProfile{}

	if m := daysRe.FindStringSubmatch(message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			constraints.Days = n
		}
	}

	if m := budgetRe.FindStringSubmatch(message); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			constraints.DailyBudget = &v
		}
	}

	if m := cityPrepRe.FindStringSubmatch(message); m != nil {
		constraints.City = m[1]
	} else if m := cityLeadRe.FindStringSubmatch(strings.TrimSpace(message)); m != nil {
		constraints.City = m[1]
	}

	lower := strings.ToLower(message)
	for kw, mode := range transportKeywords {
		if strings.Contains(lower, kw) {
			constraints.TransportMode = mode
			break
		}
	}
	for kw, pace := range paceKeywords {
		if strings.Contains(lower, kw) {
			constraints.Pace = pace
			break
		}
	}

	var themes []string
	for _, theme := range themeKeywords {
		if strings.Contains(lower, theme) {
			themes = append(themes, theme)
		}
	}
	profile.Themes = themes

	if m := mustVisitRe.FindStringSubmatch(message); m != nil {
		constraints.MustVisit = splitNames(m[1])
	}
	if m := avoidRe.FindStringSubmatch(message); m != nil {
		constraints.Avoid = splitNames(m[1])
	}

	return constraints, profile, nil
}

func splitNames(s string) []string {
	parts := strings.Split(s, " and ")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
