package retrieval

import (
	"sort"
	"strings"

	"github.com/wayfarer-ai/planner/internal/models"
)

// fuse merges candidate POIs from every source tried, deduping by
// normalized name, per §4.4's provenance-ranked fusion function —
// replacing the teacher's ad hoc duck-typed document merging with a
// small total, deterministic function over tagged variants.
func fuse(batches ...[]*models.POI) []*models.POI {
	byName := make(map[string]*models.POI)
	var order []string

	for _, batch := range batches {
		for _, candidate := range batch {
			key := normalizedName(candidate.Name)
			existing, ok := byName[key]
			if !ok {
				byName[key] = candidate
				order = append(order, key)
				continue
			}
			byName[key] = mergeTwo(existing, candidate)
		}
	}

	out := make([]*models.POI, 0, len(order))
	for _, key := range order {
		out = append(out, byName[key])
	}
	return out
}

func normalizedName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// mergeTwo keeps the higher-provenance POI as the base record and
// unions themes from both, per the merging rule in §4.4.
func mergeTwo(a, b *models.POI) *models.POI {
	winner, loser := a, b
	if dominantSource(b).Outranks(dominantSource(a)) {
		winner, loser = b, a
	}

	merged := *winner
	merged.Themes = unionThemes(winner.Themes, loser.Themes)
	return &merged
}

// dominantSource reports the single highest-ranked provenance tier
// present anywhere on the POI, used only to break ties between two
// candidate records for the same place.
func dominantSource(p *models.POI) models.FactSource {
	best := models.SourceUnknown
	for _, src := range p.FactSources {
		if src.Outranks(best) {
			best = src
		}
	}
	return best
}

func unionThemes(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, t := range append(append([]string{}, a...), b...) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// applyAvoidAndMustVisit removes avoid-listed POIs and forces must-visit
// ones into the pool, pinning them, per §4.4.
func applyAvoidAndMustVisit(pool []*models.POI, avoid, mustVisit []string) []*models.POI {
	avoidSet := make(map[string]bool, len(avoid))
	for _, name := range avoid {
		avoidSet[normalizedName(name)] = true
	}

	filtered := make([]*models.POI, 0, len(pool))
	found := make(map[string]bool, len(mustVisit))
	for _, p := range pool {
		key := normalizedName(p.Name)
		if avoidSet[key] {
			continue
		}
		for _, mv := range mustVisit {
			if normalizedName(mv) == key {
				p.Pinned = true
				found[key] = true
			}
		}
		filtered = append(filtered, p)
	}

	for _, mv := range mustVisit {
		key := normalizedName(mv)
		if found[key] {
			continue
		}
		// Must-visit POI wasn't retrieved from any source; synthesize a
		// minimal placeholder rather than silently dropping a hard
		// requirement. Its facts are unknown until a later stage
		// enriches it, or the validator flags it missing.
		filtered = append(filtered, &models.POI{
			ID:     "mustvisit-" + key,
			Name:   mv,
			Pinned: true,
			FactSources: map[string]models.FactSource{
				"name": models.SourceUnknown,
			},
		})
	}
	return filtered
}

// rank scores and sorts candidates per §4.4's ranking formula, ties
// broken lexicographically by name.
func rank(pool []*models.POI, profile *models.UserProfile, dailyBudget *float64) []*models.POI {
	budget := 100.0
	if dailyBudget != nil && *dailyBudget > 0 {
		budget = *dailyBudget
	}
	var themes []string
	if profile != nil {
		themes = profile.Themes
	}

	sort.SliceStable(pool, func(i, j int) bool {
		si := score(pool[i], themes, budget)
		sj := score(pool[j], themes, budget)
		if si != sj {
			return si > sj
		}
		return pool[i].Name < pool[j].Name
	})
	return pool
}

func score(p *models.POI, themes []string, dailyBudget float64) float64 {
	themeMatch := 0.0
	for _, want := range themes {
		for _, have := range p.Themes {
			if strings.EqualFold(want, have) {
				themeMatch++
				break
			}
		}
	}
	indoorBonus := 0.0
	if p.IndoorFlag {
		indoorBonus = 1.0
	}
	costPenalty := 0.0
	if dailyBudget > 0 {
		costPenalty = p.Cost / dailyBudget
	}
	return themeMatch*3 + indoorBonus*1 + p.Popularity*1 - costPenalty*0.5
}
