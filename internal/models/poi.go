package models

// FactSource classifies the provenance of a single POI attribute value.
// Ordering matters: higher-ranked sources win during fusion (§4.4) and
// may never be downgraded by a later stage (§8, provenance preservation).
type FactSource string

const (
	SourceVerified  FactSource = "verified"
	SourceCurated   FactSource = "curated"
	SourceHeuristic FactSource = "heuristic"
	SourceFallback  FactSource = "fallback"
	SourceUnknown   FactSource = "unknown"
)

// provenanceRank orders sources from most to least trustworthy. Lower
// number wins a fusion tie-break.
var provenanceRank = map[FactSource]int{
	SourceVerified:  0,
	SourceCurated:   1,
	SourceHeuristic: 2,
	SourceFallback:  3,
	SourceUnknown:   4,
}

// Outranks reports whether source s should win over other when fusing
// the same attribute from two candidate POIs.
func (s FactSource) Outranks(other FactSource) bool {
	return provenanceRank[s] < provenanceRank[other]
}

// POI is a point of interest. Immutable once created by the Retriever or
// loaded from the curated dataset; ScheduleItems reference POIs by id
// rather than embedding them, per the arena pattern in the Design Notes.
type POI struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	City               string                `json:"city"`
	Lat                float64               `json:"lat"`
	Lon                float64               `json:"lon"`
	Themes             []string              `json:"themes"`
	TypicalDurationHrs float64               `json:"typical_duration_hours"`
	Cost               float64               `json:"cost"`
	IndoorFlag         bool                  `json:"indoor_flag"`
	TicketPrice        float64               `json:"ticket_price"`
	ReservationRequired bool                 `json:"reservation_required"`
	ClosedRules        string                `json:"closed_rules,omitempty"`
	OpenHours          string                `json:"open_hours,omitempty"`
	Description        string                `json:"description,omitempty"`
	Popularity         float64               `json:"popularity,omitempty"`
	FactSources        map[string]FactSource `json:"fact_sources"`
	Pinned             bool                  `json:"pinned,omitempty"`
}

// Arena is a read-only, id-indexed pool of POIs shared by the scheduler,
// validator, and repair stages, avoiding deep copies of POI data as the
// plan state flows through the pipeline.
type Arena struct {
	byID map[string]*POI
}

// NewArena builds an Arena from a candidate pool.
func NewArena(pois []*POI) *Arena {
	a := &Arena{byID: make(map[string]*POI, len(pois))}
	for _, p := range pois {
		a.byID[p.ID] = p
	}
	return a
}

// Get looks up a POI by id.
func (a *Arena) Get(id string) (*POI, bool) {
	p, ok := a.byID[id]
	return p, ok
}

// All returns every POI in the arena, in insertion-stable order is not
// guaranteed; callers that need determinism should sort by ID.
func (a *Arena) All() []*POI {
	out := make([]*POI, 0, len(a.byID))
	for _, p := range a.byID {
		out = append(out, p)
	}
	return out
}

// Add registers a POI in the arena, inserting it if its ID is new or
// replacing the existing entry otherwise. Used when a later stage
// (edit patches, must-visit synthesis) mints a POI not present in the
// original candidate pool.
func (a *Arena) Add(p *POI) {
	if a.byID == nil {
		a.byID = make(map[string]*POI)
	}
	a.byID[p.ID] = p
}

// Len reports the number of POIs held by the arena.
func (a *Arena) Len() int {
	return len(a.byID)
}

// FactSourceOf returns the provenance tag for a given attribute, or
// SourceUnknown if untagged.
func (p *POI) FactSourceOf(attr string) FactSource {
	if p.FactSources == nil {
		return SourceUnknown
	}
	if s, ok := p.FactSources[attr]; ok {
		return s
	}
	return SourceUnknown
}
