package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wayfarer-ai/planner/internal/orchestrator"
)

// editPatchWire is the wire shape of metadata.edit_patch: exactly one
// operation keyed by name, per §8 scenario 4's
// `{replace_stop: {day_number, old_poi, new_poi}}` example.
type editPatchWire struct {
	ReplaceStop *struct {
		DayNumber int    `json:"day_number"`
		OldPOI    string `json:"old_poi"`
		NewPOI    string `json:"new_poi"`
	} `json:"replace_stop,omitempty"`
	AddStop *struct {
		DayNumber int    `json:"day_number"`
		POIRef    string `json:"poi_ref"`
	} `json:"add_stop,omitempty"`
	RemoveStop *struct {
		DayNumber int    `json:"day_number"`
		POIRef    string `json:"poi_ref"`
	} `json:"remove_stop,omitempty"`
	AdjustTime *struct {
		DayNumber int       `json:"day_number"`
		POIRef    string    `json:"poi_ref"`
		StartTime time.Time `json:"start_time"`
	} `json:"adjust_time,omitempty"`
	LunchBreak *struct {
		DayNumber int `json:"day_number"`
	} `json:"lunch_break,omitempty"`
}

// parseEditPatch decodes metadata["edit_patch"] (a generic
// map[string]interface{} from BodyParser) into an orchestrator.EditPatch.
// Returns nil, nil when raw has no edit_patch key.
func parseEditPatch(raw map[string]interface{}) (*orchestrator.EditPatch, error) {
	rawPatch, ok := raw["edit_patch"]
	if !ok {
		return nil, nil
	}

	buf, err := json.Marshal(rawPatch)
	if err != nil {
		return nil, fmt.Errorf("edit_patch: re-encode: %w", err)
	}
	var wire editPatchWire
	if err := json.Unmarshal(buf, &wire); err != nil {
		return nil, fmt.Errorf("edit_patch: decode: %w", err)
	}

	switch {
	case wire.ReplaceStop != nil:
		return &orchestrator.EditPatch{
			DayNumber:    wire.ReplaceStop.DayNumber,
			Operation:    orchestrator.OpReplaceStop,
			TargetPOIRef: wire.ReplaceStop.OldPOI,
			NewPOIRef:    wire.ReplaceStop.NewPOI,
		}, nil
	case wire.AddStop != nil:
		return &orchestrator.EditPatch{
			DayNumber: wire.AddStop.DayNumber,
			Operation: orchestrator.OpAddStop,
			NewPOIRef: wire.AddStop.POIRef,
		}, nil
	case wire.RemoveStop != nil:
		return &orchestrator.EditPatch{
			DayNumber:    wire.RemoveStop.DayNumber,
			Operation:    orchestrator.OpRemoveStop,
			TargetPOIRef: wire.RemoveStop.POIRef,
		}, nil
	case wire.AdjustTime != nil:
		t := wire.AdjustTime.StartTime
		return &orchestrator.EditPatch{
			DayNumber:    wire.AdjustTime.DayNumber,
			Operation:    orchestrator.OpAdjustTime,
			TargetPOIRef: wire.AdjustTime.POIRef,
			NewStartTime: &t,
		}, nil
	case wire.LunchBreak != nil:
		return &orchestrator.EditPatch{
			DayNumber: wire.LunchBreak.DayNumber,
			Operation: orchestrator.OpLunchBreak,
		}, nil
	default:
		return nil, fmt.Errorf("edit_patch: no recognized operation")
	}
}
