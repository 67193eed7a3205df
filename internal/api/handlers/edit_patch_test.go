package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner/internal/orchestrator"
)

func TestParseEditPatch_NoKeyReturnsNil(t *testing.T) {
	patch, err := parseEditPatch(map[string]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, patch)
}

func TestParseEditPatch_ReplaceStop(t *testing.T) {
	raw := map[string]interface{}{
		"edit_patch": map[string]interface{}{
			"replace_stop": map[string]interface{}{
				"day_number": 1,
				"old_poi":    "poi-a",
				"new_poi":    "poi-b",
			},
		},
	}

	patch, err := parseEditPatch(raw)
	require.NoError(t, err)
	require.NotNil(t, patch)
	assert.Equal(t, 1, patch.DayNumber)
	assert.Equal(t, orchestrator.OpReplaceStop, patch.Operation)
	assert.Equal(t, "poi-a", patch.TargetPOIRef)
	assert.Equal(t, "poi-b", patch.NewPOIRef)
}

func TestParseEditPatch_AdjustTime(t *testing.T) {
	raw := map[string]interface{}{
		"edit_patch": map[string]interface{}{
			"adjust_time": map[string]interface{}{
				"day_number": 2,
				"poi_ref":    "poi-c",
				"start_time": "2026-07-30T09:00:00Z",
			},
		},
	}

	patch, err := parseEditPatch(raw)
	require.NoError(t, err)
	require.NotNil(t, patch)
	assert.Equal(t, orchestrator.OpAdjustTime, patch.Operation)
	require.NotNil(t, patch.NewStartTime)
	assert.Equal(t, 9, patch.NewStartTime.UTC().Hour())
	assert.WithinDuration(t, time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC), *patch.NewStartTime, time.Second)
}

func TestParseEditPatch_UnrecognizedOperation(t *testing.T) {
	raw := map[string]interface{}{
		"edit_patch": map[string]interface{}{
			"unknown_op": map[string]interface{}{"day_number": 1},
		},
	}

	_, err := parseEditPatch(raw)
	assert.Error(t, err)
}
