package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector_RecordPlanRequest(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordPlanRequest("ok", "L1", 2, 150*time.Millisecond)
	mc.RecordPlanRequest("error", "", 0, 10*time.Millisecond)

	snapshot := mc.GetMetrics()
	assert.Equal(t, int64(1), snapshot.CustomCounters["plan_requests_ok"])
	assert.Equal(t, int64(1), snapshot.CustomCounters["plan_requests_error"])
	assert.Equal(t, int64(1), snapshot.CustomCounters["degrade_level_L1"])
	assert.Equal(t, int64(2), snapshot.RequestCount)
	assert.Equal(t, int64(1), snapshot.ErrorCount)
	assert.Equal(t, int64(2), snapshot.CustomHistograms["repair_rounds"].Count)
}

func TestMetricsCollector_RecordCacheOperation(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordCacheOperation(true, false)
	mc.RecordCacheOperation(false, false)

	snapshot := mc.GetMetrics()
	assert.Equal(t, int64(1), snapshot.CacheHits)
	assert.Equal(t, int64(1), snapshot.CacheMisses)
}
