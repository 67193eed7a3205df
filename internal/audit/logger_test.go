package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_RecordIsDrainedAsynchronously(t *testing.T) {
	storage := NewRingStorage(10)
	logger := NewLogger(storage)
	logger.Start()
	defer logger.Stop()

	logger.Record(context.Background(), CategoryPlan, "plan_requested", "sess-1", "req-1", map[string]interface{}{"city": "Beijing"})

	require.Eventually(t, func() bool {
		return len(storage.Recent(10)) == 1
	}, time.Second, 10*time.Millisecond)

	events := storage.Recent(10)
	assert.Equal(t, CategoryPlan, events[0].Category)
	assert.Equal(t, "req-1", events[0].RequestID)
}

func TestRingStorage_EvictsOldestPastCapacity(t *testing.T) {
	storage := NewRingStorage(2)
	require.NoError(t, storage.Store(Event{RequestID: "a"}))
	require.NoError(t, storage.Store(Event{RequestID: "b"}))
	require.NoError(t, storage.Store(Event{RequestID: "c"}))

	recent := storage.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].RequestID)
	assert.Equal(t, "b", recent[1].RequestID)
}

func TestRingStorage_RecentRespectsLimit(t *testing.T) {
	storage := NewRingStorage(5)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, storage.Store(Event{RequestID: id}))
	}

	recent := storage.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].RequestID)
	assert.Equal(t, "b", recent[1].RequestID)
}
