package intake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayfarer-ai/planner/internal/models"
)

func TestParse_HeuristicFillsCityDaysBudget(t *testing.T) {
	result, err := Parse(context.Background(), "Beijing 4 days, history and food, budget 600/day", nil, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Beijing", result.Constraints.City)
	assert.Equal(t, 4, result.Constraints.Days)
	require.NotNil(t, result.Constraints.DailyBudget)
	assert.Equal(t, 600.0, *result.Constraints.DailyBudget)
	assert.ElementsMatch(t, []string{"history", "food"}, result.Profile.Themes)
	assert.Empty(t, result.MissingFields)
}

func TestParse_MissingRequiredFieldsDetected(t *testing.T) {
	result, err := Parse(context.Background(), "I want a relaxing trip somewhere warm", nil, nil, Options{})
	require.NoError(t, err)

	assert.Contains(t, result.MissingFields, "city")
	assert.Contains(t, result.MissingFields, "days")
}

func TestParse_StructuredHintNeverOverwritten(t *testing.T) {
	hint := &models.TripConstraints{City: "Tokyo", Days: 3}
	result, err := Parse(context.Background(), "Beijing 5 days", hint, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Tokyo", result.Constraints.City)
	assert.Equal(t, 3, result.Constraints.Days)
}

func TestParse_DefaultsTransportAndPaceWhenUnstated(t *testing.T) {
	result, err := Parse(context.Background(), "Beijing 2 days", nil, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, models.TransportPublicTransit, result.Constraints.TransportMode)
	assert.Equal(t, models.PaceModerate, result.Constraints.Pace)
}
