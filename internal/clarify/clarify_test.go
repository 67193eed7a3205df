package clarify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wayfarer-ai/planner/internal/models"
)

func TestQuestions_OrderedByPriority(t *testing.T) {
	qs := Questions(context.Background(), []string{"themes", "days", "city"}, &models.TripConstraints{}, Options{})

	assert.Equal(t, []string{templates["city"], templates["days"], templates["themes"]}, qs)
}

func TestQuestions_CappedAtThree(t *testing.T) {
	qs := Questions(context.Background(), []string{"city", "days", "dates", "budget", "themes"}, &models.TripConstraints{}, Options{})
	assert.Len(t, qs, 3)
}

func TestQuestions_EmptyWhenNothingMissing(t *testing.T) {
	qs := Questions(context.Background(), nil, &models.TripConstraints{}, Options{})
	assert.Empty(t, qs)
}
