package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayfarer-ai/planner/internal/models"
)

func TestBuildPool_CuratedOnlyMeetsPoolSize(t *testing.T) {
	sources := Sources{Curated: NewDefaultCuratedProvider()}
	opts := Options{
		Constraints: &models.TripConstraints{City: "Beijing", Days: 2, Pace: models.PaceModerate},
		Profile:     &models.UserProfile{Themes: []string{"history"}},
	}

	result, err := BuildPool(context.Background(), sources, opts)
	require.NoError(t, err)
	assert.Greater(t, result.Arena.Len(), 0)
	assert.False(t, result.UsedMapProvider)
}

func TestBuildPool_StrictModeFailsFastWithoutMapProvider(t *testing.T) {
	sources := Sources{Curated: NewCuratedProvider(nil)} // empty dataset forces fallthrough
	opts := Options{
		Constraints:        &models.TripConstraints{City: "Nowhere", Days: 3, Pace: models.PaceModerate},
		StrictExternalData: true,
	}

	_, err := BuildPool(context.Background(), sources, opts)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestBuildPool_MustVisitForcedInAndPinned(t *testing.T) {
	sources := Sources{Curated: NewDefaultCuratedProvider()}
	opts := Options{
		Constraints: &models.TripConstraints{
			City: "Beijing", Days: 1, Pace: models.PaceRelaxed,
			MustVisit: []string{"Forbidden City"},
			Avoid:     []string{"798 Art District"},
		},
	}

	result, err := BuildPool(context.Background(), sources, opts)
	require.NoError(t, err)

	var sawPinned, sawAvoided bool
	for _, p := range result.Arena.All() {
		if p.Name == "Forbidden City" {
			sawPinned = p.Pinned
		}
		if p.Name == "798 Art District" {
			sawAvoided = true
		}
	}
	assert.True(t, sawPinned, "must-visit POI must be present and pinned")
	assert.False(t, sawAvoided, "avoid-listed POI must not appear in the pool")
}

func TestFuse_PrefersHigherProvenanceAndUnionsThemes(t *testing.T) {
	a := &models.POI{Name: "Temple", Themes: []string{"history"}, FactSources: map[string]models.FactSource{"name": models.SourceFallback}}
	b := &models.POI{Name: "temple", Themes: []string{"art"}, FactSources: map[string]models.FactSource{"name": models.SourceVerified}}

	merged := fuse([]*models.POI{a}, []*models.POI{b})

	require.Len(t, merged, 1)
	assert.ElementsMatch(t, []string{"history", "art"}, merged[0].Themes)
	assert.Equal(t, models.SourceVerified, merged[0].FactSources["name"])
}
