package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/sov-mentions-bot/internal/models"
)

func TestMemoryStore_Responses(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older := models.Response{ID: "r1", ProjectID: "p1", QueryID: "q1", Provider: models.ProviderOpenAI, RunAt: runAt.Add(-48 * time.Hour)}
	newer := models.Response{ID: "r2", ProjectID: "p1", QueryID: "q1", Provider: models.ProviderGoogle, RunAt: runAt}
	other := models.Response{ID: "r3", ProjectID: "p2", QueryID: "q9", Provider: models.ProviderGoogle, RunAt: runAt}

	for _, r := range []models.Response{newer, older, other} {
		require.NoError(t, store.SaveResponse(ctx, r))
	}
	assert.Error(t, store.SaveResponse(ctx, newer), "responses are immutable")

	got, err := store.GetResponse(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, newer, got)

	_, err = store.GetResponse(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := store.ListResponses(ctx, "p1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []models.Response{older, newer}, all)

	recent, err := store.ListResponses(ctx, "p1", runAt.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []models.Response{newer}, recent)
}

func TestMemoryStore_UpsertReplacesByKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	fact := models.MentionFact{ResponseID: "r1", BrandID: "a", ProjectID: "p1", Provider: models.ProviderOpenAI, RunAt: runAt}
	require.NoError(t, store.UpsertFacts(ctx, []models.MentionFact{fact}))

	fact.Mentioned, fact.Recommended = true, true
	require.NoError(t, store.UpsertFacts(ctx, []models.MentionFact{fact}))

	facts, err := store.ListFacts(ctx, "p1", models.Filter{})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.True(t, facts[0].Recommended)
}

func TestMemoryStore_ListFacts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	google := models.ProviderGoogle

	require.NoError(t, store.UpsertFacts(ctx, []models.MentionFact{
		{ResponseID: "r2", BrandID: "a", QueryID: "q2", ProjectID: "p1", Provider: models.ProviderGoogle, RunAt: runAt},
		{ResponseID: "r1", BrandID: "b", QueryID: "q1", ProjectID: "p1", Provider: models.ProviderOpenAI, RunAt: runAt.Add(-time.Hour)},
		{ResponseID: "r1", BrandID: "a", QueryID: "q1", ProjectID: "p1", Provider: models.ProviderOpenAI, RunAt: runAt.Add(-time.Hour)},
		{ResponseID: "r9", BrandID: "a", QueryID: "q1", ProjectID: "p2", Provider: models.ProviderOpenAI, RunAt: runAt},
	}))

	keys := func(facts []models.MentionFact) []string {
		var out []string
		for _, f := range facts {
			out = append(out, f.ResponseID+"/"+f.BrandID)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   models.Filter
		expected []string
	}{
		{name: "All ordered by run time", filter: models.Filter{}, expected: []string{"r1/a", "r1/b", "r2/a"}},
		{name: "Provider", filter: models.Filter{Provider: &google}, expected: []string{"r2/a"}},
		{name: "From", filter: models.Filter{From: runAt}, expected: []string{"r2/a"}},
		{name: "To is exclusive", filter: models.Filter{To: runAt}, expected: []string{"r1/a", "r1/b"}},
		{name: "Query ids", filter: models.Filter{QueryIDs: []string{"q2"}}, expected: []string{"r2/a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts, err := store.ListFacts(ctx, "p1", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, keys(facts))
		})
	}
}
