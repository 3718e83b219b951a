package aggregation

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	brandA = models.Brand{ID: "a", Name: "Acme"}
	brandB = models.Brand{ID: "b", Name: "Globex", IsCompetitor: true}
	brandC = models.Brand{ID: "c", Name: "Initech", IsCompetitor: true}

	baseTime = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC) // a Wednesday
)

// facts builds n facts for a brand; the first recommended of them are recommendations
func facts(brandID string, n, recommended int, provider models.Provider, queryID string, at time.Time) []models.MentionFact {
	out := make([]models.MentionFact, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.MentionFact{
			ResponseID:  fmt.Sprintf("%s-%s-%s-%d-%d", brandID, provider, queryID, at.Unix(), i),
			BrandID:     brandID,
			QueryID:     queryID,
			Provider:    provider,
			RunAt:       at,
			Mentioned:   true,
			Recommended: i < recommended,
		})
	}
	return out
}

func concat(sets ...[]models.MentionFact) []models.MentionFact {
	var all []models.MentionFact
	for _, s := range sets {
		all = append(all, s...)
	}
	return all
}

func providerPtr(p models.Provider) *models.Provider {
	return &p
}

func TestAggregate_Ranking(t *testing.T) {
	agg := New(nil, nil)
	all := concat(
		facts("b", 10, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("a", 30, 6, models.ProviderOpenAI, "q1", baseTime),
	)

	results := agg.Aggregate(all, []models.Brand{brandA, brandB}, models.Filter{})

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].BrandID)
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 75.0, results[0].SOVPercent, 1e-9)
	assert.Equal(t, 30, results[0].MentionCount)
	assert.Equal(t, 6, results[0].RecommendCount)
	assert.InDelta(t, 100.0, results[0].RecommendSOVPercent, 1e-9)

	assert.Equal(t, "b", results[1].BrandID)
	assert.Equal(t, 2, results[1].Rank)
	assert.InDelta(t, 25.0, results[1].SOVPercent, 1e-9)
	assert.Equal(t, 0.0, results[1].RecommendSOVPercent)
}

func TestAggregate_EmptyFacts(t *testing.T) {
	agg := New(nil, nil)
	brands := []models.Brand{brandA, brandB, brandC}

	results := agg.Aggregate(nil, brands, models.Filter{})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, brands[i].ID, r.BrandID, "ties keep brand order")
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, 0.0, r.SOVPercent)
		assert.False(t, math.IsNaN(r.SOVPercent))
		assert.Equal(t, 0.0, r.RecommendSOVPercent)
	}
}

func TestAggregate_UnmentionedFactsOnly(t *testing.T) {
	agg := New(nil, nil)
	unmentioned := []models.MentionFact{
		{ResponseID: "r1", BrandID: "a", Provider: models.ProviderOpenAI, RunAt: baseTime},
		{ResponseID: "r1", BrandID: "b", Provider: models.ProviderOpenAI, RunAt: baseTime},
	}

	results := agg.Aggregate(unmentioned, []models.Brand{brandA, brandB}, models.Filter{})

	for _, r := range results {
		assert.Equal(t, 0, r.MentionCount)
		assert.Equal(t, 0.0, r.SOVPercent)
	}
}

func TestAggregate_RecommendationRequiresMention(t *testing.T) {
	agg := New(nil, nil)
	stored := []models.MentionFact{
		{ResponseID: "r1", BrandID: "a", QueryID: "q1", Provider: models.ProviderOpenAI, RunAt: baseTime, Mentioned: true, Recommended: true},
		{ResponseID: "r2", BrandID: "a", QueryID: "q1", Provider: models.ProviderOpenAI, RunAt: baseTime, Recommended: true},
		{ResponseID: "r2", BrandID: "b", QueryID: "q1", Provider: models.ProviderOpenAI, RunAt: baseTime, Mentioned: true},
	}

	results := agg.Aggregate(stored, []models.Brand{brandA, brandB}, models.Filter{})
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].RecommendCount, "unmentioned recommendation is ignored")
	assert.Equal(t, 100.0, results[0].RecommendSOVPercent)

	breakdown := agg.QueryBreakdown(stored, []models.Brand{brandA, brandB}, models.Filter{})
	require.Len(t, breakdown, 1)
	assert.Equal(t, results[0].RecommendCount, breakdown[0].Brands[0].RecommendCount)
}

func TestAggregate_SharesSumToHundred(t *testing.T) {
	agg := New(nil, nil)
	brands := []models.Brand{brandA, brandB, brandC}

	for _, m := range []int{1, 3, 7} {
		t.Run(fmt.Sprintf("m=%d", m), func(t *testing.T) {
			all := concat(
				facts("a", m, 0, models.ProviderOpenAI, "q1", baseTime),
				facts("b", m, 0, models.ProviderOpenAI, "q1", baseTime),
				facts("c", m, 0, models.ProviderOpenAI, "q1", baseTime),
			)

			sum := 0.0
			for _, r := range agg.Aggregate(all, brands, models.Filter{}) {
				sum += r.SOVPercent
			}
			assert.InDelta(t, 100.0, sum, 1e-9)
		})
	}
}

func TestAggregate_IgnoresUnknownBrands(t *testing.T) {
	agg := New(nil, nil)
	all := concat(
		facts("a", 2, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("zzz", 5, 0, models.ProviderOpenAI, "q1", baseTime),
	)

	results := agg.Aggregate(all, []models.Brand{brandA}, models.Filter{})

	require.Len(t, results, 1)
	assert.InDelta(t, 100.0, results[0].SOVPercent, 1e-9)
}

func TestAggregate_Filters(t *testing.T) {
	queries := []models.Query{
		{ID: "q1", Text: "best crm", Category: "CRM", Tags: []string{"smb", "sales"}},
		{ID: "q2", Text: "crm for enterprise", Category: "CRM", Tags: []string{"enterprise"}},
		{ID: "q3", Text: "best email tool", Category: "Email", Tags: []string{"smb"}},
	}
	agg := New(queries, nil)
	brands := []models.Brand{brandA, brandB}

	all := concat(
		facts("a", 4, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("b", 2, 0, models.ProviderAnthropic, "q1", baseTime),
		facts("a", 1, 0, models.ProviderGoogle, "q2", baseTime.AddDate(0, 0, -10)),
		facts("b", 3, 0, models.ProviderGoogle, "q3", baseTime.AddDate(0, 0, 2)),
		facts("a", 5, 0, models.ProviderOpenAI, "unknown", baseTime),
	)

	mentions := func(results []models.AggregateResult) map[string]int {
		out := make(map[string]int)
		for _, r := range results {
			out[r.BrandID] = r.MentionCount
		}
		return out
	}

	tests := []struct {
		name     string
		filter   models.Filter
		expected map[string]int
	}{
		{name: "No filter", filter: models.Filter{}, expected: map[string]int{"a": 10, "b": 5}},
		{name: "Provider", filter: models.Filter{Provider: providerPtr(models.ProviderGoogle)}, expected: map[string]int{"a": 1, "b": 3}},
		{name: "Any tag", filter: models.Filter{Tags: []string{"smb"}}, expected: map[string]int{"a": 4, "b": 5}},
		{name: "Tag case insensitive", filter: models.Filter{Tags: []string{"ENTERPRISE"}}, expected: map[string]int{"a": 1, "b": 0}},
		{name: "Category", filter: models.Filter{Category: "crm"}, expected: map[string]int{"a": 5, "b": 2}},
		{
			name:     "Date range is half open",
			filter:   models.Filter{From: baseTime, To: baseTime.AddDate(0, 0, 2)},
			expected: map[string]int{"a": 9, "b": 2},
		},
		{
			name:     "Dimensions compose with AND",
			filter:   models.Filter{Tags: []string{"smb"}, Provider: providerPtr(models.ProviderOpenAI)},
			expected: map[string]int{"a": 4, "b": 0},
		},
		{name: "Query ids", filter: models.Filter{QueryIDs: []string{"q2", "q3"}}, expected: map[string]int{"a": 1, "b": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mentions(agg.Aggregate(all, brands, tt.filter)))
		})
	}
}

func TestAggregate_StableTies(t *testing.T) {
	agg := New(nil, nil)
	all := concat(
		facts("c", 2, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("b", 2, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("a", 1, 0, models.ProviderOpenAI, "q1", baseTime),
	)

	results := agg.Aggregate(all, []models.Brand{brandA, brandB, brandC}, models.Filter{})

	assert.Equal(t, []string{"b", "c", "a"}, []string{results[0].BrandID, results[1].BrandID, results[2].BrandID})
}

func TestShareSplit(t *testing.T) {
	agg := New(nil, nil)
	all := concat(
		facts("a", 2, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("b", 1, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("c", 1, 0, models.ProviderOpenAI, "q1", baseTime),
	)

	own, competitors := ShareSplit(agg.Aggregate(all, []models.Brand{brandA, brandB, brandC}, models.Filter{}))

	assert.InDelta(t, 50.0, own, 1e-9)
	assert.InDelta(t, 50.0, competitors, 1e-9)
}

func TestProviderBreakdown(t *testing.T) {
	agg := New(nil, nil)
	all := concat(
		facts("a", 3, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("b", 1, 0, models.ProviderPerplexity, "q1", baseTime),
	)

	breakdown := agg.ProviderBreakdown(all, []models.Brand{brandA, brandB}, models.Filter{})

	require.Len(t, breakdown, len(models.AllProviders))
	assert.Equal(t, "a", breakdown[models.ProviderOpenAI][0].BrandID)
	assert.InDelta(t, 100.0, breakdown[models.ProviderOpenAI][0].SOVPercent, 1e-9)
	assert.Equal(t, "b", breakdown[models.ProviderPerplexity][0].BrandID)
	assert.Equal(t, 0.0, breakdown[models.ProviderGoogle][0].SOVPercent)
}

func TestCountResponses(t *testing.T) {
	assert.Zero(t, CountResponses(nil))
	assert.Equal(t, 2, CountResponses(concat(
		facts("a", 1, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("a", 1, 0, models.ProviderGoogle, "q1", baseTime),
		[]models.MentionFact{{ResponseID: "a-openai-q1-" + fmt.Sprint(baseTime.Unix()) + "-0", BrandID: "b"}},
	)))
}
