package aggregation

import (
	"testing"
	"time"

	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGranularity(t *testing.T) {
	for _, value := range []string{"daily", "weekly", "monthly"} {
		g, err := ParseGranularity(value)
		require.NoError(t, err)
		assert.Equal(t, Granularity(value), g)
	}

	g, err := ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, Weekly, g)

	_, err = ParseGranularity("hourly")
	assert.Error(t, err)
}

func TestBucketStart(t *testing.T) {
	agg := New(nil, nil)
	wednesday := time.Date(2024, time.March, 6, 15, 30, 0, 0, time.UTC)
	sunday := time.Date(2024, time.March, 3, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), agg.BucketStart(wednesday, Daily))
	assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), agg.BucketStart(wednesday, Weekly))
	assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), agg.BucketStart(sunday, Weekly))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), agg.BucketStart(wednesday, Monthly))
}

func TestBucketStart_Location(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	agg := New(nil, loc)

	// 02:00 UTC on Sunday is still Saturday evening five hours behind.
	instant := time.Date(2024, time.March, 3, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, loc), agg.BucketStart(instant, Daily))
	assert.Equal(t, time.Date(2024, time.February, 25, 0, 0, 0, 0, loc), agg.BucketStart(instant, Weekly))
}

func TestTimeSeries(t *testing.T) {
	agg := New(nil, nil)
	brands := []models.Brand{brandA, brandB}

	all := concat(
		facts("a", 3, 1, models.ProviderOpenAI, "q1", time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC)),
		facts("b", 1, 0, models.ProviderOpenAI, "q1", time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC)),
		facts("a", 1, 0, models.ProviderOpenAI, "q1", time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)),
		facts("b", 3, 0, models.ProviderOpenAI, "q1", time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)),
	)

	buckets := agg.TimeSeries(all, brands, models.Filter{}, Weekly)

	require.Len(t, buckets, 2)
	assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), buckets[0].Key)
	assert.Equal(t, "Mar 3", buckets[0].Label)
	assert.Equal(t, "b", buckets[0].Results[0].BrandID)
	assert.InDelta(t, 75.0, buckets[0].Results[0].SOVPercent, 1e-9)

	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), buckets[1].Key)
	assert.Equal(t, "a", buckets[1].Results[0].BrandID)
	assert.InDelta(t, 75.0, buckets[1].Results[0].SOVPercent, 1e-9)
	assert.Equal(t, 1, buckets[1].Results[0].RecommendCount)

	daily := agg.TimeSeries(all, brands, models.Filter{}, Daily)
	assert.Len(t, daily, 4)

	monthly := agg.TimeSeries(all, brands, models.Filter{}, Monthly)
	require.Len(t, monthly, 1)
	assert.Equal(t, "Mar 2024", monthly[0].Label)
	assert.Len(t, monthly[0].Results, 2)
}

func TestTimeSeries_AppliesFilter(t *testing.T) {
	agg := New(nil, nil)
	all := concat(
		facts("a", 2, 0, models.ProviderOpenAI, "q1", baseTime),
		facts("b", 2, 0, models.ProviderGoogle, "q1", baseTime),
	)

	buckets := agg.TimeSeries(all, []models.Brand{brandA, brandB}, models.Filter{Provider: providerPtr(models.ProviderGoogle)}, Daily)

	require.Len(t, buckets, 1)
	assert.Equal(t, "b", buckets[0].Results[0].BrandID)
	assert.InDelta(t, 100.0, buckets[0].Results[0].SOVPercent, 1e-9)
}

func TestTimeSeries_Empty(t *testing.T) {
	assert.Empty(t, New(nil, nil).TimeSeries(nil, []models.Brand{brandA}, models.Filter{}, Daily))
}

func TestLeaderboard(t *testing.T) {
	agg := New(nil, nil)
	brands := []models.Brand{brandA, brandB}
	thisWeek := baseTime
	lastWeek := baseTime.AddDate(0, 0, -7)

	all := concat(
		facts("a", 3, 0, models.ProviderOpenAI, "q1", thisWeek),
		facts("b", 1, 0, models.ProviderOpenAI, "q1", thisWeek),
		facts("a", 1, 0, models.ProviderOpenAI, "q1", lastWeek),
		facts("b", 1, 0, models.ProviderOpenAI, "q1", lastWeek),
	)

	current := models.Filter{From: baseTime.AddDate(0, 0, -3), To: baseTime.AddDate(0, 0, 4)}
	previous := models.Filter{From: current.From.AddDate(0, 0, -7), To: current.From}

	entries := agg.Leaderboard(all, brands, current, previous)

	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].BrandID)
	assert.Equal(t, TrendUp, entries[0].Trend)
	assert.InDelta(t, 25.0, entries[0].TrendDelta, 1e-9)
	assert.Equal(t, 4, entries[0].TotalResponses)

	assert.Equal(t, "b", entries[1].BrandID)
	assert.Equal(t, TrendDown, entries[1].Trend)
	assert.InDelta(t, -25.0, entries[1].TrendDelta, 1e-9)
}

func TestLeaderboard_Flat(t *testing.T) {
	agg := New(nil, nil)

	entries := agg.Leaderboard(nil, []models.Brand{brandA}, models.Filter{}, models.Filter{})

	require.Len(t, entries, 1)
	assert.Equal(t, TrendFlat, entries[0].Trend)
	assert.Equal(t, 0, entries[0].TotalResponses)
}

func TestQueryBreakdown(t *testing.T) {
	queries := []models.Query{{ID: "q1", Text: "best crm"}, {ID: "q2", Text: "cheap crm"}}
	agg := New(queries, nil)
	brands := []models.Brand{brandA, brandB}

	all := []models.MentionFact{
		{ResponseID: "r1", BrandID: "a", QueryID: "q1", Provider: models.ProviderOpenAI, Mentioned: true, Recommended: true},
		{ResponseID: "r1", BrandID: "b", QueryID: "q1", Provider: models.ProviderOpenAI},
		{ResponseID: "r2", BrandID: "a", QueryID: "q1", Provider: models.ProviderGoogle, Mentioned: true},
		{ResponseID: "r2", BrandID: "b", QueryID: "q1", Provider: models.ProviderGoogle, Mentioned: true},
		{ResponseID: "r3", BrandID: "a", QueryID: "q2", Provider: models.ProviderOpenAI},
		{ResponseID: "r3", BrandID: "b", QueryID: "q2", Provider: models.ProviderOpenAI},
	}

	breakdown := agg.QueryBreakdown(all, brands, models.Filter{})

	require.Len(t, breakdown, 2)

	q1 := breakdown[0]
	assert.Equal(t, "q1", q1.QueryID)
	assert.Equal(t, "best crm", q1.QueryText)
	assert.Equal(t, 2, q1.ResponseCount)
	assert.Equal(t, "a", q1.LeaderID)
	assert.InDelta(t, 66.666, q1.LeaderSOV, 0.01)
	assert.Equal(t, 2, q1.Brands[0].MentionCount)
	assert.Equal(t, 1, q1.Brands[0].RecommendCount)
	assert.Equal(t, []models.Provider{models.ProviderOpenAI, models.ProviderGoogle}, q1.Brands[0].Providers)
	assert.Equal(t, []models.Provider{models.ProviderGoogle}, q1.Brands[1].Providers)

	q2 := breakdown[1]
	assert.Equal(t, 1, q2.ResponseCount)
	assert.Empty(t, q2.LeaderID)
}
