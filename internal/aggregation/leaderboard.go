package aggregation

import (
	"math"

	"github.com/azure/sov-mentions-bot/internal/models"
)

// Trend directions
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// trendEpsilon is the smallest SOV change, in percentage points, reported as movement
const trendEpsilon = 0.05

// Leaderboard ranks brands for the current period and compares each with the previous period
func (a *Aggregator) Leaderboard(facts []models.MentionFact, brands []models.Brand, current, previous models.Filter) []models.LeaderboardEntry {
	scoped := a.Filter(facts, current)
	now := rank(count(scoped, brands))
	before := a.Aggregate(facts, brands, previous)

	prior := make(map[string]float64, len(before))
	for _, r := range before {
		prior[r.BrandID] = r.SOVPercent
	}

	responses := CountResponses(scoped)
	entries := make([]models.LeaderboardEntry, 0, len(now))
	for _, r := range now {
		delta := r.SOVPercent - prior[r.BrandID]
		entries = append(entries, models.LeaderboardEntry{
			AggregateResult: r,
			TotalResponses:  responses,
			Trend:           direction(delta),
			TrendDelta:      math.Round(delta*10) / 10,
		})
	}

	return entries
}

func direction(delta float64) string {
	switch {
	case delta > trendEpsilon:
		return TrendUp
	case delta < -trendEpsilon:
		return TrendDown
	default:
		return TrendFlat
	}
}
