package aggregation

import (
	"github.com/azure/sov-mentions-bot/internal/models"
)

// BrandQueryStats is one brand's showing within a single query's responses
type BrandQueryStats struct {
	BrandID        string            `json:"brand_id"`
	BrandName      string            `json:"brand"`
	MentionCount   int               `json:"mentions"`
	RecommendCount int               `json:"recommendations"`
	Providers      []models.Provider `json:"providers,omitempty"`
}

// QueryBreakdown shows which brands each query's responses mention
type QueryBreakdown struct {
	QueryID       string            `json:"query_id"`
	QueryText     string            `json:"query"`
	ResponseCount int               `json:"responses"`
	Brands        []BrandQueryStats `json:"brands"`
	LeaderID      string            `json:"leader_id,omitempty"`
	LeaderSOV     float64           `json:"leader_sov"`
}

// QueryBreakdown returns a per-query view of the facts matching filter, ordered by each query's first fact
func (a *Aggregator) QueryBreakdown(facts []models.MentionFact, brands []models.Brand, filter models.Filter) []QueryBreakdown {
	byQuery := make(map[string][]models.MentionFact)
	var order []string
	for _, f := range a.Filter(facts, filter) {
		if _, seen := byQuery[f.QueryID]; !seen {
			order = append(order, f.QueryID)
		}
		byQuery[f.QueryID] = append(byQuery[f.QueryID], f)
	}

	breakdowns := make([]QueryBreakdown, 0, len(order))
	for _, queryID := range order {
		qf := byQuery[queryID]
		bd := QueryBreakdown{
			QueryID:       queryID,
			QueryText:     a.queries[queryID].Text,
			ResponseCount: CountResponses(qf),
			Brands:        brandStats(qf, brands),
		}

		ranked := rank(count(qf, brands))
		if len(ranked) > 0 && ranked[0].MentionCount > 0 {
			bd.LeaderID = ranked[0].BrandID
			bd.LeaderSOV = ranked[0].SOVPercent
		}

		breakdowns = append(breakdowns, bd)
	}

	return breakdowns
}

func brandStats(facts []models.MentionFact, brands []models.Brand) []BrandQueryStats {
	index := make(map[string]int, len(brands))
	stats := make([]BrandQueryStats, len(brands))
	for i, b := range brands {
		index[b.ID] = i
		stats[i] = BrandQueryStats{BrandID: b.ID, BrandName: b.Name}
	}

	for _, f := range facts {
		i, ok := index[f.BrandID]
		if !ok || !f.Mentioned {
			continue
		}
		stats[i].MentionCount++
		if f.Recommended {
			stats[i].RecommendCount++
		}
		if !containsProvider(stats[i].Providers, f.Provider) {
			stats[i].Providers = append(stats[i].Providers, f.Provider)
		}
	}

	return stats
}

func containsProvider(list []models.Provider, p models.Provider) bool {
	for _, have := range list {
		if have == p {
			return true
		}
	}
	return false
}
