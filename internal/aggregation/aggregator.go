package aggregation

import (
	"sort"
	"strings"
	"time"

	"github.com/azure/sov-mentions-bot/internal/models"
)

// Aggregator computes share-of-voice metrics from mention facts
type Aggregator struct {
	queries  map[string]models.Query
	location *time.Location
}

// New creates an aggregator that resolves tag and category filters against queries.
// Time buckets are computed in loc, or UTC when loc is nil.
func New(queries []models.Query, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}

	byID := make(map[string]models.Query, len(queries))
	for _, q := range queries {
		byID[q.ID] = q
	}

	return &Aggregator{queries: byID, location: loc}
}

// Aggregate returns one ranked row per brand for the facts matching filter
func (a *Aggregator) Aggregate(facts []models.MentionFact, brands []models.Brand, filter models.Filter) []models.AggregateResult {
	return rank(count(a.Filter(facts, filter), brands))
}

// Filter keeps the facts matching every specified filter dimension
func (a *Aggregator) Filter(facts []models.MentionFact, filter models.Filter) []models.MentionFact {
	var queryIDs map[string]bool
	if len(filter.QueryIDs) > 0 {
		queryIDs = make(map[string]bool, len(filter.QueryIDs))
		for _, id := range filter.QueryIDs {
			queryIDs[id] = true
		}
	}

	var kept []models.MentionFact
	for _, f := range facts {
		if filter.Provider != nil && f.Provider != *filter.Provider {
			continue
		}
		if !filter.From.IsZero() && f.RunAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !f.RunAt.Before(filter.To) {
			continue
		}
		if queryIDs != nil && !queryIDs[f.QueryID] {
			continue
		}
		if filter.Category != "" || len(filter.Tags) > 0 {
			q, ok := a.queries[f.QueryID]
			if !ok {
				continue
			}
			if filter.Category != "" && !strings.EqualFold(q.Category, filter.Category) {
				continue
			}
			if len(filter.Tags) > 0 && !q.HasAnyTag(filter.Tags) {
				continue
			}
		}
		kept = append(kept, f)
	}

	return kept
}

// count tallies mentions and recommendations for every brand, including unmentioned ones
func count(facts []models.MentionFact, brands []models.Brand) []models.AggregateResult {
	index := make(map[string]int, len(brands))
	results := make([]models.AggregateResult, len(brands))
	for i, b := range brands {
		index[b.ID] = i
		results[i] = models.AggregateResult{
			BrandID:      b.ID,
			BrandName:    b.Name,
			IsCompetitor: b.IsCompetitor,
		}
	}

	for _, f := range facts {
		i, ok := index[f.BrandID]
		if !ok {
			continue
		}
		// A recommendation only counts for a mentioned brand.
		if f.Mentioned {
			results[i].MentionCount++
			if f.Recommended {
				results[i].RecommendCount++
			}
		}
	}

	totalMentions, totalRecommendations := 0, 0
	for _, r := range results {
		totalMentions += r.MentionCount
		totalRecommendations += r.RecommendCount
	}

	for i := range results {
		results[i].SOVPercent = percent(results[i].MentionCount, totalMentions)
		results[i].RecommendSOVPercent = percent(results[i].RecommendCount, totalRecommendations)
	}

	return results
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// rank orders rows by share of voice, keeping brand order for ties
func rank(results []models.AggregateResult) []models.AggregateResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SOVPercent > results[j].SOVPercent
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// ShareSplit sums the share of voice of own brands and of competitors
func ShareSplit(results []models.AggregateResult) (own, competitors float64) {
	for _, r := range results {
		if r.IsCompetitor {
			competitors += r.SOVPercent
		} else {
			own += r.SOVPercent
		}
	}
	return own, competitors
}

// ProviderBreakdown aggregates separately for every provider
func (a *Aggregator) ProviderBreakdown(facts []models.MentionFact, brands []models.Brand, filter models.Filter) map[models.Provider][]models.AggregateResult {
	breakdown := make(map[models.Provider][]models.AggregateResult, len(models.AllProviders))
	for _, p := range models.AllProviders {
		provider := p
		scoped := filter
		scoped.Provider = &provider
		breakdown[p] = a.Aggregate(facts, brands, scoped)
	}
	return breakdown
}

// CountResponses returns the number of distinct responses among facts
func CountResponses(facts []models.MentionFact) int {
	seen := make(map[string]bool)
	for _, f := range facts {
		seen[f.ResponseID] = true
	}
	return len(seen)
}
