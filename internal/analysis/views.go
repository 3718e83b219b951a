package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/aggregation"
	"github.com/azure/sov-mentions-bot/internal/metrics"
	"github.com/azure/sov-mentions-bot/internal/models"
)

// ShareOfVoice is the aggregate view of a project's facts
type ShareOfVoice struct {
	ProjectID       string                                       `json:"project_id"`
	Filter          models.Filter                                `json:"filter"`
	TotalResponses  int                                          `json:"total_responses"`
	OwnShare        float64                                      `json:"own_share"`
	CompetitorShare float64                                      `json:"competitor_share"`
	Results         []models.AggregateResult                     `json:"results"`
	ByProvider      map[models.Provider][]models.AggregateResult `json:"by_provider,omitempty"`
}

// ShareOfVoice aggregates a project's facts matching filter
func (s *Service) ShareOfVoice(ctx context.Context, projectID string, filter models.Filter) (*ShareOfVoice, error) {
	var view ShareOfVoice
	err := s.cached(ctx, projectID, cacheKey("sov", filter), &view, func(brands []models.Brand, agg *aggregation.Aggregator, facts []models.MentionFact) interface{} {
		view = ShareOfVoice{
			ProjectID:      projectID,
			Filter:         filter,
			TotalResponses: aggregation.CountResponses(agg.Filter(facts, filter)),
			Results:        agg.Aggregate(facts, brands, filter),
		}
		view.OwnShare, view.CompetitorShare = aggregation.ShareSplit(view.Results)
		if filter.Provider == nil {
			view.ByProvider = agg.ProviderBreakdown(facts, brands, filter)
		}
		return view
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Trends buckets a project's facts by granularity
func (s *Service) Trends(ctx context.Context, projectID string, filter models.Filter, g aggregation.Granularity) ([]aggregation.Bucket, error) {
	var buckets []aggregation.Bucket
	err := s.cached(ctx, projectID, cacheKey("trends:"+string(g), filter), &buckets, func(brands []models.Brand, agg *aggregation.Aggregator, facts []models.MentionFact) interface{} {
		buckets = agg.TimeSeries(facts, brands, filter, g)
		return buckets
	})
	return buckets, err
}

// Leaderboard ranks brands over the last days and compares them with the days before
func (s *Service) Leaderboard(ctx context.Context, projectID string, days int) ([]models.LeaderboardEntry, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}

	current, previous := Windows(s.now(), time.Duration(days)*24*time.Hour)

	var entries []models.LeaderboardEntry
	// The window moves with the clock so the key is not stable enough to cache.
	_, err := s.compute(ctx, projectID, models.Filter{From: previous.From}, func(brands []models.Brand, agg *aggregation.Aggregator, facts []models.MentionFact) interface{} {
		entries = agg.Leaderboard(facts, brands, current, previous)
		return entries
	})
	return entries, err
}

// QueryBreakdown returns per-query brand statistics for a project
func (s *Service) QueryBreakdown(ctx context.Context, projectID string, filter models.Filter) ([]aggregation.QueryBreakdown, error) {
	var breakdown []aggregation.QueryBreakdown
	err := s.cached(ctx, projectID, cacheKey("queries", filter), &breakdown, func(brands []models.Brand, agg *aggregation.Aggregator, facts []models.MentionFact) interface{} {
		breakdown = agg.QueryBreakdown(facts, brands, filter)
		return breakdown
	})
	return breakdown, err
}

type viewFunc func(brands []models.Brand, agg *aggregation.Aggregator, facts []models.MentionFact) interface{}

// cached serves dest from the aggregate cache, computing and storing it on a miss.
// Cache failures fall through to computing the view.
func (s *Service) cached(ctx context.Context, projectID, key string, dest interface{}, fn viewFunc) error {
	log := logrus.WithFields(logrus.Fields{"project": projectID, "key": key})

	hit, err := s.cache.Get(ctx, projectID, key, dest)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warnf("Aggregate cache read failed: %v", err)
	case hit:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return nil
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	value, err := s.compute(ctx, projectID, models.Filter{}, fn)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, projectID, key, value); err != nil {
		log.Warnf("Aggregate cache write failed: %v", err)
	}
	return nil
}

// compute loads the project's brands, queries and the stored facts since scope.From and runs fn
func (s *Service) compute(ctx context.Context, projectID string, scope models.Filter, fn viewFunc) (interface{}, error) {
	brands, queries, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	facts, err := s.store.ListFacts(ctx, projectID, models.Filter{From: scope.From})
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}

	return fn(brands, aggregation.New(queries, s.location), facts), nil
}

// cacheKey derives a stable key from a view name and its filter
func cacheKey(view string, filter models.Filter) string {
	data, _ := json.Marshal(filter)
	return view + ":" + string(data)
}
