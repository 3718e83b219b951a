package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/azure/sov-mentions-bot/internal/aggregation"
	"github.com/azure/sov-mentions-bot/internal/metrics"
	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/azure/sov-mentions-bot/internal/storage"
)

// Report periods
const (
	PeriodDaily  = "daily"
	PeriodWeekly = "weekly"
)

// PeriodLength returns the window covered by a report period
func PeriodLength(period string) time.Duration {
	if period == PeriodDaily {
		return 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// Windows returns the filters of the period ending at now and of the one before it.
// The current window is open-ended so responses stored during the run are counted.
func Windows(now time.Time, length time.Duration) (current, previous models.Filter) {
	start := now.Add(-length)
	current = models.Filter{From: start}
	previous = models.Filter{From: start.Add(-length), To: start}
	return current, previous
}

// BuildReport computes a share-of-voice report from facts
func BuildReport(projectID, period string, facts []models.MentionFact, brands []models.Brand, queries []models.Query, loc *time.Location, now time.Time) *models.Report {
	agg := aggregation.New(queries, loc)
	current, previous := Windows(now, PeriodLength(period))

	leaderboard := agg.Leaderboard(facts, brands, current, previous)

	report := &models.Report{
		ProjectID:   projectID,
		GeneratedAt: now,
		Period:      period,
		Leaderboard: leaderboard,
	}

	results := make([]models.AggregateResult, 0, len(leaderboard))
	for _, entry := range leaderboard {
		results = append(results, entry.AggregateResult)
		report.TotalMentions += entry.MentionCount
		report.TotalResponses = entry.TotalResponses
	}
	report.OwnShare, report.CompetitorShare = aggregation.ShareSplit(results)

	return report
}

// GenerateReport builds the report of the configured period for a project from stored facts
func (s *Service) GenerateReport(ctx context.Context, projectID string) (*models.Report, error) {
	brands, queries, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	_, previous := Windows(now, PeriodLength(s.period()))

	facts, err := s.store.ListFacts(ctx, projectID, models.Filter{From: previous.From})
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}

	report := BuildReport(projectID, s.period(), facts, brands, queries, s.location, now)
	for _, entry := range report.Leaderboard {
		metrics.ShareOfVoice.WithLabelValues(projectID, entry.BrandID).Set(entry.SOVPercent)
	}

	return report, nil
}

// LatestReport returns the most recently archived report of a project
func (s *Service) LatestReport(ctx context.Context, projectID string) (*models.Report, error) {
	if _, err := s.catalog.Brands(ctx, projectID); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, fmt.Errorf("report for %s: %w", projectID, storage.ErrNotFound)
	}
	return storage.LatestReport(ctx, s.archive, projectID)
}

func (s *Service) period() string {
	if s.config.ReportSchedule == PeriodDaily {
		return PeriodDaily
	}
	return PeriodWeekly
}
