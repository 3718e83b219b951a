package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/metrics"
	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/azure/sov-mentions-bot/internal/storage"
)

// QueryRun is the outcome of running a single query on demand
type QueryRun struct {
	ProjectID string              `json:"project_id"`
	QueryID   string              `json:"query_id"`
	RunAt     time.Time           `json:"run_at"`
	Responses []ResponseDetection `json:"responses"`
}

// RunQuery fetches, stores and detects one query of a project. Inactive queries may be run manually.
func (s *Service) RunQuery(ctx context.Context, projectID, queryID string) (*QueryRun, error) {
	start := s.now()

	brands, queries, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var query *models.Query
	for i := range queries {
		if queries[i].ID == queryID {
			query = &queries[i]
			break
		}
	}
	if query == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrQueryNotFound, projectID, queryID)
	}

	detections, err := s.analyzeQuery(ctx, projectID, *query, s.detector.Compile(brands), start)
	if len(detections) > 0 {
		if err := s.cache.Invalidate(ctx, projectID); err != nil {
			logrus.WithField("project", projectID).Warnf("Failed to invalidate aggregate cache: %v", err)
		}
	}
	if err != nil {
		metrics.RunsTotal.WithLabelValues("query", "error").Inc()
		metrics.FetchErrors.WithLabelValues(projectID).Inc()
		return nil, err
	}

	metrics.RunsTotal.WithLabelValues("query", "success").Inc()
	metrics.RunDuration.WithLabelValues("query").Observe(s.now().Sub(start).Seconds())

	return &QueryRun{
		ProjectID: projectID,
		QueryID:   queryID,
		RunAt:     start,
		Responses: detections,
	}, nil
}

// Reanalyze re-runs detection over every stored response of a project with the current brands.
// It returns the number of responses processed.
func (s *Service) Reanalyze(ctx context.Context, projectID string) (int, error) {
	start := s.now()
	log := logrus.WithField("project", projectID)

	brands, err := s.catalog.Brands(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to load brands: %w", err)
	}

	responses, err := s.store.ListResponses(ctx, projectID, time.Time{})
	if err != nil {
		metrics.RunsTotal.WithLabelValues("reanalyze", "error").Inc()
		return 0, fmt.Errorf("failed to list responses: %w", err)
	}

	set := s.detector.Compile(brands)
	processed := 0
	for _, resp := range responses {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if _, err := s.detect(ctx, set, resp); err != nil {
			metrics.RunsTotal.WithLabelValues("reanalyze", "error").Inc()
			return processed, err
		}
		processed++
	}

	if err := s.cache.Invalidate(ctx, projectID); err != nil {
		log.Warnf("Failed to invalidate aggregate cache: %v", err)
	}

	metrics.RunsTotal.WithLabelValues("reanalyze", "success").Inc()
	metrics.RunDuration.WithLabelValues("reanalyze").Observe(s.now().Sub(start).Seconds())
	log.Infof("Reanalysed %d responses for %d brands", processed, len(brands))

	return processed, nil
}

// Response returns a stored response of a project with the brands the current catalog detects in it.
// Nothing is written back; Reanalyze persists fresh detections.
func (s *Service) Response(ctx context.Context, projectID, responseID string) (*ResponseDetection, error) {
	brands, err := s.catalog.Brands(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load brands: %w", err)
	}

	resp, err := s.store.GetResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if resp.ProjectID != projectID {
		return nil, fmt.Errorf("response %s in project %s: %w", responseID, projectID, storage.ErrNotFound)
	}

	set := s.detector.Compile(brands)
	results := set.Detect(resp.Text)
	return &ResponseDetection{
		Response:    resp,
		Mentioned:   set.Mentioned(results),
		Recommended: set.Recommended(results),
	}, nil
}
