package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/aggregation"
	"github.com/azure/sov-mentions-bot/internal/metrics"
	"github.com/azure/sov-mentions-bot/internal/models"
)

// shareCheckWindow is compared against the window of the same length before it
const shareCheckWindow = 24 * time.Hour

// ShareChange is the movement of a project's own share between two windows
type ShareChange struct {
	ProjectID string  `json:"project_id"`
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	Responses int     `json:"responses"`
}

// Drop returns the fall in own share in percentage points, negative for a rise
func (c ShareChange) Drop() float64 {
	return c.Previous - c.Current
}

// RunShareCheck alerts on projects whose own share of voice fell by more than the configured threshold
func (s *Service) RunShareCheck(ctx context.Context) error {
	start := s.now()
	logrus.Info("Starting share of voice check")

	projects, err := s.projects(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("share_check", "error").Inc()
		return err
	}

	var errs []error
	alerts := 0
	for _, projectID := range projects {
		change, err := s.shareChange(ctx, projectID)
		if err != nil {
			errs = append(errs, fmt.Errorf("project %s: %w", projectID, err))
			continue
		}

		if change.Responses == 0 || change.Drop() <= s.config.ShareDropThreshold {
			continue
		}

		if err := s.notificationService.SendAlert(ctx, s.shareAlert(change)); err != nil {
			errs = append(errs, fmt.Errorf("project %s: failed to send alert: %w", projectID, err))
			continue
		}
		alerts++
	}

	s.mu.Lock()
	s.metrics.LastShareCheck = s.now()
	s.metrics.AlertsSent += alerts
	s.mu.Unlock()

	metrics.RunDuration.WithLabelValues("share_check").Observe(s.now().Sub(start).Seconds())
	if len(errs) > 0 {
		metrics.RunsTotal.WithLabelValues("share_check", "error").Inc()
		return errors.Join(errs...)
	}

	metrics.RunsTotal.WithLabelValues("share_check", "success").Inc()
	logrus.Infof("Share check completed in %v, sent %d alerts", s.now().Sub(start), alerts)
	return nil
}

func (s *Service) shareChange(ctx context.Context, projectID string) (ShareChange, error) {
	brands, queries, err := s.load(ctx, projectID)
	if err != nil {
		return ShareChange{}, err
	}

	current, previous := Windows(s.now(), shareCheckWindow)
	facts, err := s.store.ListFacts(ctx, projectID, models.Filter{From: previous.From})
	if err != nil {
		return ShareChange{}, fmt.Errorf("failed to list facts: %w", err)
	}

	agg := aggregation.New(queries, s.location)
	nowResults := agg.Aggregate(facts, brands, current)
	beforeResults := agg.Aggregate(facts, brands, previous)

	change := ShareChange{ProjectID: projectID}
	change.Current, _ = aggregation.ShareSplit(nowResults)
	change.Previous, _ = aggregation.ShareSplit(beforeResults)
	// Both windows must have data for a comparison.
	if inWindow := agg.Filter(facts, current); len(inWindow) > 0 && len(agg.Filter(facts, previous)) > 0 {
		change.Responses = aggregation.CountResponses(inWindow)
	}

	return change, nil
}

func (s *Service) shareAlert(change ShareChange) *models.Alert {
	alertType := "urgent"
	if change.Drop() >= 2*s.config.ShareDropThreshold {
		alertType = "critical"
	}

	return &models.Alert{
		ID:        s.newID(),
		ProjectID: change.ProjectID,
		Type:      alertType,
		Title:     fmt.Sprintf("Share of voice dropped for %s", change.ProjectID),
		Message: fmt.Sprintf("Own share fell %.1f points in the last 24 hours, from %.1f%% to %.1f%% across %d responses",
			change.Drop(), change.Previous, change.Current, change.Responses),
		CreatedAt: s.now(),
	}
}
