package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/config"
)

const (
	dailySchedule      = "0 0 9 * * *"
	weeklySchedule     = "0 0 9 * * MON"
	shareCheckSchedule = "0 0 */4 * * *"
)

// Runner is the work the scheduler triggers
type Runner interface {
	RunAnalysis(ctx context.Context) error
	RunShareCheck(ctx context.Context) error
}

// Service handles scheduling of analysis runs
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
}

// NewService creates a new scheduler service. Schedules are evaluated in the configured time zone.
func NewService(cfg *config.Config, runner Runner) *Service {
	return &Service{
		config: cfg,
		runner: runner,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.Location()),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// CronExpression returns the report schedule for "daily" or "weekly", defaulting to weekly
func CronExpression(schedule string) string {
	switch schedule {
	case "daily":
		// Run daily at 9 AM
		return dailySchedule
	default:
		// Run weekly on Monday at 9 AM
		return weeklySchedule
	}
}

// Start registers the jobs and begins running them. Jobs receive ctx.
func (s *Service) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(CronExpression(s.config.ReportSchedule), func() {
		logrus.Info("Starting scheduled analysis run")
		if err := s.runner.RunAnalysis(ctx); err != nil {
			logrus.Errorf("Scheduled analysis run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	// Also check for share of voice drops every 4 hours
	_, err = s.cron.AddFunc(shareCheckSchedule, func() {
		logrus.Info("Starting share of voice check (4-hour frequency)")
		if err := s.runner.RunShareCheck(ctx); err != nil {
			logrus.Errorf("Share of voice check failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s schedule (plus share checks every 4 hours)", s.config.ReportSchedule)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
