package notifications

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/models"
)

// LogNotifier writes reports and alerts to the log. Used when no channel is configured.
type LogNotifier struct{}

var _ NotificationInterface = LogNotifier{}

func (LogNotifier) SendReport(ctx context.Context, report *models.Report) error {
	fields := logrus.Fields{
		"project":          report.ProjectID,
		"period":           report.Period,
		"responses":        report.TotalResponses,
		"own_share":        report.OwnShare,
		"competitor_share": report.CompetitorShare,
	}
	if len(report.Leaderboard) > 0 {
		leader := report.Leaderboard[0]
		fields["leader"] = leader.BrandName
		fields["leader_sov"] = leader.SOVPercent
	}
	logrus.WithFields(fields).Info("Share of voice report")
	return nil
}

func (LogNotifier) SendAlert(ctx context.Context, alert *models.Alert) error {
	logrus.WithFields(logrus.Fields{
		"project": alert.ProjectID,
		"type":    alert.Type,
		"brand":   alert.BrandID,
	}).Warnf("%s: %s", alert.Title, alert.Message)
	return nil
}
