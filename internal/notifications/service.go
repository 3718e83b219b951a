package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/azure/sov-mentions-bot/internal/config"
	"github.com/azure/sov-mentions-bot/internal/models"
)

// leaderboardRows is how many leaderboard rows a notification shows
const leaderboardRows = 10

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(ctx context.Context, report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postTeams(ctx, s.buildTeamsMessage(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Sent %s report to Teams", report.ProjectID)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Sent %s report via email", report.ProjectID)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert posts an alert card to Teams
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Warnf("Alert not delivered, no Teams webhook configured: %s - %s", alert.Type, alert.Title)
		return nil
	}

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: alertColor(alert.Type),
		Title:      alert.Title,
		Text:       alert.Message,
		Sections: []TeamsSection{{
			Facts: []TeamsFact{
				{Name: "Project", Value: alert.ProjectID},
				{Name: "Severity", Value: alert.Type},
				{Name: "Raised", Value: alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
			},
		}},
	}

	if err := s.postTeams(ctx, message); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

func alertColor(severity string) string {
	switch severity {
	case "critical":
		return "D13438"
	case "urgent":
		return "FF8C00"
	default:
		return "0078D4"
	}
}

func (s *Service) postTeams(ctx context.Context, message *TeamsMessage) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Share of Voice Report - %s - %s", report.ProjectID, capitalize(report.Period)),
		Text:    fmt.Sprintf("Analysed %d AI responses, %d brand mentions", report.TotalResponses, report.TotalMentions),
	}

	facts := []TeamsFact{
		{Name: "Responses Analysed", Value: fmt.Sprintf("%d", report.TotalResponses)},
		{Name: "Own Share", Value: formatPercent(report.OwnShare)},
		{Name: "Competitor Share", Value: formatPercent(report.CompetitorShare)},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	if report.FailedQueries > 0 {
		facts = append(facts, TeamsFact{Name: "Failed Queries", Value: fmt.Sprintf("%d", report.FailedQueries)})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Leaderboard) > 0 {
		var rows []string
		for _, e := range topEntries(report.Leaderboard) {
			rows = append(rows, fmt.Sprintf("%d. **%s** %s %s (%s)",
				e.Rank, e.BrandName, formatPercent(e.SOVPercent), trendArrow(e.Trend), formatDelta(e.TrendDelta)))
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Leaderboard",
			ActivityText:  strings.Join(rows, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.Report) error {
	subject := fmt.Sprintf("Share of Voice Report - %s - %s (%s own share)",
		report.ProjectID, capitalize(report.Period), formatPercent(report.OwnShare))

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Share of Voice Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        table { border-collapse: collapse; width: 100%; }
        th, td { text-align: left; padding: 8px; border-bottom: 1px solid #ddd; }
        .own { font-weight: bold; }
        .up { color: #107c10; }
        .down { color: #d13438; }
        .flat { color: #605e5c; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Share of Voice Report: {{.ProjectID}}</h1>
        <p>{{.Period | capitalize}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM MST"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Responses analysed:</strong> {{.TotalResponses}}</p>
        <p><strong>Brand mentions:</strong> {{.TotalMentions}}</p>
        <p><strong>Own share:</strong> {{.OwnShare | percent}}</p>
        <p><strong>Competitor share:</strong> {{.CompetitorShare | percent}}</p>
        {{if .FailedQueries}}<p><strong>Failed queries:</strong> {{.FailedQueries}}</p>{{end}}
    </div>

    {{if .Leaderboard}}
    <h2>Leaderboard</h2>
    <table>
        <tr><th>#</th><th>Brand</th><th>Share of voice</th><th>Mentions</th><th>Recommended</th><th>Trend</th></tr>
        {{range top .Leaderboard}}
        <tr class="{{if not .IsCompetitor}}own{{end}}">
            <td>{{.Rank}}</td>
            <td>{{.BrandName}}</td>
            <td>{{.SOVPercent | percent}}</td>
            <td>{{.MentionCount}}</td>
            <td>{{.RecommendCount}}</td>
            <td class="{{.Trend}}">{{.Trend | arrow}} {{.TrendDelta | delta}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the SOV Mentions Bot.</small></p>
</body>
</html>
`

var emailFuncs = template.FuncMap{
	"capitalize": capitalize,
	"percent":    formatPercent,
	"delta":      formatDelta,
	"arrow":      trendArrow,
	"top":        topEntries,
}

func buildEmailHTML(report *models.Report) (string, error) {
	t, err := template.New("email").Funcs(emailFuncs).Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func buildEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Share of Voice Report - %s - %s\n", report.ProjectID, capitalize(report.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Responses analysed: %d\n", report.TotalResponses))
	text.WriteString(fmt.Sprintf("Brand mentions: %d\n", report.TotalMentions))
	text.WriteString(fmt.Sprintf("Own share: %s\n", formatPercent(report.OwnShare)))
	text.WriteString(fmt.Sprintf("Competitor share: %s\n", formatPercent(report.CompetitorShare)))
	if report.FailedQueries > 0 {
		text.WriteString(fmt.Sprintf("Failed queries: %d\n", report.FailedQueries))
	}

	if len(report.Leaderboard) > 0 {
		text.WriteString("\nLEADERBOARD\n")
		text.WriteString("===========\n")

		for _, e := range topEntries(report.Leaderboard) {
			marker := ""
			if !e.IsCompetitor {
				marker = " *"
			}
			text.WriteString(fmt.Sprintf("%2d. %-24s %7s  %s %s  (%d mentions, %d recommended)%s\n",
				e.Rank, e.BrandName, formatPercent(e.SOVPercent), trendArrow(e.Trend), formatDelta(e.TrendDelta),
				e.MentionCount, e.RecommendCount, marker))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the SOV Mentions Bot.\n")

	return text.String()
}

func topEntries(entries []models.LeaderboardEntry) []models.LeaderboardEntry {
	if len(entries) > leaderboardRows {
		return entries[:leaderboardRows]
	}
	return entries
}

func trendArrow(trend string) string {
	switch trend {
	case "up":
		return "↑"
	case "down":
		return "↓"
	default:
		return "→"
	}
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatDelta(v float64) string {
	return fmt.Sprintf("%+.1f pts", v)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
