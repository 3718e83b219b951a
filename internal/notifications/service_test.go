package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/sov-mentions-bot/internal/config"
	"github.com/azure/sov-mentions-bot/internal/models"
)

func sampleReport(rows int) *models.Report {
	report := &models.Report{
		ProjectID:       "cards",
		GeneratedAt:     time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
		Period:          "weekly",
		TotalResponses:  40,
		TotalMentions:   90,
		OwnShare:        42.5,
		CompetitorShare: 57.5,
	}
	for i := 0; i < rows; i++ {
		trend := "flat"
		if i == 0 {
			trend = "up"
		}
		report.Leaderboard = append(report.Leaderboard, models.LeaderboardEntry{
			AggregateResult: models.AggregateResult{
				BrandID:      fmt.Sprintf("b%d", i),
				BrandName:    fmt.Sprintf("Brand %d", i),
				IsCompetitor: i > 0,
				MentionCount: 10 - i,
				SOVPercent:   float64(20 - i),
				Rank:         i + 1,
			},
			Trend:      trend,
			TrendDelta: 2.5,
		})
	}
	return report
}

func TestService_SendReport_Teams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewService(&config.Config{TeamsWebhookURL: server.URL})
	require.NoError(t, s.SendReport(context.Background(), sampleReport(12)))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "Share of Voice Report - cards - Weekly", received.Title)
	require.Len(t, received.Sections, 2)
	assert.Contains(t, received.Sections[0].Facts, TeamsFact{Name: "Own Share", Value: "42.5%"})
	assert.Contains(t, received.Sections[1].ActivityText, "1. **Brand 0** 20.0% ↑ (+2.5 pts)")
	assert.Contains(t, received.Sections[1].ActivityText, "10. **Brand 9**")
	assert.NotContains(t, received.Sections[1].ActivityText, "Brand 10")
}

func TestService_SendReport_TeamsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	s := NewService(&config.Config{TeamsWebhookURL: server.URL})
	err := s.SendReport(context.Background(), sampleReport(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teams")
}

func TestService_SendAlert(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	s := NewService(&config.Config{TeamsWebhookURL: server.URL})
	alert := &models.Alert{ProjectID: "cards", Type: "urgent", Title: "Share of voice dropped", Message: "Own share fell 12.0 points", CreatedAt: time.Now()}

	require.NoError(t, s.SendAlert(context.Background(), alert))
	assert.Equal(t, "Share of voice dropped", received.Title)
	assert.Equal(t, "FF8C00", received.ThemeColor)

	assert.NoError(t, NewService(&config.Config{}).SendAlert(context.Background(), alert), "no webhook is not an error")
}

func TestBuildEmail(t *testing.T) {
	report := sampleReport(3)

	html, err := buildEmailHTML(report)
	require.NoError(t, err)
	assert.Contains(t, html, "Share of Voice Report: cards")
	assert.Contains(t, html, "Weekly report generated on March 10, 2024")
	assert.Contains(t, html, "<td>Brand 2</td>")
	assert.Contains(t, html, `<tr class="own">`)

	text := buildEmailText(report)
	assert.Contains(t, text, "Own share: 42.5%")
	assert.Contains(t, text, "LEADERBOARD")
	assert.Contains(t, text, "Brand 0")
	assert.NotContains(t, text, "Failed queries")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "↑", trendArrow("up"))
	assert.Equal(t, "↓", trendArrow("down"))
	assert.Equal(t, "→", trendArrow("flat"))
	assert.Equal(t, "-3.0 pts", formatDelta(-3))
	assert.Equal(t, "33.3%", formatPercent(100.0/3))
	assert.Equal(t, "Daily", capitalize("daily"))
	assert.Len(t, topEntries(sampleReport(15).Leaderboard), leaderboardRows)
}

func TestLogNotifier(t *testing.T) {
	var n NotificationInterface = LogNotifier{}
	assert.NoError(t, n.SendReport(context.Background(), sampleReport(2)))
	assert.NoError(t, n.SendAlert(context.Background(), &models.Alert{Title: "t"}))
}
