package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/analysis"
	"github.com/azure/sov-mentions-bot/internal/catalog"
	"github.com/azure/sov-mentions-bot/internal/config"
	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/azure/sov-mentions-bot/internal/providers"
	"github.com/azure/sov-mentions-bot/internal/storage"
)

const outputDir = "test_output"

// TestNotificationService outputs reports to the terminal
type TestNotificationService struct{}

func (t *TestNotificationService) SendReport(ctx context.Context, report *models.Report) error {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("📊 SHARE OF VOICE REPORT: %s\n", report.ProjectID)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📅 Period: %s\n", report.Period)
	fmt.Printf("🕒 Generated: %s\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("💬 Responses analysed: %d\n", report.TotalResponses)
	fmt.Printf("📈 Total mentions: %d\n", report.TotalMentions)
	fmt.Printf("🏠 Own share: %.1f%%   ⚔️  Competitor share: %.1f%%\n", report.OwnShare, report.CompetitorShare)

	fmt.Println("\n🏆 Leaderboard:")
	for _, e := range report.Leaderboard {
		marker := " "
		if !e.IsCompetitor {
			marker = "*"
		}
		fmt.Printf("   %2d.%s %-18s %5.1f%%  mentions %-3d recommended %-3d %s %+.1f\n",
			e.Rank, marker, e.BrandName, e.SOVPercent, e.MentionCount, e.RecommendCount, e.Trend, e.TrendDelta)
	}

	if report.FailedQueries > 0 {
		fmt.Printf("\n⚠️  %d queries failed\n", report.FailedQueries)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	return nil
}

func (t *TestNotificationService) SendAlert(ctx context.Context, alert *models.Alert) error {
	fmt.Println("\n🚨 ALERT")
	fmt.Printf("Type: %s\n", alert.Type)
	fmt.Printf("Message: %s\n", alert.Message)
	return nil
}

func sampleCatalog() (*catalog.Static, error) {
	return catalog.NewStatic([]catalog.Project{{
		ID:   "travel-cards",
		Name: "Travel credit cards",
		Brands: []models.Brand{
			{ID: "tpg", Name: "The Points Guy", Aliases: []string{"TPG", "thepointsguy"}},
			{ID: "nerdwallet", Name: "NerdWallet", IsCompetitor: true},
			{ID: "upgraded-points", Name: "Upgraded Points", IsCompetitor: true},
			{ID: "bankrate", Name: "Bankrate", IsCompetitor: true},
			{ID: "credit-karma", Name: "Credit Karma", IsCompetitor: true},
		},
		Queries: []models.Query{
			{ID: "q1", Text: "What is the best travel credit card?", Category: "cards", Tags: []string{"travel"}, IsActive: true},
			{ID: "q2", Text: "Where can I compare credit card rewards?", Category: "cards", Tags: []string{"rewards"}, IsActive: true},
			{ID: "q3", Text: "Which site has the most trusted card reviews?", Category: "reviews", IsActive: true},
		},
	}})
}

func main() {
	fmt.Println("🤖 Share of Voice Bot - Test Report Generator")
	fmt.Println("=============================================")

	logrus.SetLevel(logrus.WarnLevel)

	projects, err := sampleCatalog()
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		projects, err = catalog.LoadFile(path)
	}
	if err != nil {
		fmt.Printf("❌ Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	archive, err := storage.NewFileStorage(outputDir)
	if err != nil {
		fmt.Printf("❌ Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	// Create test configuration
	cfg := &config.Config{
		ReportSchedule:     "weekly",
		TimeZone:           "UTC",
		ContextWindow:      200,
		AnalysisWorkers:    4,
		ShareDropThreshold: 10,
	}

	service := analysis.NewService(cfg, analysis.Dependencies{
		Catalog:       projects,
		Fetcher:       providers.Mock{},
		Store:         storage.NewMemoryStore(),
		Archive:       archive,
		Notifications: &TestNotificationService{},
	})

	fmt.Println("\n📊 Running analysis over mock AI responses...")

	if err := service.RunAnalysis(context.Background()); err != nil {
		fmt.Printf("❌ Error generating report: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Test report generation completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Printf("   • Check the '%s/reports' directory for saved JSON reports\n", outputDir)
	fmt.Println("   • Run 'go test ./internal/...' for more detailed tests")
	fmt.Println("   • Configure DataForSEO credentials and run the full bot with 'go run cmd/bot/main.go'")
}
