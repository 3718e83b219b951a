package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/azure/sov-mentions-bot/internal/analysis"
	"github.com/azure/sov-mentions-bot/internal/catalog"
	"github.com/azure/sov-mentions-bot/internal/config"
	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/azure/sov-mentions-bot/internal/notifications"
	"github.com/azure/sov-mentions-bot/internal/providers"
	"github.com/azure/sov-mentions-bot/internal/storage"
)

func main() {
	fmt.Println("🧪 Share of Voice Bot - Local Integration Test")
	fmt.Println("==============================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	projects, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		log.Fatalf("Failed to load catalog %s: %v", cfg.CatalogFile, err)
	}

	var fetcher providers.Fetcher = providers.Mock{}
	switch {
	case cfg.DataForSEOUseMock:
	case cfg.DataForSEOLogin != "":
		fetcher, err = providers.NewDataForSEO(cfg.DataForSEOBaseURL, cfg.DataForSEOLogin, cfg.DataForSEOPassword, nil)
	case cfg.OpenAIAPIKey != "":
		fetcher, err = providers.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	if err != nil {
		log.Fatalf("Failed to create provider: %v", err)
	}

	service := analysis.NewService(cfg, analysis.Dependencies{
		Catalog:       projects,
		Fetcher:       fetcher,
		Store:         storage.NewMemoryStore(),
		Notifications: notifications.LogNotifier{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ids, err := projects.Projects(ctx)
	if err != nil || len(ids) == 0 {
		log.Fatalf("Catalog has no projects: %v", err)
	}
	projectID := ids[0]
	if len(os.Args) > 1 {
		projectID = os.Args[1]
	}

	queries, err := projects.Queries(ctx, projectID)
	if err != nil {
		log.Fatalf("Failed to load queries: %v", err)
	}

	fmt.Printf("🔍 Running %d queries for %s with %s...\n", len(queries), projectID, fetcher.GetName())
	fmt.Println("⏱️  Live providers may take 30-60 seconds per query...")

	for _, q := range queries {
		fmt.Printf("\n🔸 %s\n", q.Text)

		run, err := service.RunQuery(ctx, projectID, q.ID)
		if err != nil {
			fmt.Printf("   ❌ Error: %v\n", err)
			continue
		}

		for _, r := range run.Responses {
			fmt.Printf("   • %-10s mentioned [%s] recommended [%s]\n",
				r.Response.Provider, strings.Join(r.Mentioned, ", "), strings.Join(r.Recommended, ", "))
		}
	}

	view, err := service.ShareOfVoice(ctx, projectID, models.Filter{})
	if err != nil {
		log.Fatalf("Failed to aggregate: %v", err)
	}

	fmt.Printf("\n📊 Share of voice across %d responses (own %.1f%%, competitors %.1f%%)\n",
		view.TotalResponses, view.OwnShare, view.CompetitorShare)
	for _, r := range view.Results {
		fmt.Printf("   %d. %-20s %5.1f%%\n", r.Rank, r.BrandName, r.SOVPercent)
	}

	fmt.Println("\n✅ Local integration test completed!")
	fmt.Println("\n🚀 Ready for deployment:")
	fmt.Println("   • Set DATABASE_URL to persist facts between runs")
	fmt.Println("   • Set REDIS_ADDR to cache aggregates for the API")
	fmt.Println("   • Run the full bot with: go run ./cmd/bot")
}
