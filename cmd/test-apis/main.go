package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/azure/sov-mentions-bot/internal/config"
	"github.com/azure/sov-mentions-bot/internal/providers"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	fmt.Println("🔍 Share of Voice Bot - API Connectivity Test")
	fmt.Println("=============================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("\n📡 Testing response providers...")
	fmt.Println(strings.Repeat("-", 40))

	var dataForSEO *providers.DataForSEO
	if cfg.DataForSEOLogin != "" {
		dataForSEO, err = providers.NewDataForSEO(cfg.DataForSEOBaseURL, cfg.DataForSEOLogin, cfg.DataForSEOPassword, nil)
	}
	testProvider(ctx, "DataForSEO", dataForSEO, dataForSEO != nil, err)

	var openAI *providers.OpenAI
	err = nil
	if cfg.OpenAIAPIKey != "" {
		openAI, err = providers.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	testProvider(ctx, "OpenAI", openAI, openAI != nil, err)

	if dataForSEO != nil {
		target := providers.DefaultTargets[0]
		fmt.Printf("🔸 Asking %s/%s a sample query... ", target.Provider, target.Model)
		resp, err := dataForSEO.FetchSingle(ctx, "What is the best travel credit card?", target)
		switch {
		case err != nil:
			fmt.Printf("❌ ERROR: %v\n", err)
		case resp == nil:
			fmt.Println("⚠️  EMPTY (no response text returned)")
		default:
			fmt.Printf("✅ SUCCESS (%d characters)\n", len(resp.Text))
		}
	}

	fmt.Println("\n✅ API connectivity test completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing credentials in .env file")
	fmt.Println("   • Run full bot with: go run ./cmd/bot")
}

func testProvider(ctx context.Context, name string, provider pinger, enabled bool, err error) {
	fmt.Printf("🔸 Testing %s... ", name)

	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}
	if !enabled {
		fmt.Printf("⚠️  DISABLED (missing credentials)\n")
		return
	}

	if err := provider.Ping(ctx); err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}
	fmt.Printf("✅ SUCCESS\n")
}
