package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/analysis"
	"github.com/azure/sov-mentions-bot/internal/api"
	"github.com/azure/sov-mentions-bot/internal/cache"
	"github.com/azure/sov-mentions-bot/internal/catalog"
	"github.com/azure/sov-mentions-bot/internal/config"
	"github.com/azure/sov-mentions-bot/internal/notifications"
	"github.com/azure/sov-mentions-bot/internal/providers"
	"github.com/azure/sov-mentions-bot/internal/scheduler"
	"github.com/azure/sov-mentions-bot/internal/storage"
	"github.com/azure/sov-mentions-bot/internal/suggestions"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Share of Voice Bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	projects, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		logrus.Fatalf("Failed to load catalog: %v", err)
	}

	store, closeStore, err := newFactStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize fact store: %v", err)
	}
	defer closeStore()

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize report archive: %v", err)
	}

	fetcher, dataForSEO, err := newFetcher(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize response provider: %v", err)
	}
	logrus.Infof("Fetching responses with %s", fetcher.GetName())

	// Initialize notification services
	var notificationService notifications.NotificationInterface = notifications.LogNotifier{}
	if cfg.NotificationsEnabled() {
		notificationService = notifications.NewService(cfg)
	} else {
		logrus.Warn("No notification channel configured, reports will only be logged")
	}

	// Initialize analysis service
	analysisService := analysis.NewService(cfg, analysis.Dependencies{
		Catalog:       projects,
		Fetcher:       fetcher,
		Store:         store,
		Archive:       archive,
		Cache:         newCache(ctx, cfg),
		Notifications: notificationService,
	})

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, analysisService)
	if err := schedulerService.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	var keywords api.KeywordSource
	if dataForSEO != nil {
		keywords = dataForSEO
	}
	handler := api.NewHandler(analysisService, suggestions.New(cfg.OpenAIAPIKey, ""), keywords, cfg.Location())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func newFactStore(ctx context.Context, cfg *config.Config) (storage.FactStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logrus.Warn("DATABASE_URL not set, facts are kept in memory and lost on restart")
		return storage.NewMemoryStore(), func() {}, nil
	}

	db, err := storage.OpenPostgres(cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewPostgresStore(db)
	if err := store.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return store, func() { db.Close() }, nil
}

func newArchive(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageAccount != "" {
		return storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
	}
	logrus.Infof("AZURE_STORAGE_ACCOUNT not set, archiving reports to %s", cfg.LocalArchiveDir)
	return storage.NewFileStorage(cfg.LocalArchiveDir)
}

func newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.Nop{}
	}

	c := cache.NewRedisCache(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.CacheTTL)
	if err := c.Ping(ctx); err != nil {
		logrus.Warnf("Redis unavailable, aggregates will not be cached: %v", err)
		return cache.Nop{}
	}
	return c
}

// newFetcher prefers DataForSEO, then the direct OpenAI client. The mock wins when enabled.
func newFetcher(cfg *config.Config) (providers.Fetcher, *providers.DataForSEO, error) {
	if cfg.DataForSEOUseMock {
		return providers.Mock{}, nil, nil
	}

	if cfg.DataForSEOLogin != "" {
		client, err := providers.NewDataForSEO(cfg.DataForSEOBaseURL, cfg.DataForSEOLogin, cfg.DataForSEOPassword, nil)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}

	client, err := providers.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		return nil, nil, err
	}
	return client, nil, nil
}
