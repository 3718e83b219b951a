package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	ReportSchedule string // "daily" or "weekly"
	TimeZone       string

	// Catalog of projects, brands and queries
	ProjectIDs  []string
	CatalogFile string

	// Persistence
	DatabaseURL      string
	DatabaseMaxConns int
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CacheTTL         time.Duration

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string
	LocalArchiveDir  string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Response providers
	DataForSEOLogin    string
	DataForSEOPassword string
	DataForSEOBaseURL  string
	DataForSEOUseMock  bool
	OpenAIAPIKey       string
	OpenAIModel        string

	// Detection
	ContextWindow         int
	RecommendationPhrases []string

	// Analysis
	AnalysisWorkers    int
	FetchTimeout       time.Duration
	ShareDropThreshold float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Debug:          getBoolEnv("DEBUG", false),
		ReportSchedule: getEnv("REPORT_SCHEDULE", "weekly"),
		TimeZone:       getEnv("TIMEZONE", "UTC"),

		ProjectIDs:  getSliceEnv("PROJECT_IDS", nil),
		CatalogFile: getEnv("CATALOG_FILE", "catalog.yaml"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 10),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),
		CacheTTL:         getDurationEnv("CACHE_TTL", 10*time.Minute),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "sov-reports"),
		LocalArchiveDir:  getEnv("LOCAL_ARCHIVE_DIR", "reports_output"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		DataForSEOLogin:    getEnv("DATAFORSEO_LOGIN", ""),
		DataForSEOPassword: getEnv("DATAFORSEO_PASSWORD", ""),
		DataForSEOBaseURL:  getEnv("DATAFORSEO_BASE_URL", "https://api.dataforseo.com/v3"),
		DataForSEOUseMock:  getBoolEnv("DATAFORSEO_USE_MOCK", false),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o"),

		ContextWindow:         getIntEnv("CONTEXT_WINDOW", 200),
		RecommendationPhrases: getSliceEnv("RECOMMENDATION_PHRASES", nil),

		AnalysisWorkers:    getIntEnv("ANALYSIS_WORKERS", 4),
		FetchTimeout:       getDurationEnv("FETCH_TIMEOUT", 2*time.Minute),
		ShareDropThreshold: getFloatEnv("SHARE_DROP_THRESHOLD", 10),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a known location: %w", c.TimeZone, err)
	}

	if c.ContextWindow <= 0 {
		return fmt.Errorf("CONTEXT_WINDOW must be positive")
	}

	if c.AnalysisWorkers <= 0 {
		return fmt.Errorf("ANALYSIS_WORKERS must be positive")
	}

	if c.ShareDropThreshold < 0 || c.ShareDropThreshold > 100 {
		return fmt.Errorf("SHARE_DROP_THRESHOLD must be between 0 and 100 percentage points")
	}

	if !c.DataForSEOUseMock && c.OpenAIAPIKey == "" && (c.DataForSEOLogin == "" || c.DataForSEOPassword == "") {
		return fmt.Errorf("a response provider must be configured (DATAFORSEO_LOGIN and DATAFORSEO_PASSWORD, OPENAI_API_KEY, or DATAFORSEO_USE_MOCK=true)")
	}

	if c.DatabaseURL != "" && c.DatabaseMaxConns <= 0 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be positive")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Location returns the configured time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NotificationsEnabled reports whether any notification channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
