// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the crawler CLI needs to run.
type Config struct {
	// OpenAIAPIKey authenticates against the inference service.
	OpenAIAPIKey string
	// Model is the chat model requested for every session.
	Model string
	// CacheSize is the per-session page cache capacity.
	CacheSize int
	// DiscoveryWorkers bounds the stage-one worker pool.
	DiscoveryWorkers int
	// EnrichmentWorkers bounds the stage-two worker pool.
	EnrichmentWorkers int
	// FetchTimeout bounds a single page load.
	FetchTimeout time.Duration
	// InputPath is the CSV holding the seed start_url column.
	InputPath string
	// UpdatedPath receives this run's contact table.
	UpdatedPath string
	// MergedPath receives the input table merged with this run.
	MergedPath string
	// LogLevel is one of debug, info, warn, error, none.
	LogLevel string
	// Interactive enables the manual-inspection session mode.
	Interactive bool
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		Model:             getEnv("CRAWLER_MODEL", "gpt-4-1106-preview"),
		CacheSize:         getEnvInt("CRAWLER_WEB_CACHE_SIZE", 16),
		DiscoveryWorkers:  getEnvInt("CRAWLER_DISCOVERY_WORKERS", 4),
		EnrichmentWorkers: getEnvInt("CRAWLER_ENRICHMENT_WORKERS", 8),
		FetchTimeout:      getEnvDuration("CRAWLER_FETCH_TIMEOUT", 30*time.Second),
		InputPath:         getEnv("CRAWLER_INPUT", "./contacts.csv"),
		UpdatedPath:       getEnv("CRAWLER_OUTPUT_UPDATED", "./contacts_updated.csv"),
		MergedPath:        getEnv("CRAWLER_OUTPUT_MERGED", "./contacts_merged.csv"),
		LogLevel:          getEnv("CRAWLER_LOG_LEVEL", "info"),
		Interactive:       getEnvBool("CRAWLER_INTERACTIVE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that required fields are set and bounds are sane.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set")
	}
	if c.Model == "" {
		return fmt.Errorf("CRAWLER_MODEL cannot be empty")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CRAWLER_WEB_CACHE_SIZE must be > 0")
	}
	if c.DiscoveryWorkers <= 0 {
		return fmt.Errorf("CRAWLER_DISCOVERY_WORKERS must be > 0")
	}
	if c.EnrichmentWorkers <= 0 {
		return fmt.Errorf("CRAWLER_ENRICHMENT_WORKERS must be > 0")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("CRAWLER_FETCH_TIMEOUT must be > 0")
	}
	if c.InputPath == "" || c.UpdatedPath == "" || c.MergedPath == "" {
		return fmt.Errorf("input and output paths cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
