package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all environment configuration for the service.
// The processing interval lives here, not in the persisted GatheringConfig:
// it is deployment configuration, not rule configuration.
type AppConfig struct {
	DatabaseURL       string
	TelegramToken     string
	AdminTelegramID   int64
	LogLevel          string
	Environment       string
	CronSpecProcess   string
	RedisURL          string // empty disables the gathering read cache
	RedisPassword     string
	RedisDB           int
	GatheringCacheTTL time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecProcess = os.Getenv("CRON_SPEC_PROCESS")
	if cfg.CronSpecProcess == "" {
		cfg.CronSpecProcess = "*/10 * * * *" // Default: every 10 minutes
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		cfg.RedisDB, err = strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
	}

	cacheTTLSeconds := 300
	if ttlStr := os.Getenv("GATHERING_CACHE_TTL_SECONDS"); ttlStr != "" {
		cacheTTLSeconds, err = strconv.Atoi(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid GATHERING_CACHE_TTL_SECONDS: %w", err)
		}
	}
	cfg.GatheringCacheTTL = time.Duration(cacheTTLSeconds) * time.Second

	return cfg, nil
}
