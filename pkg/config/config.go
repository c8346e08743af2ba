// Package config reads all runtime configuration from the environment.
// Only this package calls os.Getenv; every component receives the values it
// needs through the Config struct built once at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend names accepted by CACHE_BACKEND.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	Log       LogConfig
	Cache     CacheConfig
	Sources   SourcesConfig
	Analysis  AnalysisConfig
	API       APIConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig

	// FundsFile points at a YAML registry or a plain ISIN list. Empty means
	// the built-in fund set.
	FundsFile string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	Backend string // file, postgres, redis
	Dir     string // file backend root directory
}

// SourcesConfig holds data-source credentials and pacing. All API keys are
// optional; a missing key disables that source and the resolver moves on.
type SourcesConfig struct {
	EODAPIKey        string
	AlphaVantageKey  string
	FMPAPIKey        string
	OpenFIGIKey      string
	RequestInterval  time.Duration // spacing between calls to one provider
	HTTPTimeout      time.Duration
	HTTPRetries      int
}

// AnalysisConfig holds the analysis horizon and normalization base.
type AnalysisConfig struct {
	YearsBack int
	BaseValue float64
}

// APIConfig holds the HTTP API listener configuration.
type APIConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds PostgreSQL configuration, used only when the postgres
// cache backend is selected.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration, used only when the redis cache
// backend is selected.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SchedulerConfig holds the periodic-refresh cron spec. Empty disables the
// scheduler.
type SchedulerConfig struct {
	RefreshCron string
}

// Load reads configuration from .env files and the process environment.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},

		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", BackendFile),
			Dir:     getEnv("CACHE_DIR", "cache"),
		},

		Sources: SourcesConfig{
			EODAPIKey:       getEnv("EOD_API_KEY", ""),
			AlphaVantageKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
			FMPAPIKey:       getEnv("FMP_API_KEY", ""),
			OpenFIGIKey:     getEnv("OPENFIGI_API_KEY", ""),
			RequestInterval: getEnvAsDuration("REQUEST_INTERVAL", "1s"),
			HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", "15s"),
			HTTPRetries:     getEnvAsInt("HTTP_RETRIES", 2),
		},

		Analysis: AnalysisConfig{
			YearsBack: getEnvAsInt("YEARS_BACK", 5),
			BaseValue: getEnvAsFloat("BASE_VALUE", 100),
		},

		API: APIConfig{
			Host: getEnv("API_HOST", "127.0.0.1"),
			Port: getEnv("API_PORT", "8080"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		Scheduler: SchedulerConfig{
			RefreshCron: getEnv("REFRESH_CRON", ""),
		},

		FundsFile: getEnv("FUNDS_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks configuration consistency. Missing API keys are not errors;
// they degrade the source chain instead.
func (c *Config) validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: %s, %s, %s",
			BackendFile, BackendPostgres, BackendRedis)
	}

	if c.Cache.Backend == BackendPostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when CACHE_BACKEND=postgres")
	}

	if c.Analysis.YearsBack <= 0 {
		return fmt.Errorf("YEARS_BACK must be positive, got %d", c.Analysis.YearsBack)
	}

	if c.Analysis.BaseValue <= 0 {
		return fmt.Errorf("BASE_VALUE must be positive, got %v", c.Analysis.BaseValue)
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
		filepath.Join("config", ".env"),
	}

	// Also try relative to the executable.
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
