package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Cache.Backend != BackendFile {
		t.Errorf("expected cache backend %q, got %q", BackendFile, cfg.Cache.Backend)
	}
	if cfg.Cache.Dir != "cache" {
		t.Errorf("expected cache dir %q, got %q", "cache", cfg.Cache.Dir)
	}
	if cfg.Analysis.YearsBack != 5 {
		t.Errorf("expected YearsBack 5, got %d", cfg.Analysis.YearsBack)
	}
	if cfg.Analysis.BaseValue != 100 {
		t.Errorf("expected BaseValue 100, got %v", cfg.Analysis.BaseValue)
	}
	if cfg.Sources.RequestInterval != time.Second {
		t.Errorf("expected RequestInterval 1s, got %v", cfg.Sources.RequestInterval)
	}
	if cfg.Sources.EODAPIKey != "" {
		t.Errorf("expected empty EOD key by default, got %q", cfg.Sources.EODAPIKey)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("YEARS_BACK", "10")
	t.Setenv("BASE_VALUE", "1000")
	t.Setenv("CACHE_DIR", "/tmp/fundlens-cache")
	t.Setenv("EOD_API_KEY", "demo-key")
	t.Setenv("REQUEST_INTERVAL", "2s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Analysis.YearsBack != 10 {
		t.Errorf("expected YearsBack 10, got %d", cfg.Analysis.YearsBack)
	}
	if cfg.Analysis.BaseValue != 1000 {
		t.Errorf("expected BaseValue 1000, got %v", cfg.Analysis.BaseValue)
	}
	if cfg.Cache.Dir != "/tmp/fundlens-cache" {
		t.Errorf("expected custom cache dir, got %q", cfg.Cache.Dir)
	}
	if cfg.Sources.EODAPIKey != "demo-key" {
		t.Errorf("expected EOD key to be read, got %q", cfg.Sources.EODAPIKey)
	}
	if cfg.Sources.RequestInterval != 2*time.Second {
		t.Errorf("expected RequestInterval 2s, got %v", cfg.Sources.RequestInterval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Log.Level)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown cache backend, got nil")
	}
}

func TestValidatePostgresRequiresURL(t *testing.T) {
	t.Setenv("CACHE_BACKEND", BackendPostgres)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when postgres backend has no DATABASE_URL, got nil")
	}
}

func TestValidateRejectsNonPositiveHorizon(t *testing.T) {
	t.Setenv("YEARS_BACK", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for YEARS_BACK=0, got nil")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")

	if got := getEnvAsDuration("TEST_DURATION", "1h"); got != 2*time.Hour {
		t.Errorf("expected 2h, got %v", got)
	}

	t.Setenv("TEST_DURATION", "not-a-duration")
	if got := getEnvAsDuration("TEST_DURATION", "1h"); got != time.Hour {
		t.Errorf("expected fallback 1h, got %v", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	if got := getEnvAsInt("TEST_INT", 50); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}

	t.Setenv("TEST_INT", "abc")
	if got := getEnvAsInt("TEST_INT", 50); got != 50 {
		t.Errorf("expected fallback 50, got %d", got)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "250.5")

	if got := getEnvAsFloat("TEST_FLOAT", 100); got != 250.5 {
		t.Errorf("expected 250.5, got %v", got)
	}
}
