package config

import (
	"testing"
	"time"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SCOLARIS_JWT_SECRET", "test-secret")
	t.Setenv("SCOLARIS_POSTGRES_URL", "postgres://localhost/scolaris_test?sslmode=disable")
}

func TestLoadConfig_Defaults(t *testing.T) {
	validEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.HealthPort != "9090" {
		t.Errorf("ports = %s/%s, want 8080/9090", cfg.Server.Port, cfg.Server.HealthPort)
	}
	if cfg.RateLimit.Window != 15*time.Minute {
		t.Errorf("rate limit window = %v, want 15m", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.APILimit != 100 || cfg.RateLimit.AuthLimit != 10 {
		t.Errorf("limits = %d/%d, want 100/10", cfg.RateLimit.APILimit, cfg.RateLimit.AuthLimit)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("token TTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Audit.QueueSize != 1024 || cfg.Audit.RetentionDays != 90 {
		t.Errorf("audit = %d/%d, want 1024/90", cfg.Audit.QueueSize, cfg.Audit.RetentionDays)
	}
	if cfg.Database.MaxConns != 20 || cfg.Database.MinConns != 2 {
		t.Errorf("pool = %d/%d, want 20/2", cfg.Database.MaxConns, cfg.Database.MinConns)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	validEnv(t)
	t.Setenv("SCOLARIS_RATE_LIMIT_WINDOW", "1m")
	t.Setenv("SCOLARIS_RATE_LIMIT_API", "500")
	t.Setenv("SCOLARIS_RATE_LIMIT_AUTH", "20")
	t.Setenv("SCOLARIS_LOG_LEVEL", "debug")
	t.Setenv("SCOLARIS_POSTGRES_MAX_CONNS", "50")
	t.Setenv("SCOLARIS_POSTGRES_MIN_CONNS", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("window = %v, want 1m", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.APILimit != 500 || cfg.RateLimit.AuthLimit != 20 {
		t.Errorf("limits = %d/%d, want 500/20", cfg.RateLimit.APILimit, cfg.RateLimit.AuthLimit)
	}
	if cfg.Database.MaxConns != 50 || cfg.Database.MinConns != 10 {
		t.Errorf("pool = %d/%d, want 50/10", cfg.Database.MaxConns, cfg.Database.MinConns)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Run("missing JWT secret", func(t *testing.T) {
		t.Setenv("SCOLARIS_JWT_SECRET", "")
		t.Setenv("SCOLARIS_POSTGRES_URL", "postgres://localhost/db")

		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for missing JWT secret")
		}
	})

	t.Run("missing postgres URL", func(t *testing.T) {
		t.Setenv("SCOLARIS_JWT_SECRET", "secret")
		t.Setenv("SCOLARIS_POSTGRES_URL", "")

		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for missing postgres URL")
		}
	})

	t.Run("same port for API and health", func(t *testing.T) {
		validEnv(t)
		t.Setenv("SCOLARIS_PORT", "8080")
		t.Setenv("SCOLARIS_HEALTH_PORT", "8080")

		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for colliding ports")
		}
	})

	t.Run("auth limit above general limit", func(t *testing.T) {
		validEnv(t)
		t.Setenv("SCOLARIS_RATE_LIMIT_AUTH", "200")

		if _, err := LoadConfig(); err == nil {
			t.Error("expected error when auth limit exceeds the general limit")
		}
	})
}
