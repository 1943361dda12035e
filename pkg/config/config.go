package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scolaris/scolaris/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuthConfig holds token verification settings
type AuthConfig struct {
	// JWTSecret is the shared HS256 signing secret. Required.
	JWTSecret string
	// TokenTTL bounds tokens issued by the login endpoint.
	TokenTTL time.Duration
}

// RateLimitConfig holds the two fixed-window policies
type RateLimitConfig struct {
	Window    time.Duration
	APILimit  int
	AuthLimit int
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// RedisConfig holds the optional Redis settings for the distributed
// rate-limit counter store. Empty URL means in-process counters.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	// QueueSize bounds the async write queue; overflow drops the record.
	QueueSize int
	// RetentionDays is how long activity log rows are kept.
	RetentionDays int
	// SweepSchedule is the cron expression for the retention sweeper.
	SweepSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SCOLARIS_HOST", "0.0.0.0"),
			Port:            getEnv("SCOLARIS_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SCOLARIS_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SCOLARIS_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SCOLARIS_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SCOLARIS_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("SCOLARIS_HEALTH_PORT", "9090"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("SCOLARIS_JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("SCOLARIS_TOKEN_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Window:    getEnvDuration("SCOLARIS_RATE_LIMIT_WINDOW", 15*time.Minute),
			APILimit:  getEnvInt("SCOLARIS_RATE_LIMIT_API", 100),
			AuthLimit: getEnvInt("SCOLARIS_RATE_LIMIT_AUTH", 10),
		},
		Database: DatabaseConfig{
			URL:      getEnv("SCOLARIS_POSTGRES_URL", ""),
			MaxConns: getEnvInt("SCOLARIS_POSTGRES_MAX_CONNS", 20),
			MinConns: getEnvInt("SCOLARIS_POSTGRES_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			URL:      getEnv("SCOLARIS_REDIS_URL", ""),
			Password: getEnv("SCOLARIS_REDIS_PASSWORD", ""),
			DB:       getEnvInt("SCOLARIS_REDIS_DB", 0),
		},
		Audit: AuditConfig{
			QueueSize:     getEnvInt("SCOLARIS_AUDIT_QUEUE_SIZE", 1024),
			RetentionDays: getEnvInt("SCOLARIS_AUDIT_RETENTION_DAYS", 90),
			SweepSchedule: getEnv("SCOLARIS_AUDIT_SWEEP_SCHEDULE", "0 3 * * *"),
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.ParseLogLevel(strings.ToLower(getEnv("SCOLARIS_LOG_LEVEL", "info"))),
			MetricsEnabled:     getEnvBool("SCOLARIS_METRICS_ENABLED", true),
			OTelEnabled:        getEnvBool("SCOLARIS_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("SCOLARIS_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("SCOLARIS_OTEL_SERVICE_NAME", "scolaris"),
			OTelServiceVersion: getEnv("SCOLARIS_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("SCOLARIS_OTEL_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("SCOLARIS_JWT_SECRET is required")
	}

	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	if c.RateLimit.APILimit <= 0 || c.RateLimit.AuthLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.RateLimit.AuthLimit > c.RateLimit.APILimit {
		return fmt.Errorf("auth rate limit must not exceed the general limit")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("SCOLARIS_POSTGRES_URL is required")
	}

	if c.Audit.QueueSize <= 0 {
		return fmt.Errorf("audit queue size must be positive")
	}
	if c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("audit retention days must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
