// Package config loads application configuration from environment
// variables. Every variable is prefixed SITEHAVEN_.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sitehaven/sitehaven/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
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

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// RedisConfig holds Redis configuration. Redis is optional: when URL is
// empty the tenant cache and rate limiter are disabled.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// AuthConfig holds session and cookie configuration
type AuthConfig struct {
	SessionTTL time.Duration
	// SweepSchedule is a cron expression for expired-session cleanup.
	SweepSchedule string
	// CookieSecure marks the viewing-tenant cookie Secure. Enable in
	// any deployment terminating TLS.
	CookieSecure bool
	CookieDomain string
}

// RateLimitConfig holds request throttling configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int64
	WindowDuration    time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel

	MetricsEnabled bool

	AuditEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Auth:          loadAuthConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SITEHAVEN_HOST", "0.0.0.0"),
		Port:            getEnv("SITEHAVEN_PORT", "8080"),
		ReadTimeout:     getEnvDuration("SITEHAVEN_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("SITEHAVEN_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("SITEHAVEN_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SITEHAVEN_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("SITEHAVEN_HEALTH_PORT", "9090"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:          getEnv("SITEHAVEN_POSTGRES_URL", ""),
		MaxOpenConns: getEnvInt("SITEHAVEN_POSTGRES_MAX_CONNS", 25),
		MaxIdleConns: getEnvInt("SITEHAVEN_POSTGRES_IDLE_CONNS", 5),
		ConnLifetime: getEnvDuration("SITEHAVEN_POSTGRES_CONN_LIFETIME", 5*time.Minute),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("SITEHAVEN_REDIS_URL", ""),
		Password: getEnv("SITEHAVEN_REDIS_PASSWORD", ""),
		DB:       getEnvInt("SITEHAVEN_REDIS_DB", 0),
		PoolSize: getEnvInt("SITEHAVEN_REDIS_POOL_SIZE", 10),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		SessionTTL:    getEnvDuration("SITEHAVEN_SESSION_TTL", 7*24*time.Hour),
		SweepSchedule: getEnv("SITEHAVEN_SESSION_SWEEP_SCHEDULE", "@hourly"),
		CookieSecure:  getEnvBool("SITEHAVEN_COOKIE_SECURE", false),
		CookieDomain:  getEnv("SITEHAVEN_COOKIE_DOMAIN", ""),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           getEnvBool("SITEHAVEN_RATELIMIT_ENABLED", true),
		RequestsPerWindow: int64(getEnvInt("SITEHAVEN_RATELIMIT_REQUESTS", 600)),
		WindowDuration:    getEnvDuration("SITEHAVEN_RATELIMIT_WINDOW", time.Minute),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("SITEHAVEN_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("SITEHAVEN_METRICS_ENABLED", true),
		AuditEnabled:       getEnvBool("SITEHAVEN_AUDIT_ENABLED", true),
		OTelEnabled:        getEnvBool("SITEHAVEN_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("SITEHAVEN_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("SITEHAVEN_OTEL_SERVICE_NAME", "sitehaven"),
		OTelServiceVersion: getEnv("SITEHAVEN_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("SITEHAVEN_OTEL_INSECURE", true),
	}
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

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Auth.SweepSchedule == "" {
		return fmt.Errorf("session sweep schedule is required")
	}

	if c.RateLimit.Enabled {
		if c.Redis.URL == "" {
			return fmt.Errorf("redis URL is required when rate limiting is enabled")
		}
		if c.RateLimit.RequestsPerWindow <= 0 {
			return fmt.Errorf("rate limit requests per window must be positive")
		}
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
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
