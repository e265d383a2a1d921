// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq dispatcher.
type SchedulerConfig interface {
	GetRedisURL() string
	GetDispatchQueueName() string
	GetDispatchConcurrency() int
}

// RateLimitConfig selects the message rate-limiter backend.
type RateLimitConfig interface {
	GetRedisURL() string
	UseRedisRateLimiter() bool
}

// SMTPConfig provides settings for the email delivery channel.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromName() string
	GetSMTPFromAddress() string
	IsSMTPEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	RedisURL            string
	RedisRateLimiter    bool
	DispatchQueueName   string
	DispatchConcurrency int
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	SMTPFromName        string
	SMTPFromAddress     string
	ShutdownTimeout     time.Duration
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetDispatchQueueName() string { return c.DispatchQueueName }
func (c *Config) GetDispatchConcurrency() int  { return c.DispatchConcurrency }

// RateLimitConfig implementation
func (c *Config) UseRedisRateLimiter() bool { return c.RedisRateLimiter && c.RedisURL != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) IsSMTPEnabled() bool        { return c.SMTPHost != "" && c.SMTPFromAddress != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisRateLimiter:    strings.EqualFold(getEnv("RATE_LIMITER_BACKEND", "memory"), "redis"),
		DispatchQueueName:   getEnv("DISPATCH_QUEUE", "default"),
		DispatchConcurrency: mustInt(getEnv("DISPATCH_CONCURRENCY", "10")),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:        getEnv("SMTP_FROM_NAME", "Build Portal"),
		SMTPFromAddress:     getEnv("SMTP_FROM_ADDRESS", ""),
		ShutdownTimeout:     mustDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")),
	}

	if containsWildcard(cfg.CORSOrigins) {
		cfg.CORSAllowAll = true
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.RedisRateLimiter && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when RATE_LIMITER_BACKEND is redis")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
