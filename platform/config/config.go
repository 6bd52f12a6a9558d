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
	GetPublicRateLimitPerMinute() int
}

// SchedulerConfig provides settings for the asynq scheduler/worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AuctionConfig provides settings for the auction coordinator.
type AuctionConfig interface {
	// GetDefaultPingTimeout is used when a buyer has no ping timeout configured.
	GetDefaultPingTimeout() time.Duration
	// GetDefaultPostTimeout is used when a buyer has no post timeout configured.
	GetDefaultPostTimeout() time.Duration
	// GetPostRetryBackoff is the fixed delay before the single POST retry.
	GetPostRetryBackoff() time.Duration
	// GetAuctionCeilingMargin is added to the longest buyer timeout to bound
	// total auction duration.
	GetAuctionCeilingMargin() time.Duration
	// GetMaxInFlightPings bounds concurrent outbound PING requests per process.
	GetMaxInFlightPings() int
}

// LeadLifecycleConfig provides settings for lead lifecycle maintenance.
type LeadLifecycleConfig interface {
	// GetLeadExpiryAge is how long a lead may sit in PROCESSING before the
	// sweep moves it to EXPIRED.
	GetLeadExpiryAge() time.Duration
}

// =============================================================================
// Config Struct
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll bool
	CORSOrigins  []string

	PublicRateLimitPerMinute int

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	DefaultPingTimeout   time.Duration
	DefaultPostTimeout   time.Duration
	PostRetryBackoff     time.Duration
	AuctionCeilingMargin time.Duration
	MaxInFlightPings     int

	LeadExpiryAge time.Duration
}

// Load reads configuration from the environment, loading .env first when present.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),

		CORSAllowAll: getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:  splitAndTrim(os.Getenv("CORS_ORIGINS")),

		PublicRateLimitPerMinute: getEnvInt("PUBLIC_RATE_LIMIT_PER_MINUTE", 60),

		RedisURL:         os.Getenv("REDIS_URL"),
		RedisTLSInsecure: getEnvBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "auctions"),
		AsynqConcurrency: getEnvInt("ASYNQ_CONCURRENCY", 10),

		DefaultPingTimeout:   getEnvDuration("AUCTION_DEFAULT_PING_TIMEOUT", 10*time.Second),
		DefaultPostTimeout:   getEnvDuration("AUCTION_DEFAULT_POST_TIMEOUT", 30*time.Second),
		PostRetryBackoff:     getEnvDuration("AUCTION_POST_RETRY_BACKOFF", 2*time.Second),
		AuctionCeilingMargin: getEnvDuration("AUCTION_CEILING_MARGIN", 5*time.Second),
		MaxInFlightPings:     getEnvInt("AUCTION_MAX_INFLIGHT_PINGS", 32),

		LeadExpiryAge: getEnvDuration("LEAD_EXPIRY_AGE", 72*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" && !strings.EqualFold(cfg.Env, "development") {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
	}

	return cfg, nil
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string              { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool            { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string         { return c.CORSOrigins }
func (c *Config) GetPublicRateLimitPerMinute() int { return c.PublicRateLimitPerMinute }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetDefaultPingTimeout() time.Duration   { return c.DefaultPingTimeout }
func (c *Config) GetDefaultPostTimeout() time.Duration   { return c.DefaultPostTimeout }
func (c *Config) GetPostRetryBackoff() time.Duration     { return c.PostRetryBackoff }
func (c *Config) GetAuctionCeilingMargin() time.Duration { return c.AuctionCeilingMargin }
func (c *Config) GetMaxInFlightPings() int               { return c.MaxInFlightPings }

func (c *Config) GetLeadExpiryAge() time.Duration { return c.LeadExpiryAge }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
