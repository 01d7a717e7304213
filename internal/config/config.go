package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"
	_ "time/tzdata"

	pkgconfig "github.com/augbriz/desarrollo-FE-tp/pkg/config"
	"github.com/augbriz/desarrollo-FE-tp/pkg/database"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httpclient"
	pkgkafka "github.com/augbriz/desarrollo-FE-tp/pkg/kafka"
	"github.com/augbriz/desarrollo-FE-tp/pkg/logger"
	"github.com/augbriz/desarrollo-FE-tp/pkg/middleware"
	"github.com/augbriz/desarrollo-FE-tp/pkg/tracing"
)

// Snapshot store backends.
const (
	SnapshotMemory = "memory"
	SnapshotRedis  = "redis"
)

// Config holds all configuration for the backoffice service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Log         logger.Options

	// HTTP server
	HTTPPort int `env:"BACKOFFICE_HTTP_PORT" envDefault:"8090"`

	// Store API
	StoreAPIURL string                   `env:"STORE_API_URL" envDefault:"http://localhost:3000/api"`
	StoreAPI    httpclient.Config        `envPrefix:"STORE_API_"`
	Breaker     httpclient.BreakerConfig `envPrefix:"STORE_API_"`

	// Bearer tokens. Without a secret tokens are decoded but not verified.
	JWTSecret string `env:"AUTH_JWT_SECRET"`

	// Review moderation. Timezone decides where months and years start for
	// the date buckets.
	Timezone       string        `env:"REVIEWS_TIMEZONE" envDefault:"UTC"`
	NoticeTTL      time.Duration `env:"REVIEWS_NOTICE_TTL" envDefault:"4s"`
	SnapshotStore  string        `env:"SNAPSHOT_STORE" envDefault:"memory"`
	SnapshotTTL    time.Duration `env:"SNAPSHOT_TTL" envDefault:"30m"`
	SnapshotSizeMB int           `env:"SNAPSHOT_CACHE_MB" envDefault:"32"`

	// Delete rate limit per admin
	DeleteRPS   float64 `env:"DELETE_RATE_LIMIT_RPS" envDefault:"2"`
	DeleteBurst int     `env:"DELETE_RATE_LIMIT_BURST" envDefault:"5"`

	// Checkout status waiting
	StatusPollInterval time.Duration `env:"CHECKOUT_POLL_INTERVAL" envDefault:"1s"`
	StatusMaxWait      time.Duration `env:"CHECKOUT_MAX_WAIT" envDefault:"30s"`

	// Redis, used when SNAPSHOT_STORE=redis
	Redis database.RedisConfig

	// Kafka. Events are disabled when no broker is configured.
	Kafka pkgkafka.ProducerConfig `envPrefix:"KAFKA_"`

	// Sentry error reporting. Disabled when the DSN is empty.
	SentryDSN string `env:"SENTRY_DSN"`

	// OpenTelemetry
	Tracing tracing.Config

	// CORS for the admin UI
	CORS middleware.CORSConfig

	// Pprof and metrics endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables, falling back to a
// .env file in the working directory.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("load backoffice config: %w", err)
	}
	cfg.Tracing.Environment = cfg.Environment
	cfg.CORS.Environment = cfg.Environment

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if _, err := url.ParseRequestURI(c.StoreAPIURL); err != nil {
		return fmt.Errorf("invalid STORE_API_URL %q: %w", c.StoreAPIURL, err)
	}
	if c.Breaker.Trip <= 0 || c.Breaker.Trip > 1 {
		return fmt.Errorf("STORE_API_BREAKER_FAILURE_RATIO must be in (0, 1], got %.2f", c.Breaker.Trip)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid REVIEWS_TIMEZONE %q: %w", c.Timezone, err)
	}
	if !slices.Contains([]string{SnapshotMemory, SnapshotRedis}, c.SnapshotStore) {
		return fmt.Errorf("SNAPSHOT_STORE must be %q or %q, got %q", SnapshotMemory, SnapshotRedis, c.SnapshotStore)
	}
	if c.SnapshotTTL <= 0 {
		return fmt.Errorf("SNAPSHOT_TTL must be positive, got %s", c.SnapshotTTL)
	}
	if c.SnapshotSizeMB < 1 {
		return fmt.Errorf("SNAPSHOT_CACHE_MB must be at least 1, got %d", c.SnapshotSizeMB)
	}
	if c.NoticeTTL <= 0 {
		return fmt.Errorf("REVIEWS_NOTICE_TTL must be positive, got %s", c.NoticeTTL)
	}
	if c.StatusPollInterval <= 0 || c.StatusMaxWait < c.StatusPollInterval {
		return fmt.Errorf("CHECKOUT_MAX_WAIT (%s) must be at least CHECKOUT_POLL_INTERVAL (%s)", c.StatusMaxWait, c.StatusPollInterval)
	}
	if c.DeleteRPS <= 0 || c.DeleteBurst < 1 {
		return fmt.Errorf("delete rate limit must be positive, got %.2f rps / burst %d", c.DeleteRPS, c.DeleteBurst)
	}
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("KAFKA_COMPRESSION: %w", err)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	return nil
}

// Location returns the time zone date buckets are evaluated in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// KafkaEnabled reports whether events are published.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
