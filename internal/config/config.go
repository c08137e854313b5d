// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	DocStore DocStoreConfig
	Database DatabaseConfig
	Labels   LabelsConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// TrustedProxies lists proxy CIDRs (or single IPs) whose forwarding
	// headers may rewrite the client address, comma-separated (optional)
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
}

// DocStoreConfig holds document store gateway settings.
type DocStoreConfig struct {
	// BaseURL is the gateway endpoint, e.g. https://docs.internal/api (required)
	BaseURL string `env:"DOCSTORE_BASE_URL" required:"true"`

	// RootPath is the fixed path prefix all file locators live under
	RootPath string `env:"DOCSTORE_ROOT_PATH"`

	// AuthToken is the bearer token sent with every gateway request (optional)
	AuthToken string `env:"DOCSTORE_AUTH_TOKEN"`

	// RequestTimeout bounds one candidate request to the gateway (default: 30s)
	RequestTimeout time.Duration `env:"DOCSTORE_REQUEST_TIMEOUT" default:"30s"`

	// FileSuffix filters folder listings to tabular files (default: .csv)
	FileSuffix string `env:"DOCSTORE_FILE_SUFFIX" default:".csv"`

	// PrefetchConcurrency is the number of parallel fetches when warming
	// the cache for a folder (default: 4)
	PrefetchConcurrency int `env:"DOCSTORE_PREFETCH_CONCURRENCY" default:"4"`

	// MaxConcurrentRefreshes caps refresh and prefetch operations running
	// at once; cached reads are never limited (default: 4)
	MaxConcurrentRefreshes int `env:"DOCSTORE_MAX_CONCURRENT_REFRESHES" default:"4"`

	// RefreshMaxWait is how long a refresh waits for a free slot before
	// rejecting (default: 15s)
	RefreshMaxWait time.Duration `env:"DOCSTORE_REFRESH_MAX_WAIT" default:"15s"`
}

// DatabaseConfig holds database connection settings.
// The database is optional: when URL is empty the feed runs without saved
// labels, chart definitions, or the fetch log.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// FetchLogRetentionDays is how long fetch history rows are kept (default: 90)
	FetchLogRetentionDays int `env:"FETCH_LOG_RETENTION_DAYS" default:"90"`

	// FetchLogSweepInterval is how often expired fetch history is pruned (default: 24h)
	FetchLogSweepInterval time.Duration `env:"FETCH_LOG_SWEEP_INTERVAL" default:"24h"`

	// FetchLogSweepBatch is the maximum rows deleted per prune statement (default: 5000)
	FetchLogSweepBatch int `env:"FETCH_LOG_SWEEP_BATCH" default:"5000"`
}

// LabelsConfig holds display label settings.
type LabelsConfig struct {
	// SeedPath is a YAML file of key-to-label seeds loaded at startup (optional)
	SeedPath string `env:"LABELS_SEED_PATH"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per client IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// StoreEnabled reports whether a configuration database is configured.
func (c *DatabaseConfig) StoreEnabled() bool {
	return c.URL != ""
}
