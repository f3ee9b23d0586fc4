// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Snapshot SnapshotConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Client   ClientConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 5000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"5000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// MaxBodyBytes caps JSON and CSV request bodies (default: 1MB)
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"1048576"`

	// MaxConcurrentJobs bounds parallel parse and export requests (default: 4)
	MaxConcurrentJobs int `env:"SERVER_MAX_CONCURRENT_JOBS" default:"4"`

	// JobWait is how long a parse or export waits for a free slot (default: 10s)
	JobWait time.Duration `env:"SERVER_JOB_WAIT" default:"10s"`
}

// StorageConfig selects where records live.
type StorageConfig struct {
	// Driver is memory, sqlite or postgres (default: memory)
	Driver string `env:"STORAGE_DRIVER" default:"memory"`

	// SQLitePath is the database file for the sqlite driver (default: inspections.db)
	SQLitePath string `env:"SQLITE_PATH" default:"inspections.db"`

	// SeedFromSnapshot imports the snapshot into an empty database store on startup (default: true)
	SeedFromSnapshot bool `env:"STORAGE_SEED_FROM_SNAPSHOT" default:"true"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SnapshotConfig holds settings for loading records from workbook and CSV files.
type SnapshotConfig struct {
	// Dir holds vehicle_inspection_database.xlsx or the *_data.csv files (default: data)
	Dir string `env:"SNAPSHOT_DIR" default:"data"`

	// MaxFileSize is the largest snapshot file accepted in bytes (default: 32MB)
	MaxFileSize int64 `env:"SNAPSHOT_MAX_FILE_SIZE" default:"33554432"`

	// Watch reloads the snapshot when files in Dir change (default: false)
	Watch bool `env:"SNAPSHOT_WATCH" default:"false"`

	// Debounce is how long to wait after the last change before reloading (default: 500ms)
	Debounce time.Duration `env:"SNAPSHOT_DEBOUNCE" default:"500ms"`

	// RefreshInterval reloads the snapshot periodically; 0 disables (default: 0)
	RefreshInterval time.Duration `env:"SNAPSHOT_REFRESH_INTERVAL" default:"0s"`

	// ReplaceDatabase allows Watch and RefreshInterval with a sqlite or
	// postgres store, where every reload replaces all stored records,
	// including those added through the API (default: false)
	ReplaceDatabase bool `env:"SNAPSHOT_REPLACE_DATABASE" default:"false"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// MutationLimit is requests per minute for endpoints that change records (default: 30)
	MutationLimit int `env:"RATE_LIMIT_MUTATIONS" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces API key auth on mutating endpoints (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ClientConfig holds settings for talking to a remote inspection server.
type ClientConfig struct {
	// BackendURL is the base URL of the server (default: http://localhost:5000)
	BackendURL string `env:"BACKEND_URL" default:"http://localhost:5000"`

	// Timeout bounds each request to the server (default: 10s)
	Timeout time.Duration `env:"BACKEND_TIMEOUT" default:"10s"`

	// APIKey is sent as X-API-Key when set
	APIKey string `env:"BACKEND_API_KEY"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
