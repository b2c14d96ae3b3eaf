// Package config loads the map server's settings from environment variables.
// Defaults cover a local run against the bundled baseline file; everything is
// validated at startup so misconfiguration fails before the first request.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Sources  SourcesConfig
	Submit   SubmitConfig
	Refresh  RefreshConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Map      MapConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 so websocket connections are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining submissions (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for API requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourcesConfig locates the two CSV inputs. Each locator is an http(s) URL
// or a local file path.
type SourcesConfig struct {
	// BaselineURL is the static dataset (default: bundled file)
	BaselineURL string `env:"BASELINE_URL" default:"data/restrooms.csv"`

	// UpdatesURL is the published update log; empty disables updates
	UpdatesURL string `env:"UPDATES_URL"`

	// FetchTimeout bounds one source download (default: 30s)
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"30s"`

	// MaxBytes caps one source body (default: 32MB)
	MaxBytes int64 `env:"SOURCE_MAX_BYTES" default:"33554432"`
}

// SubmitConfig configures forwarding of suggestions to the ingestion endpoint.
type SubmitConfig struct {
	// IngestURL is the spreadsheet script endpoint; empty disables submissions
	IngestURL string `env:"INGEST_URL"`

	Timeout time.Duration `env:"SUBMIT_TIMEOUT" default:"15s"`

	// MaxConcurrent is the maximum number of parallel forwards (default: 4)
	MaxConcurrent int `env:"SUBMIT_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a submission waits for a slot (default: 10s)
	MaxWait time.Duration `env:"SUBMIT_MAX_WAIT" default:"10s"`
}

// RefreshConfig controls background reloading of the sources.
type RefreshConfig struct {
	// Interval between loads (default: 5m)
	Interval time.Duration `env:"REFRESH_INTERVAL" default:"5m"`
}

// DatabaseConfig holds the optional snapshot store connection.
// With no URL the server keeps snapshots in memory only.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a snapshot store is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// SubmitLimit is requests per minute for the submission and refresh endpoints (default: 10)
	SubmitLimit int `env:"RATE_LIMIT_SUBMIT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// CORSOrigins lists origins allowed to call the API; empty allows none
	CORSOrigins []string `env:"CORS_ORIGINS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MapConfig is the initial map view handed to the page template.
type MapConfig struct {
	CenterLat float64 `env:"MAP_CENTER_LAT" default:"32.7157"`
	CenterLng float64 `env:"MAP_CENTER_LNG" default:"-117.1611"`
	Zoom      int     `env:"MAP_ZOOM" default:"12"`

	TileURL     string `env:"MAP_TILE_URL" default:"https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"`
	Attribution string `env:"MAP_ATTRIBUTION" default:"&copy; OpenStreetMap contributors"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
