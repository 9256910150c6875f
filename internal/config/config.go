// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Upload     UploadConfig
	Encryption EncryptionConfig
	Service    ServiceConfig
	History    HistoryConfig
	Session    SessionConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout must outlast a full remote call (default: 150s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"150s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 120s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"120s"`
}

// UploadConfig holds spreadsheet upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// ArchiveDir receives an encrypted copy of every upload (default: uploaded_files)
	ArchiveDir string `env:"UPLOAD_ARCHIVE_DIR" default:"uploaded_files"`

	// LogFile is the append-only CSV upload log (default: logs.csv)
	LogFile string `env:"UPLOAD_LOG_FILE" default:"logs.csv"`
}

// EncryptionConfig holds archive encryption settings.
type EncryptionConfig struct {
	// KeyFile holds a url-safe base64 32-byte key (default: fernet_key.key)
	KeyFile string `env:"ENCRYPTION_KEY_FILE" default:"fernet_key.key"`
}

// ServiceConfig holds the remote claim service settings.
type ServiceConfig struct {
	// BaseURL is the endpoint every operation posts to unless the service
	// map overrides it.
	BaseURL string `env:"SERVICE_BASE_URL" default:"https://slportal.uiic.in/Claim_Intimation_WebService/ClaimIntimation.svc"`

	// UserID and Password are passed inside every envelope.
	UserID   string `env:"SERVICE_USER_ID" envAlt:"UIIC_USER_ID" required:"true"`
	Password string `env:"SERVICE_PASSWORD" envAlt:"UIIC_PASSWORD" required:"true"`

	// Timeout bounds a single remote call (default: 90s)
	Timeout time.Duration `env:"SERVICE_TIMEOUT" default:"90s"`

	// MapFile is an optional YAML file overriding the operation table.
	MapFile string `env:"SERVICE_MAP_FILE"`

	// MaxWaitTime is how long a submission waits for the submission slot (default: 30s)
	MaxWaitTime time.Duration `env:"SERVICE_MAX_WAIT_TIME" default:"30s"`

	// StrictTags rejects sheets whose headers normalize to the same tag.
	StrictTags bool `env:"SERVICE_STRICT_TAGS" default:"false"`
}

// HistoryConfig holds response history settings.
type HistoryConfig struct {
	// Backend is xlsx or postgres (default: xlsx)
	Backend string `env:"HISTORY_BACKEND" default:"xlsx"`

	// XLSXPath is the history workbook for the xlsx backend.
	XLSXPath string `env:"HISTORY_XLSX_PATH" default:"response_history.xlsx"`

	// DatabaseURL is the PostgreSQL connection string for the postgres backend.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 5)
	MaxConns int `env:"DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// IdleTimeout expires sessions not used for this long (default: 8h)
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"8h"`

	// SweepInterval is how often expired sessions are dropped (default: 10m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"10m"`

	// SecureCookie marks the session cookie Secure (default: false)
	SecureCookie bool `env:"SESSION_SECURE_COOKIE" default:"false"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards the /api routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// APIRateLimit is the number of /api requests allowed per client IP per minute (default: 60)
	APIRateLimit int `env:"API_RATE_LIMIT" default:"60"`
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
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
