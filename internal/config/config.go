// Package config provides configuration types and parsing for sheetsql.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lakshminarasimha6802/sheetsql/internal/logging"
)

// Defaults for the service configuration.
const (
	DefaultAddr        = ":8080"
	DefaultDBPath      = "sheetsql.db"
	DefaultDataDir     = "data"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultPreviewRows = 100
	// DefaultMaxUploadBytes caps uploads at 1GB.
	DefaultMaxUploadBytes = int64(1024 * 1024 * 1024)
	DefaultArtifactTTL    = 24 * time.Hour
)

// Config holds all configuration options for the sheetsql service.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DBPath is the SQLite database file path.
	DBPath string
	// DataDir is the root for artifacts and saved uploads.
	DataDir string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is one of json, text.
	LogFormat string
	// PreviewRows caps the rows returned in upload previews.
	PreviewRows int
	// MaxUploadBytes caps the accepted request body size.
	MaxUploadBytes int64
	// ArtifactTTL is how long unconfirmed artifacts survive.
	ArtifactTTL time.Duration
	// SessionSecret signs session cookies. Empty means an ephemeral key.
	SessionSecret string
	// DatadogAPIKey enables the Datadog metrics backend when set.
	DatadogAPIKey string
	// DatadogSite selects the Datadog intake site.
	DatadogSite string
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		DBPath:         DefaultDBPath,
		DataDir:        DefaultDataDir,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		PreviewRows:    DefaultPreviewRows,
		MaxUploadBytes: DefaultMaxUploadBytes,
		ArtifactTTL:    DefaultArtifactTTL,
		DatadogSite:    "datadoghq.com",
	}
}

// ApplyEnv overrides fields from environment variables. Unset variables
// leave the current values untouched.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("SHEETSQL_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("SHEETSQL_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SHEETSQL_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SHEETSQL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SHEETSQL_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("SHEETSQL_PREVIEW_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SHEETSQL_PREVIEW_ROWS %q: %w", v, err)
		}
		c.PreviewRows = n
	}
	if v := os.Getenv("SHEETSQL_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SHEETSQL_MAX_UPLOAD_BYTES %q: %w", v, err)
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv("SHEETSQL_ARTIFACT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SHEETSQL_ARTIFACT_TTL %q: %w", v, err)
		}
		c.ArtifactTTL = d
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv("DD_API_KEY"); v != "" {
		c.DatadogAPIKey = v
	}
	if v := os.Getenv("DD_SITE"); v != "" {
		c.DatadogSite = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.PreviewRows <= 0 {
		return fmt.Errorf("preview rows must be positive, got %d", c.PreviewRows)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.ArtifactTTL <= 0 {
		return fmt.Errorf("artifact TTL must be positive, got %s", c.ArtifactTTL)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := ParseLogFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// ArtifactDir returns the directory holding parquet artifacts.
func (c *Config) ArtifactDir() string {
	return filepath.Join(c.DataDir, "artifacts")
}

// UploadDir returns the directory holding saved uploads and the manifest.
func (c *Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// ParseLogLevel converts a level string to a logging.Level.
// Valid values: "debug", "info", "warn", "error".
func ParseLogLevel(s string) (logging.Level, error) {
	switch s {
	case "debug":
		return logging.LevelDebug, nil
	case "info":
		return logging.LevelInfo, nil
	case "warn":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return logging.LevelInfo, fmt.Errorf("invalid log level: %s (use 'debug', 'info', 'warn', or 'error')", s)
	}
}

// ParseLogFormat converts a format string to a logging.Format.
// Valid values: "json", "text".
func ParseLogFormat(s string) (logging.Format, error) {
	switch s {
	case "json":
		return logging.FormatJSON, nil
	case "text":
		return logging.FormatText, nil
	default:
		return logging.FormatJSON, fmt.Errorf("invalid log format: %s (use 'json' or 'text')", s)
	}
}
