package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lakshminarasimha6802/sheetsql/internal/logging"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", "debug", logging.LevelDebug, false},
		{"info", "info", logging.LevelInfo, false},
		{"warn", "warn", logging.LevelWarn, false},
		{"error", "error", logging.LevelError, false},
		{"invalid", "verbose", logging.LevelInfo, true},
		{"empty", "", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    logging.Format
		wantErr bool
	}{
		{"json", "json", logging.FormatJSON, false},
		{"text", "text", logging.FormatText, false},
		{"invalid", "xml", logging.FormatJSON, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLogFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseLogFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: true},
		{name: "zero preview rows", mutate: func(c *Config) { c.PreviewRows = 0 }, wantErr: true},
		{name: "negative upload cap", mutate: func(c *Config) { c.MaxUploadBytes = -1 }, wantErr: true},
		{name: "zero TTL", mutate: func(c *Config) { c.ArtifactTTL = 0 }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "yaml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("SHEETSQL_ADDR", ":9090")
	t.Setenv("SHEETSQL_DB", "/tmp/test.db")
	t.Setenv("SHEETSQL_PREVIEW_ROWS", "25")
	t.Setenv("SHEETSQL_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("SHEETSQL_ARTIFACT_TTL", "2h")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("DD_API_KEY", "dd-key")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want /tmp/test.db", cfg.DBPath)
	}
	if cfg.PreviewRows != 25 {
		t.Errorf("PreviewRows = %d, want 25", cfg.PreviewRows)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("MaxUploadBytes = %d, want 1024", cfg.MaxUploadBytes)
	}
	if cfg.ArtifactTTL != 2*time.Hour {
		t.Errorf("ArtifactTTL = %s, want 2h", cfg.ArtifactTTL)
	}
	if cfg.SessionSecret != "s3cret" {
		t.Errorf("SessionSecret = %q, want s3cret", cfg.SessionSecret)
	}
	if cfg.DatadogAPIKey != "dd-key" {
		t.Errorf("DatadogAPIKey = %q, want dd-key", cfg.DatadogAPIKey)
	}
}

func TestConfigApplyEnv_BadNumber(t *testing.T) {
	t.Setenv("SHEETSQL_PREVIEW_ROWS", "many")

	cfg := Default()
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric SHEETSQL_PREVIEW_ROWS")
	}
}

func TestConfigDirectories(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/srv/sheetsql"

	if got, want := cfg.ArtifactDir(), filepath.Join("/srv/sheetsql", "artifacts"); got != want {
		t.Errorf("ArtifactDir() = %q, want %q", got, want)
	}
	if got, want := cfg.UploadDir(), filepath.Join("/srv/sheetsql", "uploads"); got != want {
		t.Errorf("UploadDir() = %q, want %q", got, want)
	}
}
