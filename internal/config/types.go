package config

import (
	"path/filepath"
	"time"
)

// SessionStore selects where browser sessions are persisted.
type SessionStore string

const (
	SessionStoreMemory SessionStore = "memory"
	SessionStoreSQLite SessionStore = "sqlite"
)

// Config is the top-level fee configuration, corresponding to .fee.yml.
type Config struct {
	APIURL                string       `yaml:"api_url" koanf:"api_url"`
	FileHost              string       `yaml:"file_host" koanf:"file_host"`
	Port                  int          `yaml:"port" koanf:"port"`
	DataDir               string       `yaml:"data_dir" koanf:"data_dir"`
	SessionStore          SessionStore `yaml:"session_store" koanf:"session_store"`
	SessionIdleMinutes    int          `yaml:"session_idle_minutes" koanf:"session_idle_minutes"`
	SessionRetentionHours int          `yaml:"session_retention_hours" koanf:"session_retention_hours"`
	RequestTimeoutSeconds int          `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
	HistoryPageSize       int          `yaml:"history_page_size" koanf:"history_page_size"`
	AllowAllOrigins       bool         `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	PDFJSVersion          string       `yaml:"pdfjs_version" koanf:"pdfjs_version"`
	Log                   LogConfig    `yaml:"log" koanf:"log"`
	Upload                UploadConfig `yaml:"upload" koanf:"upload"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" koanf:"level"`
	File  string `yaml:"file" koanf:"file"`
	JSON  bool   `yaml:"json" koanf:"json"`
}

// UploadConfig holds settings for bulk uploads from the CLI.
type UploadConfig struct {
	Exclude     []string `yaml:"exclude" koanf:"exclude"`
	Concurrency int      `yaml:"concurrency" koanf:"concurrency"`
}

// RequestTimeout is the per-request deadline for calls to the Fee API.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SessionIdle is how long a browser session stays in memory unused.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// SessionRetention is how long a saved session survives without a visit.
func (c *Config) SessionRetention() time.Duration {
	return time.Duration(c.SessionRetentionHours) * time.Hour
}

// DBPath is the SQLite database inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "fee.db")
}
