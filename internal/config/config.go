package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// envPrefix marks environment overrides, e.g. FEE_API_URL.
const envPrefix = "FEE_"

// sections are the nested config blocks; FEE_LOG_LEVEL maps to log.level.
var sections = []string{"log", "upload"}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FEE_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey turns FEE_API_URL into api_url and FEE_LOG_LEVEL into log.level.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validSessionStores is the set of recognized session_store values.
var validSessionStores = map[SessionStore]bool{
	SessionStoreMemory: true,
	SessionStoreSQLite: true,
}

// validLogLevels is the set of recognized log.level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if err := validateHTTPURL("api_url", c.APIURL); err != nil {
		return err
	}
	if err := validateHTTPURL("file_host", c.FileHost); err != nil {
		return err
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}

	if !validSessionStores[c.SessionStore] {
		return fmt.Errorf("invalid session_store %q: must be one of memory, sqlite", c.SessionStore)
	}
	if c.SessionStore == SessionStoreSQLite && c.DataDir == "" {
		return fmt.Errorf("data_dir is required for the sqlite session store")
	}

	if c.SessionIdleMinutes <= 0 {
		return fmt.Errorf("session_idle_minutes must be positive")
	}
	if c.SessionRetentionHours < 0 {
		return fmt.Errorf("session_retention_hours must be non-negative")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive")
	}
	if c.HistoryPageSize <= 0 {
		return fmt.Errorf("history_page_size must be positive")
	}

	if c.PDFJSVersion == "" {
		return fmt.Errorf("pdfjs_version is required")
	}

	if c.Log.Level != "" && !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}

	if c.Upload.Concurrency < 0 {
		return fmt.Errorf("upload.concurrency must be non-negative")
	}

	return nil
}

func validateHTTPURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an http or https URL", key, raw)
	}
	return nil
}

// parseOrigin returns scheme://host of raw.
func parseOrigin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q has no scheme or host", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}
