// Package config provides configuration management for printstash.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/ini.v1"
)

// Config holds the connection settings for the printstash server.
//
// Settings are resolved in order of precedence:
//  1. CLI flags (applied by the caller after loading)
//  2. PRINTSTASH_* environment variables
//  3. The INI config file
//
// Config file location:
//   - Unix: ~/.config/printstash/config
//   - Windows: %USERPROFILE%\.config\printstash\config
//
// INI format:
//
//	[printstash]
//	server_url = http://localhost:8080
//	api_key = <token>
//	request_timeout_seconds = 60
type Config struct {
	// ServerURL is the base URL of the printstash server.
	ServerURL string `ini:"server_url" envconfig:"SERVER_URL"`

	// APIKey is the bearer token sent as "Authorization: Token <key>".
	APIKey string `ini:"api_key" envconfig:"API_KEY"`

	// RequestTimeoutSeconds bounds individual API calls.
	// Uploads and downloads are exempt; they are bounded by context instead.
	RequestTimeoutSeconds int `ini:"request_timeout_seconds" envconfig:"REQUEST_TIMEOUT_SECONDS"`
}

const (
	defaultServerURL      = "http://localhost:8080"
	defaultRequestTimeout = 60
)

// envPrefix is the prefix for environment variable overrides (PRINTSTASH_SERVER_URL etc).
const envPrefix = "PRINTSTASH"

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		ServerURL:             defaultServerURL,
		RequestTimeoutSeconds: defaultRequestTimeout,
	}
}

// DefaultPath returns the default config file path for the current user.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "printstash", "config"), nil
}

// Load reads the config file at path, then applies environment overrides.
// A missing file is not an error; defaults plus environment are returned.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			file, err := ini.Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			if err := file.Section("printstash").MapTo(cfg); err != nil {
				return nil, fmt.Errorf("failed to map config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	return cfg, nil
}

// Save writes the config to path in INI format, creating parent
// directories as needed. The file is written with 0600 permissions
// because it contains the API key.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	file := ini.Empty()
	if err := file.Section("printstash").ReflectFrom(cfg); err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}

// Validate checks that the config is usable for server connections.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return errors.New("server_url is required")
	}
	if !strings.HasPrefix(cfg.ServerURL, "http://") && !strings.HasPrefix(cfg.ServerURL, "https://") {
		return fmt.Errorf("server_url must start with http:// or https://, got %q", cfg.ServerURL)
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", cfg.RequestTimeoutSeconds)
	}
	return nil
}

// RequestTimeout returns the API call timeout as a duration.
func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}
