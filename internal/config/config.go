// Package config holds the configuration of the dfa command line tools.
//
// Values are layered: defaults, then an optional YAML file, then DFA_*
// environment variables. Library users do not need this package; they pass
// a base URL to client.New directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/me/dfanalyzer/pkg/client"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel  = "DFA_LOG_LEVEL"
	EnvLogFormat = "DFA_LOG_FORMAT"
	EnvCaptureDB = "DFA_CAPTURE_DB"
)

// Config holds configuration for the dfa tools.
type Config struct {
	BaseURL   string        `yaml:"url"`        // provenance store (default http://localhost:22000/)
	LogLevel  string        `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string        `yaml:"log_format"` // text, json
	Timeout   time.Duration `yaml:"timeout"`    // per-request timeout for sends
	Capture   CaptureConfig `yaml:"capture"`
}

// CaptureConfig configures the local capture server.
type CaptureConfig struct {
	Addr   string `yaml:"addr"`    // listen address (default ":22000")
	DBPath string `yaml:"db_path"` // SQLite journal path, ":memory:" for testing
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		BaseURL:   client.DefaultBaseURL,
		LogLevel:  "info",
		LogFormat: "text",
		Timeout:   30 * time.Second,
		Capture: CaptureConfig{
			Addr: ":22000",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// not empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DFA_URL, DFA_LOG_LEVEL, DFA_LOG_FORMAT and
// DFA_CAPTURE_DB when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(client.EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv(EnvCaptureDB); v != "" {
		c.Capture.DBPath = v
	}
}

// Validate checks the fields that cannot be defaulted later.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: url must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative")
	}
	return nil
}

// ResolveDBPath returns DBPath, or ~/.dfa/capture.db (creating ~/.dfa)
// when DBPath is empty.
func (c CaptureConfig) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".dfa")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return filepath.Join(dir, "capture.db"), nil
}
