// Package config loads hubbleplay's configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"hubbleplay/internal/logger"
)

// Environment variables consulted when flags and the config file are silent.
const (
	EnvConfig  = "HUBBLEPLAY_CONFIG"
	EnvCatalog = "HUBBLEPLAY_CATALOG"
	EnvAPIKey  = "HUBBLE_API_KEY"
	EnvEditor  = "HUBBLEPLAY_EDITOR"
)

// Config is the root configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog" json:"catalog" toml:"catalog"`
	HTTP    HTTPConfig    `yaml:"http" json:"http" toml:"http"`
	Logging LoggingConfig `yaml:"logging" json:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" toml:"metrics"`

	// Editor is the command used for ctrl+e editing.
	Editor string `yaml:"editor,omitempty" json:"editor,omitempty" toml:"editor,omitempty"`
}

// CatalogConfig selects the APIs shown in the playground.
type CatalogConfig struct {
	// Path to a catalog file. Empty means the built-in Hubble catalog.
	Path string `yaml:"path" json:"path" toml:"path"`

	// Watch reloads the catalog file when it changes.
	Watch bool `yaml:"watch" json:"watch" toml:"watch"`

	// OpenAPI documents imported as additional APIs.
	OpenAPI []OpenAPISource `yaml:"openapi,omitempty" json:"openapi,omitempty" toml:"openapi,omitempty"`
}

// OpenAPISource is one OpenAPI document to import.
type OpenAPISource struct {
	ID    string `yaml:"id" json:"id" toml:"id"`
	Label string `yaml:"label" json:"label" toml:"label"`
	// Spec is a file path or an http(s) URL.
	Spec         string `yaml:"spec" json:"spec" toml:"spec"`
	BaseURL      string `yaml:"base_url,omitempty" json:"base_url,omitempty" toml:"base_url,omitempty"`
	APIKeyHeader string `yaml:"api_key_header,omitempty" json:"api_key_header,omitempty" toml:"api_key_header,omitempty"`
}

type HTTPConfig struct {
	// ResponseHeaderTimeout bounds the wait for response headers. Streams
	// are not limited once headers arrive.
	ResponseHeaderTimeout Duration `yaml:"response_header_timeout" json:"response_header_timeout" toml:"response_header_timeout"`

	UserAgent string `yaml:"user_agent" json:"user_agent" toml:"user_agent"`
}

type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error"
	Level string `yaml:"level" json:"level" toml:"level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// File receives the TUI's logs. Without it the TUI discards logs.
	File string `yaml:"file" json:"file" toml:"file"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	Path string `yaml:"path" json:"path" toml:"path"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	if c.Catalog.Path == "" {
		c.Catalog.Path = strings.TrimSpace(os.Getenv(EnvCatalog))
	}

	if c.HTTP.ResponseHeaderTimeout.Duration == 0 {
		c.HTTP.ResponseHeaderTimeout = NewDuration(60 * time.Second)
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = "hubbleplay"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Metrics.ListenAddress == "" {
		c.Metrics.ListenAddress = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Catalog.Watch && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.watch requires catalog.path")
	}
	ids := map[string]bool{}
	for i, src := range c.Catalog.OpenAPI {
		if strings.TrimSpace(src.Spec) == "" {
			return fmt.Errorf("catalog.openapi[%d].spec is required", i)
		}
		if src.ID != "" {
			if ids[src.ID] {
				return fmt.Errorf("catalog.openapi: duplicate id %s", src.ID)
			}
			ids[src.ID] = true
		}
	}

	if c.HTTP.ResponseHeaderTimeout.Duration < 0 {
		return fmt.Errorf("http.response_header_timeout must not be negative")
	}

	if _, valid := logger.ValidLogLevels[c.Logging.Level]; !valid {
		return fmt.Errorf("logging.level: must be one of: debug, info, warn, error")
	}

	if c.Metrics.Enabled {
		if c.Metrics.ListenAddress == "" {
			return fmt.Errorf("metrics.listen_address is required when metrics are enabled")
		}
		if c.Metrics.Path == "" || c.Metrics.Path[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'")
		}
	}
	return nil
}

// EditorCommand returns the editor to launch: the configured one, then
// $HUBBLEPLAY_EDITOR, $EDITOR, and finally vi.
func (c *Config) EditorCommand() string {
	for _, v := range []string{c.Editor, os.Getenv(EnvEditor), os.Getenv("EDITOR")} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return "vi"
}
