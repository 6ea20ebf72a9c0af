// Package config loads the pipeline configuration. Values come from a YAML
// config file with CLI flags layered on top by the command layer; flags win.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all pipeline configuration.
type Config struct {
	// LogLevel controls verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogJSON switches from the console writer to JSON lines.
	LogJSON bool `mapstructure:"log_json"`

	// DataDir is the period directory of CSV exports to load.
	DataDir string `mapstructure:"data_dir"`

	// ClearExisting wipes all warehouse rows before loading. Destructive.
	ClearExisting bool `mapstructure:"clear_existing"`

	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// StorageConfig selects the warehouse backend.
type StorageConfig struct {
	// Kind is a registered backend kind: "sqlite" or "postgres".
	Kind string `mapstructure:"kind"`

	// DSN is backend-specific: a file path for sqlite, a connection URL for
	// postgres.
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	// Backend is "none" or "datadog".
	Backend string `mapstructure:"backend"`

	// Job tags every metric with job:<name>.
	Job string `mapstructure:"job"`

	// Tags are extra comma-separated tags, e.g. "env:prod,team:data".
	Tags string `mapstructure:"tags"`

	// FlushSeconds is the submission interval for buffered metrics.
	FlushSeconds int `mapstructure:"flush_seconds"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Kind: "sqlite",
			DSN:  "marketdw.db",
		},
		Metrics: MetricsConfig{
			Backend:      "none",
			Job:          "marketdw",
			FlushSeconds: 60,
		},
	}
}

// Load reads configuration. Locations in order of precedence: the explicit
// configFile, ./marketdw.yaml, ~/.config/marketdw/marketdw.yaml. A missing
// file is not an error; defaults apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("marketdw")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "marketdw"))
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Storage.Kind == "" {
		return fmt.Errorf("storage.kind is required")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	switch c.Metrics.Backend {
	case "", "none", "datadog":
	default:
		return fmt.Errorf("metrics.backend must be \"none\" or \"datadog\", got %q", c.Metrics.Backend)
	}
	return nil
}

// ValidateRun checks the settings the load commands need on top of Validate.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}
