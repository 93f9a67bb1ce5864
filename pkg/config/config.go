// Package config loads the viewer configuration from YAML. A missing
// file is not an error: everything has a usable default so the CLI
// works out of the box.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/flysightviewer/flysightviewer/pkg/telemetry"
)

// Config is the top-level viewer configuration.
type Config struct {
	// Telemetry configures logging, metrics and tracing.
	Telemetry *telemetry.Config `yaml:"telemetry"`

	// Catalog configures the session catalog database.
	Catalog CatalogConfig `yaml:"catalog"`

	// Watch configures the log directory watcher.
	Watch WatchConfig `yaml:"watch"`

	// Display configures value presentation.
	Display DisplayConfig `yaml:"display"`
}

// CatalogConfig configures the session catalog database.
type CatalogConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path" validate:"required"`
}

// WatchConfig configures the log directory watcher.
type WatchConfig struct {
	// Dir is the directory watched for new log files. Empty disables
	// watching unless the command names a directory explicitly.
	Dir string `yaml:"dir"`
}

// DisplayConfig configures value presentation.
type DisplayConfig struct {
	// UnitSystem selects display unit conversion (Metric, Imperial).
	UnitSystem string `yaml:"unit_system" validate:"oneof=Metric Imperial"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Telemetry: telemetry.DefaultConfig(),
		Catalog: CatalogConfig{
			Path: "flysight.db",
		},
		Display: DisplayConfig{
			UnitSystem: "Metric",
		},
	}
}

// Load reads and validates the configuration at path. An empty path
// returns the defaults; values present in the file override defaults
// field by field.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration, including the telemetry section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	return nil
}
