// Package config loads featcache deployment configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one cache deployment: which store backend feeds it and
// how the cache sizes and paces itself.
type Config struct {
	// Store selects and configures the backing feature store.
	Store StoreConfig `yaml:"store"`

	// Fields lists the feature fields the cache serves.
	Fields []string `yaml:"fields"`

	// DeviceTotalBytes is the device memory capacity.
	DeviceTotalBytes int64 `yaml:"device_total_bytes"`

	// HeadroomBytes is device memory left unclaimed during capacity
	// estimation. Negative selects the built-in default (512 MiB).
	HeadroomBytes int64 `yaml:"headroom_bytes"`

	// FetchRowsPerSec rate-limits host store fetches. Zero disables.
	FetchRowsPerSec float64 `yaml:"fetch_rows_per_sec"`
	FetchBurst      int     `yaml:"fetch_burst"`

	// Log selects the log format ("text" or "json") and level
	// ("debug", "info", "warn", "error").
	Log LogConfig `yaml:"log"`
}

// StoreConfig selects a store backend. Exactly one backend section is
// consulted, named by Backend.
type StoreConfig struct {
	// Backend is one of "file", "s3" or "minio".
	Backend string `yaml:"backend"`

	// Dir is the column directory for the file backend.
	Dir string `yaml:"dir"`

	// Bucket and Prefix locate the columns for the object-store backends.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// Endpoint is the server address for the minio backend.
	Endpoint string `yaml:"endpoint"`

	// Concurrency bounds parallel column reads. Zero selects the
	// backend's default.
	Concurrency int `yaml:"concurrency"`
}

// LogConfig selects log output format and verbosity.
type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Default returns a configuration with sensible local defaults.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:     "file",
			Dir:         "./features",
			Concurrency: 8,
		},
		Fields:           []string{"features"},
		DeviceTotalBytes: 16 << 30,
		HeadroomBytes:    -1,
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// Load reads a YAML config file, layered over Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "file":
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir required for file backend")
		}
	case "s3", "minio":
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket required for %s backend", c.Store.Backend)
		}
		if c.Store.Backend == "minio" && c.Store.Endpoint == "" {
			return fmt.Errorf("store.endpoint required for minio backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("at least one field required")
	}
	if c.DeviceTotalBytes <= 0 {
		return fmt.Errorf("device_total_bytes must be positive")
	}
	return nil
}
