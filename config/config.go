// Package config defines the feature store configuration. All values are
// fixed at construction time; the store never re-reads configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m"
// or "300s". Plain integers are interpreted as nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(v)
		return nil
	case int64:
		*d = Duration(v)
		return nil
	default:
		return fmt.Errorf("invalid duration value: %v", raw)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the complete feature store configuration.
type Config struct {
	// Retention defines the TTL eviction horizon.
	Retention RetentionConfig `yaml:"retention"`

	// Grid defines the nominal sampling period of the feature pipeline.
	Grid GridConfig `yaml:"grid"`

	// Store configures the concurrent keyed map.
	Store StoreConfig `yaml:"store"`

	// Commit configures batch merge behavior.
	Commit CommitConfig `yaml:"commit"`

	// Summary configures window summaries.
	Summary SummaryConfig `yaml:"summary"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// RetentionConfig defines the TTL eviction horizon.
type RetentionConfig struct {
	// TTL is the retention duration. Samples older than
	// (reference time - TTL) are evicted during batch and commit merges.
	// Format: "5m", "24h"
	TTL Duration `yaml:"ttl"`
}

// GridConfig defines the nominal sampling period.
type GridConfig struct {
	// MinIntervalSec is the grid spacing in seconds. Lag counts are
	// interpreted as multiples of this interval.
	MinIntervalSec int `yaml:"min_interval_sec"`
}

// MinInterval returns the grid spacing as a duration.
func (g GridConfig) MinInterval() time.Duration {
	return time.Duration(g.MinIntervalSec) * time.Second
}

// StoreConfig configures the concurrent keyed map.
type StoreConfig struct {
	// Shards is the number of lock stripes for the series map.
	Shards int `yaml:"shards"`
}

// CommitConfig configures batch merge behavior.
type CommitConfig struct {
	// Parallelism bounds the per-key fan-out of batch merges.
	// 0 means one worker per CPU.
	Parallelism int `yaml:"parallelism"`

	// AutoInterval is the period of the background auto-commit when the
	// store runs under a Service. Zero disables auto-commit.
	// Format: "1s", "500ms"
	AutoInterval Duration `yaml:"auto_interval"`
}

// SummaryConfig configures window summaries.
type SummaryConfig struct {
	// PercentileEnabled enables DDSketch percentile calculation.
	PercentileEnabled bool `yaml:"percentile_enabled"`

	// Accuracy is the relative accuracy of percentiles (0.01 = 1% error).
	Accuracy float64 `yaml:"accuracy"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON outputs logs as JSON when true.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Retention: RetentionConfig{
			TTL: Duration(24 * time.Hour),
		},
		Grid: GridConfig{
			MinIntervalSec: 60,
		},
		Store: StoreConfig{
			Shards: 16,
		},
		Commit: CommitConfig{
			Parallelism:  0, // one worker per CPU
			AutoInterval: Duration(time.Minute),
		},
		Summary: SummaryConfig{
			PercentileEnabled: true,
			Accuracy:          0.01,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// Load reads a YAML configuration file. Fields absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Retention.TTL <= 0 {
		return fmt.Errorf("retention.ttl must be positive, got %v", c.Retention.TTL.Std())
	}
	if c.Grid.MinIntervalSec <= 0 {
		return fmt.Errorf("grid.min_interval_sec must be positive, got %d", c.Grid.MinIntervalSec)
	}
	if c.Store.Shards <= 0 {
		return fmt.Errorf("store.shards must be positive, got %d", c.Store.Shards)
	}
	if c.Commit.Parallelism < 0 {
		return fmt.Errorf("commit.parallelism must be >= 0, got %d", c.Commit.Parallelism)
	}
	if c.Commit.AutoInterval < 0 {
		return fmt.Errorf("commit.auto_interval must be >= 0, got %v", c.Commit.AutoInterval.Std())
	}
	if c.Summary.PercentileEnabled {
		if c.Summary.Accuracy <= 0 || c.Summary.Accuracy >= 1 {
			return fmt.Errorf("summary.accuracy must be in (0, 1), got %g", c.Summary.Accuracy)
		}
	}
	return nil
}
