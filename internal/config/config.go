// Package config provides configuration types, defaults, and persistence for koireg.
package config

import (
	"fmt"
	"time"

	"github.com/kberg/koireg/internal/tracing"
)

// Config holds all configuration options for koireg.
type Config struct {
	// DBPath is the SQLite registry database file.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// ManifestPath is where the JSON-LD graph export is written.
	ManifestPath string `mapstructure:"manifest_path" yaml:"manifest_path"`

	// ProjectionPath is where the RID-keyed query projection is written.
	ProjectionPath string `mapstructure:"projection_path" yaml:"projection_path"`

	// AgentsPath is the YAML agent roster. Optional; display names fall
	// back to raw agent ids when absent.
	AgentsPath string `mapstructure:"agents_path" yaml:"agents_path"`

	// BatchSize is how many items one ingestion transaction covers.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// MaxContentBytes is the oversized-content safety threshold. Content
	// longer than this is stored as a bounded prefix with a truncation flag.
	MaxContentBytes int `mapstructure:"max_content_bytes" yaml:"max_content_bytes"`

	// CacheTTL bounds how long dedup lookups are served from memory.
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// Tracing configures the OpenTelemetry trace provider.
	Tracing tracing.Config `mapstructure:"tracing" yaml:"tracing"`

	// Debug enables the structured log file.
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// LogPath is the debug log file location.
	LogPath string `mapstructure:"log_path" yaml:"log_path"`
}

// Defaults returns the default configuration. Paths are relative to the
// working directory; the root command resolves them against the config dir.
func Defaults() Config {
	return Config{
		DBPath:          ".koireg/registry.db",
		ManifestPath:    ".koireg/manifest.jsonld",
		ProjectionPath:  ".koireg/projection.json",
		AgentsPath:      ".koireg/agents.yaml",
		BatchSize:       500,
		MaxContentBytes: 512 * 1024,
		CacheTTL:        10 * time.Minute,
		Tracing:         tracing.DefaultConfig(),
		Debug:           false,
		LogPath:         ".koireg/debug.log",
	}
}

// Validate checks the configuration for values the registry cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("max_content_bytes must be positive, got %d", c.MaxContentBytes)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	return nil
}
