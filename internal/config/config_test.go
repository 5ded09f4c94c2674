package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 500, cfg.BatchSize)
	require.Equal(t, 512*1024, cfg.MaxContentBytes)
	require.Equal(t, 10*time.Minute, cfg.CacheTTL)
	require.False(t, cfg.Tracing.Enabled, "tracing defaults off")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"empty db path", func(c *Config) { c.DBPath = "" }, false},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, false},
		{"negative max content", func(c *Config) { c.MaxContentBytes = -1 }, false},
		{"negative cache ttl", func(c *Config) { c.CacheTTL = -time.Second }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	require.Equal(t, Defaults().BatchSize, cfg.BatchSize)
	require.Equal(t, Defaults().DBPath, cfg.DBPath)
}
