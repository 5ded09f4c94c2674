// Package cmd implements the koireg command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kberg/koireg/internal/agents"
	"github.com/kberg/koireg/internal/config"
	"github.com/kberg/koireg/internal/log"
	"github.com/kberg/koireg/internal/registry"
	"github.com/kberg/koireg/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "koireg",
	Short: "Content registry for knowledge pipeline ingestion",
	Long: `koireg tracks content sources, deduplicated content items, and per-agent
processing completions in a local SQLite catalog, and exports the catalog as a
JSON-LD manifest plus a flattened query projection.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .koireg/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write a structured debug log")
	rootCmd.PersistentFlags().String("db", "",
		"registry database path (overrides config)")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("db_path", defaults.DBPath)
	viper.SetDefault("manifest_path", defaults.ManifestPath)
	viper.SetDefault("projection_path", defaults.ProjectionPath)
	viper.SetDefault("agents_path", defaults.AgentsPath)
	viper.SetDefault("batch_size", defaults.BatchSize)
	viper.SetDefault("max_content_bytes", defaults.MaxContentBytes)
	viper.SetDefault("cache_ttl", defaults.CacheTTL)
	viper.SetDefault("log_path", defaults.LogPath)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	viper.SetEnvPrefix("KOIREG")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .koireg/config.yaml (current directory)
		// 2. ~/.config/koireg/config.yaml (user config)
		if _, err := os.Stat(".koireg/config.yaml"); err == nil {
			viper.SetConfigFile(".koireg/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "koireg"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config anywhere: run with defaults. `koireg init` writes one.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)

	if cfg.Debug {
		// The returned closer is intentionally dropped: the log file lives
		// for the whole process and closes on exit.
		if _, err := log.Init(cfg.LogPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: opening debug log: %v\n", err)
		}
	}
}

// openRegistry validates config, sets up tracing, loads the roster, and opens
// the registry database. The returned cleanup shuts all of it down.
func openRegistry(cmd *cobra.Command) (*registry.Registry, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}

	roster, err := agents.Load(cfg.AgentsPath)
	if err != nil {
		return nil, nil, err
	}

	r, err := registry.Initialize(cfg.DBPath, registry.Options{
		BatchSize:       cfg.BatchSize,
		MaxContentBytes: cfg.MaxContentBytes,
		CacheTTL:        cfg.CacheTTL,
		Roster:          roster,
		Tracer:          provider.Tracer(),
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if closeErr := r.Close(); closeErr != nil {
			log.ErrorErr(log.CatDB, "closing registry", closeErr)
		}
		_ = provider.Shutdown(cmd.Context())
	}
	return r, cleanup, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
