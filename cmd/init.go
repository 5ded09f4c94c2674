package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kberg/koireg/internal/config"
	"github.com/kberg/koireg/internal/infrastructure/sqlite"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the registry database and a default config file",
	Long: `Create the registry database, run schema migrations, and write a default
config file at .koireg/config.yaml if one does not exist yet.

Example:
  koireg init
  koireg init --db /var/lib/koireg/registry.db`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configPath := cfgFile
	if configPath == "" {
		configPath = ".koireg/config.yaml"
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.WriteDefaultConfig(configPath); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing registry database: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "registry ready at %s\n", cfg.DBPath)
	return nil
}
