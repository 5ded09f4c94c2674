package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Long: `Show content, per-agent, and per-source-type rollups over the catalog.

The processed counter counts processing operations across agents, not unique
items: one item processed by five agents contributes five.

Examples:
  koireg stats
  koireg stats --json | jq '.agents'`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	r, cleanup, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if statsJSON {
		stats, err := r.ComputeStatistics(cmd.Context())
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	report, err := r.GenerateReport(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report)
	return nil
}
