package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kberg/koireg/internal/agents"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List agents from the roster",
	Long: `List the agents declared in the roster file. Agents outside the roster can
still process content; they show up in statistics under their raw ids.

Example:
  koireg agents`,
	RunE: runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	roster, err := agents.Load(cfg.AgentsPath)
	if err != nil {
		return err
	}
	if roster.Len() == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no roster at %s\n", cfg.AgentsPath)
		return nil
	}
	for _, id := range roster.IDs() {
		agent, _ := roster.Get(id)
		if agent.Description != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id, roster.DisplayName(id), agent.Description)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, roster.DisplayName(id))
		}
	}
	return nil
}
