package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kberg/koireg/internal/log"
	"github.com/kberg/koireg/internal/watcher"
)

var exportWatch bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as a JSON-LD manifest and query projection",
	Long: `Write the catalog as two artifacts derived from one consistent snapshot:
a JSON-LD manifest (Source, ContentItem, and Agent nodes with hasPart and
wasProcessedBy edges) and a flattened RID-keyed query projection.

With --watch, re-export whenever the registry database changes, until
interrupted.

Examples:
  koireg export
  koireg export --watch`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportWatch, "watch", false,
		"re-export on database changes until interrupted")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	r, cleanup, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	exportOnce := func() error {
		if err := r.ExportAll(cmd.Context(), cfg.ManifestPath, cfg.ProjectionPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s and %s\n", cfg.ManifestPath, cfg.ProjectionPath)
		return nil
	}

	if err := exportOnce(); err != nil {
		return err
	}
	if !exportWatch {
		return nil
	}

	w, err := watcher.New(watcher.DefaultConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	changes, err := w.Start()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	fmt.Fprintln(cmd.OutOrStdout(), "watching for changes (ctrl-c to stop)")
	for {
		select {
		case <-changes:
			if err := exportOnce(); err != nil {
				// Keep watching; a transient export failure should not
				// kill the watch loop.
				log.ErrorErr(log.CatExport, "re-export failed", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "re-export failed: %v\n", err)
			}
		case <-interrupt:
			return nil
		case <-cmd.Context().Done():
			return nil
		}
	}
}
