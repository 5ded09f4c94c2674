package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/registry"
)

var (
	ingestSourceName string
	ingestSourceType string
	ingestAgentID    string
)

// ingestLine is one JSONL record on the ingest input.
type ingestLine struct {
	SourceName  string         `json:"source_name,omitempty"`
	SourceType  string         `json:"source_type,omitempty"`
	URL         string         `json:"url,omitempty"`
	Title       string         `json:"title,omitempty"`
	Content     string         `json:"content"`
	OriginalID  string         `json:"original_id"`
	ContentType string         `json:"content_type,omitempty"`
	Tier        string         `json:"tier,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Track content items from a JSONL stream",
	Long: `Read one JSON object per line from a file (or stdin) and track each as a
content item. Sources are registered on demand: per-line source_name and
source_type win, then the --source/--source-type flags, then a type classified
from the line's URL.

With --agent, every successfully tracked item also gets a processing record
for that agent in the same transaction.

Examples:
  koireg ingest documents.jsonl
  cat documents.jsonl | koireg ingest
  koireg ingest --source "Regen Registry" --source-type github documents.jsonl
  koireg ingest --agent indexer documents.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceName, "source", "",
		"source name to track items against")
	ingestCmd.Flags().StringVar(&ingestSourceType, "source-type", "",
		"source type for --source (classified from URLs when empty)")
	ingestCmd.Flags().StringVar(&ingestAgentID, "agent", "",
		"record processing by this agent for each tracked item")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	r, cleanup, err := openRegistry(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	input := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		input = f
	}

	items, err := readIngestItems(cmd, r, input)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to ingest")
		return nil
	}

	summary, err := r.IngestBatch(cmd.Context(), items)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: attempted %d, succeeded %d, failed %d\n",
		summary.RunID, summary.Attempted, summary.Succeeded, summary.Failed)
	for _, failure := range summary.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed %q: %v\n", failure.OriginalID, failure.Err)
	}
	return nil
}

func readIngestItems(cmd *cobra.Command, r *registry.Registry, input io.Reader) ([]registry.BatchItem, error) {
	// Memoize registered sources per (type, name) so one ingest run does at
	// most one registration per source.
	sources := map[string]catalog.RID{}
	resolve := func(line ingestLine) (catalog.RID, error) {
		name := line.SourceName
		if name == "" {
			name = ingestSourceName
		}
		if name == "" {
			return "", fmt.Errorf("no source name: set source_name on the line or pass --source")
		}

		sourceType := catalog.SourceType(line.SourceType)
		if sourceType == "" {
			sourceType = catalog.SourceType(ingestSourceType)
		}
		if sourceType == "" {
			sourceType = catalog.ClassifySourceType(line.URL)
		}
		if !sourceType.IsValid() {
			return "", fmt.Errorf("unknown source type %q", sourceType)
		}

		key := string(sourceType) + "|" + name
		if rid, ok := sources[key]; ok {
			return rid, nil
		}
		source, err := r.RegisterSource(cmd.Context(), sourceType, name, "", "", nil)
		if err != nil {
			return "", err
		}
		sources[key] = source.RID()
		return source.RID(), nil
	}

	var items []registry.BatchItem
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line ingestLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		sourceRID, err := resolve(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		metadata, err := catalog.MetadataFromAny(line.Metadata)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		items = append(items, registry.BatchItem{
			Track: registry.TrackRequest{
				SourceRID:   sourceRID,
				URL:         line.URL,
				Title:       line.Title,
				Content:     line.Content,
				OriginalID:  line.OriginalID,
				ContentType: line.ContentType,
				Metadata:    metadata,
				Tier:        catalog.RelevanceTier(line.Tier),
			},
			AgentID: ingestAgentID,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return items, nil
}
