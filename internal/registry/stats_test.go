package registry_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/registry"
)

func TestComputeStatisticsCountsOperationsNotCoverage(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	ctx := context.Background()

	source, err := r.RegisterSource(ctx, catalog.SourceGitHub, "demo", "", "", nil)
	require.NoError(t, err)
	item, err := r.TrackContent(ctx, registry.TrackRequest{
		SourceRID:  source.RID(),
		Content:    "body",
		OriginalID: "doc-1",
	})
	require.NoError(t, err)

	// Three agents each process the one item: processed counts operations,
	// so it reads 3 while only 1 distinct item exists.
	for _, agent := range []string{"agentA", "agentB", "agentC"} {
		_, err := r.MarkAsProcessed(ctx, item.RID(), agent, "", 1, 0)
		require.NoError(t, err)
	}

	stats, err := r.ComputeStatistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Content.Total)
	require.Equal(t, 3, stats.Content.Processed)
	require.Equal(t, 0, stats.Content.Pending)
	require.Equal(t, 0, stats.Content.Failed)
	require.Len(t, stats.Agents, 3)
	require.Equal(t, "active", stats.Agents["agentB"].Status)
}

func TestComputeStatisticsPendingPerAgent(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	ctx := context.Background()

	source, err := r.RegisterSource(ctx, catalog.SourceGitHub, "demo", "", "", nil)
	require.NoError(t, err)
	var items []*catalog.ContentItem
	for _, id := range []string{"doc-1", "doc-2", "doc-3"} {
		item, err := r.TrackContent(ctx, registry.TrackRequest{
			SourceRID:  source.RID(),
			Content:    "body " + id,
			OriginalID: id,
		})
		require.NoError(t, err)
		items = append(items, item)
	}

	_, err = r.MarkAsProcessed(ctx, items[0].RID(), "agentA", "", 1, 0)
	require.NoError(t, err)
	_, err = r.MarkAsProcessed(ctx, items[1].RID(), "agentA", "", 1, 0)
	require.NoError(t, err)

	stats, err := r.ComputeStatistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Content.Total)
	require.Equal(t, 1, stats.Content.Pending)
	require.Equal(t, 2, stats.Agents["agentA"].Processed)
	require.Equal(t, 1, stats.Agents["agentA"].Pending)
}

func TestComputeStatisticsSourcesByType(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	ctx := context.Background()

	_, err := r.RegisterSource(ctx, catalog.SourceGitHub, "repo-one", "", "", nil)
	require.NoError(t, err)
	_, err = r.RegisterSource(ctx, catalog.SourceGitHub, "repo-two", "", "", nil)
	require.NoError(t, err)
	_, err = r.RegisterSource(ctx, catalog.SourcePodcast, "planetary", "", "", nil)
	require.NoError(t, err)

	stats, err := r.ComputeStatistics(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"github": 2, "podcast": 1}, stats.Sources.ByType)
}

func TestIsAnomalousAgentEntry(t *testing.T) {
	tests := []struct {
		name      string
		agentID   string
		processed int
		pending   int
		want      bool
	}{
		{"mangled hash with implausible counts", "a3f9-b2", 0, registry.ImplausiblePendingCount + 1, true},
		{"mangled hash but plausible pending", "a3f9-b2", 0, 10, false},
		{"mangled hash but has processed", "a3f9-b2", 5, registry.ImplausiblePendingCount + 1, false},
		{"normal id with implausible counts", "indexer", 0, registry.ImplausiblePendingCount + 1, false},
		{"dashed but non-hex id", "my-agent", 0, registry.ImplausiblePendingCount + 1, false},
		{"long dashed hex id", "aaaa-bbbb-cccc-dddd", 0, registry.ImplausiblePendingCount + 1, false},
		{"no dash", "abcdef", 0, registry.ImplausiblePendingCount + 1, false},
		{"empty id", "", 0, registry.ImplausiblePendingCount + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := registry.IsAnomalousAgentEntry(tt.agentID, tt.processed, tt.pending)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateReportStableOrder(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	ctx := context.Background()

	source, err := r.RegisterSource(ctx, catalog.SourceWebsite, "blog", "", "", nil)
	require.NoError(t, err)
	item, err := r.TrackContent(ctx, registry.TrackRequest{
		SourceRID:  source.RID(),
		Content:    "body",
		OriginalID: "post-1",
	})
	require.NoError(t, err)
	_, err = r.MarkAsProcessed(ctx, item.RID(), "agentB", "", 1, 0)
	require.NoError(t, err)
	_, err = r.MarkAsProcessed(ctx, item.RID(), "agentA", "", 1, 0)
	require.NoError(t, err)

	first, err := r.GenerateReport(ctx)
	require.NoError(t, err)
	second, err := r.GenerateReport(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Agents render sorted by id.
	require.Less(t, strings.Index(first, "agentA"), strings.Index(first, "agentB"))
	require.Contains(t, first, "total:     1")
	require.Contains(t, first, "website: 1")
}
