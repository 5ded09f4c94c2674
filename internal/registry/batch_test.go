package registry_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/registry"
)

func TestIngestBatchIsolatesFailures(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	ctx := context.Background()

	source, err := r.RegisterSource(ctx, catalog.SourceGitHub, "demo", "", "", nil)
	require.NoError(t, err)

	items := make([]registry.BatchItem, 5)
	for i := range items {
		items[i] = registry.BatchItem{Track: registry.TrackRequest{
			SourceRID:  source.RID(),
			Content:    fmt.Sprintf("body %d", i),
			OriginalID: fmt.Sprintf("doc-%d", i),
		}}
	}
	// Items 1 and 3 are invalid: no original id.
	items[1].Track.OriginalID = ""
	items[3].Track.OriginalID = ""

	summary, err := r.IngestBatch(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 5, summary.Attempted)
	require.Equal(t, 3, summary.Succeeded)
	require.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Failures, 2)
	require.NotEmpty(t, summary.RunID)

	count, err := r.Store().Content().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestIngestBatchRecordsProcessingForSuccesses(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	ctx := context.Background()

	source, err := r.RegisterSource(ctx, catalog.SourceGitHub, "demo", "", "", nil)
	require.NoError(t, err)

	items := []registry.BatchItem{
		{
			Track:         registry.TrackRequest{SourceRID: source.RID(), Content: "body 0", OriginalID: "doc-0"},
			AgentID:       "agentA",
			FragmentCount: 2,
		},
		{
			// Fails tracking, so no processing record either.
			Track:   registry.TrackRequest{SourceRID: source.RID(), Content: "body 1"},
			AgentID: "agentA",
		},
		{
			Track: registry.TrackRequest{SourceRID: source.RID(), Content: "body 2", OriginalID: "doc-2"},
		},
	}

	summary, err := r.IngestBatch(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)

	records, err := r.Store().Processing().List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "agentA", records[0].AgentID())
	require.Equal(t, 2, records[0].FragmentCount())
}

func TestIngestBatchChunksByBatchSize(t *testing.T) {
	r := newTestRegistry(t, registry.Options{BatchSize: 2})
	ctx := context.Background()

	source, err := r.RegisterSource(ctx, catalog.SourceGitHub, "demo", "", "", nil)
	require.NoError(t, err)

	items := make([]registry.BatchItem, 7)
	for i := range items {
		items[i] = registry.BatchItem{Track: registry.TrackRequest{
			SourceRID:  source.RID(),
			Content:    fmt.Sprintf("body %d", i),
			OriginalID: fmt.Sprintf("doc-%d", i),
		}}
	}

	summary, err := r.IngestBatch(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 7, summary.Succeeded)

	count, err := r.Store().Content().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, count)
}

func TestIngestBatchDedupsWithinRun(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	ctx := context.Background()

	source, err := r.RegisterSource(ctx, catalog.SourceGitHub, "demo", "", "", nil)
	require.NoError(t, err)

	items := []registry.BatchItem{
		{Track: registry.TrackRequest{SourceRID: source.RID(), Content: "same body", OriginalID: "doc-1"}},
		{Track: registry.TrackRequest{SourceRID: source.RID(), Content: "same body", OriginalID: "doc-1"}},
	}

	summary, err := r.IngestBatch(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)

	count, err := r.Store().Content().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
