package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/registry"
	"github.com/kberg/koireg/internal/testutil"
)

func newIngestTestContext(t *testing.T) (*cobra.Command, *registry.Registry) {
	t.Helper()
	r := registry.New(testutil.NewTestStore(t), registry.Options{})
	t.Cleanup(func() {
		ingestSourceName = ""
		ingestSourceType = ""
		ingestAgentID = ""
	})
	c := &cobra.Command{}
	c.SetContext(context.Background())
	return c, r
}

func TestReadIngestItemsClassifiesAndRegisters(t *testing.T) {
	c, r := newIngestTestContext(t)

	input := strings.Join([]string{
		`{"source_name":"demo","url":"https://github.com/demo/a.md","content":"body a","original_id":"a"}`,
		``,
		`{"source_name":"demo","url":"https://github.com/demo/b.md","content":"body b","original_id":"b"}`,
	}, "\n")

	items, err := readIngestItems(c, r, strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Both lines resolve to the one on-demand registered github source.
	require.Equal(t, items[0].Track.SourceRID, items[1].Track.SourceRID)
	require.Contains(t, items[0].Track.SourceRID.String(), "koi.source.github")

	sources, err := r.ListSources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 1)
}

func TestReadIngestItemsFlagFallbacks(t *testing.T) {
	c, r := newIngestTestContext(t)
	ingestSourceName = "fallback"
	ingestSourceType = "website"
	ingestAgentID = "indexer"

	items, err := readIngestItems(c, r, strings.NewReader(
		`{"content":"body","original_id":"doc-1"}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Contains(t, items[0].Track.SourceRID.String(), "koi.source.website:fallback")
	require.Equal(t, "indexer", items[0].AgentID)
}

func TestReadIngestItemsRejectsMissingSource(t *testing.T) {
	c, r := newIngestTestContext(t)

	_, err := readIngestItems(c, r, strings.NewReader(
		`{"content":"body","original_id":"doc-1"}`))
	require.ErrorContains(t, err, "no source name")
}

func TestReadIngestItemsRejectsBadJSON(t *testing.T) {
	c, r := newIngestTestContext(t)

	_, err := readIngestItems(c, r, strings.NewReader(`{"content":`))
	require.ErrorContains(t, err, "line 1")
}
