package registry_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/registry"
)

func seedCatalog(t *testing.T, r *registry.Registry) (*catalog.Source, []*catalog.ContentItem) {
	t.Helper()
	ctx := context.Background()

	source, err := r.RegisterSource(ctx, catalog.SourceGitHub, "demo", "demo repo", "https://github.com/demo", nil)
	require.NoError(t, err)

	var items []*catalog.ContentItem
	for _, id := range []string{"doc-1", "doc-2"} {
		item, err := r.TrackContent(ctx, registry.TrackRequest{
			SourceRID:  source.RID(),
			Title:      "Title " + id,
			Content:    "body " + id,
			OriginalID: id,
		})
		require.NoError(t, err)
		items = append(items, item)
	}

	_, err = r.MarkAsProcessed(ctx, items[0].RID(), "agentA", "", 4, 0)
	require.NoError(t, err)
	return source, items
}

func graphIDs(manifest *registry.Manifest) map[string]bool {
	ids := map[string]bool{}
	for _, node := range manifest.Graph {
		switch n := node.(type) {
		case registry.SourceNode:
			ids[n.ID] = true
		case registry.ContentNode:
			ids[n.ID] = true
		case registry.AgentNode:
			ids[n.ID] = true
		}
	}
	return ids
}

func TestBuildGraphNodesAndEdges(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	source, items := seedCatalog(t, r)

	manifest, err := r.BuildGraph(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://koi.network/vocab#", manifest.Context["koi"])
	require.Equal(t, "http://www.w3.org/ns/prov#", manifest.Context["prov"])
	// One source, two items, one agent.
	require.Len(t, manifest.Graph, 4)

	var sourceNode *registry.SourceNode
	var processedNode *registry.ContentNode
	for _, node := range manifest.Graph {
		switch n := node.(type) {
		case registry.SourceNode:
			sourceNode = &n
		case registry.ContentNode:
			if n.ID == items[0].RID().String() {
				processedNode = &n
			}
		}
	}

	require.NotNil(t, sourceNode)
	require.Equal(t, source.RID().String(), sourceNode.ID)
	require.ElementsMatch(t, []string{items[0].RID().String(), items[1].RID().String()}, sourceNode.HasPart)

	require.NotNil(t, processedNode)
	require.Equal(t, source.RID().String(), processedNode.PartOf)
	require.Equal(t, "relevant", processedNode.Tier)
	require.Len(t, processedNode.WasProcessedBy, 1)
	require.Equal(t, "orn:koi.agent:agentA", processedNode.WasProcessedBy[0].Agent)
	require.Equal(t, 4, processedNode.WasProcessedBy[0].FragmentCount)
	require.NotEmpty(t, processedNode.WasProcessedBy[0].ProcessedAt)
}

func TestProjectionMatchesGraphRIDSet(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	seedCatalog(t, r)
	ctx := context.Background()

	manifest, err := r.BuildGraph(ctx)
	require.NoError(t, err)
	projection, err := r.BuildQueryProjection(ctx)
	require.NoError(t, err)

	ids := graphIDs(manifest)
	require.Len(t, projection, len(ids))
	for rid := range projection {
		require.True(t, ids[rid], "projection RID %s missing from graph", rid)
	}
}

func TestProjectionDenormalizesProcessing(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	_, items := seedCatalog(t, r)

	projection, err := r.BuildQueryProjection(context.Background())
	require.NoError(t, err)

	record, ok := projection[items[0].RID().String()]
	require.True(t, ok)
	require.Equal(t, "content", record.Kind)
	require.Equal(t, []string{"agentA"}, record.ProcessedBy)
	require.Equal(t, items[0].Fingerprint(), record.Fingerprint)

	untouched := projection[items[1].RID().String()]
	require.Empty(t, untouched.ProcessedBy)
}

func TestExportAllWritesBothArtifacts(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	seedCatalog(t, r)

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "out", "manifest.jsonld")
	projectionPath := filepath.Join(dir, "out", "projection.json")

	require.NoError(t, r.ExportAll(context.Background(), manifestPath, projectionPath))

	var manifest map[string]json.RawMessage
	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &manifest))
	require.Contains(t, manifest, "@context")
	require.Contains(t, manifest, "@graph")

	var projection map[string]registry.ProjectionRecord
	data, err = os.ReadFile(projectionPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &projection))
	require.Len(t, projection, 4)
}

func TestExportToPathReportsFailures(t *testing.T) {
	r := newTestRegistry(t, registry.Options{})
	seedCatalog(t, r)

	// A directory at the target path makes the final rename fail.
	dir := t.TempDir()
	target := filepath.Join(dir, "manifest.jsonld")
	require.NoError(t, os.Mkdir(target, 0700))

	err := r.ExportToPath(context.Background(), target)
	var exportErr *catalog.ExportError
	require.ErrorAs(t, err, &exportErr)
	require.Equal(t, target, exportErr.Path)
}
