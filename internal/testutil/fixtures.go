package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/domain/catalog"
)

// SaveSource registers a source of the given type and returns the stored
// entity.
func SaveSource(t *testing.T, store catalog.Store, sourceType catalog.SourceType, name string) *catalog.Source {
	t.Helper()
	source, err := catalog.NewSource(sourceType, name, "", "", nil)
	require.NoError(t, err)
	require.NoError(t, store.Sources().Save(context.Background(), source))
	stored, err := store.Sources().FindByRID(context.Background(), source.RID())
	require.NoError(t, err)
	return stored
}

// InsertContent tracks one content item against the source with generated
// body text, distinct per originalID.
func InsertContent(t *testing.T, store catalog.Store, sourceRID catalog.RID, originalID string) *catalog.ContentItem {
	t.Helper()
	item, err := catalog.NewContentItem(catalog.NewContentItemParams{
		SourceRID:  sourceRID,
		Title:      "Fixture " + originalID,
		Content:    fmt.Sprintf("fixture body for %s", originalID),
		OriginalID: originalID,
	})
	require.NoError(t, err)
	stored, err := store.Content().Insert(context.Background(), item)
	require.NoError(t, err)
	return stored
}

// RecordProcessing records that agentID processed the item with the given
// fragment count.
func RecordProcessing(t *testing.T, store catalog.Store, contentRID catalog.RID, agentID string, fragments int) *catalog.ProcessingRecord {
	t.Helper()
	record, err := catalog.NewProcessingRecord(contentRID, agentID, "doc-"+agentID, fragments, 0)
	require.NoError(t, err)
	require.NoError(t, store.Processing().Upsert(context.Background(), record))
	return record
}
