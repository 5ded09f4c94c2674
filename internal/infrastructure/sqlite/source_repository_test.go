package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/testutil"
)

func TestSourceSaveAndFind(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	source, err := catalog.NewSource(catalog.SourceGitHub, "Regen Registry", "monorepo", "https://github.com/regen/registry", catalog.Metadata{
		"stars": catalog.IntValue(42),
	})
	require.NoError(t, err)
	require.NoError(t, store.Sources().Save(ctx, source))

	found, err := store.Sources().FindByRID(ctx, source.RID())
	require.NoError(t, err)
	require.Equal(t, source.RID(), found.RID())
	require.Equal(t, catalog.SourceGitHub, found.Type())
	require.Equal(t, "Regen Registry", found.Name())

	stars, ok := found.Metadata()["stars"].Int()
	require.True(t, ok)
	require.Equal(t, int64(42), stars)
}

func TestSourceSaveIsIdempotentByIdentity(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	first, err := catalog.NewSource(catalog.SourceGitHub, "demo", "first description", "", nil)
	require.NoError(t, err)
	require.NoError(t, store.Sources().Save(ctx, first))

	// Same (type, name) derives the same RID; the second save must not
	// overwrite the stored record.
	second, err := catalog.NewSource(catalog.SourceGitHub, "demo", "different description", "", nil)
	require.NoError(t, err)
	require.Equal(t, first.RID(), second.RID())
	require.NoError(t, store.Sources().Save(ctx, second))

	stored, err := store.Sources().FindByRID(ctx, first.RID())
	require.NoError(t, err)
	require.Equal(t, "first description", stored.Description())

	all, err := store.Sources().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSourceFindByRIDNotFound(t *testing.T) {
	store := testutil.NewTestStore(t)

	_, err := store.Sources().FindByRID(context.Background(), "orn:koi.source.github:missing")
	var notFound *catalog.SourceNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSourceFindByType(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.SaveSource(t, store, catalog.SourceWebsite, "blog")
	testutil.SaveSource(t, store, catalog.SourcePodcast, "planetary")

	found, err := store.Sources().FindByType(ctx, catalog.SourcePodcast)
	require.NoError(t, err)
	require.Equal(t, catalog.SourcePodcast, found.Type())

	_, err = store.Sources().FindByType(ctx, catalog.SourceNotion)
	var notFound *catalog.SourceNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSourceCountByType(t *testing.T) {
	store := testutil.NewTestStore(t)

	testutil.SaveSource(t, store, catalog.SourceGitHub, "repo-one")
	testutil.SaveSource(t, store, catalog.SourceGitHub, "repo-two")
	testutil.SaveSource(t, store, catalog.SourceMedium, "essays")

	counts, err := store.Sources().CountByType(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[catalog.SourceType]int{
		catalog.SourceGitHub: 2,
		catalog.SourceMedium: 1,
	}, counts)
}
