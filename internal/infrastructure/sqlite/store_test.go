package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/testutil"
)

func TestWithTxCommitsOnNil(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx catalog.Store) error {
		testutil.SaveSource(t, tx, catalog.SourceGitHub, "demo")
		return nil
	})
	require.NoError(t, err)

	all, err := store.Sources().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx catalog.Store) error {
		testutil.SaveSource(t, tx, catalog.SourceGitHub, "demo")
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := store.Sources().List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestWithSavepointIsolatesFailedItem(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()
	boom := errors.New("bad item")

	err := store.WithTx(ctx, func(tx catalog.Store) error {
		source := testutil.SaveSource(t, tx, catalog.SourceGitHub, "demo")

		require.NoError(t, tx.WithSavepoint(ctx, "item_0", func() error {
			testutil.InsertContent(t, tx, source.RID(), "doc-1")
			return nil
		}))

		// The failed savepoint rolls back its insert only.
		failed := tx.WithSavepoint(ctx, "item_1", func() error {
			testutil.InsertContent(t, tx, source.RID(), "doc-2")
			return boom
		})
		require.ErrorIs(t, failed, boom)

		require.NoError(t, tx.WithSavepoint(ctx, "item_2", func() error {
			testutil.InsertContent(t, tx, source.RID(), "doc-3")
			return nil
		}))
		return nil
	})
	require.NoError(t, err)

	all, err := store.Content().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "doc-1", all[0].OriginalID())
	require.Equal(t, "doc-3", all[1].OriginalID())
}
