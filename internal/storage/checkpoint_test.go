package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointManager_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "vedlikehold.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	withTx(t, store, func(tx service.Transaction) {
		require.NoError(t, tx.AddSnapshotMember(ctx, model.SnapshotMember{Date: day, Category: "C", Page: "Before"}))
	})

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)

	info, err := manager.Create(ctx, "pre-backfill", "before backfill", false)
	require.NoError(t, err)
	assert.Equal(t, "pre-backfill", info.ID)
	assert.Equal(t, 1, info.RowCounts["catmembers"])
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.FileExists(t, filepath.Join(dir, "checkpoints", "pre-backfill.db"))

	_, err = manager.Create(ctx, "pre-backfill", "", false)
	assert.ErrorIs(t, err, ErrCheckpointExists)

	_, err = manager.Create(ctx, "../escape", "", false)
	assert.ErrorIs(t, err, ErrInvalidCheckpointID)

	auto, err := manager.Create(ctx, "", "", true)
	require.NoError(t, err)
	assert.True(t, auto.IsAuto)

	list, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	withTx(t, store, func(tx service.Transaction) {
		require.NoError(t, tx.AddSnapshotMember(ctx, model.SnapshotMember{Date: day, Category: "C", Page: "After"}))
	})

	require.NoError(t, manager.Restore(ctx, "pre-backfill"))

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	pages, err := reopened.GetSnapshotMembers(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"Before"}, pages)

	manager, err = reopened.NewCheckpointManager()
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "pre-backfill"))
	_, err = os.Stat(filepath.Join(dir, "checkpoints", "pre-backfill.db"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, manager.Delete(ctx, "pre-backfill"), ErrCheckpointNotFound)
	assert.ErrorIs(t, manager.Restore(ctx, "missing"), ErrCheckpointNotFound)
}

func TestCheckpointManager_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.NewCheckpointManager()
	assert.ErrorIs(t, err, ErrInMemoryDatabase)
}
