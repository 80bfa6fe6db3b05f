package repository

import (
	"context"
	"testing"

	"github.com/pantrykit/scanbatch/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteStateRepo {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewSQLiteStateRepo(database)
}

func TestStateRepo_GetMissingKey(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get(context.Background(), "scan_queue")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStateRepo_SetThenGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "scan_queue", `[{"code":"123"}]`))

	got, err := repo.Get(ctx, "scan_queue")
	require.NoError(t, err)
	assert.Equal(t, `[{"code":"123"}]`, got)
}

func TestStateRepo_SetOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "scan_queue", "first"))
	require.NoError(t, repo.Set(ctx, "scan_queue", "second"))

	got, err := repo.Get(ctx, "scan_queue")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestStateRepo_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "scan_queue", "value"))
	require.NoError(t, repo.Delete(ctx, "scan_queue"))

	_, err := repo.Get(ctx, "scan_queue")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, repo.Delete(ctx, "scan_queue"))
}
