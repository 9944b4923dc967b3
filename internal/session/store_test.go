package session

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func snapshotAt(id string, updated time.Time, msgs ...string) Snapshot {
	snap := Snapshot{
		SessionID:  id,
		CreatedAt:  updated.Add(-time.Hour),
		UpdatedAt:  updated,
		TurnCount:  len(msgs),
		TotalUsage: models.TokenUsage{TotalTokens: 42},
	}
	for _, m := range msgs {
		snap.Messages = append(snap.Messages, models.Message{Role: models.RoleUser, Content: m, TokenCount: len(m)})
	}
	return snap
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	pruned := now.Add(-time.Minute)
	snap := snapshotAt("s1", now, "hello", "world")
	snap.Messages[0].PrunedAt = &pruned
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.True(t, now.Equal(got.UpdatedAt))
	assert.Equal(t, 2, got.TurnCount)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "world", got.Messages[1].Content)
	require.NotNil(t, got.Messages[0].PrunedAt)
	assert.True(t, pruned.Equal(*got.Messages[0].PrunedAt))
	assert.Equal(t, 42, got.TotalUsage.TotalTokens)
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, snapshotAt("s1", now, "a")))
	require.NoError(t, store.Save(ctx, snapshotAt("s1", now.Add(time.Minute), "a", "b", "c")))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 3)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].MessageCount)
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListOrderedByUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, snapshotAt("old", base)))
	require.NoError(t, store.Save(ctx, snapshotAt("newest", base.Add(2*time.Hour+500*time.Millisecond))))
	require.NoError(t, store.Save(ctx, snapshotAt("middle", base.Add(2*time.Hour))))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "newest", list[0].SessionID)
	assert.Equal(t, "middle", list[1].SessionID)
	assert.Equal(t, "old", list[2].SessionID)
	assert.True(t, base.Equal(list[2].UpdatedAt))
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, snapshotAt("s1", time.Now())))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "s1"), ErrNotFound)
}

func TestOpenSQLite_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "sessions.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Save(context.Background(), snapshotAt("s1", time.Now(), "x")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}
