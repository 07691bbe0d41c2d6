package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"tribewatch-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "services/watcher/store",
	})
	defer cleanup()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "cursor.json")
	s := NewFileStore(path)

	// fresh deployment: nothing persisted yet
	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	err = s.Save(ctx, "2024-12-15T14:30:00Z")
	require.NoError(t, err)

	value, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2024-12-15T14:30:00Z", value)

	// no temp file is left behind after the rename
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))

	err = s.Save(ctx, "2024-12-15T15:00:00Z")
	require.NoError(t, err)
	value, _, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "2024-12-15T15:00:00Z", value)

	err = s.Clear(ctx)
	require.NoError(t, err)
	_, ok, err = s.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// clearing an already-absent cursor is fine
	require.NoError(t, s.Clear(ctx))
}

func TestFileStoreCorrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cursor.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := NewFileStore(path).Load(ctx)
	require.Error(t, err)
}

func TestSqliteStore(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/watcher/store",
		DbSchema: Schema,
	})
	defer cleanup()

	ctx := context.Background()
	s := NewSqliteStore(res.DB)

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	err = s.Save(ctx, "abc123")
	require.NoError(t, err)

	value, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc123", value)

	// overwrites keep a single row
	err = s.Save(ctx, "def456")
	require.NoError(t, err)
	value, _, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "def456", value)

	err = s.Clear(ctx)
	require.NoError(t, err)
	_, ok, err = s.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
