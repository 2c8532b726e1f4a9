package state

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niriglue/internal/storage"
)

func openTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), db
}

func TestGetMissingReturnsEmptyObject(t *testing.T) {
	s, _ := openTestStore(t)

	raw, err := s.Get(context.Background(), "wallpaper")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestPutAndGet(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "wallpaper", []byte(`{"assignments":{"1":"a.png"}}`)))

	raw, err := s.Get(ctx, "wallpaper")
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignments":{"1":"a.png"}}`, string(raw))
}

func TestShallowMergeReplacesTopLevelKeys(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.ShallowMerge(ctx, "wallpaper", []byte(`{"a":1,"b":{"x":1}}`))
	require.NoError(t, err)

	merged, err := s.ShallowMerge(ctx, "wallpaper", []byte(`{"b":{"y":2}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":{"y":2}}`, string(merged))
}

func TestPutRejectsInvalidJSON(t *testing.T) {
	s, _ := openTestStore(t)
	assert.Error(t, s.Put(context.Background(), "wallpaper", []byte(`{broken`)))
}

func TestEmptyHandlerNameRejected(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Get(context.Background(), "")
	assert.Error(t, err)
}

func TestStatePersistsAcrossStoreInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	dbPath := filepath.Join(dir, "state.db")

	db1, err := storage.OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, NewStore(db1).Put(ctx, "tile", []byte(`{"n":3}`)))
	require.NoError(t, db1.Close())

	db2, err := storage.OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	defer db2.Close()

	raw, err := NewStore(db2).Get(ctx, "tile")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":3}`, string(raw))
}
