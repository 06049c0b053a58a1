package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "data", "taskhub.db"), MaxOpenConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_RunEmbedded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.Run(ctx, Migrations()))
	require.NoError(t, m.Run(ctx, Migrations()), "second run is a no-op")

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true, 4: true}, applied)

	for _, table := range []string{"case_records", "task_overlays", "status_history", "notifications"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
	}
	assert.NoError(t, db.Health(ctx))
}

func TestMigrator_RejectsBadFiles(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db, zap.NewNop())

	bad := fstest.MapFS{"schema.sql": {Data: []byte("SELECT 1;")}}
	assert.Error(t, m.Run(ctx, bad))

	dup := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"001_b.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
	}
	assert.ErrorContains(t, m.Run(ctx, dup), "duplicate migration version 1")

	broken := fstest.MapFS{"007_broken.sql": {Data: []byte("CREATE TABLE (;")}}
	assert.Error(t, m.Run(ctx, broken))
	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.False(t, applied[7], "failed migration is rolled back")
}
