package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectpulse/internal/config"
	apperrors "projectpulse/internal/errors"
	"projectpulse/internal/sheet"
	"projectpulse/internal/shared/testutil"
	"projectpulse/pkg/contracts/domain"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	table, err := sheet.NewTable(testutil.ProjectSheetRows())
	require.NoError(t, err)
	return NewSnapshot(table, domain.RefreshInfo{
		ID:          "refresh-1",
		Source:      "sheets",
		StartedAt:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 3, 10, 12, 0, 2, 0, time.UTC),
		RowCount:    table.Len(),
	})
}

func assertRoundTrip(t *testing.T, s SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	want := testSnapshot(t)
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Info.ID, got.Info.ID)
	assert.True(t, want.Info.CompletedAt.Equal(got.Info.CompletedAt))

	table, err := got.Table()
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "Luis Pérez", table.Rows[1].ByHeader("PROJECT"))
}

func TestFileStore(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "data", "snapshot.json")
	s := NewFileStore(path, logger)

	assert.Equal(t, config.SnapshotStoreFile, s.Name())
	assertRoundTrip(t, s)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path, nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger, _ := testutil.NewTestLogger(t)

	s := NewRedisStore(client, "test:snapshot", time.Hour, logger)
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, config.SnapshotStoreRedis, s.Name())
	assertRoundTrip(t, s)
	assert.Equal(t, time.Hour, mr.TTL("test:snapshot"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	s := NewRedisStore(client, "k", 0, nil)
	t.Cleanup(func() { _ = s.Close() })

	mr.Close()

	err := s.Save(context.Background(), testSnapshot(t))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	paths := &config.Paths{SnapshotFile: filepath.Join(t.TempDir(), "snap.json")}

	s, err := New(ctx, config.SnapshotConfig{Store: config.SnapshotStoreNone}, paths, nil)
	require.NoError(t, err)
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	s, err = New(ctx, config.SnapshotConfig{Store: config.SnapshotStoreFile}, paths, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	mr := miniredis.RunT(t)
	s, err = New(ctx, config.SnapshotConfig{Store: config.SnapshotStoreRedis, RedisAddr: mr.Addr()}, paths, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SnapshotStoreRedis, s.Name())
	require.NoError(t, s.Close())

	_, err = New(ctx, config.SnapshotConfig{Store: "s3"}, paths, nil)
	assert.Error(t, err)
}

func TestSnapshot_UnsupportedFormat(t *testing.T) {
	snap := testSnapshot(t)
	snap.Format = "v0"
	_, err := snap.Table()
	assert.Error(t, err)
}
