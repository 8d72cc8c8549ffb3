package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"projectpulse/internal/config"
	apperrors "projectpulse/internal/errors"
)

// FileStore keeps the snapshot as a JSON file.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   path,
		logger: logger.With(slog.String("component", "file_snapshot_store")),
	}
}

// Name identifies the store.
func (s *FileStore) Name() string { return config.SnapshotStoreFile }

// Save writes the snapshot through a temporary file and a rename so a
// crash never leaves a truncated snapshot behind.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return apperrors.NewStorageError("failed to encode snapshot", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create snapshot directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*.json")
	if err != nil {
		return apperrors.NewStorageError("failed to create temp snapshot", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to write snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("failed to close snapshot", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return apperrors.NewStorageError("failed to replace snapshot", err)
	}

	s.logger.DebugContext(ctx, "snapshot saved",
		slog.String("path", s.path),
		slog.Int("bytes", len(data)))
	return nil
}

// Load reads the snapshot file.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read snapshot", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("corrupt snapshot %s", s.path), err)
	}
	return &snap, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
