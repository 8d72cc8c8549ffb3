package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"projectpulse/internal/config"
	"projectpulse/internal/sheet"
	"projectpulse/pkg/contracts"
	"projectpulse/pkg/contracts/domain"
)

// ErrSnapshotNotFound is returned by Load when nothing has been saved yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the persisted form of one successful fetch.
type Snapshot struct {
	Format string             `json:"format"`
	Info   domain.RefreshInfo `json:"info"`
	Rows   [][]string         `json:"rows"`
}

// NewSnapshot captures table and the refresh that produced it.
func NewSnapshot(table *sheet.Table, info domain.RefreshInfo) *Snapshot {
	return &Snapshot{
		Format: contracts.DataFormatVersion,
		Info:   info,
		Rows:   table.Matrix(),
	}
}

// Table rebuilds the sheet table.
func (s *Snapshot) Table() (*sheet.Table, error) {
	if s.Format != "" && s.Format != contracts.DataFormatVersion {
		return nil, fmt.Errorf("unsupported snapshot format %q", s.Format)
	}
	return sheet.NewTable(s.Rows)
}

// SnapshotStore saves and loads the latest snapshot.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
	Name() string
	Close() error
}

// New builds the store selected by cfg.Store. Redis connectivity is checked
// up front so a bad address fails at startup.
func New(ctx context.Context, cfg config.SnapshotConfig, paths *config.Paths, logger *slog.Logger) (SnapshotStore, error) {
	switch cfg.Store {
	case config.SnapshotStoreFile:
		return NewFileStore(paths.SnapshotFile, logger), nil
	case config.SnapshotStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		key := cfg.RedisKey
		if key == "" {
			key = config.DefaultRedisKey
		}
		return NewRedisStore(client, key, cfg.TTL, logger), nil
	case config.SnapshotStoreNone, "":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown snapshot store %q", cfg.Store)
	}
}

// NopStore discards snapshots.
type NopStore struct{}

func (NopStore) Save(context.Context, *Snapshot) error   { return nil }
func (NopStore) Load(context.Context) (*Snapshot, error) { return nil, ErrSnapshotNotFound }
func (NopStore) Name() string                            { return config.SnapshotStoreNone }
func (NopStore) Close() error                            { return nil }
