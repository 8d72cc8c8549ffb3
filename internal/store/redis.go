package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"projectpulse/internal/config"
	apperrors "projectpulse/internal/errors"
)

// RedisStore keeps the snapshot under a single key, optionally with a TTL.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore wraps client. A zero ttl keeps the key forever.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: client,
		key:    key,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "redis_snapshot_store")),
	}
}

// Name identifies the store.
func (s *RedisStore) Name() string { return config.SnapshotStoreRedis }

// Save overwrites the key.
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return apperrors.NewStorageError("failed to encode snapshot", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return apperrors.NewStorageError("failed to store snapshot in redis", err)
	}
	s.logger.DebugContext(ctx, "snapshot saved",
		slog.String("key", s.key),
		slog.Int("bytes", len(data)))
	return nil
}

// Load reads the key.
func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read snapshot from redis", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apperrors.NewParsingError("corrupt snapshot in redis", err)
	}
	return &snap, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
