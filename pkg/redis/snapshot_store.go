package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/staterouter/pkg/snapshot"
)

const defaultSnapshotPrefix = "staterouter:snapshot:"

// SnapshotStore keeps one JSON-encoded snapshot per router under
// prefix+routerID. Numeric params come back as float64.
type SnapshotStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSnapshotStore wraps client using the snapshot settings from cfg.
func NewSnapshotStore(client redis.UniversalClient, cfg Config) *SnapshotStore {
	prefix := cfg.SnapshotPrefix
	if prefix == "" {
		prefix = defaultSnapshotPrefix
	}
	return &SnapshotStore{client: client, prefix: prefix, ttl: cfg.SnapshotTTL}
}

func (s *SnapshotStore) Save(ctx context.Context, snap snapshot.Snapshot) error {
	if snap.RouterID == "" {
		return snapshot.ErrEmptyRouterID
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Join(snapshot.ErrSaveFailed, ErrSnapshotEncoding, err)
	}
	if err := s.client.Set(ctx, s.prefix+snap.RouterID, data, s.ttl).Err(); err != nil {
		return errors.Join(snapshot.ErrSaveFailed, err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, routerID string) (snapshot.Snapshot, error) {
	data, err := s.client.Get(ctx, s.prefix+routerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return snapshot.Snapshot{}, snapshot.ErrNotFound
	}
	if err != nil {
		return snapshot.Snapshot{}, errors.Join(snapshot.ErrLoadFailed, err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot.Snapshot{}, errors.Join(snapshot.ErrLoadFailed, ErrSnapshotEncoding, err)
	}
	return snap, nil
}

// Delete drops the snapshot stored for routerID.
func (s *SnapshotStore) Delete(ctx context.Context, routerID string) error {
	return s.client.Del(ctx, s.prefix+routerID).Err()
}
