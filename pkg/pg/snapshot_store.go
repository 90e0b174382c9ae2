package pg

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/staterouter/pkg/snapshot"
)

const (
	upsertSnapshot = `
INSERT INTO router_snapshots (router_id, state, params, transition_id, committed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (router_id) DO UPDATE SET
    state = EXCLUDED.state,
    params = EXCLUDED.params,
    transition_id = EXCLUDED.transition_id,
    committed_at = EXCLUDED.committed_at,
    updated_at = now()
WHERE router_snapshots.committed_at <= EXCLUDED.committed_at`

	selectSnapshot = `
SELECT router_id, state, params, transition_id, committed_at
FROM router_snapshots
WHERE router_id = $1`
)

// SnapshotStore keeps router snapshots in the router_snapshots table created
// by Migrate. A save older than the stored row is ignored, so out-of-order
// writers cannot move a router backwards.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

func (s *SnapshotStore) Save(ctx context.Context, snap snapshot.Snapshot) error {
	if snap.RouterID == "" {
		return snapshot.ErrEmptyRouterID
	}
	p := snap.Params
	if p == nil {
		p = map[string]any{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return errors.Join(snapshot.ErrSaveFailed, err)
	}
	if _, err := s.pool.Exec(ctx, upsertSnapshot,
		snap.RouterID, snap.State, raw, snap.TransitionID, snap.CommittedAt,
	); err != nil {
		return errors.Join(snapshot.ErrSaveFailed, err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, routerID string) (snapshot.Snapshot, error) {
	var (
		snap snapshot.Snapshot
		raw  []byte
	)
	err := s.pool.QueryRow(ctx, selectSnapshot, routerID).Scan(
		&snap.RouterID, &snap.State, &raw, &snap.TransitionID, &snap.CommittedAt,
	)
	if IsNotFoundError(err) {
		return snapshot.Snapshot{}, snapshot.ErrNotFound
	}
	if err != nil {
		return snapshot.Snapshot{}, errors.Join(snapshot.ErrLoadFailed, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &snap.Params); err != nil {
			return snapshot.Snapshot{}, errors.Join(snapshot.ErrLoadFailed, err)
		}
	}
	if len(snap.Params) == 0 {
		snap.Params = nil
	}
	return snap, nil
}
