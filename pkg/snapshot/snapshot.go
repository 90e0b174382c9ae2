package snapshot

import (
	"context"
	"maps"
	"time"

	"github.com/dmitrymomot/staterouter/pkg/router"
)

// Snapshot is the persisted form of a committed router position.
// Params go through the store's encoding, so numeric values may come back as
// a different numeric type (float64 for JSON, int for YAML).
type Snapshot struct {
	RouterID     string         `json:"router_id" yaml:"router_id"`
	State        string         `json:"state" yaml:"state"`
	Params       map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	TransitionID string         `json:"transition_id,omitempty" yaml:"transition_id,omitempty"`
	CommittedAt  time.Time      `json:"committed_at" yaml:"committed_at"`
}

// FromCommit converts a router commit into a snapshot.
func FromCommit(c router.Commit) Snapshot {
	s := Snapshot{
		RouterID:     c.RouterID,
		TransitionID: c.TransitionID,
		CommittedAt:  c.CommittedAt,
		Params:       maps.Clone(map[string]any(c.Params)),
	}
	if c.State != nil {
		s.State = c.State.Name()
	}
	return s
}

// Store persists the latest snapshot per router.
type Store interface {
	// Save replaces the snapshot stored for s.RouterID.
	Save(ctx context.Context, s Snapshot) error
	// Load returns the snapshot stored for routerID or ErrNotFound.
	Load(ctx context.Context, routerID string) (Snapshot, error)
}
