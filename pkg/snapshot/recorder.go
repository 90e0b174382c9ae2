package snapshot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/staterouter/pkg/broadcast"
	"github.com/dmitrymomot/staterouter/pkg/logger"
	"github.com/dmitrymomot/staterouter/pkg/router"
	"github.com/dmitrymomot/staterouter/pkg/state"
)

// Recorder saves a snapshot for every commit of a router.
type Recorder struct {
	store Store
	log   *slog.Logger
	sub   broadcast.Subscriber[router.Commit]
	done  chan struct{}
	err   error
}

// Record subscribes to r's commits before returning and saves each one to
// store in a background goroutine until ctx is cancelled or the router's
// commit stream is closed. Save failures are logged and do not stop recording.
func Record(ctx context.Context, r *router.Router, store Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	rec := &Recorder{
		store: store,
		log:   log.With(logger.Component("snapshot"), logger.RouterID(r.ID())),
		sub:   r.Subscribe(ctx),
		done:  make(chan struct{}),
	}
	go rec.run(ctx)
	return rec
}

// Wait blocks until recording stops and returns ctx.Err() if it stopped
// because ctx was cancelled.
func (rec *Recorder) Wait() error {
	<-rec.done
	return rec.err
}

func (rec *Recorder) run(ctx context.Context) {
	defer close(rec.done)
	defer rec.sub.Close()

	ch := rec.sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			rec.err = ctx.Err()
			return
		case msg, ok := <-ch:
			if !ok {
				rec.err = ctx.Err()
				if rec.err == nil {
					rec.log.WarnContext(ctx, "commit stream closed, recording stopped")
				}
				return
			}
			rec.save(ctx, FromCommit(msg.Data))
		}
	}
}

func (rec *Recorder) save(ctx context.Context, s Snapshot) {
	if err := rec.store.Save(ctx, s); err != nil {
		rec.log.ErrorContext(ctx, "failed to save snapshot",
			logger.State(s.State),
			logger.TransitionID(s.TransitionID),
			logger.Error(err),
		)
		return
	}
	rec.log.DebugContext(ctx, "snapshot saved",
		logger.State(s.State),
		logger.TransitionID(s.TransitionID),
	)
}

// Restore moves r to the snapshot stored for its ID without emitting events.
// It reports false when nothing was stored.
func Restore(ctx context.Context, store Store, r *router.Router) (bool, error) {
	s, err := store.Load(ctx, r.ID())
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := r.Restore(state.Name(s.State), s.Params); err != nil {
		return false, errors.Join(ErrRestoreFailed, err)
	}
	return true, nil
}
