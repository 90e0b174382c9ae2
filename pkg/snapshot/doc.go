// Package snapshot persists the committed position of a router so it can be
// put back after a restart.
//
// A Recorder listens to a router's commit stream and writes the latest
// Snapshot per router ID to a Store. Restore reads it back and moves the
// router there through Router.Restore, which runs no hooks and emits no
// events.
//
//	store, _ := snapshot.NewFileStore("/var/lib/app/routers")
//	if _, err := snapshot.Restore(ctx, store, r); err != nil {
//		return err
//	}
//	rec := snapshot.Record(ctx, r, store, log)
//	defer rec.Wait()
//
// MemoryStore and FileStore live here. Redis and Postgres stores live in the
// redis and pg packages.
package snapshot
