// Package redis connects to Redis and stores router snapshots there.
//
// Connect retries a ping until the server answers, Healthcheck returns a
// probe function, and SnapshotStore implements snapshot.Store on top of any
// go-redis UniversalClient.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := redis.NewSnapshotStore(client, cfg)
//	snapshot.Record(ctx, r, store, log)
//
// Errors wrap the go-redis cause with errors.Join, so sentinels such as
// ErrRedisNotReady and snapshot.ErrNotFound work with errors.Is.
package redis
