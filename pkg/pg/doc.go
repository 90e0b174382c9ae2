// Package pg connects to PostgreSQL through pgx/v5 and stores router
// snapshots there.
//
//   - Config is filled from environment variables with config.Load.
//   - Connect opens a *pgxpool.Pool, retrying until the database answers.
//   - Migrate applies the bundled router_snapshots schema with goose, then any
//     extra migrations found in Config.MigrationsPath.
//   - SnapshotStore implements snapshot.Store on the migrated table.
//   - Healthcheck returns a probe suitable for readiness checks.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		return err
//	}
//
//	store := pg.NewSnapshotStore(pool)
//	if _, err := snapshot.Restore(ctx, store, r); err != nil {
//		return err
//	}
//	snapshot.Record(ctx, r, store, log)
//
// Params are stored as JSONB, so numbers come back as float64.
//
// Errors wrap the driver cause with errors.Join; compare with errors.Is
// against ErrFailedToOpenDBConnection, ErrFailedToApplyMigrations and the
// snapshot package sentinels.
package pg
