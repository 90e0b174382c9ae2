// Package config fills env-tagged structs from the process environment and
// caches the result per type.
//
// Parsing is done by github.com/caarlos0/env/v11. Before the first Load the
// package reads ./.env if present (github.com/joho/godotenv); LoadEnv loads
// other files and overrides variables already set.
//
//	var cfg router.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	reg := state.NewRegistry(cfg.RegistryOptions()...)
//	r, err := router.New(reg, router.WithConfig(cfg))
//
// Each type is parsed once per process, guarded by a sync.Once per type, and
// later calls copy the cached value. A failed parse is not cached. In tests,
// ResetCache forgets everything and ForceReloadConfig reparses a single type
// after t.Setenv.
//
// Errors compare with errors.Is against ErrParsingConfig, ErrLoadingEnvFile
// and ErrNilPointer.
//
// router.Config, logger.Config, redis.Config and pg.Config are all meant to
// be loaded this way.
package config
