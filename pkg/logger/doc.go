// Package logger builds *slog.Logger values and provides attribute helpers
// with consistent keys for router logs.
//
// New takes functional options; FromConfig takes a Config loaded from the
// environment (LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, APP_ENV, LOG_ADD_SOURCE).
//
//	var cfg logger.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	log, err := logger.FromConfig(cfg, logger.WithTransitionID(router.TransitionIDKey{}))
//	if err != nil {
//	    return err
//	}
//	r := router.MustNew(reg, router.WithLogger(log))
//
// Hooks and resolvers receive the transition context, so records they log
// with InfoContext carry the transition_id of the attempt that invoked them.
// Extractors run when a record is handled, not when the logger is built.
//
// Error and Errors return an empty Attr for nil errors, which slog drops:
//
//	log.Info("transition committed", logger.Error(err))
package logger
