// Package router implements transitions between the hierarchical states of a
// state.Registry.
//
// A Router holds the current state record (the active state and its effective
// parameters) and changes it only through TransitionTo. Each call creates a
// transition attempt that
//
//  1. supersedes the attempt still pending, if any, before returning
//  2. resolves the target by name, by relative expression or through
//     stateNotFound listeners
//  3. computes the effective parameters along the target's ancestor chain
//  4. emits stateChangeStart, which listeners may prevent
//  5. runs the resolve maps of the entered states concurrently
//  6. runs exit hooks leaf first, then enter hooks root first
//  7. commits the record and emits stateChangeSuccess, or emits
//     stateChangeError and leaves the record untouched
//
// The most recent call always wins. A superseded attempt stops at its next
// step, emits nothing more and its future rejects with ErrTransitionSuperseded.
//
// # Usage
//
//	reg := state.NewRegistry()
//	state.Define("contacts").ParamDefault("page", 1).MustRegister(reg)
//
//	r := router.MustNew(reg, router.WithLogger(log))
//	r.On(router.EventStart, func(rec *events.Record, ev router.Event) {
//	    if !allowed(ev.To) {
//	        rec.PreventDefault()
//	    }
//	})
//
//	s, err := r.TransitionTo(ctx, state.Name("contacts"), params.Params{"page": 2}).Await()
//
// # Unknown targets
//
// A stateNotFound listener receives a *Redirect. It may register the missing
// state and call rec.Retry(), point Redirect.To at another state, or call
// rec.RetryAfter with any async.Awaitable to resume the attempt once it
// settles. Retries are capped by WithMaxRedirects.
//
// # Execution model
//
// Listeners, hooks and continuations of every attempt run one at a time on a
// per-router serial executor, so emissions of two attempts never interleave.
// A transition requested from an idle router runs on the caller's goroutine
// up to its first resolver; one requested from a listener or hook is queued
// behind the running task. Listeners and hooks must not block on the future
// of a transition of the same router.
//
// # Errors
//
// TransitionTo never fails synchronously. Failures reach the returned future
// and, unless a stateChangeError listener calls PreventDefault, the default
// error handler, which logs them when none is set with DefaultErrorHandler.
package router
