package router

import (
	"context"
	"time"

	"github.com/dmitrymomot/staterouter/pkg/events"
	"github.com/dmitrymomot/staterouter/pkg/params"
	"github.com/dmitrymomot/staterouter/pkg/state"
)

// Event names accepted by Router.On.
const (
	EventStart    = "stateChangeStart"
	EventSuccess  = "stateChangeSuccess"
	EventError    = "stateChangeError"
	EventNotFound = "stateNotFound"
)

// Handler is a transition event listener. Listeners run synchronously on the
// router's executor and may call PreventDefault, Retry or RetryAfter on rec.
type Handler = events.Handler[Event]

// Event is the payload passed to listeners.
//
// To and ToParams are nil on stateNotFound and on errors raised before the
// target was resolved; Redirect is set on stateNotFound only and Err on
// stateChangeError only.
type Event struct {
	TransitionID string
	Target       state.Ref
	To           *state.State
	ToParams     params.Params
	From         *state.State
	FromParams   params.Params
	Options      Options
	Redirect     *Redirect
	Err          error
}

// Redirect is the mutable target of a stateNotFound emission. Listeners may
// replace To and ToParams; the router reads them once all listeners returned
// or, for a deferred retry, when the awaited value settles.
type Redirect struct {
	To       state.Ref
	ToParams params.Params
}

// Commit describes one update of the current state record.
type Commit struct {
	RouterID     string
	TransitionID string
	State        *state.State
	Params       params.Params
	From         *state.State
	FromParams   params.Params
	CommittedAt  time.Time
}

// TransitionIDKey is the context key under which hooks and resolvers find the
// identifier of the transition invoking them.
type TransitionIDKey struct{}

// TransitionIDFromContext returns the transition identifier stored in ctx.
func TransitionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(TransitionIDKey{}).(string)
	return id, ok
}
