package router

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/staterouter/pkg/state"
)

var (
	ErrNilRegistry      = errors.New("router: registry cannot be nil")
	ErrInvalidRedirects = errors.New("router: max redirects must be positive")
	ErrTaskPanic        = errors.New("router: transition task panicked")
)

// ErrStateNotFound indicates a target that is not registered and was not
// redirected or retried into a registered one.
type ErrStateNotFound struct {
	Name string
}

func (e *ErrStateNotFound) Error() string {
	return fmt.Sprintf("No such state '%s'", e.Name)
}

func NewErrStateNotFound(name string) *ErrStateNotFound {
	return &ErrStateNotFound{Name: name}
}

// ErrTransitionPrevented indicates a listener called PreventDefault on the
// named event.
type ErrTransitionPrevented struct {
	Event string
}

func (e *ErrTransitionPrevented) Error() string {
	return fmt.Sprintf("transition prevented by %s listener", e.Event)
}

func NewErrTransitionPrevented(event string) *ErrTransitionPrevented {
	return &ErrTransitionPrevented{Event: event}
}

// ErrTransitionSuperseded indicates a newer transition request replaced this one.
type ErrTransitionSuperseded struct {
	ID string
	By string
}

func (e *ErrTransitionSuperseded) Error() string {
	return fmt.Sprintf("transition %s superseded by %s", e.ID, e.By)
}

func NewErrTransitionSuperseded(id, by string) *ErrTransitionSuperseded {
	return &ErrTransitionSuperseded{ID: id, By: by}
}

// Hook phases reported by ErrHook.
const (
	PhaseEnter = "enter"
	PhaseExit  = "exit"
)

// ErrHook wraps a failure of an enter or exit hook.
type ErrHook struct {
	State string
	Phase string
	Err   error
}

func (e *ErrHook) Error() string {
	return fmt.Sprintf("%s hook of state '%s' failed: %v", e.Phase, e.State, e.Err)
}

func (e *ErrHook) Unwrap() error {
	return e.Err
}

func NewErrHook(stateName, phase string, err error) *ErrHook {
	return &ErrHook{State: stateName, Phase: phase, Err: err}
}

// ErrResolve wraps a failure of a resolve-map entry.
type ErrResolve struct {
	State string
	Key   string
	Err   error
}

func (e *ErrResolve) Error() string {
	return fmt.Sprintf("resolve '%s' of state '%s' failed: %v", e.Key, e.State, e.Err)
}

func (e *ErrResolve) Unwrap() error {
	return e.Err
}

func NewErrResolve(stateName, key string, err error) *ErrResolve {
	return &ErrResolve{State: stateName, Key: key, Err: err}
}

// ErrListenerPanic reports a listener that panicked during an emission.
type ErrListenerPanic struct {
	Event string
	Value any
}

func (e *ErrListenerPanic) Error() string {
	return fmt.Sprintf("%s listener panicked: %v", e.Event, e.Value)
}

func NewErrListenerPanic(event string, value any) *ErrListenerPanic {
	return &ErrListenerPanic{Event: event, Value: value}
}

func IsStateNotFoundError(err error) bool {
	var e *ErrStateNotFound
	return errors.As(err, &e)
}

func IsTransitionPreventedError(err error) bool {
	var e *ErrTransitionPrevented
	return errors.As(err, &e)
}

func IsTransitionSupersededError(err error) bool {
	var e *ErrTransitionSuperseded
	return errors.As(err, &e)
}

func IsHookError(err error) bool {
	var e *ErrHook
	return errors.As(err, &e)
}

func IsResolveError(err error) bool {
	var e *ErrResolve
	return errors.As(err, &e)
}

func IsListenerPanicError(err error) bool {
	var e *ErrListenerPanic
	return errors.As(err, &e)
}

// IsRelativeResolutionError reports whether err is a relative expression or
// ancestor chain that could not be resolved.
func IsRelativeResolutionError(err error) bool {
	return state.IsRelativeResolutionError(err)
}
