package events

import "github.com/dmitrymomot/staterouter/pkg/async"

// Record is the mutable value shared by all listeners of one emission.
// It is not safe for use outside the emission that created it.
type Record struct {
	name      string
	prevented bool
	retry     bool
	after     async.Awaitable
	listeners int
}

// Name returns the emitted event name.
func (r *Record) Name() string {
	return r.name
}

// PreventDefault asks the emitter to cancel the operation in progress.
func (r *Record) PreventDefault() {
	r.prevented = true
}

// DefaultPrevented reports whether any listener called PreventDefault.
func (r *Record) DefaultPrevented() bool {
	return r.prevented
}

// Retry asks the emitter to retry immediately after the emission completes.
// It clears any pending RetryAfter.
func (r *Record) Retry() {
	r.retry = true
	r.after = nil
}

// RetryAfter asks the emitter to retry once a settles. A nil a cancels a
// previously requested retry.
func (r *Record) RetryAfter(a async.Awaitable) {
	r.retry = a != nil
	r.after = a
}

// RetryRequested reports whether a retry was requested and, for a deferred
// retry, the value to wait for.
func (r *Record) RetryRequested() (bool, async.Awaitable) {
	return r.retry, r.after
}

// Listeners returns how many listeners received the emission.
func (r *Record) Listeners() int {
	return r.listeners
}
