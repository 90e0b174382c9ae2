// Package events provides a synchronous, ordered multicast dispatcher whose
// listeners share one mutable Record per emission.
//
// Unlike pkg/broadcast, which fans values out over channels and drops messages
// for slow consumers, a Hub invokes every listener inline, in registration
// order, before Emit returns. Listeners communicate back to the emitter only
// through the Record: PreventDefault cancels the operation that emitted the
// event, Retry and RetryAfter ask the emitter to try again, either immediately
// or once an async.Awaitable settles.
//
// # Usage
//
//	hub := events.New[Payload]()
//	off := hub.On("save", func(rec *events.Record, p Payload) {
//	    if p.Readonly {
//	        rec.PreventDefault()
//	    }
//	})
//	defer off()
//
//	rec := hub.Emit("save", payload)
//	if rec.DefaultPrevented() {
//	    return ErrCancelled
//	}
//
// # Panics
//
// The Hub does not recover listener panics: a panicking listener aborts the
// emission and the panic propagates to the caller of Emit, which owns the
// propagation policy. Listeners registered or removed during an emission take
// effect from the next emission.
package events
