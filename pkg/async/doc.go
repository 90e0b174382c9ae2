// Package async provides generic futures and the helpers the router uses to
// wait on resolvers and postponed retries.
//
// A Future is settled exactly once, either by the goroutine Async starts or
// by the owner of a Deferred through Resolve or Reject. Callers can block
// with Await or AwaitWithTimeout, poll with IsComplete, or attach
// continuations with Then. Continuations registered before settlement run on
// the settling goroutine in registration order; later ones run immediately.
//
//	f := async.Async(ctx, id, loadContact)
//	f.Then(func(c *Contact, err error) {
//		...
//	})
//	c, err := f.AwaitWithTimeout(time.Second)
//
// Future and Deferred both satisfy Awaitable, the minimal Done/Err view the
// router accepts when a not-found listener postpones a retry.
//
// WaitAll fails fast on the first rejection. WaitAny returns whichever future
// settles first, fulfilled or not. Neither starts goroutines of its own.
//
// Rejecting a Deferred with a nil error settles it with ErrRejected;
// AwaitWithTimeout reports ErrTimeout.
package async
