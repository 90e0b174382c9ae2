package async

import (
	"context"
	"sync"
	"time"
)

// Awaitable is the settle-notification capability shared by every future-like
// value. Done is closed once the value settles; Err reports the rejection
// reason (nil for a fulfilled value, and nil while still pending).
type Awaitable interface {
	Done() <-chan struct{}
	Err() error
}

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result    U
	err       error
	once      sync.Once
	done      chan struct{}
	mu        sync.Mutex
	callbacks []func(U, error)
}

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// Await blocks until the future settles.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout is Await bounded by timeout. It returns ErrTimeout if the
// future is still pending when timeout elapses; the future itself keeps going.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the future has settled.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the future settles.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Err returns the rejection reason of a settled future without blocking.
func (f *Future[U]) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Then registers fn to run once the future settles. Callbacks registered after
// settlement run immediately on the caller's goroutine; the others run on the
// goroutine that settles the future, in registration order.
func (f *Future[U]) Then(fn func(U, error)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		fn(f.result, f.err)
		return
	default:
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}

// settle stores the outcome exactly once. Reports whether this call won.
func (f *Future[U]) settle(res U, err error) bool {
	settled := false
	f.once.Do(func() {
		f.mu.Lock()
		f.result = res
		f.err = err
		callbacks := f.callbacks
		f.callbacks = nil
		close(f.done)
		f.mu.Unlock()

		for _, fn := range callbacks {
			fn(res, err)
		}
		settled = true
	})
	return settled
}

// Async runs fn(ctx, param) on a new goroutine. If ctx is already done the
// future is rejected with ctx.Err() and fn is not called.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()
	go func() {
		if err := ctx.Err(); err != nil {
			var zero U
			f.settle(zero, err)
			return
		}
		f.settle(fn(ctx, param))
	}()
	return f
}

// Resolved returns an already fulfilled future.
func Resolved[U any](v U) *Future[U] {
	f := newFuture[U]()
	f.settle(v, nil)
	return f
}

// Rejected returns an already rejected future.
func Rejected[U any](err error) *Future[U] {
	f := newFuture[U]()
	var zero U
	f.settle(zero, err)
	return f
}

// WaitAll blocks until every future is fulfilled and returns the results in
// argument order. It returns as soon as any future is rejected, without
// waiting for the rest; results of futures still pending are zero.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	type outcome struct {
		index  int
		result U
		err    error
	}
	results := make([]U, len(futures))
	settled := make(chan outcome, len(futures))
	for i, f := range futures {
		f.Then(func(res U, err error) {
			settled <- outcome{index: i, result: res, err: err}
		})
	}
	for range futures {
		o := <-settled
		if o.err != nil {
			return results, o.err
		}
		results[o.index] = o.result
	}
	return results, nil
}

// WaitAny returns the index and outcome of the first future to settle.
func WaitAny[U any](futures ...*Future[U]) (int, U, error) {
	if len(futures) == 0 {
		var zero U
		return -1, zero, ErrNoFutures
	}

	type outcome struct {
		index  int
		result U
		err    error
	}
	first := make(chan outcome, len(futures))
	for i, f := range futures {
		f.Then(func(res U, err error) {
			first <- outcome{index: i, result: res, err: err}
		})
	}

	o := <-first
	return o.index, o.result, o.err
}
