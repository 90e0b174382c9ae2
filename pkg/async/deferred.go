package async

// Deferred is a future settled by its owner instead of by a goroutine.
type Deferred[U any] struct {
	future *Future[U]
}

// NewDeferred creates a pending deferred value.
func NewDeferred[U any]() *Deferred[U] {
	return &Deferred[U]{future: newFuture[U]()}
}

// Future returns the read side of the deferred value.
func (d *Deferred[U]) Future() *Future[U] {
	return d.future
}

// Resolve fulfills the future with v. Returns false if it was already settled.
func (d *Deferred[U]) Resolve(v U) bool {
	return d.future.settle(v, nil)
}

// Reject settles the future with err. A nil err is replaced by ErrRejected so
// that a rejected future is always distinguishable from a fulfilled one.
func (d *Deferred[U]) Reject(err error) bool {
	if err == nil {
		err = ErrRejected
	}
	var zero U
	return d.future.settle(zero, err)
}

// Done implements Awaitable.
func (d *Deferred[U]) Done() <-chan struct{} {
	return d.future.Done()
}

// Err implements Awaitable.
func (d *Deferred[U]) Err() error {
	return d.future.Err()
}
