package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Message carries one broadcast value.
type Message[T any] struct {
	Data T
}

// Subscriber is one consumer's view of a Broadcaster.
type Subscriber[T any] interface {
	// ID is unique per subscription.
	ID() string
	// Receive returns the message channel. It is closed when the
	// subscription ends.
	Receive(ctx context.Context) <-chan Message[T]
	// Close ends the subscription. Calling it again is a no-op.
	Close() error
}

// Broadcaster delivers each message to every current subscriber.
// Implementations never block the sender on a slow subscriber.
type Broadcaster[T any] interface {
	// Subscribe starts a subscription that lasts until ctx is done.
	Subscribe(ctx context.Context) Subscriber[T]
	Broadcast(ctx context.Context, msg Message[T]) error
	// Close ends every subscription.
	Close() error
}

// subscriber guards its channel so a send can never race a close.
type subscriber[T any] struct {
	id   string
	ch   chan Message[T]
	mu   sync.RWMutex
	done bool
}

func newSubscriber[T any](buffer int) *subscriber[T] {
	return &subscriber[T]{id: uuid.NewString(), ch: make(chan Message[T], buffer)}
}

func (s *subscriber[T]) ID() string { return s.id }

func (s *subscriber[T]) Receive(context.Context) <-chan Message[T] { return s.ch }

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if !s.done {
		s.done = true
		close(s.ch)
	}
	s.mu.Unlock()
	return nil
}

// send reports false if the subscription ended or its buffer is full.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
