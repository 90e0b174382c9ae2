package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryBroadcaster fans messages out to in-process subscribers. A subscriber
// whose buffer is full when a message arrives is dropped: its channel is
// closed, so a consumer sees the end of its stream instead of a silent gap.
// All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	mu      sync.RWMutex
	subs    map[string]*subscriber[T]
	buffer  int
	closed  bool
	done    chan struct{}
	watches sync.WaitGroup
	dropped atomic.Uint64
}

// NewMemoryBroadcaster creates a broadcaster giving every subscriber a
// channel buffer of bufferSize, at least 1.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		subs:   make(map[string]*subscriber[T]),
		buffer: max(bufferSize, 1),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a subscriber that receives every later message until
// ctx is cancelled. Subscribing to a closed broadcaster yields an already
// closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := newSubscriber[T](b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		_ = sub.Close()
		return sub
	}
	b.subs[sub.id] = sub

	if ctx.Done() == nil {
		return sub
	}
	b.watches.Add(1)
	go func() {
		defer b.watches.Done()
		select {
		case <-ctx.Done():
			b.remove(sub.id)
		case <-b.done:
		}
	}()
	return sub
}

// Broadcast offers msg to every subscriber without blocking.
func (b *MemoryBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	var slow []string
	for id, sub := range b.subs {
		if !sub.send(msg) {
			slow = append(slow, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range slow {
		if b.remove(id) {
			b.dropped.Add(1)
		}
	}
	return nil
}

// Len returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many subscribers were removed for falling behind.
func (b *MemoryBroadcaster[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Close ends every subscription. Further calls are no-ops.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for id, sub := range b.subs {
		_ = sub.Close()
		delete(b.subs, id)
	}
	b.mu.Unlock()

	b.watches.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) remove(id string) bool {
	b.mu.Lock()
	sub, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()

	if ok {
		_ = sub.Close()
	}
	return ok
}
