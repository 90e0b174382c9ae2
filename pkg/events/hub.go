package events

import (
	"slices"
	"sync"
)

// Handler receives one emission.
type Handler[P any] func(rec *Record, payload P)

type entry[P any] struct {
	id uint64
	fn Handler[P]
}

// Hub dispatches named events to listeners synchronously.
// All methods are safe for concurrent use.
type Hub[P any] struct {
	mu        sync.RWMutex
	listeners map[string][]entry[P]
	seq       uint64
}

// New creates an empty hub.
func New[P any]() *Hub[P] {
	return &Hub[P]{
		listeners: make(map[string][]entry[P]),
	}
}

// On registers fn for the named event and returns a function removing it.
// Nil handlers are ignored. The returned function is idempotent.
func (h *Hub[P]) On(name string, fn Handler[P]) (off func()) {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.seq++
	id := h.seq
	h.listeners[name] = append(h.listeners[name], entry[P]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(name, id) })
	}
}

// Emit invokes every listener registered for name, in registration order, and
// returns the shared record once all of them have run.
func (h *Hub[P]) Emit(name string, payload P) *Record {
	h.mu.RLock()
	// Snapshot so listeners may subscribe or unsubscribe while being invoked.
	list := slices.Clone(h.listeners[name])
	h.mu.RUnlock()

	rec := &Record{name: name, listeners: len(list)}
	for _, l := range list {
		l.fn(rec, payload)
	}
	return rec
}

// Count returns the number of listeners registered for name.
func (h *Hub[P]) Count(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[name])
}

// Clear removes all listeners.
func (h *Hub[P]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.listeners)
}

func (h *Hub[P]) remove(name string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.listeners[name]
	for i, l := range list {
		if l.id == id {
			h.listeners[name] = slices.Delete(slices.Clone(list), i, i+1)
			break
		}
	}
	if len(h.listeners[name]) == 0 {
		delete(h.listeners, name)
	}
}
