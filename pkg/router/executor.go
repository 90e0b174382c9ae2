package router

import "sync"

// executor runs tasks one at a time in submission order. There is no worker
// goroutine: the first submitter finding the queue idle drains it, so a task
// submitted from inside a running task is queued behind it instead of nesting.
type executor struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	onPanic func(any)
}

func (e *executor) submit(task func()) {
	e.mu.Lock()
	e.queue = append(e.queue, task)
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running = false
			e.mu.Unlock()
			return
		}
		next := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		e.run(next)
	}
}

func (e *executor) run(task func()) {
	defer func() {
		if p := recover(); p != nil && e.onPanic != nil {
			e.onPanic(p)
		}
	}()
	task()
}
