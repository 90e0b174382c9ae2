package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/staterouter/pkg/async"
	"github.com/dmitrymomot/staterouter/pkg/broadcast"
	"github.com/dmitrymomot/staterouter/pkg/events"
	"github.com/dmitrymomot/staterouter/pkg/logger"
	"github.com/dmitrymomot/staterouter/pkg/params"
	"github.com/dmitrymomot/staterouter/pkg/state"
)

// Router moves between the states of a registry. It owns the current state
// record and arbitrates concurrent transition requests: the most recent
// request always wins.
type Router struct {
	reg     *state.Registry
	hub     *events.Hub[Event]
	exec    executor
	commits *broadcast.MemoryBroadcaster[Commit]
	logger  *slog.Logger

	id           string
	strict       bool
	maxRedirects int
	commitBuffer int

	mu         sync.RWMutex
	current    *state.State
	params     params.Params
	chain      []*state.State
	pending    *attempt
	errHandler func(error)
}

// New creates a router over reg. The current state is nil until the first
// successful transition or Restore.
func New(reg *state.Registry, opts ...Option) (*Router, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}

	r := &Router{
		reg:          reg,
		hub:          events.New[Event](),
		logger:       slog.Default(),
		id:           defaultRouterID,
		maxRedirects: defaultMaxRedirects,
		commitBuffer: defaultCommitBuffer,
		params:       params.Params{},
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.logger = r.logger.With(logger.Component("router"), logger.RouterID(r.id))
	r.commits = broadcast.NewMemoryBroadcaster[Commit](r.commitBuffer)
	r.exec.onPanic = func(p any) {
		r.logger.Error("router task panicked", slog.Any("panic", p))
	}
	return r, nil
}

// MustNew works like New but panics on invalid options.
func MustNew(reg *state.Registry, opts ...Option) *Router {
	r, err := New(reg, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create router: %v", err))
	}
	return r
}

// ID returns the router identity.
func (r *Router) ID() string { return r.id }

// Registry returns the registry the router resolves targets in.
func (r *Router) Registry() *state.Registry { return r.reg }

// Current returns the active state, nil before the first transition.
func (r *Router) Current() *state.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Params returns a copy of the active effective parameters.
func (r *Router) Params() params.Params {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params.Clone()
}

// On registers a listener for one of the Event* names and returns a function
// that removes it.
func (r *Router) On(name string, fn Handler) (off func()) {
	return r.hub.On(name, fn)
}

// DefaultErrorHandler sets the last-resort handler for transition errors no
// stateChangeError listener handled. A nil fn restores the default, which
// logs the error.
func (r *Router) DefaultErrorHandler(fn func(error)) {
	r.mu.Lock()
	r.errHandler = fn
	r.mu.Unlock()
}

// Subscribe returns a stream of commits that ends when ctx is done or Close
// is called. Slow subscribers are dropped.
func (r *Router) Subscribe(ctx context.Context) broadcast.Subscriber[Commit] {
	return r.commits.Subscribe(ctx)
}

// Close ends every commit subscription. Transitions keep working.
func (r *Router) Close() error {
	return r.commits.Close()
}

// Go transitions to target inheriting unspecified parameters from the current
// state. Relative targets are resolved against the state current when the
// transition starts, after every transition queued before it has run.
func (r *Router) Go(ctx context.Context, target state.Ref, p params.Params, opts ...TransitionOption) *async.Future[*state.State] {
	base := []TransitionOption{WithInherit(), func(o *Options) { o.anchorCurrent = true }}
	return r.TransitionTo(ctx, target, p, append(base, opts...)...)
}

// TransitionTo requests a transition to target. Any pending transition is
// superseded before this call returns. The returned future resolves with the
// target state once it is committed and rejects on every other outcome; the
// call itself never fails.
//
// Cancelling ctx fails the transition unless it already committed.
func (r *Router) TransitionTo(ctx context.Context, target state.Ref, p params.Params, opts ...TransitionOption) *async.Future[*state.State] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a := newAttempt(ctx, target, p, o)

	r.mu.Lock()
	prev := r.pending
	r.pending = a
	superseded := prev != nil && prev.status.CompareAndSwap(int32(statusPending), int32(statusSuperseded))
	r.mu.Unlock()

	if superseded {
		prev.cancel()
		prev.deferred.Reject(NewErrTransitionSuperseded(prev.id, a.id))
		r.logger.Debug("transition superseded",
			logger.TransitionID(prev.id),
			slog.String("superseded_by", a.id),
		)
	}

	r.schedule(a, func() { r.begin(a) })
	return a.deferred.Future()
}

// Restore sets the current state record without running hooks or emitting
// events, superseding any pending transition. It is meant for re-seeding a
// router from a persisted snapshot.
func (r *Router) Restore(target state.Ref, p params.Params) error {
	to, ok := r.reg.Lookup(target)
	if !ok {
		return NewErrStateNotFound(refName(target))
	}
	chain, err := r.reg.Chain(to)
	if err != nil {
		return err
	}
	toParams, err := params.Compute(state.Declarations(chain), p, nil, r.paramMode(Options{}))
	if err != nil {
		return err
	}

	id := uuid.NewString()
	r.mu.Lock()
	prev := r.pending
	r.pending = nil
	superseded := prev != nil && prev.status.CompareAndSwap(int32(statusPending), int32(statusSuperseded))
	r.current, r.params, r.chain = to, toParams, chain
	r.mu.Unlock()

	if superseded {
		prev.cancel()
		prev.deferred.Reject(NewErrTransitionSuperseded(prev.id, id))
	}
	r.logger.Debug("state restored", logger.State(to.Name()))
	return nil
}

type status int32

const (
	statusPending status = iota
	statusSuperseded
	statusSucceeded
	statusFailed
)

// attempt is one TransitionTo call. Fields other than status are only touched
// from tasks running on the executor.
type attempt struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	status    atomic.Int32
	deferred  *async.Deferred[*state.State]
	target    state.Ref
	raw       params.Params
	opts      Options
	redirects int
	started   time.Time

	from       *state.State
	fromParams params.Params
	fromChain  []*state.State
	to         *state.State
	toParams   params.Params
	toChain    []*state.State
}

func newAttempt(ctx context.Context, target state.Ref, p params.Params, o Options) *attempt {
	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.WithValue(ctx, TransitionIDKey{}, id))
	return &attempt{
		id:       id,
		ctx:      ctx,
		cancel:   cancel,
		deferred: async.NewDeferred[*state.State](),
		target:   target,
		raw:      p.Clone(),
		opts:     o,
		started:  time.Now(),
	}
}

func (a *attempt) live() bool {
	return status(a.status.Load()) == statusPending
}

func (a *attempt) event() Event {
	ev := Event{
		TransitionID: a.id,
		Target:       a.target,
		From:         a.from,
		FromParams:   a.fromParams.Clone(),
		Options:      a.opts,
	}
	if a.to != nil {
		ev.To = a.to
		ev.ToParams = a.toParams.Clone()
	}
	return ev
}

// schedule queues task on the executor. A panic escaping task fails a.
func (r *Router) schedule(a *attempt, task func()) {
	r.exec.submit(func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.ErrorContext(a.ctx, "router task panicked",
					logger.TransitionID(a.id),
					slog.Any("panic", p),
				)
				r.fail(a, fmt.Errorf("%w: %v", ErrTaskPanic, p))
			}
		}()
		task()
	})
}

// begin captures the current state record as the origin of a. Relative
// targets of Go resolve against it, so a queued Go sees the state committed
// by the transitions queued before it.
func (r *Router) begin(a *attempt) {
	if !a.live() {
		return
	}

	r.mu.RLock()
	a.from, a.fromParams, a.fromChain = r.current, r.params.Clone(), r.chain
	r.mu.RUnlock()
	if a.opts.anchorCurrent && a.opts.Relative == nil {
		a.opts.Relative = a.from
	}

	r.logger.DebugContext(a.ctx, "transition started",
		logger.TransitionID(a.id),
		logger.Target(refName(a.target)),
		logger.FromState(nameOf(a.from)),
	)
	r.resolveTarget(a)
}

// resolveTarget looks the target up and continues with either prepare or the
// not-found path.
func (r *Router) resolveTarget(a *attempt) {
	if !a.live() {
		return
	}
	if err := a.ctx.Err(); err != nil {
		r.fail(a, err)
		return
	}

	to, err := r.lookup(a.target, a.opts.Relative)
	switch {
	case err != nil:
		r.fail(a, err)
	case to == nil:
		r.notFound(a)
	default:
		r.prepare(a, to)
	}
}

// lookup returns nil, nil for an unregistered name. A relative expression
// with an anchor either resolves or fails.
func (r *Router) lookup(target state.Ref, anchor *state.State) (*state.State, error) {
	if target == nil {
		return nil, nil
	}
	if _, byName := target.(*state.State); !byName && anchor != nil && state.IsRelative(target.RefName()) {
		return r.reg.ResolveRelative(target.RefName(), anchor)
	}
	s, _ := r.reg.Lookup(target)
	return s, nil
}

func (r *Router) prepare(a *attempt, to *state.State) {
	chain, err := r.reg.Chain(to)
	if err != nil {
		r.fail(a, err)
		return
	}
	toParams, err := params.Compute(state.Declarations(chain), a.raw, a.fromParams, r.paramMode(a.opts))
	if err != nil {
		r.fail(a, err)
		return
	}
	a.to, a.toParams, a.toChain = to, toParams, chain

	if !a.opts.Reload && to == a.from && params.Equal(toParams, a.fromParams) {
		r.ignore(a)
		return
	}

	rec, err := r.emit(EventStart, a.event())
	if !a.live() {
		return
	}
	if err != nil {
		r.fail(a, err)
		return
	}
	if rec.DefaultPrevented() {
		r.prevent(a, EventStart)
		return
	}

	exiting, entering := r.diff(a)
	r.resolveDependencies(a, entering, func(locals map[*state.State]state.Locals) {
		r.runHooks(a, exiting, entering, locals)
	})
}

func (r *Router) paramMode(o Options) params.Mode {
	var mode params.Mode
	if o.Inherit {
		mode |= params.Inherit
	}
	if r.strict {
		mode |= params.Strict
	}
	return mode
}

// diff splits the transition into the states to exit and to enter. States of
// the common chain prefix whose own parameters did not change are retained
// unless the transition reloads.
func (r *Router) diff(a *attempt) (exiting, entering []*state.State) {
	keep := 0
	if !a.opts.Reload {
		for keep < len(a.fromChain) && keep < len(a.toChain) {
			s := a.fromChain[keep]
			if s != a.toChain[keep] || !params.EqualOn(a.fromParams, a.toParams, s.ParamNames()...) {
				break
			}
			keep++
		}
	}
	return a.fromChain[keep:], a.toChain[keep:]
}

type resolveJob struct {
	state *state.State
	key   string
	fn    state.Resolver
}

// resolveDependencies runs the resolve maps of entering concurrently and calls
// next on the executor once all of them succeeded.
func (r *Router) resolveDependencies(a *attempt, entering []*state.State, next func(map[*state.State]state.Locals)) {
	var jobs []resolveJob
	for _, s := range entering {
		for _, key := range s.ResolveKeys() {
			fn, _ := s.Resolver(key)
			jobs = append(jobs, resolveJob{state: s, key: key, fn: fn})
		}
	}
	if len(jobs) == 0 {
		next(nil)
		return
	}

	futures := make([]*async.Future[any], len(jobs))
	settled := make(chan int, len(jobs))
	for i, job := range jobs {
		futures[i] = async.Async(a.ctx, job, runResolver(a.toParams))
		futures[i].Then(func(any, error) { settled <- i })
	}

	go func() {
		for range jobs {
			select {
			case i := <-settled:
				if err := futures[i].Err(); err != nil {
					r.schedule(a, func() { r.fail(a, err) })
					return
				}
			case <-a.ctx.Done():
				r.schedule(a, func() { r.fail(a, a.ctx.Err()) })
				return
			}
		}

		locals := make(map[*state.State]state.Locals, len(entering))
		for i, job := range jobs {
			if locals[job.state] == nil {
				locals[job.state] = make(state.Locals)
			}
			locals[job.state][job.key], _ = futures[i].Await()
		}
		r.schedule(a, func() {
			if a.live() {
				next(locals)
			}
		})
	}()
}

func runResolver(p params.Params) func(context.Context, resolveJob) (any, error) {
	return func(ctx context.Context, job resolveJob) (v any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = NewErrResolve(job.state.Name(), job.key, fmt.Errorf("panic: %v", rec))
			}
		}()
		v, err = job.fn(ctx, p.Clone())
		if err != nil {
			return nil, NewErrResolve(job.state.Name(), job.key, err)
		}
		return v, nil
	}
}

func (r *Router) runHooks(a *attempt, exiting, entering []*state.State, locals map[*state.State]state.Locals) {
	for i := len(exiting) - 1; i >= 0; i-- {
		err := callHook(a.ctx, exiting[i], PhaseExit, a.fromParams)
		if !a.live() {
			return
		}
		if err != nil {
			r.fail(a, err)
			return
		}
	}
	for _, s := range entering {
		ctx := a.ctx
		if l, ok := locals[s]; ok {
			ctx = state.WithLocals(ctx, l)
		}
		err := callHook(ctx, s, PhaseEnter, a.toParams)
		if !a.live() {
			return
		}
		if err != nil {
			r.fail(a, err)
			return
		}
	}
	r.commit(a)
}

func callHook(ctx context.Context, s *state.State, phase string, p params.Params) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = NewErrHook(s.Name(), phase, fmt.Errorf("panic: %v", rec))
		}
	}()

	if phase == PhaseEnter {
		err = s.Enter(ctx, p.Clone())
	} else {
		err = s.Exit(ctx, p.Clone())
	}
	if err != nil {
		return NewErrHook(s.Name(), phase, err)
	}
	return nil
}

// settle moves a pending attempt to st and frees the pending slot. Reports
// false when the attempt was no longer pending.
func (r *Router) settle(a *attempt, st status, apply func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !a.status.CompareAndSwap(int32(statusPending), int32(st)) {
		return false
	}
	if r.pending == a {
		r.pending = nil
	}
	if apply != nil {
		apply()
	}
	return true
}

func (r *Router) commit(a *attempt) {
	committed := r.settle(a, statusSucceeded, func() {
		r.current, r.params, r.chain = a.to, a.toParams.Clone(), a.toChain
	})
	if !committed {
		return
	}
	defer a.cancel()

	r.logger.DebugContext(a.ctx, "transition committed",
		logger.TransitionID(a.id),
		logger.State(a.to.Name()),
		logger.FromState(nameOf(a.from)),
		logger.Elapsed(time.Since(a.started)),
	)

	_ = r.commits.Broadcast(a.ctx, broadcast.Message[Commit]{Data: Commit{
		RouterID:     r.id,
		TransitionID: a.id,
		State:        a.to,
		Params:       a.toParams.Clone(),
		From:         a.from,
		FromParams:   a.fromParams.Clone(),
		CommittedAt:  time.Now(),
	}})

	if a.opts.Notify {
		if _, err := r.emit(EventSuccess, a.event()); err != nil {
			r.unhandled(a, err)
		}
	}
	a.deferred.Resolve(a.to)
}

// ignore completes a transition to the current state with unchanged
// parameters without running anything.
func (r *Router) ignore(a *attempt) {
	if !r.settle(a, statusSucceeded, nil) {
		return
	}
	a.cancel()
	r.logger.DebugContext(a.ctx, "transition ignored",
		logger.TransitionID(a.id),
		logger.State(a.to.Name()),
	)
	a.deferred.Resolve(a.to)
}

func (r *Router) prevent(a *attempt, event string) {
	if !r.settle(a, statusFailed, nil) {
		return
	}
	a.cancel()
	err := NewErrTransitionPrevented(event)
	r.logger.WarnContext(a.ctx, "transition prevented",
		logger.TransitionID(a.id),
		logger.Target(refName(a.target)),
		logger.Event(event),
	)
	r.unhandled(a, err)
	a.deferred.Reject(err)
}

// fail emits stateChangeError and rejects the attempt. A listener calling
// PreventDefault marks the error handled; otherwise it reaches the default
// error handler before the future is rejected.
func (r *Router) fail(a *attempt, cause error) {
	if !r.settle(a, statusFailed, nil) {
		return
	}
	defer a.cancel()

	ev := a.event()
	ev.Err = cause
	rec, err := r.emit(EventError, ev)

	if err != nil {
		r.unhandled(a, err)
	}
	if rec == nil || !rec.DefaultPrevented() {
		r.unhandled(a, cause)
	}
	a.deferred.Reject(cause)
}

func (r *Router) unhandled(a *attempt, err error) {
	r.mu.RLock()
	fn := r.errHandler
	r.mu.RUnlock()

	if fn != nil {
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Error("default error handler panicked", slog.Any("panic", p), logger.Error(err))
				}
			}()
			fn(err)
		}()
		return
	}
	r.logger.ErrorContext(a.ctx, "unhandled transition error",
		logger.TransitionID(a.id),
		logger.Target(refName(a.target)),
		logger.Error(err),
	)
}

// emit dispatches one event, turning a listener panic into an error.
func (r *Router) emit(name string, ev Event) (rec *events.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			rec, err = nil, NewErrListenerPanic(name, p)
		}
	}()
	return r.hub.Emit(name, ev), nil
}

func refName(ref state.Ref) string {
	if ref == nil {
		return ""
	}
	return ref.RefName()
}

func nameOf(s *state.State) string {
	if s == nil {
		return ""
	}
	return s.Name()
}
