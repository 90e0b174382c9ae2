package router

import (
	"log/slog"

	"github.com/dmitrymomot/staterouter/pkg/async"
	"github.com/dmitrymomot/staterouter/pkg/logger"
	"github.com/dmitrymomot/staterouter/pkg/state"
)

// notFound offers an unresolved target to stateNotFound listeners. They may
// prevent the transition, point the redirect at another target, or ask for a
// retry, either immediately or once an awaitable settles.
func (r *Router) notFound(a *attempt) {
	name := refName(a.target)
	if a.redirects >= r.maxRedirects {
		r.logger.WarnContext(a.ctx, "redirect limit reached",
			logger.TransitionID(a.id),
			logger.Target(name),
			logger.Redirects(a.redirects),
		)
		r.fail(a, NewErrStateNotFound(name))
		return
	}
	a.redirects++

	rd := &Redirect{To: a.target, ToParams: a.raw.Clone()}
	ev := a.event()
	ev.Redirect = rd

	rec, err := r.emit(EventNotFound, ev)
	if !a.live() {
		return
	}
	if err != nil {
		r.fail(a, err)
		return
	}
	if rec.DefaultPrevented() {
		r.prevent(a, EventNotFound)
		return
	}

	retry, after := rec.RetryRequested()
	switch {
	case retry && after != nil:
		r.deferRetry(a, rd, after)
	case retry:
		r.retarget(a, rd)
		r.resolveTarget(a)
	case r.redirected(a, rd):
		r.retarget(a, rd)
		r.resolveTarget(a)
	default:
		r.fail(a, NewErrStateNotFound(name))
	}
}

// redirected reports whether listeners replaced the target with a different
// one that resolves now.
func (r *Router) redirected(a *attempt, rd *Redirect) bool {
	if rd.To == nil || sameRef(rd.To, a.target) {
		return false
	}
	to, err := r.lookup(rd.To, a.opts.Relative)
	return err == nil && to != nil
}

func (r *Router) retarget(a *attempt, rd *Redirect) {
	a.target = rd.To
	a.raw = rd.ToParams.Clone()
}

// deferRetry parks the attempt until after settles. The redirect is read at
// settlement time. A superseded attempt never resumes.
func (r *Router) deferRetry(a *attempt, rd *Redirect, after async.Awaitable) {
	r.logger.DebugContext(a.ctx, "transition deferred",
		logger.TransitionID(a.id),
		logger.Target(refName(a.target)),
		logger.Redirects(a.redirects),
	)

	go func() {
		select {
		case <-after.Done():
		case <-a.ctx.Done():
		}

		r.schedule(a, func() {
			if !a.live() {
				r.logger.Debug("deferred retry dropped", logger.TransitionID(a.id))
				return
			}
			if err := a.ctx.Err(); err != nil {
				r.fail(a, err)
				return
			}
			if err := after.Err(); err != nil {
				r.logger.DebugContext(a.ctx, "deferred retry rejected",
					logger.TransitionID(a.id),
					slog.String("reason", err.Error()),
				)
				r.fail(a, err)
				return
			}
			r.retarget(a, rd)
			r.resolveTarget(a)
		})
	}()
}

func sameRef(x, y state.Ref) bool {
	xs, xok := x.(*state.State)
	ys, yok := y.(*state.State)
	if xok && yok {
		return xs == ys
	}
	return refName(x) == refName(y)
}
