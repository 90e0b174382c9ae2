package router_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/staterouter/pkg/async"
	"github.com/dmitrymomot/staterouter/pkg/events"
	"github.com/dmitrymomot/staterouter/pkg/logger"
	"github.com/dmitrymomot/staterouter/pkg/params"
	"github.com/dmitrymomot/staterouter/pkg/router"
	"github.com/dmitrymomot/staterouter/pkg/state"
)

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := router.New(nil)
	assert.ErrorIs(t, err, router.ErrNilRegistry)

	_, err = router.New(state.NewRegistry(), router.WithMaxRedirects(0))
	assert.ErrorIs(t, err, router.ErrInvalidRedirects)

	assert.Panics(t, func() { router.MustNew(nil) })

	r := router.MustNew(state.NewRegistry(), router.WithConfig(router.Config{ID: "main", MaxRedirects: 3}))
	assert.Equal(t, "main", r.ID())
	assert.Nil(t, r.Current())
	assert.Empty(t, r.Params())
}

func TestTransitionTo_Hooks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		from  func(f *fixture) (*state.State, params.Params)
		to    func(f *fixture) (*state.State, params.Params)
		opts  []router.TransitionOption
		trail string
	}{
		{
			name:  "exit leaf first",
			from:  func(f *fixture) (*state.State, params.Params) { return f.DD, params.Params{"x": 1} },
			to:    func(f *fixture) (*state.State, params.Params) { return f.A, nil },
			trail: "DD.onExit;D.onExit;A.onEnter;",
		},
		{
			name:  "enter root first",
			from:  func(f *fixture) (*state.State, params.Params) { return f.A, nil },
			to:    func(f *fixture) (*state.State, params.Params) { return f.DD, params.Params{"x": 1} },
			trail: "A.onExit;D.onEnter;DD.onEnter;",
		},
		{
			name:  "parent retained",
			from:  func(f *fixture) (*state.State, params.Params) { return f.D, params.Params{"x": 1} },
			to:    func(f *fixture) (*state.State, params.Params) { return f.DD, params.Params{"x": 1, "z": 3} },
			trail: "DD.onEnter;",
		},
		{
			name:  "parent params changed",
			from:  func(f *fixture) (*state.State, params.Params) { return f.DD, params.Params{"x": 1} },
			to:    func(f *fixture) (*state.State, params.Params) { return f.DD, params.Params{"x": 2} },
			trail: "DD.onExit;D.onExit;D.onEnter;DD.onEnter;",
		},
		{
			name:  "only child params changed",
			from:  func(f *fixture) (*state.State, params.Params) { return f.DD, params.Params{"x": 1, "z": 1} },
			to:    func(f *fixture) (*state.State, params.Params) { return f.DD, params.Params{"x": 1, "z": 2} },
			trail: "DD.onExit;DD.onEnter;",
		},
		{
			name:  "reload",
			from:  func(f *fixture) (*state.State, params.Params) { return f.D, nil },
			to:    func(f *fixture) (*state.State, params.Params) { return f.D, nil },
			opts:  []router.TransitionOption{router.WithReload()},
			trail: "D.onExit;D.onEnter;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			from, fromParams := tt.from(f)
			f.initStateTo(t, from, fromParams)
			f.trail = &journal{}

			to, toParams := tt.to(f)
			_, err := await(t, f.r.TransitionTo(context.Background(), to, toParams, tt.opts...))
			require.NoError(t, err)
			assert.Equal(t, tt.trail, f.trail.String())
		})
	}
}

func TestTransitionTo_HookReceivesState(t *testing.T) {
	t.Parallel()
	reg := state.NewRegistry()

	var gotState *state.State
	var gotParams params.Params
	var gotID string
	target := state.Define("target").
		Param("id").
		OnEnter(func(ctx context.Context, s *state.State, p params.Params) error {
			gotState, gotParams = s, p
			gotID, _ = router.TransitionIDFromContext(ctx)
			return nil
		}).
		MustRegister(reg)

	r := router.MustNew(reg)
	var startID string
	r.On(router.EventStart, func(_ *events.Record, ev router.Event) { startID = ev.TransitionID })

	_, err := await(t, r.TransitionTo(context.Background(), state.Name("target"), params.Params{"id": 7}))
	require.NoError(t, err)
	assert.Same(t, target, gotState)
	assert.Equal(t, params.Params{"id": 7}, gotParams)
	assert.NotEmpty(t, gotID)
	assert.Equal(t, startID, gotID)
}

func TestTransitionTo_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("values reach onEnter", func(t *testing.T) {
		t.Parallel()
		reg := state.NewRegistry()
		var locals state.Locals
		state.Define("contact").
			Param("id").
			Resolve("contact", func(ctx context.Context, p params.Params) (any, error) {
				return fmt.Sprintf("contact-%v", p["id"]), nil
			}).
			Resolve("owner", func(ctx context.Context, p params.Params) (any, error) {
				return "ann", nil
			}).
			OnEnter(func(ctx context.Context, s *state.State, p params.Params) error {
				locals = state.LocalsFromContext(ctx)
				return nil
			}).
			MustRegister(reg)

		r := router.MustNew(reg)
		_, err := await(t, r.TransitionTo(context.Background(), state.Name("contact"), params.Params{"id": 42}))
		require.NoError(t, err)
		assert.Equal(t, state.Locals{"contact": "contact-42", "owner": "ann"}, locals)
	})

	t.Run("failure fires error event", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		errLoad := errors.New("load failed")
		state.Define("broken").
			Resolve("data", func(ctx context.Context, p params.Params) (any, error) { return nil, errLoad }).
			OnEnter(func(context.Context, *state.State, params.Params) error {
				t.Error("onEnter must not run after a failed resolve")
				return nil
			}).
			MustRegister(f.reg)
		f.initStateTo(t, f.A, nil)
		f.logEvents()
		f.trail = &journal{}

		_, err := await(t, f.r.TransitionTo(context.Background(), state.Name("broken"), nil))
		require.Error(t, err)
		assert.True(t, router.IsResolveError(err))
		assert.ErrorIs(t, err, errLoad)
		assert.Same(t, f.A, f.r.Current())
		assert.Empty(t, f.trail.String())
		assert.Equal(t, "stateChangeStart(broken,A);stateChangeError(broken,A);", f.log.String())
	})

	t.Run("panic becomes resolve error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		state.Define("panicky").
			Resolve("data", func(ctx context.Context, p params.Params) (any, error) { panic("boom") }).
			MustRegister(f.reg)

		_, err := await(t, f.r.TransitionTo(context.Background(), state.Name("panicky"), nil))
		require.Error(t, err)
		assert.True(t, router.IsResolveError(err))
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("retained states are not resolved again", func(t *testing.T) {
		t.Parallel()
		reg := state.NewRegistry()
		var calls atomic.Int32
		parent := state.Define("parent").
			Resolve("once", func(ctx context.Context, p params.Params) (any, error) {
				calls.Add(1)
				return nil, nil
			}).
			MustRegister(reg)
		state.Define("child").Parent(parent).MustRegister(reg)

		r := router.MustNew(reg)
		_, err := await(t, r.TransitionTo(context.Background(), parent, nil))
		require.NoError(t, err)
		_, err = await(t, r.TransitionTo(context.Background(), state.Name("child"), nil))
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestTransitionTo_Params(t *testing.T) {
	t.Parallel()

	t.Run("effective params cover the whole chain", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := await(t, f.r.TransitionTo(context.Background(), f.DD, params.Params{"x": "1", "y": "2", "unknown": true}))
		require.NoError(t, err)
		assert.Equal(t, params.Params{"x": "1", "y": "2", "z": nil}, f.r.Params())
	})

	t.Run("without inherit missing params are reset", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initStateTo(t, f.DD, params.Params{"x": 1, "y": 2, "z": 3})
		_, err := await(t, f.r.TransitionTo(context.Background(), f.DD, params.Params{"z": 4}))
		require.NoError(t, err)
		assert.Equal(t, params.Params{"x": nil, "y": nil, "z": 4}, f.r.Params())
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		reg := state.NewRegistry()
		state.Define("list").ParamDefault("page", 1).MustRegister(reg)
		r := router.MustNew(reg)
		_, err := await(t, r.TransitionTo(context.Background(), state.Name("list"), nil))
		require.NoError(t, err)
		assert.Equal(t, params.Params{"page": 1}, r.Params())
	})

	t.Run("strict mode rejects unknown keys", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, router.WithStrictParams())
		_, err := await(t, f.r.TransitionTo(context.Background(), f.D, params.Params{"x": 1, "q": 2}))
		require.Error(t, err)
		assert.True(t, params.IsUnknownParamError(err))
		assert.Nil(t, f.r.Current())
	})

	t.Run("duplicate declaration", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		state.Define("DDx").Parent(f.DD).Param("x").MustRegister(f.reg)
		_, err := await(t, f.r.TransitionTo(context.Background(), state.Name("DDx"), nil))
		require.Error(t, err)
		assert.True(t, params.IsDuplicateParamError(err))
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		reg := state.NewRegistry()
		errNotInt := errors.New("not an int")
		state.Define("item").
			ParamWith("id", params.Param{Validate: func(v any) error {
				if _, ok := v.(int); !ok {
					return errNotInt
				}
				return nil
			}}).
			MustRegister(reg)
		r := router.MustNew(reg, router.WithDefaultErrorHandler(func(error) {}))
		_, err := await(t, r.TransitionTo(context.Background(), state.Name("item"), params.Params{"id": "x"}))
		require.Error(t, err)
		assert.True(t, params.IsInvalidParamError(err))
		assert.ErrorIs(t, err, errNotInt)
	})
}

func TestTransitionTo_Ignored(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.initStateTo(t, f.D, params.Params{"x": 1})
	f.logEvents()
	f.trail = &journal{}

	got, err := await(t, f.r.TransitionTo(context.Background(), f.D, params.Params{"x": 1}))
	require.NoError(t, err)
	assert.Same(t, f.D, got)
	assert.Empty(t, f.log.String())
	assert.Empty(t, f.trail.String())
}

func TestTransitionTo_ErrorHandling(t *testing.T) {
	t.Parallel()

	t.Run("listener panic fails the transition", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.r.On(router.EventStart, func(*events.Record, router.Event) { panic("listener") })

		_, err := await(t, f.r.TransitionTo(context.Background(), f.A, nil))
		require.Error(t, err)
		assert.True(t, router.IsListenerPanicError(err))
		assert.Nil(t, f.r.Current())
	})

	t.Run("hook panic becomes hook error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		state.Define("panicky").
			OnEnter(func(context.Context, *state.State, params.Params) error { panic("hook") }).
			MustRegister(f.reg)

		_, err := await(t, f.r.TransitionTo(context.Background(), state.Name("panicky"), nil))
		require.Error(t, err)
		var hookErr *router.ErrHook
		require.ErrorAs(t, err, &hookErr)
		assert.Equal(t, router.PhaseEnter, hookErr.Phase)
		assert.Equal(t, "panicky", hookErr.State)
	})

	t.Run("exit hook error keeps current state", func(t *testing.T) {
		t.Parallel()
		reg := state.NewRegistry()
		errStay := errors.New("stay")
		sticky := state.Define("sticky").
			OnExit(func(context.Context, *state.State, params.Params) error { return errStay }).
			MustRegister(reg)
		state.Define("other").MustRegister(reg)

		r := router.MustNew(reg, router.WithDefaultErrorHandler(func(error) {}))
		_, err := await(t, r.TransitionTo(context.Background(), sticky, nil))
		require.NoError(t, err)

		_, err = await(t, r.TransitionTo(context.Background(), state.Name("other"), nil))
		var hookErr *router.ErrHook
		require.ErrorAs(t, err, &hookErr)
		assert.Equal(t, router.PhaseExit, hookErr.Phase)
		assert.Same(t, sticky, r.Current())
	})

	t.Run("default handler logs when unset", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelError))
		r := router.MustNew(state.NewRegistry(), router.WithLogger(log))

		_, err := await(t, r.TransitionTo(context.Background(), state.Name("missing"), nil))
		require.Error(t, err)
		assert.Contains(t, buf.String(), "unhandled transition error")
		assert.Contains(t, buf.String(), "No such state 'missing'")
	})

	t.Run("default handler can be replaced and reset", func(t *testing.T) {
		t.Parallel()
		var n atomic.Int32
		r := router.MustNew(state.NewRegistry(), router.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
		r.DefaultErrorHandler(func(error) { n.Add(1) })
		_, _ = await(t, r.TransitionTo(context.Background(), state.Name("missing"), nil))
		r.DefaultErrorHandler(nil)
		_, _ = await(t, r.TransitionTo(context.Background(), state.Name("missing"), nil))
		assert.Equal(t, int32(1), n.Load())
	})

	t.Run("caller context cancelled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		fut := f.r.TransitionTo(ctx, f.F, nil)
		cancel()

		_, err := await(t, fut)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, f.r.Current())
	})
}

func TestTransitionTo_SupersededFromListener(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.initStateTo(t, f.A, nil)
	f.logEvents()

	var redirected *async.Future[*state.State]
	f.r.On(router.EventStart, func(rec *events.Record, ev router.Event) {
		if ev.To == f.B {
			redirected = f.r.TransitionTo(context.Background(), f.C, nil)
		}
	})

	_, err := await(t, f.r.TransitionTo(context.Background(), f.B, nil))
	assert.True(t, router.IsTransitionSupersededError(err))

	require.NotNil(t, redirected)
	got, err := await(t, redirected)
	require.NoError(t, err)
	assert.Same(t, f.C, got)
	assert.Equal(t, "stateChangeStart(B,A);stateChangeStart(C,A);stateChangeSuccess(C,A);", f.log.String())
}

// Only the most recently issued of any number of overlapping transitions
// succeeds; every earlier one is superseded.
func TestTransitionTo_OverlappingCalls(t *testing.T) {
	t.Parallel()
	reg := state.NewRegistry()
	release := make(chan struct{})
	for i := range 10 {
		state.Define(fmt.Sprintf("S%d", i)).
			Resolve("gate", func(ctx context.Context, p params.Params) (any, error) {
				select {
				case <-release:
					return nil, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}).
			MustRegister(reg)
	}

	r := router.MustNew(reg)
	var starts, successes atomic.Int32
	r.On(router.EventStart, func(*events.Record, router.Event) { starts.Add(1) })
	r.On(router.EventSuccess, func(*events.Record, router.Event) { successes.Add(1) })

	futures := make([]*async.Future[*state.State], 10)
	for i := range futures {
		futures[i] = r.TransitionTo(context.Background(), state.Name(fmt.Sprintf("S%d", i)), nil)
	}
	close(release)

	got, err := await(t, futures[9])
	require.NoError(t, err)
	assert.Equal(t, "S9", got.Name())
	for _, fut := range futures[:9] {
		_, err := await(t, fut)
		assert.True(t, router.IsTransitionSupersededError(err))
	}
	assert.Equal(t, "S9", r.Current().Name())
	assert.Equal(t, int32(1), successes.Load())
	assert.LessOrEqual(t, starts.Load(), int32(10))
}

func TestTransitionTo_StartPrecedesCommit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var starts int
	var currentAtStart *state.State
	f.r.On(router.EventStart, func(_ *events.Record, ev router.Event) {
		starts++
		currentAtStart = f.r.Current()
	})

	_, err := await(t, f.r.TransitionTo(context.Background(), f.DD, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, starts)
	assert.Nil(t, currentAtStart)
}

func TestGo(t *testing.T) {
	t.Parallel()

	t.Run("relative to current", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initStateTo(t, f.DD, params.Params{"x": 1, "y": 2, "z": 3})

		got, err := await(t, f.r.Go(context.Background(), state.Name("^"), nil))
		require.NoError(t, err)
		assert.Same(t, f.D, got)
		assert.Equal(t, params.Params{"x": 1, "y": 2}, f.r.Params())
	})

	t.Run("child of current", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initStateTo(t, f.D, params.Params{"x": 1})

		got, err := await(t, f.r.Go(context.Background(), state.Name(".DD"), params.Params{"z": 9}))
		require.NoError(t, err)
		assert.Same(t, f.DD, got)
		assert.Equal(t, params.Params{"x": 1, "y": nil, "z": 9}, f.r.Params())
	})

	t.Run("queued call resolves against the committed state", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initStateTo(t, f.A, nil)

		var anchor *state.State
		f.r.On(router.EventStart, func(_ *events.Record, ev router.Event) {
			if ev.To == f.DD {
				anchor = ev.Options.Relative
			}
		})

		var queued *async.Future[*state.State]
		off := f.r.On(router.EventSuccess, func(_ *events.Record, ev router.Event) {
			if ev.To == f.D && queued == nil {
				queued = f.r.Go(context.Background(), state.Name(".DD"), params.Params{"z": 1})
			}
		})
		defer off()

		_, err := await(t, f.r.TransitionTo(context.Background(), f.D, params.Params{"x": 1}))
		require.NoError(t, err)
		require.NotNil(t, queued)

		got, err := await(t, queued)
		require.NoError(t, err)
		assert.Same(t, f.DD, got)
		assert.Same(t, f.D, anchor)
	})

	t.Run("explicit anchor wins", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.initStateTo(t, f.A, nil)

		got, err := await(t, f.r.Go(context.Background(), state.Name(".DD"), nil, router.WithRelative(f.D)))
		require.NoError(t, err)
		assert.Same(t, f.DD, got)
	})
}

func TestNotFound_Limits(t *testing.T) {
	t.Parallel()

	t.Run("retry is capped", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, router.WithMaxRedirects(3))
		notFound := 0
		f.r.On(router.EventNotFound, func(rec *events.Record, ev router.Event) {
			notFound++
			rec.Retry()
		})

		_, err := await(t, f.r.TransitionTo(context.Background(), state.Name("ghost"), nil))
		require.Error(t, err)
		assert.EqualError(t, err, "No such state 'ghost'")
		assert.Equal(t, 3, notFound)
	})

	t.Run("redirect to unknown state fails with original name", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.r.On(router.EventNotFound, func(rec *events.Record, ev router.Event) {
			ev.Redirect.To = state.Name("also_missing")
		})

		_, err := await(t, f.r.TransitionTo(context.Background(), state.Name("ghost"), nil))
		assert.EqualError(t, err, "No such state 'ghost'")
	})

	t.Run("rejected deferred retry fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		errGaveUp := errors.New("gave up")
		deferred := async.NewDeferred[struct{}]()
		f.r.On(router.EventNotFound, func(rec *events.Record, ev router.Event) {
			rec.RetryAfter(deferred)
		})

		fut := f.r.TransitionTo(context.Background(), state.Name("ghost"), nil)
		deferred.Reject(errGaveUp)

		_, err := await(t, fut)
		assert.ErrorIs(t, err, errGaveUp)
	})

	t.Run("deferred retry reads redirect at settlement", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		deferred := async.NewDeferred[struct{}]()
		var redirect *router.Redirect
		f.r.On(router.EventNotFound, func(rec *events.Record, ev router.Event) {
			redirect = ev.Redirect
			rec.RetryAfter(deferred)
		})

		fut := f.r.TransitionTo(context.Background(), state.Name("ghost"), nil)
		require.NotNil(t, redirect)
		redirect.To = f.E
		redirect.ToParams = params.Params{"i": "late"}
		deferred.Resolve(struct{}{})

		got, err := await(t, fut)
		require.NoError(t, err)
		assert.Same(t, f.E, got)
		assert.Equal(t, params.Params{"i": "late"}, f.r.Params())
	})
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	f := newFixture(t, router.WithID("main"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := f.r.Subscribe(ctx)

	_, err := await(t, f.r.TransitionTo(context.Background(), f.D, params.Params{"x": 1}, router.WithNotify(false)))
	require.NoError(t, err)

	select {
	case msg := <-sub.Receive(ctx):
		assert.Equal(t, "main", msg.Data.RouterID)
		assert.Same(t, f.D, msg.Data.State)
		assert.Equal(t, params.Params{"x": 1, "y": nil}, msg.Data.Params)
		assert.Nil(t, msg.Data.From)
		assert.NotEmpty(t, msg.Data.TransitionID)
		assert.False(t, msg.Data.CommittedAt.IsZero())
	case <-time.After(waitFor):
		t.Fatal("no commit received")
	}

	require.NoError(t, f.r.Close())
}

func TestRestore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.logEvents()

	pending := f.r.TransitionTo(context.Background(), f.F, nil)
	require.NoError(t, f.r.Restore(state.Name("DD"), params.Params{"x": 1, "z": 2}))
	assert.Same(t, f.DD, f.r.Current())
	assert.Equal(t, params.Params{"x": 1, "y": nil, "z": 2}, f.r.Params())

	_, err := await(t, pending)
	assert.True(t, router.IsTransitionSupersededError(err))
	assert.Equal(t, "stateChangeStart(F,);", f.log.String())

	err = f.r.Restore(state.Name("missing"), nil)
	assert.True(t, router.IsStateNotFoundError(err))
}
