package router_test

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/staterouter/pkg/events"
	"github.com/dmitrymomot/staterouter/pkg/params"
	"github.com/dmitrymomot/staterouter/pkg/router"
	"github.com/dmitrymomot/staterouter/pkg/state"
)

func Example() {
	reg := state.NewRegistry()
	contacts := state.Define("contacts").ParamDefault("page", 1).MustRegister(reg)
	state.Define("detail").
		Parent(contacts).
		Param("id").
		OnEnter(func(ctx context.Context, s *state.State, p params.Params) error {
			fmt.Println("entered", s.Name(), "for contact", p["id"])
			return nil
		}).
		MustRegister(reg)

	r := router.MustNew(reg)
	r.On(router.EventSuccess, func(_ *events.Record, ev router.Event) {
		fmt.Println("now at", ev.To.Name())
	})

	ctx := context.Background()
	if _, err := r.TransitionTo(ctx, state.Name("contacts"), nil).Await(); err != nil {
		fmt.Println(err)
	}
	if _, err := r.Go(ctx, state.Name(".detail"), params.Params{"id": 42}).Await(); err != nil {
		fmt.Println(err)
	}
	fmt.Println(r.Params())

	// Output:
	// now at contacts
	// entered detail for contact 42
	// now at detail
	// map[id:42 page:1]
}

func ExampleRouter_On_notFound() {
	reg := state.NewRegistry()
	state.Define("home").MustRegister(reg)

	r := router.MustNew(reg)
	r.On(router.EventNotFound, func(rec *events.Record, ev router.Event) {
		// Register the missing state on first use and try again.
		state.Define(ev.Redirect.To.RefName()).Param("tab").MustRegister(reg)
		rec.Retry()
	})

	s, err := r.TransitionTo(context.Background(), state.Name("settings"), params.Params{"tab": "profile"}).Await()
	fmt.Println(s, err, r.Params()["tab"])

	// Output:
	// settings <nil> profile
}

func ExampleRouter_TransitionTo_prevented() {
	reg := state.NewRegistry()
	state.Define("public").MustRegister(reg)
	state.Define("admin").Data("restricted", true).MustRegister(reg)

	r := router.MustNew(reg, router.WithDefaultErrorHandler(func(error) {}))
	r.On(router.EventStart, func(rec *events.Record, ev router.Event) {
		if restricted, _ := ev.To.Data("restricted"); restricted == true {
			rec.PreventDefault()
		}
	})

	_, err := r.TransitionTo(context.Background(), state.Name("admin"), nil).Await()
	fmt.Println(router.IsTransitionPreventedError(err), r.Current())

	// Output:
	// true <nil>
}
