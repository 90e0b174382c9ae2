package state

import (
	"context"
	"maps"
	"slices"

	"github.com/dmitrymomot/staterouter/pkg/params"
)

// Hook is a side effect run while a state is entered or exited.
// The state is passed explicitly; p holds the effective parameters of the
// transition side the state belongs to.
type Hook func(ctx context.Context, s *State, p params.Params) error

// Resolver produces one dependency value of a state before it is entered.
// It runs on its own goroutine and must honour ctx cancellation.
type Resolver func(ctx context.Context, p params.Params) (any, error)

// Ref identifies a state either by name or by the state itself.
type Ref interface {
	RefName() string
}

// Name is a by-name state reference.
type Name string

func (n Name) RefName() string { return string(n) }

func (n Name) String() string { return string(n) }

// Definition declares a state for registration.
type Definition struct {
	// Parent is the enclosing state, nil for a root-level state. A Name is
	// resolved lazily, so the parent may be registered after the child.
	Parent  Ref
	Params  map[string]params.Param
	Resolve map[string]Resolver
	OnEnter Hook
	OnExit  Hook
	Data    map[string]any
}

// State is a registered node of the hierarchy. It is immutable.
type State struct {
	name    string
	parent  Ref
	params  map[string]params.Param
	resolve map[string]Resolver
	onEnter Hook
	onExit  Hook
	data    map[string]any
}

func newState(name string, def Definition) *State {
	return &State{
		name:    name,
		parent:  def.Parent,
		params:  maps.Clone(def.Params),
		resolve: maps.Clone(def.Resolve),
		onEnter: def.OnEnter,
		onExit:  def.OnExit,
		data:    maps.Clone(def.Data),
	}
}

// Name returns the unique state name.
func (s *State) Name() string { return s.name }

// RefName implements Ref.
func (s *State) RefName() string { return s.name }

func (s *State) String() string { return s.name }

// ParentRef returns the declared parent reference, nil for root-level states.
func (s *State) ParentRef() Ref { return s.parent }

// ParamNames returns the names of the parameters the state itself declares, sorted.
func (s *State) ParamNames() []string {
	return slices.Sorted(maps.Keys(s.params))
}

// Param returns the declaration of an own parameter.
func (s *State) Param(name string) (params.Param, bool) {
	p, ok := s.params[name]
	return p, ok
}

// ResolveKeys returns the keys of the state's resolve map, sorted.
func (s *State) ResolveKeys() []string {
	return slices.Sorted(maps.Keys(s.resolve))
}

// Resolver returns the resolver registered under key.
func (s *State) Resolver(key string) (Resolver, bool) {
	fn, ok := s.resolve[key]
	return fn, ok
}

// Data returns a static value attached to the state.
func (s *State) Data(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Enter runs the OnEnter hook, if any.
func (s *State) Enter(ctx context.Context, p params.Params) error {
	if s.onEnter == nil {
		return nil
	}
	return s.onEnter(ctx, s, p)
}

// Exit runs the OnExit hook, if any.
func (s *State) Exit(ctx context.Context, p params.Params) error {
	if s.onExit == nil {
		return nil
	}
	return s.onExit(ctx, s, p)
}

// Declarations lists the parameters declared along chain, root first and, per
// state, sorted by name.
func Declarations(chain []*State) []params.Declaration {
	var out []params.Declaration
	for _, s := range chain {
		for _, name := range s.ParamNames() {
			out = append(out, params.Declaration{Owner: s.name, Name: name, Param: s.params[name]})
		}
	}
	return out
}

// Locals holds the values produced by a state's resolve map.
type Locals map[string]any

type localsKey struct{}

// WithLocals returns a context carrying resolved values for an OnEnter hook.
func WithLocals(ctx context.Context, l Locals) context.Context {
	return context.WithValue(ctx, localsKey{}, l)
}

// LocalsFromContext returns the resolved values stored by WithLocals, or nil.
func LocalsFromContext(ctx context.Context) Locals {
	l, _ := ctx.Value(localsKey{}).(Locals)
	return l
}
