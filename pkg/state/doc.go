// Package state defines the named, hierarchical states a router moves between
// and the Registry that maps names to them.
//
// A State is immutable once registered. Its parent may be given either as the
// parent *State or as a Name; names are resolved lazily on every lookup, so a
// child can be registered before its parent and a state can be replaced at any
// time, including from an event listener in the middle of a transition.
//
// # Defining states
//
//	reg := state.NewRegistry()
//
//	state.Define("contacts").
//	    ParamDefault("page", 1).
//	    Resolve("list", loadContacts).
//	    MustRegister(reg)
//
//	state.Define("contact").
//	    Parent(state.Name("contacts")).
//	    Param("id").
//	    OnEnter(func(ctx context.Context, s *state.State, p params.Params) error {
//	        contact := state.LocalsFromContext(ctx)["contact"]
//	        ...
//	    }).
//	    MustRegister(reg)
//
// Declarative parts of a hierarchy can also be loaded with LoadYAML.
//
// # Ancestor chains
//
// Chain returns root…s. Chains are memoized in an LRU cache that is dropped
// whenever a state is registered. A parent name that is not registered yields
// an ErrRelativeResolution.
//
// # Relative expressions
//
// ResolveRelative understands three forms, evaluated against an anchor state:
//
//	^        the anchor's parent (repeatable: ^.^)
//	^.Name   a sibling of the anchor called Name
//	.Name    a child of the anchor called Name
//
// Any other failure reports "Could not resolve '<expr>' from state '<anchor>'".
package state
