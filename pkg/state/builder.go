package state

import "github.com/dmitrymomot/staterouter/pkg/params"

// Builder provides a fluent API for declaring states.
type Builder struct {
	name string
	def  Definition
}

// Define starts the declaration of the state called name.
func Define(name string) *Builder {
	return &Builder{name: name}
}

// Parent sets the enclosing state.
func (b *Builder) Parent(ref Ref) *Builder {
	b.def.Parent = ref
	return b
}

// Param declares a parameter without a default value.
func (b *Builder) Param(name string) *Builder {
	return b.ParamWith(name, params.Param{})
}

// ParamDefault declares a parameter with a default value.
func (b *Builder) ParamDefault(name string, value any) *Builder {
	return b.ParamWith(name, params.Param{Value: value})
}

// ParamWith declares a parameter from a full declaration.
func (b *Builder) ParamWith(name string, p params.Param) *Builder {
	if b.def.Params == nil {
		b.def.Params = make(map[string]params.Param)
	}
	b.def.Params[name] = p
	return b
}

// Resolve adds a dependency resolved before the state is entered.
func (b *Builder) Resolve(key string, fn Resolver) *Builder {
	if b.def.Resolve == nil {
		b.def.Resolve = make(map[string]Resolver)
	}
	b.def.Resolve[key] = fn
	return b
}

// OnEnter sets the enter hook.
func (b *Builder) OnEnter(fn Hook) *Builder {
	b.def.OnEnter = fn
	return b
}

// OnExit sets the exit hook.
func (b *Builder) OnExit(fn Hook) *Builder {
	b.def.OnExit = fn
	return b
}

// Data attaches a static value.
func (b *Builder) Data(key string, value any) *Builder {
	if b.def.Data == nil {
		b.def.Data = make(map[string]any)
	}
	b.def.Data[key] = value
	return b
}

// Definition returns the accumulated definition.
func (b *Builder) Definition() Definition {
	return b.def
}

// Register adds the declared state to reg.
func (b *Builder) Register(reg *Registry) (*State, error) {
	return reg.Register(b.name, b.def)
}

// MustRegister works like Register but panics on invalid declarations.
func (b *Builder) MustRegister(reg *Registry) *State {
	return reg.MustRegister(b.name, b.def)
}
