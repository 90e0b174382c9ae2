package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/staterouter/pkg/cache"
)

const defaultChainCacheSize = 256

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithChainCacheSize sets how many ancestor chains are memoized.
// Non-positive sizes keep the default.
func WithChainCacheSize(size int) RegistryOption {
	return func(r *Registry) {
		if size > 0 {
			r.chains = cache.MustNew[string, []*State](size)
		}
	}
}

// Registry is the name-to-state directory. Registration may happen at any
// time, including from within a transition. All methods are safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	states map[string]*State
	gen    uint64
	chains *cache.LRU[string, []*State]
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		states: make(map[string]*State),
		chains: cache.MustNew[string, []*State](defaultChainCacheSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts or replaces the state called name.
func (r *Registry) Register(name string, def Definition) (*State, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	switch p := def.Parent.(type) {
	case Name:
		if p == "" {
			def.Parent = nil
		}
	case *State:
		if p == nil {
			def.Parent = nil
		}
	}
	if def.Parent != nil && def.Parent.RefName() == name {
		return nil, fmt.Errorf("%w: %q", ErrSelfParent, name)
	}

	s := newState(name, def)

	r.mu.Lock()
	r.states[name] = s
	r.gen++
	// Any memoized chain may run through the replaced name.
	r.chains.Purge()
	r.mu.Unlock()
	return s, nil
}

// MustRegister works like Register but panics on invalid definitions.
func (r *Registry) MustRegister(name string, def Definition) *State {
	s, err := r.Register(name, def)
	if err != nil {
		panic(fmt.Sprintf("failed to register state %q: %v", name, err))
	}
	return s
}

// Get returns the state registered under name.
func (r *Registry) Get(name string) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[name]
	return s, ok
}

// Lookup resolves ref. A *State is returned as is; a name is looked up.
func (r *Registry) Lookup(ref Ref) (*State, bool) {
	switch v := ref.(type) {
	case nil:
		return nil, false
	case *State:
		return v, v != nil
	default:
		return r.Get(ref.RefName())
	}
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.states))
}

// Len returns the number of registered states.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

// Parent resolves the parent of s. Root-level states return nil, nil.
func (r *Registry) Parent(s *State) (*State, error) {
	if s == nil {
		return nil, ErrNilState
	}
	switch p := s.parent.(type) {
	case nil:
		return nil, nil
	case *State:
		return p, nil
	default:
		parent, ok := r.Get(p.RefName())
		if !ok {
			return nil, NewErrRelativeResolution(p.RefName(), s.name)
		}
		return parent, nil
	}
}

// Chain returns the ancestor chain of s ordered root…s.
func (r *Registry) Chain(s *State) ([]*State, error) {
	if s == nil {
		return nil, ErrNilState
	}
	if cached, ok := r.chains.Get(s.name); ok && cached[len(cached)-1] == s {
		return slices.Clone(cached), nil
	}

	r.mu.RLock()
	gen := r.gen
	r.mu.RUnlock()

	var rev []*State
	seen := make(map[*State]struct{})
	for cur := s; cur != nil; {
		if _, ok := seen[cur]; ok {
			return nil, fmt.Errorf("%w: %q", ErrParentCycle, s.name)
		}
		seen[cur] = struct{}{}
		rev = append(rev, cur)

		parent, err := r.Parent(cur)
		if err != nil {
			return nil, err
		}
		cur = parent
	}
	slices.Reverse(rev)

	r.mu.RLock()
	if r.gen == gen {
		r.chains.Put(s.name, rev)
	}
	r.mu.RUnlock()
	return slices.Clone(rev), nil
}

// ChainCacheStats reports how the ancestor chain memo is performing.
func (r *Registry) ChainCacheStats() cache.Stats {
	return r.chains.Stats()
}

// IsRelative reports whether expr is a relative state expression: "^", "^.Name"
// or ".Name".
func IsRelative(expr string) bool {
	return strings.HasPrefix(expr, "^") || strings.HasPrefix(expr, ".")
}

// ResolveRelative resolves a relative expression against anchor.
// Each leading "^" segment climbs to the parent; the remaining segments each
// select a child of the current base by name. A leading "." starts at anchor.
func (r *Registry) ResolveRelative(expr string, anchor *State) (*State, error) {
	if anchor == nil {
		return nil, ErrNilState
	}
	fail := func() (*State, error) { return nil, NewErrRelativeResolution(expr, anchor.name) }

	parts := strings.Split(expr, ".")
	base := anchor
	i := 0
	if parts[0] == "" {
		i = 1
	} else {
		for i < len(parts) && parts[i] == "^" {
			parent, err := r.Parent(base)
			if err != nil || parent == nil {
				return fail()
			}
			base = parent
			i++
		}
	}

	for ; i < len(parts); i++ {
		name := parts[i]
		if name == "" || name == "^" {
			return fail()
		}
		child, ok := r.Get(name)
		if !ok {
			return fail()
		}
		parent, err := r.Parent(child)
		if err != nil || parent != base {
			return fail()
		}
		base = child
	}
	return base, nil
}
