package params

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Params is a flat parameter bag keyed by parameter name.
// A key holding nil means "declared but undefined".
type Params map[string]any

// Param configures one declared parameter.
type Param struct {
	// Value is used when neither the raw input nor inheritance supplies one.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
	// Validate, when set, checks every non-nil value assigned to the parameter.
	Validate func(v any) error `json:"-" yaml:"-"`
}

// Declaration is a parameter declared by a state of an ancestor chain.
type Declaration struct {
	Owner string
	Name  string
	Param Param
}

// Mode toggles optional behaviour of Compute.
type Mode uint8

const (
	// Inherit fills names missing from the raw bag with the current value.
	Inherit Mode = 1 << iota
	// Strict rejects raw keys not declared anywhere in the chain.
	Strict
)

// Compute returns the effective parameters for decls, which must be ordered
// root-first.
func Compute(decls []Declaration, raw, current Params, mode Mode) (Params, error) {
	owners := make(map[string]string, len(decls))
	for _, d := range decls {
		if first, ok := owners[d.Name]; ok {
			return nil, NewErrDuplicateParam(d.Name, first, d.Owner)
		}
		owners[d.Name] = d.Owner
	}

	if mode&Strict != 0 {
		for _, k := range slices.Sorted(maps.Keys(raw)) {
			if _, ok := owners[k]; !ok {
				return nil, NewErrUnknownParam(k)
			}
		}
	}

	out := make(Params, len(decls))
	for _, d := range decls {
		v, ok := raw[d.Name]
		if !ok && mode&Inherit != 0 {
			v, ok = current[d.Name]
		}
		if !ok || v == nil {
			v = d.Param.Value
		}
		if v != nil && d.Param.Validate != nil {
			if err := validate(d.Param.Validate, v); err != nil {
				return nil, NewErrInvalidParam(d.Owner, d.Name, err)
			}
		}
		out[d.Name] = v
	}
	return out, nil
}

func validate(fn func(any) error, v any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("validator panicked: %v", rec)
		}
	}()
	return fn(v)
}

// Clone returns a shallow copy; a nil bag clones to an empty one.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Subset returns the entries of p named in keys. Missing keys map to nil.
func (p Params) Subset(keys ...string) Params {
	out := make(Params, len(keys))
	for _, k := range keys {
		out[k] = p[k]
	}
	return out
}

// Defined returns p without nil entries.
func (p Params) Defined() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// Equal reports whether a and b hold the same keys with deeply equal values.
func Equal(a, b Params) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}

// EqualOn reports whether a and b agree on every key in keys, treating absent
// keys as nil.
func EqualOn(a, b Params, keys ...string) bool {
	for _, k := range keys {
		if !reflect.DeepEqual(a[k], b[k]) {
			return false
		}
	}
	return true
}
