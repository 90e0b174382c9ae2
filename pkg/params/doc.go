// Package params computes the effective parameter set of a state.
//
// A state's effective parameters are the union of the parameter names declared
// by the state itself and by every one of its ancestors. Compute takes those
// declarations in root-first order and fills each declared name from, in
// order: the raw input bag, the currently active parameters (only with
// Inherit), the declaration's default value, or nil.
//
// The result always carries exactly the declared keys. Raw keys that nothing
// in the chain declares are dropped, unless Strict is requested, in which case
// they are reported with UnknownParamError. Declaring the same name twice in
// one chain is a configuration error (DuplicateParamError); a declaration may
// also validate the supplied value (InvalidParamError).
//
// # Usage
//
//	decls := []params.Declaration{
//	    {Owner: "D", Name: "x"},
//	    {Owner: "D", Name: "y"},
//	    {Owner: "DD", Name: "z"},
//	}
//	eff, err := params.Compute(decls, params.Params{"x": "1", "y": "2"}, nil, 0)
//	// eff == params.Params{"x": "1", "y": "2", "z": nil}
package params
