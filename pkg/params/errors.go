package params

import (
	"errors"
	"fmt"
)

// ErrDuplicateParam indicates a parameter name declared twice in one ancestor chain.
type ErrDuplicateParam struct {
	Name   string
	First  string
	Second string
}

func (e *ErrDuplicateParam) Error() string {
	return fmt.Sprintf("param '%s' declared by both '%s' and '%s'", e.Name, e.First, e.Second)
}

func NewErrDuplicateParam(name, first, second string) *ErrDuplicateParam {
	return &ErrDuplicateParam{Name: name, First: first, Second: second}
}

// ErrUnknownParam indicates a raw parameter nothing in the chain declares (strict mode only).
type ErrUnknownParam struct {
	Name string
}

func (e *ErrUnknownParam) Error() string {
	return fmt.Sprintf("unknown param '%s'", e.Name)
}

func NewErrUnknownParam(name string) *ErrUnknownParam {
	return &ErrUnknownParam{Name: name}
}

// ErrInvalidParam wraps a validation failure of a declared parameter.
type ErrInvalidParam struct {
	Owner string
	Name  string
	Err   error
}

func (e *ErrInvalidParam) Error() string {
	return fmt.Sprintf("invalid value for param '%s' of state '%s': %v", e.Name, e.Owner, e.Err)
}

func (e *ErrInvalidParam) Unwrap() error {
	return e.Err
}

func NewErrInvalidParam(owner, name string, err error) *ErrInvalidParam {
	return &ErrInvalidParam{Owner: owner, Name: name, Err: err}
}

func IsDuplicateParamError(err error) bool {
	var e *ErrDuplicateParam
	return errors.As(err, &e)
}

func IsUnknownParamError(err error) bool {
	var e *ErrUnknownParam
	return errors.As(err, &e)
}

func IsInvalidParamError(err error) bool {
	var e *ErrInvalidParam
	return errors.As(err, &e)
}
