package state

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName   = errors.New("state name cannot be empty")
	ErrSelfParent  = errors.New("state cannot be its own parent")
	ErrParentCycle = errors.New("state hierarchy contains a cycle")
	ErrNilState    = errors.New("state cannot be nil")
	ErrLoadFailed  = errors.New("failed to load state definitions")
)

// ErrRelativeResolution indicates that expr could not be resolved from anchor.
// It is also returned when an ancestor chain names a parent that is not registered.
type ErrRelativeResolution struct {
	Expr   string
	Anchor string
}

func (e *ErrRelativeResolution) Error() string {
	return fmt.Sprintf("Could not resolve '%s' from state '%s'", e.Expr, e.Anchor)
}

func NewErrRelativeResolution(expr, anchor string) *ErrRelativeResolution {
	return &ErrRelativeResolution{Expr: expr, Anchor: anchor}
}

func IsRelativeResolutionError(err error) bool {
	var e *ErrRelativeResolution
	return errors.As(err, &e)
}
