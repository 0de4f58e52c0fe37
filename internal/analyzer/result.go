package analyzer

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks any failed collaborator call. Callers skip the step
// that needed the data and carry on.
var ErrUnavailable = errors.New("collaborator unavailable")

// UnavailableError records which capability failed and why.
type UnavailableError struct {
	Capability string
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Capability, ErrUnavailable)
	}
	return fmt.Sprintf("%s: %v: %v", e.Capability, ErrUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is reports ErrUnavailable as a match so callers do not need errors.As.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Result is the outcome of one capability call: either a payload or a failure.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call produced a payload.
func (r Result[T]) OK() bool { return r.Err == nil }

// Succeeded wraps a payload.
func Succeeded[T any](v T) Result[T] { return Result[T]{Value: v} }

// Failed wraps err as an UnavailableError for capability.
func Failed[T any](capability string, err error) Result[T] {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return Result[T]{Err: err}
	}
	return Result[T]{Err: &UnavailableError{Capability: capability, Err: err}}
}
