package traversal

import (
	"errors"
	"fmt"
)

// ErrAbsentResult is returned when a traversal that was expected to produce a
// value produced none.
var ErrAbsentResult = errors.New("absent result")

// Result is the optional outcome of a single-value terminal such as First.
// The zero value is absent.
type Result struct {
	value string
	ok    bool
}

// Some wraps a present value.
func Some(value string) Result {
	return Result{value: value, ok: true}
}

// None returns an absent Result.
func None() Result {
	return Result{}
}

// Value returns the value and whether it is present.
func (r Result) Value() (string, bool) {
	return r.value, r.ok
}

// IsAbsent reports whether the Result holds no value.
func (r Result) IsAbsent() bool {
	return !r.ok
}

// Or returns the value, or fallback when absent.
func (r Result) Or(fallback string) string {
	if !r.ok {
		return fallback
	}
	return r.value
}

// OrError returns the value, or an error wrapping ErrAbsentResult that names
// what was being looked up.
func (r Result) OrError(what string) (string, error) {
	if !r.ok {
		return "", fmt.Errorf("%w: %s", ErrAbsentResult, what)
	}
	return r.value, nil
}

func (r Result) String() string {
	if !r.ok {
		return "<absent>"
	}
	return r.value
}
