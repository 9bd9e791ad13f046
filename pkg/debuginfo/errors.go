package debuginfo

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTypeKind is returned when a type id is reached through a
	// predicate label with no qualifier rule.
	ErrUnknownTypeKind = errors.New("unknown type kind")

	// ErrTypeChainTooDeep is returned when qualifier chasing exceeds the
	// resolver's depth limit, usually because the type chain is cyclic.
	ErrTypeChainTooDeep = errors.New("type chain too deep")
)

// UnknownTypeKindError names the type id that could not be resolved and the
// predicate label that was found on it. Label is empty when the type id had
// no outgoing edges at all.
type UnknownTypeKindError struct {
	TypeID string
	Label  string
}

func (e *UnknownTypeKindError) Error() string {
	return fmt.Sprintf("unknown type id %s (%s)", e.TypeID, e.Label)
}

func (e *UnknownTypeKindError) Is(target error) bool {
	return target == ErrUnknownTypeKind
}
