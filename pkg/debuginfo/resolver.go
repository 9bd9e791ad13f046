// Package debuginfo renders debug-information facts stored in the graph:
// C type strings reconstructed from type-id chains, and per-function
// variable declaration reports.
package debuginfo

import (
	"fmt"

	"github.com/sanonone/pbg/pkg/traversal"
)

// Edge labels of the debug-information subgraph.
const (
	LabelTypeName    = "has-type-name"
	LabelPointerType = "pointer-type"
	LabelConstType   = "const-type"
	LabelRestrict    = "restrict-type"
	LabelHasVar      = "has-var"
	LabelVarType     = "has-var-type"
	LabelDeclAt      = "decl-at"
	LabelLineContent = "line-content"
)

// DefaultMaxDepth bounds the number of qualifiers chased for one type id.
const DefaultMaxDepth = 64

// Qualifier wraps the rendering of the inner type.
type Qualifier struct {
	Prefix string
	Suffix string
}

// Apply renders inner with the qualifier around it.
func (q Qualifier) Apply(inner string) string {
	return q.Prefix + inner + q.Suffix
}

// DefaultQualifiers returns the built-in qualifier table.
func DefaultQualifiers() map[string]Qualifier {
	return map[string]Qualifier{
		LabelPointerType: {Suffix: "*"},
		LabelConstType:   {Prefix: "const "},
		LabelRestrict:    {Prefix: "restrict "},
	}
}

// TypeResolver turns type ids into human-readable C type strings.
// It is safe for concurrent use once constructed.
type TypeResolver struct {
	qualifiers map[string]Qualifier
	maxDepth   int
}

// ResolverOption configures a TypeResolver.
type ResolverOption func(*TypeResolver)

// WithQualifier adds or replaces the rule for a predicate label.
func WithQualifier(label string, q Qualifier) ResolverOption {
	return func(r *TypeResolver) {
		r.qualifiers[label] = q
	}
}

// WithMaxDepth sets the qualifier depth limit. Values below 1 keep the default.
func WithMaxDepth(depth int) ResolverOption {
	return func(r *TypeResolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// NewTypeResolver returns a resolver with the default qualifier table.
func NewTypeResolver(opts ...ResolverOption) *TypeResolver {
	r := &TypeResolver{
		qualifiers: DefaultQualifiers(),
		maxDepth:   DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve renders the type string of typeID.
//
// A type id with a has-type-name edge is a base type. Otherwise the first
// outgoing predicate label selects a qualifier and its first target is the
// inner type. Labels without a qualifier rule fail with an
// *UnknownTypeKindError.
func (r *TypeResolver) Resolve(s *traversal.Session, typeID string) (string, error) {
	return r.resolve(s, typeID, 0)
}

func (r *TypeResolver) resolve(s *traversal.Session, typeID string, depth int) (string, error) {
	if depth > r.maxDepth {
		return "", fmt.Errorf("%w: %s after %d qualifiers", ErrTypeChainTooDeep, typeID, r.maxDepth)
	}

	if name, ok := s.V(typeID).Out(LabelTypeName).First().Value(); ok {
		return name, nil
	}

	label := s.V(typeID).OutPredicates().First().Or("")
	q, ok := r.qualifiers[label]
	if !ok {
		return "", &UnknownTypeKindError{TypeID: typeID, Label: label}
	}

	next, err := s.V(typeID).Out(label).First().OrError(typeID + " -" + label + "->")
	if err != nil {
		return "", err
	}

	inner, err := r.resolve(s, next, depth+1)
	if err != nil {
		return "", err
	}
	return q.Apply(inner), nil
}
