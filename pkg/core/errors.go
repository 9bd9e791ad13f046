package core

import "errors"

// Sentinel errors for store mutations. Reads never fail.
var (
	// ErrStoreFrozen is returned by every mutation after Freeze.
	ErrStoreFrozen = errors.New("graph store is frozen")

	// ErrVertexNotFound is returned when an edge or property references a
	// vertex that was never added.
	ErrVertexNotFound = errors.New("vertex not found")

	// ErrPropertyImmutable is returned when a property is set to a value
	// different from the one it already holds.
	ErrPropertyImmutable = errors.New("property already set")

	// ErrEmptyID is returned for an empty vertex id, label or property key.
	ErrEmptyID = errors.New("empty identifier")
)
