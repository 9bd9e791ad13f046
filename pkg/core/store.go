// Package core provides the fundamental data structures of the program behaviour graph.
//
// This file implements the graph store: string-identified vertices, labelled
// directed edges and indexed properties. It uses a read-write
// mutex so that any number of query sessions can read concurrently, while the
// builder holds the exclusive lock during the (single-writer) build phase.
package core

import (
	"fmt"
	"slices"
	"sync"
)

// Edge is a directed, labelled relation between two vertices.
type Edge struct {
	From  string `json:"from"`
	Label string `json:"label"`
	To    string `json:"to"`
}

// Stats summarises the size of a Store.
type Stats struct {
	Vertices   int `json:"vertices"`
	Edges      int `json:"edges"`
	Properties int `json:"properties"`
}

// vertex holds the adjacency and properties of a single vertex.
type vertex struct {
	// out maps a label to its targets, in edge insertion order.
	// Parallel edges are kept.
	out map[string][]string
	// outOrder lists labels in the order their first edge was added.
	outOrder []string
	// in lists every incoming edge in insertion order.
	in []Edge
	// props maps a key to its values in the order they were set. Keys set
	// through SetProperty hold exactly one value.
	props map[string][]string
}

// Store is a thread-safe, in-memory property graph.
//
// The graph is built once (AddVertex, AddEdge, AddRelation, SetProperty) and
// then frozen; after Freeze every mutation fails with ErrStoreFrozen and the
// store can be shared by any number of readers.
type Store struct {
	mu     sync.RWMutex
	frozen bool

	vertices map[string]*vertex
	// order is append-only. Readers may keep a captured slice header and
	// iterate it without holding the lock.
	order []string

	props     *propertyIndex
	edgeCount int
}

// NewStore creates and returns a new, empty Store.
func NewStore() *Store {
	return &Store{
		vertices: make(map[string]*vertex),
		props:    newPropertyIndex(),
	}
}

// --- Builder API ---

// AddVertex registers a vertex. Adding an existing vertex is a no-op.
func (s *Store) AddVertex(id string) error {
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrStoreFrozen
	}
	s.addVertexLocked(id)
	return nil
}

func (s *Store) addVertexLocked(id string) *vertex {
	if v, ok := s.vertices[id]; ok {
		return v
	}
	v := &vertex{out: make(map[string][]string)}
	s.vertices[id] = v
	s.order = append(s.order, id)
	return v
}

// AddEdge appends a labelled edge from -> to. Both endpoints must already exist.
func (s *Store) AddEdge(from, label, to string) error {
	if label == "" {
		return fmt.Errorf("%w: edge label", ErrEmptyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrStoreFrozen
	}

	src, ok := s.vertices[from]
	if !ok {
		return fmt.Errorf("%w: edge source %q", ErrVertexNotFound, from)
	}
	dst, ok := s.vertices[to]
	if !ok {
		return fmt.Errorf("%w: edge target %q", ErrVertexNotFound, to)
	}

	s.linkLocked(src, dst, Edge{From: from, Label: label, To: to})
	return nil
}

// AddRelation creates any missing endpoint and then appends the edge.
// It mirrors how triples are loaded: a relation implies its vertices.
func (s *Store) AddRelation(from, label, to string) error {
	if from == "" || to == "" {
		return ErrEmptyID
	}
	if label == "" {
		return fmt.Errorf("%w: edge label", ErrEmptyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrStoreFrozen
	}

	src := s.addVertexLocked(from)
	dst := s.addVertexLocked(to)
	s.linkLocked(src, dst, Edge{From: from, Label: label, To: to})
	return nil
}

func (s *Store) linkLocked(src, dst *vertex, e Edge) {
	if _, seen := src.out[e.Label]; !seen {
		src.outOrder = append(src.outOrder, e.Label)
	}
	src.out[e.Label] = append(src.out[e.Label], e.To)
	dst.in = append(dst.in, e)
	s.edgeCount++
}

// SetProperty sets an indexed, single-valued property on an existing vertex.
// Setting the value a property already has is a no-op; changing it fails
// with ErrPropertyImmutable.
func (s *Store) SetProperty(id, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: property key", ErrEmptyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrStoreFrozen
	}

	v, ok := s.vertices[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrVertexNotFound, id)
	}

	if current, exists := v.props[key]; exists {
		if len(current) == 1 && current[0] == value {
			return nil
		}
		return fmt.Errorf("%w: %s.%s is %q, refusing %q", ErrPropertyImmutable, id, key, current[0], value)
	}

	s.indexLocked(v, id, key, value)
	return nil
}

// AddIndexedValue adds value to the values indexed under key for an existing
// vertex. Unlike SetProperty a key may collect several values, as a source
// line does with the addresses of its instructions. Adding a value the key
// already holds is a no-op. Property reports the first value.
func (s *Store) AddIndexedValue(id, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: property key", ErrEmptyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrStoreFrozen
	}

	v, ok := s.vertices[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrVertexNotFound, id)
	}
	if slices.Contains(v.props[key], value) {
		return nil
	}

	s.indexLocked(v, id, key, value)
	return nil
}

func (s *Store) indexLocked(v *vertex, id, key, value string) {
	if v.props == nil {
		v.props = make(map[string][]string)
	}
	v.props[key] = append(v.props[key], value)
	s.props.insert(key, value, id)
}

// Freeze ends the build phase. It is idempotent.
func (s *Store) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// Frozen reports whether Freeze has been called.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// --- Read API ---
//
// Unknown vertices never produce an error: the result is simply empty.

// HasVertex reports whether id exists.
func (s *Store) HasVertex(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vertices[id]
	return ok
}

// Vertices returns every vertex id in insertion order.
func (s *Store) Vertices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// RangeVertices calls fn for each vertex in insertion order until fn returns false.
// The lock is not held while fn runs, so fn may call back into the store.
func (s *Store) RangeVertices(fn func(id string) bool) {
	s.mu.RLock()
	order := s.order
	s.mu.RUnlock()

	for _, id := range order {
		if !fn(id) {
			return
		}
	}
}

// OutEdges returns the targets of id's outgoing edges labelled label, in
// insertion order. Parallel edges are repeated.
func (s *Store) OutEdges(id, label string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vertices[id]
	if !ok {
		return nil
	}
	return append([]string(nil), v.out[label]...)
}

// InEdges returns the sources of id's incoming edges in insertion order.
// An empty label selects every incoming edge.
func (s *Store) InEdges(id, label string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vertices[id]
	if !ok {
		return nil
	}

	sources := make([]string, 0, len(v.in))
	for _, e := range v.in {
		if label == "" || e.Label == label {
			sources = append(sources, e.From)
		}
	}
	return sources
}

// PredicateLabels returns the labels for which id has at least one outgoing
// edge, in the order the first edge of each label was added.
func (s *Store) PredicateLabels(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vertices[id]
	if !ok {
		return nil
	}
	return append([]string(nil), v.outOrder...)
}

// Property returns the value of key on id. For a multi-valued key it is the
// first value added.
func (s *Store) Property(id, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vertices[id]
	if !ok || len(v.props[key]) == 0 {
		return "", false
	}
	return v.props[key][0], true
}

// PropertyValues returns every value indexed under key on id.
func (s *Store) PropertyValues(id, key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vertices[id]
	if !ok {
		return nil
	}
	return append([]string(nil), v.props[key]...)
}

// HasProperty reports whether id holds value under key.
func (s *Store) HasProperty(id, key, value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vertices[id]
	return ok && slices.Contains(v.props[key], value)
}

// VerticesWithProperty returns the vertices whose property key equals value,
// in the order the properties were set.
func (s *Store) VerticesWithProperty(key, value string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props.lookup(key, value)
}

// Stats returns vertex, edge and property counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Vertices:   len(s.order),
		Edges:      s.edgeCount,
		Properties: s.props.len(),
	}
}
