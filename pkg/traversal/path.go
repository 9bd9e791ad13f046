package traversal

import (
	"iter"

	"github.com/sanonone/pbg/pkg/metrics"
)

type rootKind int

const (
	rootNone     rootKind = iota // derived by at least one step
	rootAll                      // V()
	rootExplicit                 // V(ids...)
)

// Path is an immutable traversal step chain. Every step returns a new Path,
// so a prefix can be reused to build several queries.
type Path struct {
	session *Session
	root    rootKind
	seq     iter.Seq[string]
}

func (p *Path) derive(step string, seq iter.Seq[string]) *Path {
	return &Path{
		session: p.session,
		root:    rootNone,
		seq: func(yield func(string) bool) {
			metrics.TraversalSteps.WithLabelValues(step).Inc()
			seq(yield)
		},
	}
}

// expand replaces each vertex with neighbours(vertex), keeping the first
// occurrence of every neighbour.
func (p *Path) expand(step string, neighbours func(id string) []string) *Path {
	upstream := p.seq
	return p.derive(step, func(yield func(string) bool) {
		seen := make(map[string]struct{})
		for id := range upstream {
			for _, next := range neighbours(id) {
				if _, dup := seen[next]; dup {
					continue
				}
				seen[next] = struct{}{}
				if !yield(next) {
					return
				}
			}
		}
	})
}

// Out follows outgoing edges labelled label.
func (p *Path) Out(label string) *Path {
	store := p.session.store
	return p.expand("out", func(id string) []string {
		return store.OutEdges(id, label)
	})
}

// In follows incoming edges labelled label; an empty label follows every
// incoming edge.
func (p *Path) In(label string) *Path {
	store := p.session.store
	return p.expand("in", func(id string) []string {
		return store.InEdges(id, label)
	})
}

// OutPredicates replaces each vertex with the labels of its outgoing edges.
// The labels are pseudo-vertices: they can be materialised and passed as
// arguments to later steps.
func (p *Path) OutPredicates() *Path {
	store := p.session.store
	return p.expand("out_predicates", store.PredicateLabels)
}

// Has keeps the vertices that hold value under the indexed property key.
// Directly on V() it is answered by the property index.
func (p *Path) Has(key, value string) *Path {
	store := p.session.store

	if p.root == rootAll {
		return p.derive("has_index", func(yield func(string) bool) {
			for _, id := range store.VerticesWithProperty(key, value) {
				if !yield(id) {
					return
				}
			}
		})
	}

	upstream := p.seq
	return p.derive("has", func(yield func(string) bool) {
		for id := range upstream {
			if store.HasProperty(id, key, value) {
				if !yield(id) {
					return
				}
			}
		}
	})
}

// Limit keeps at most the first n results. Upstream steps stop producing as
// soon as n results have been taken.
func (p *Path) Limit(n int) *Path {
	upstream := p.seq
	return p.derive("limit", func(yield func(string) bool) {
		if n <= 0 {
			return
		}
		taken := 0
		for id := range upstream {
			if !yield(id) {
				return
			}
			taken++
			if taken >= n {
				metrics.TraversalLimitCutoffs.Inc()
				return
			}
		}
	})
}

// --- Terminals ---

// ToArray materialises the ordered, deduplicated result.
func (p *Path) ToArray() []string {
	out := []string{}
	for id := range p.seq {
		out = append(out, id)
	}
	return out
}

// All materialises the result and emits every value to the session output.
func (p *Path) All() []string {
	values := p.ToArray()
	for _, v := range values {
		p.session.Emit(v)
	}
	return values
}

// Count returns the number of results without collecting them.
func (p *Path) Count() int {
	n := 0
	for range p.seq {
		n++
	}
	return n
}

// First returns the first result, or an absent Result when there is none.
// It only pulls a single element through the chain.
func (p *Path) First() Result {
	for id := range p.seq {
		return Some(id)
	}
	return None()
}

// OutDegree returns the number of outgoing edges labelled label across the
// current result, counting parallel edges individually.
func (p *Path) OutDegree(label string) int {
	return len(p.OutRecords(label))
}

// OutRecords returns the target of every outgoing edge labelled label across
// the current result. Unlike Out it does not deduplicate: each parallel edge
// yields its target once.
func (p *Path) OutRecords(label string) []string {
	store := p.session.store
	records := []string{}
	for id := range p.seq {
		records = append(records, store.OutEdges(id, label)...)
	}
	return records
}
