// Package export writes a graph, or the part of it leaving a set of vertices,
// as Graphviz DOT or as Datalog facts.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
)

// Graph is the read side of the store an export walks. *core.Store implements it.
type Graph interface {
	HasVertex(id string) bool
	Vertices() []string
	PredicateLabels(id string) []string
	OutEdges(id, label string) []string
}

// Options selects what is exported.
type Options struct {
	// Subjects restricts the export to edges leaving these vertices. Empty
	// exports every edge.
	Subjects []string
}

// Triple is one exported edge.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// Triples lists the selected edges: subjects in vertex insertion order (or in
// the order given), labels in first-insertion order, parallel edges repeated.
func Triples(g Graph, opts Options) []Triple {
	subjects := opts.Subjects
	if len(subjects) == 0 {
		subjects = g.Vertices()
	}

	var out []Triple
	seen := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		if _, dup := seen[s]; dup || !g.HasVertex(s) {
			continue
		}
		seen[s] = struct{}{}
		for _, label := range g.PredicateLabels(s) {
			for _, o := range g.OutEdges(s, label) {
				out = append(out, Triple{Subject: s, Predicate: label, Object: o})
			}
		}
	}
	return out
}

// --- DOT ---

type dotNode struct {
	id   int64
	name string
}

func (n dotNode) ID() int64     { return n.id }
func (n dotNode) DOTID() string { return n.name }

type dotLine struct {
	multi.Line
	label string
}

func (l dotLine) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: l.label}}
}

type attributes []encoding.Attribute

func (a attributes) Attributes() []encoding.Attribute { return a }

type dotGraph struct {
	*multi.DirectedGraph
}

func (dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	graph = attributes{
		{Key: "size", Value: "7.75,10.25"},
		{Key: "ratio", Value: "compress"},
	}
	return graph, attributes{}, attributes{}
}

// WriteDOT writes the selected edges as a directed Graphviz multigraph, one
// labelled edge per graph edge.
func WriteDOT(w io.Writer, g Graph, opts Options) error {
	mg := dotGraph{multi.NewDirectedGraph()}
	nodes := make(map[string]dotNode)
	node := func(name string) dotNode {
		n, ok := nodes[name]
		if !ok {
			n = dotNode{id: int64(len(nodes)), name: name}
			nodes[name] = n
			mg.AddNode(n)
		}
		return n
	}

	for _, t := range Triples(g, opts) {
		from, to := node(t.Subject), node(t.Object)
		line := mg.NewLine(from, to).(multi.Line)
		mg.SetLine(dotLine{Line: line, label: t.Predicate})
	}

	b, err := dot.MarshalMulti(mg, "pbg", "", "\t")
	if err != nil {
		return fmt.Errorf("failed to encode dot graph: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

// --- Datalog ---

// WriteDatalog writes one Soufflé relation per edge label, declared before
// its first fact:
//
//	.decl has_var(from: symbol, to: symbol)
//	has_var("main", "argc").
func WriteDatalog(w io.Writer, g Graph, opts Options) error {
	bw := bufio.NewWriter(w)
	declared := make(map[string]struct{})

	for _, t := range Triples(g, opts) {
		rel := RelationName(t.Predicate)
		if _, ok := declared[rel]; !ok {
			declared[rel] = struct{}{}
			fmt.Fprintf(bw, ".decl %s(from: symbol, to: symbol)\n", rel)
		}
		fmt.Fprintf(bw, "%s(%s, %s).\n", rel, datalogString(t.Subject), datalogString(t.Object))
	}
	return bw.Flush()
}

// RelationName maps an edge label to a Datalog identifier: characters other
// than letters, digits and '_' become '_', and a leading digit gets an
// "r_" prefix. "has-var" becomes "has_var".
func RelationName(label string) string {
	var b strings.Builder
	for i, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteString("r_")
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

var datalogEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func datalogString(s string) string {
	return `"` + datalogEscaper.Replace(s) + `"`
}
