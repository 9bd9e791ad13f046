package traversal

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sanonone/pbg/pkg/core"
	"github.com/sanonone/pbg/pkg/metrics"
)

func buildStore(t *testing.T) *core.Store {
	t.Helper()
	s := core.NewStore()
	edges := [][3]string{
		{"main.c", "defines", "main"},
		{"main", "has-var", "i"},
		{"main", "has-var", "p"},
		{"main", "has-var", "i"}, // parallel edge
		{"i", "has-var-type", "t_int"},
		{"p", "has-var-type", "t_ptr"},
		{"t_int", "has-type-name", "int"},
		{"t_ptr", "pointer-type", "t_int"},
	}
	for _, e := range edges {
		if err := s.AddRelation(e[0], e[1], e[2]); err != nil {
			t.Fatalf("AddRelation(%v): %v", e, err)
		}
	}
	if err := s.SetProperty("main.c:line-3", "text-at-pc", "0x00001000"); err == nil {
		t.Fatalf("expected property on unknown vertex to fail")
	}
	if err := s.AddVertex("main.c:line-3"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetProperty("main.c:line-3", "text-at-pc", "0x00001000"); err != nil {
		t.Fatal(err)
	}
	s.Freeze()
	return s
}

func TestOutDeduplicatesInFirstSeenOrder(t *testing.T) {
	sess := NewSession(buildStore(t))

	got := sess.V("main").Out("has-var").ToArray()
	want := []string{"i", "p"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Out: got %v, want %v", got, want)
	}

	types := sess.V("main").Out("has-var").Out("has-var-type").ToArray()
	if !reflect.DeepEqual(types, []string{"t_int", "t_ptr"}) {
		t.Errorf("chained Out: got %v", types)
	}
}

func TestInAllLabels(t *testing.T) {
	sess := NewSession(buildStore(t))

	if got := sess.V("main").In("").ToArray(); !reflect.DeepEqual(got, []string{"main.c"}) {
		t.Errorf("In(\"\"): got %v", got)
	}
	if got := sess.V("t_int").In("pointer-type").ToArray(); !reflect.DeepEqual(got, []string{"t_ptr"}) {
		t.Errorf("In(pointer-type): got %v", got)
	}
}

func TestAbsenceIsEmpty(t *testing.T) {
	sess := NewSession(buildStore(t))

	tests := []struct {
		name string
		path *Path
	}{
		{"unknown vertex", sess.V("ghost").Out("has-var")},
		{"unknown label", sess.V("main").Out("no-such-label")},
		{"unknown property", sess.V().Has("text-at-pc", "0xdeadbeef")},
		{"limit zero", sess.V().Limit(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.ToArray(); len(got) != 0 {
				t.Errorf("expected empty result, got %v", got)
			}
			if !tt.path.First().IsAbsent() {
				t.Errorf("expected absent First")
			}
		})
	}
}

func TestOutPredicates(t *testing.T) {
	sess := NewSession(buildStore(t))

	got := sess.V("t_ptr").OutPredicates().ToArray()
	if !reflect.DeepEqual(got, []string{"pointer-type"}) {
		t.Fatalf("OutPredicates: got %v", got)
	}
	labels := sess.V("i", "p").OutPredicates().ToArray()
	if !reflect.DeepEqual(labels, []string{"has-var-type"}) {
		t.Errorf("OutPredicates union: got %v", labels)
	}
}

func TestHas(t *testing.T) {
	sess := NewSession(buildStore(t))

	if n := sess.V().Has("text-at-pc", "0x00001000").Count(); n != 1 {
		t.Errorf("indexed Has: count %d, want 1", n)
	}
	if n := sess.V("main", "main.c:line-3").Has("text-at-pc", "0x00001000").Count(); n != 1 {
		t.Errorf("filter Has: count %d, want 1", n)
	}
	if n := sess.V("main").Has("text-at-pc", "0x00001000").Count(); n != 0 {
		t.Errorf("filter Has on non-matching vertex: count %d, want 0", n)
	}
}

func TestFirstAndResult(t *testing.T) {
	sess := NewSession(buildStore(t))

	name, ok := sess.V("t_int").Out("has-type-name").First().Value()
	if !ok || name != "int" {
		t.Fatalf("First: got (%q, %v)", name, ok)
	}

	_, err := sess.V("t_ptr").Out("has-type-name").First().OrError("type name of t_ptr")
	if !errors.Is(err, ErrAbsentResult) {
		t.Errorf("expected ErrAbsentResult, got %v", err)
	}
	if got := None().Or("?"); got != "?" {
		t.Errorf("Or fallback: got %q", got)
	}
}

func TestOutDegreeCountsParallelEdges(t *testing.T) {
	sess := NewSession(buildStore(t))

	if n := sess.V("main").OutDegree("has-var"); n != 3 {
		t.Errorf("OutDegree: got %d, want 3", n)
	}
	if n := sess.V("main").Out("has-var").Count(); n != 2 {
		t.Errorf("Count after dedup: got %d, want 2", n)
	}
	if got := sess.V("main").OutRecords("has-var"); !reflect.DeepEqual(got, []string{"i", "p", "i"}) {
		t.Errorf("OutRecords: got %v", got)
	}
	if got := sess.V("ghost").OutRecords("has-var"); got == nil || len(got) != 0 {
		t.Errorf("OutRecords on absent vertex: got %#v", got)
	}
}

func TestLimitTerminatesUpstream(t *testing.T) {
	s := core.NewStore()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if err := s.AddVertex(id); err != nil {
			t.Fatal(err)
		}
	}
	s.Freeze()

	reader := &countingReader{Store: s}
	sess := NewSession(reader)

	before := testutil.ToFloat64(metrics.TraversalLimitCutoffs)
	got := sess.V().Limit(2).ToArray()
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Limit: got %v", got)
	}
	if reader.visited != 2 {
		t.Errorf("upstream visited %d vertices, want 2", reader.visited)
	}
	if after := testutil.ToFloat64(metrics.TraversalLimitCutoffs); after != before+1 {
		t.Errorf("cutoff counter: got %v, want %v", after, before+1)
	}
}

func TestLimitLargerThanResult(t *testing.T) {
	sess := NewSession(buildStore(t))
	got := sess.V("main").Out("has-var").Limit(10).ToArray()
	if !reflect.DeepEqual(got, []string{"i", "p"}) {
		t.Errorf("Limit(10): got %v", got)
	}
}

func TestAllEmitsToSink(t *testing.T) {
	sess := NewSession(buildStore(t), WithID("fixed"))

	sess.Emit("header")
	sess.V("main").Out("has-var").All()

	if sess.ID() != "fixed" {
		t.Errorf("ID: got %q", sess.ID())
	}
	want := "header\ni\np\n"
	if got := sess.Output().String(); got != want {
		t.Errorf("sink: got %q, want %q", got, want)
	}

	var buf bytes.Buffer
	n, err := sess.Output().WriteTo(&buf)
	if err != nil || n != int64(len(want)) || buf.String() != want {
		t.Errorf("WriteTo: n=%d err=%v out=%q", n, err, buf.String())
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := buildStore(t)
	a := NewSession(store)
	b := NewSession(store, WithLogger(slog.New(slog.DiscardHandler)))

	a.Emit("only in a")
	if b.Output().Len() != 0 {
		t.Errorf("session b saw output of session a")
	}
	if a.ID() == b.ID() {
		t.Errorf("sessions share id %q", a.ID())
	}
}

func TestDeterministicResults(t *testing.T) {
	store := buildStore(t)
	first := NewSession(store).V().Out("has-var").Out("has-var-type").ToArray()
	for i := 0; i < 20; i++ {
		got := NewSession(store).V().Out("has-var").Out("has-var-type").ToArray()
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

// countingReader records how many root vertices were pulled.
type countingReader struct {
	*core.Store
	visited int
}

func (c *countingReader) RangeVertices(fn func(id string) bool) {
	c.Store.RangeVertices(func(id string) bool {
		c.visited++
		return fn(id)
	})
}
