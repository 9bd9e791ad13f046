package core

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestStoreEdgesKeepInsertionOrder(t *testing.T) {
	s := NewStore()

	for _, rel := range [][3]string{
		{"main", "has-var", "argc"},
		{"main", "has-var", "argv"},
		{"main", "decl-at", "line-3"},
		{"main", "has-var", "argc"}, // parallel edge
		{"tcc.c", "contains", "main"},
	} {
		if err := s.AddRelation(rel[0], rel[1], rel[2]); err != nil {
			t.Fatalf("AddRelation(%v) failed: %v", rel, err)
		}
	}

	got := s.OutEdges("main", "has-var")
	want := []string{"argc", "argv", "argc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OutEdges = %v, want %v", got, want)
	}

	if labels := s.PredicateLabels("main"); !reflect.DeepEqual(labels, []string{"has-var", "decl-at"}) {
		t.Errorf("PredicateLabels = %v", labels)
	}

	if in := s.InEdges("main", ""); !reflect.DeepEqual(in, []string{"tcc.c"}) {
		t.Errorf("InEdges(all) = %v", in)
	}
	if in := s.InEdges("argc", "has-var"); !reflect.DeepEqual(in, []string{"main", "main"}) {
		t.Errorf("InEdges(has-var) = %v", in)
	}

	wantOrder := []string{"main", "argc", "argv", "line-3", "tcc.c"}
	if order := s.Vertices(); !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("Vertices = %v, want %v", order, wantOrder)
	}

	stats := s.Stats()
	if stats.Vertices != 5 || stats.Edges != 5 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestStoreUnknownVertexIsEmpty(t *testing.T) {
	s := NewStore()

	if got := s.OutEdges("ghost", "any"); len(got) != 0 {
		t.Errorf("OutEdges on unknown vertex = %v", got)
	}
	if got := s.InEdges("ghost", ""); len(got) != 0 {
		t.Errorf("InEdges on unknown vertex = %v", got)
	}
	if got := s.PredicateLabels("ghost"); len(got) != 0 {
		t.Errorf("PredicateLabels on unknown vertex = %v", got)
	}
	if _, ok := s.Property("ghost", "k"); ok {
		t.Error("Property on unknown vertex should be absent")
	}
}

func TestStoreAddEdgeRequiresEndpoints(t *testing.T) {
	s := NewStore()
	if err := s.AddVertex("a"); err != nil {
		t.Fatal(err)
	}

	err := s.AddEdge("a", "rel", "b")
	if !errors.Is(err, ErrVertexNotFound) {
		t.Fatalf("expected ErrVertexNotFound, got %v", err)
	}
	if s.Stats().Edges != 0 {
		t.Error("a failed AddEdge must not leave a dangling edge")
	}

	if err := s.AddVertex(""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}
}

func TestStorePropertyIndex(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"tcc.c:line-10", "tcc.c:line-11", "libtcc.c:line-2"} {
		if err := s.AddVertex(id); err != nil {
			t.Fatal(err)
		}
	}

	mustSet := func(id, key, value string) {
		t.Helper()
		if err := s.SetProperty(id, key, value); err != nil {
			t.Fatalf("SetProperty(%s) failed: %v", id, err)
		}
	}
	mustSet("tcc.c:line-11", "text-at-pc", "0x00401000")
	mustSet("tcc.c:line-10", "text-at-pc", "0x00401000")
	mustSet("libtcc.c:line-2", "text-at-pc", "0x00402000")

	got := s.VerticesWithProperty("text-at-pc", "0x00401000")
	want := []string{"tcc.c:line-11", "tcc.c:line-10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("VerticesWithProperty = %v, want %v", got, want)
	}

	if got := s.VerticesWithProperty("text-at-pc", "0x00409999"); len(got) != 0 {
		t.Errorf("expected no match, got %v", got)
	}
	if got := s.VerticesWithProperty("other", "0x00401000"); len(got) != 0 {
		t.Errorf("expected no match for other key, got %v", got)
	}

	// Same value again is a no-op, a different one is refused.
	mustSet("tcc.c:line-10", "text-at-pc", "0x00401000")
	err := s.SetProperty("tcc.c:line-10", "text-at-pc", "0x00403000")
	if !errors.Is(err, ErrPropertyImmutable) {
		t.Fatalf("expected ErrPropertyImmutable, got %v", err)
	}
	if v, _ := s.Property("tcc.c:line-10", "text-at-pc"); v != "0x00401000" {
		t.Errorf("property changed to %q", v)
	}
	if n := s.Stats().Properties; n != 3 {
		t.Errorf("Properties = %d, want 3", n)
	}
}

func TestStoreIndexedValues(t *testing.T) {
	s := NewStore()
	if err := s.AddVertex("main.c:line-4"); err != nil {
		t.Fatal(err)
	}

	for _, pc := range []string{"0x00002000", "0x00002004", "0x00002000"} {
		if err := s.AddIndexedValue("main.c:line-4", "text-at-pc", pc); err != nil {
			t.Fatalf("AddIndexedValue(%s) failed: %v", pc, err)
		}
	}

	want := []string{"0x00002000", "0x00002004"}
	if got := s.PropertyValues("main.c:line-4", "text-at-pc"); !reflect.DeepEqual(got, want) {
		t.Errorf("PropertyValues = %v, want %v", got, want)
	}
	if v, _ := s.Property("main.c:line-4", "text-at-pc"); v != "0x00002000" {
		t.Errorf("Property = %q, want the first value", v)
	}
	for _, pc := range want {
		if got := s.VerticesWithProperty("text-at-pc", pc); !reflect.DeepEqual(got, []string{"main.c:line-4"}) {
			t.Errorf("VerticesWithProperty(%s) = %v", pc, got)
		}
		if !s.HasProperty("main.c:line-4", "text-at-pc", pc) {
			t.Errorf("HasProperty(%s) = false", pc)
		}
	}
	if s.HasProperty("main.c:line-4", "text-at-pc", "0x00002008") {
		t.Error("HasProperty matched a value never added")
	}
	if n := s.Stats().Properties; n != 2 {
		t.Errorf("Properties = %d, want 2", n)
	}

	// A multi-valued key is no longer settable as a single value.
	if err := s.SetProperty("main.c:line-4", "text-at-pc", "0x00002000"); !errors.Is(err, ErrPropertyImmutable) {
		t.Errorf("SetProperty on multi-valued key: %v", err)
	}
	if err := s.AddIndexedValue("ghost", "text-at-pc", "0x1"); !errors.Is(err, ErrVertexNotFound) {
		t.Errorf("AddIndexedValue on missing vertex: %v", err)
	}
}

func TestStoreFreeze(t *testing.T) {
	s := NewStore()
	if err := s.AddRelation("a", "rel", "b"); err != nil {
		t.Fatal(err)
	}
	s.Freeze()
	s.Freeze()

	if !s.Frozen() {
		t.Fatal("store should report frozen")
	}
	if err := s.AddVertex("c"); !errors.Is(err, ErrStoreFrozen) {
		t.Errorf("AddVertex after freeze: %v", err)
	}
	if err := s.AddRelation("a", "rel", "c"); !errors.Is(err, ErrStoreFrozen) {
		t.Errorf("AddRelation after freeze: %v", err)
	}
	if err := s.SetProperty("a", "k", "v"); !errors.Is(err, ErrStoreFrozen) {
		t.Errorf("SetProperty after freeze: %v", err)
	}
	if got := s.OutEdges("a", "rel"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("reads must keep working after freeze, got %v", got)
	}
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	for i := 0; i < 100; i++ {
		if err := s.AddRelation("root", "child", fmt.Sprintf("n%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	s.Freeze()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if n := len(s.OutEdges("root", "child")); n != 100 {
					t.Errorf("reader saw %d children", n)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRangeVerticesStopsEarly(t *testing.T) {
	s := NewStore()
	for i := 0; i < 10; i++ {
		if err := s.AddVertex(fmt.Sprintf("v%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	seen := 0
	s.RangeVertices(func(id string) bool {
		seen++
		// Reads from inside the callback must not deadlock.
		_ = s.OutEdges(id, "x")
		return seen < 3
	})
	if seen != 3 {
		t.Errorf("RangeVertices visited %d vertices, want 3", seen)
	}
}
