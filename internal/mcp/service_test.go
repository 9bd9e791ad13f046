package mcp

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/engine"
	"github.com/sanonone/pbg/pkg/hotspot"
)

func newService(t *testing.T, freeze bool) *Service {
	t.Helper()
	eng, err := engine.Open(engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eng.Close() })

	for _, r := range [][3]string{
		{"t1", "has-type-name", "char"},
		{"t2", "pointer-type", "t1"},
		{"t3", "const-type", "t2"},
		{"main", "has-var", "argv"},
		{"main", "has-var", "argc"},
	} {
		if err := eng.AddRelation(r[0], r[1], r[2]); err != nil {
			t.Fatal(err)
		}
	}
	if freeze {
		if err := eng.Freeze(); err != nil {
			t.Fatal(err)
		}
	}
	return NewService(eng, debuginfo.NewTypeResolver(), hotspot.NewAnalyzer(hotspot.DefaultOptions()), nil)
}

func TestResolveTypeTool(t *testing.T) {
	s := newService(t, true)

	_, out, err := s.ResolveType(context.Background(), nil, ResolveTypeArgs{TypeID: "t3"})
	if err != nil {
		t.Fatalf("ResolveType: %v", err)
	}
	if out.Type != "const char*" {
		t.Errorf("got %q", out.Type)
	}
}

func TestOutNeighborsTool(t *testing.T) {
	s := newService(t, true)

	_, out, err := s.OutNeighbors(context.Background(), nil, OutNeighborsArgs{VertexID: "main", Label: "has-var", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out.Neighbors, []string{"argv"}) {
		t.Errorf("neighbors: %v", out.Neighbors)
	}

	_, out, err = s.OutNeighbors(context.Background(), nil, OutNeighborsArgs{VertexID: "t2"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out.Labels, []string{"pointer-type"}) {
		t.Errorf("labels: %v", out.Labels)
	}
}

func TestHotspotToolWithoutTrace(t *testing.T) {
	s := newService(t, true)

	_, _, err := s.MissHotspot(context.Background(), nil, HotspotArgs{})
	if !errors.Is(err, hotspot.ErrNoHotspotFound) {
		t.Errorf("expected ErrNoHotspotFound, got %v", err)
	}
}

func TestToolsRequireFrozenGraph(t *testing.T) {
	s := newService(t, false)

	if _, _, err := s.VariableReport(context.Background(), nil, VariableReportArgs{Function: "main"}); !errors.Is(err, errNotFrozen) {
		t.Errorf("expected errNotFrozen, got %v", err)
	}
}
