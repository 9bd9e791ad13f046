package mcp

import (
	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/hotspot"
)

// --- Tool Arguments ---

type ResolveTypeArgs struct {
	TypeID string `json:"type_id" jsonschema:"The type-id vertex to render as a C type (e.g. a DWARF type offset),required"`
}

type ResolveTypeResult struct {
	TypeID string `json:"type_id"`
	Type   string `json:"type"`
}

type HotspotArgs struct{}

type HotspotResult struct {
	Result *hotspot.Result `json:"result"`
	Report string          `json:"report"`
}

type VariableReportArgs struct {
	Function string `json:"function" jsonschema:"The function vertex whose local variables are listed (e.g. 'main'),required"`
}

type VariableReportResult struct {
	Variables []debuginfo.Variable `json:"variables"`
	Report    string               `json:"report"`
}

type OutNeighborsArgs struct {
	VertexID string `json:"vertex_id" jsonschema:"The vertex to start from,required"`
	Label    string `json:"label,omitempty" jsonschema:"Edge label to follow. When empty the vertex's outgoing labels are listed instead"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max number of neighbours (default: all)"`
}

type OutNeighborsResult struct {
	VertexID  string   `json:"vertex_id"`
	Label     string   `json:"label,omitempty"`
	Neighbors []string `json:"neighbors,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}
