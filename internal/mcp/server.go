package mcp

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/engine"
	"github.com/sanonone/pbg/pkg/hotspot"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

func NewMCPServer(eng *engine.Engine, resolver *debuginfo.TypeResolver, analyzer *hotspot.Analyzer, logger *slog.Logger) *mcp.Server {
	service := NewService(eng, resolver, analyzer, logger)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "pbg",
		Version: Version,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "resolve_type",
		Description: "Render a type-id vertex of the program graph as a C type string (e.g. 'const int*').",
	}, service.ResolveType)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "miss_hotspot",
		Description: "Find the source line with the most cache misses in the loaded memory trace.",
	}, service.MissHotspot)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "variable_report",
		Description: "List the variables declared in a function with their types and declaration lines.",
	}, service.VariableReport)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "out_neighbors",
		Description: "Follow outgoing edges of a vertex under a label, or list its outgoing labels when no label is given.",
	}, service.OutNeighbors)

	return s
}
