package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/engine"
	"github.com/sanonone/pbg/pkg/hotspot"
	"github.com/sanonone/pbg/pkg/traversal"
)

var errNotFrozen = errors.New("graph is still being built")

// Service implements the MCP tool handlers over an engine. Every call runs
// in its own query session.
type Service struct {
	engine   *engine.Engine
	resolver *debuginfo.TypeResolver
	analyzer *hotspot.Analyzer
	logger   *slog.Logger
}

// NewService creates the tool handlers. A nil logger uses slog.Default().
func NewService(eng *engine.Engine, resolver *debuginfo.TypeResolver, analyzer *hotspot.Analyzer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:   eng,
		resolver: resolver,
		analyzer: analyzer,
		logger:   logger,
	}
}

// session opens a fresh query session; every tool call gets its own.
func (s *Service) session() (*traversal.Session, error) {
	if !s.engine.Store().Frozen() {
		return nil, errNotFrozen
	}
	return s.engine.NewSession(traversal.WithLogger(s.logger)), nil
}

// --- Tool Handlers ---

func (s *Service) ResolveType(ctx context.Context, req *mcp.CallToolRequest, args ResolveTypeArgs) (*mcp.CallToolResult, ResolveTypeResult, error) {
	sess, err := s.session()
	if err != nil {
		return nil, ResolveTypeResult{}, err
	}
	name, err := s.resolver.Resolve(sess, args.TypeID)
	if err != nil {
		return nil, ResolveTypeResult{}, err
	}
	return nil, ResolveTypeResult{TypeID: args.TypeID, Type: name}, nil
}

func (s *Service) MissHotspot(ctx context.Context, req *mcp.CallToolRequest, args HotspotArgs) (*mcp.CallToolResult, HotspotResult, error) {
	sess, err := s.session()
	if err != nil {
		return nil, HotspotResult{}, err
	}
	res, err := s.analyzer.Report(ctx, sess)
	if err != nil {
		return nil, HotspotResult{}, err
	}
	return nil, HotspotResult{Result: res, Report: sess.Output().String()}, nil
}

func (s *Service) VariableReport(ctx context.Context, req *mcp.CallToolRequest, args VariableReportArgs) (*mcp.CallToolResult, VariableReportResult, error) {
	sess, err := s.session()
	if err != nil {
		return nil, VariableReportResult{}, err
	}
	vars, err := s.resolver.VariableReport(ctx, sess, args.Function)
	if err != nil {
		return nil, VariableReportResult{}, err
	}
	return nil, VariableReportResult{Variables: vars, Report: sess.Output().String()}, nil
}

func (s *Service) OutNeighbors(ctx context.Context, req *mcp.CallToolRequest, args OutNeighborsArgs) (*mcp.CallToolResult, OutNeighborsResult, error) {
	sess, err := s.session()
	if err != nil {
		return nil, OutNeighborsResult{}, err
	}

	out := OutNeighborsResult{VertexID: args.VertexID, Label: args.Label}

	// Without a label, tell the client which labels exist.
	if args.Label == "" {
		out.Labels = sess.V(args.VertexID).OutPredicates().ToArray()
		return nil, out, nil
	}

	path := sess.V(args.VertexID).Out(args.Label)
	if args.Limit > 0 {
		path = path.Limit(args.Limit)
	}
	out.Neighbors = path.ToArray()
	return nil, out, nil
}
