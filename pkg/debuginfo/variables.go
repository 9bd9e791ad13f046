package debuginfo

import (
	"context"
	"fmt"
	"time"

	"github.com/sanonone/pbg/pkg/metrics"
	"github.com/sanonone/pbg/pkg/traversal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pbg.debuginfo")

const missing = "?"

// Variable is one line of a variable report.
type Variable struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Line string `json:"line"`
	Text string `json:"text"`
}

func (v Variable) String() string {
	return fmt.Sprintf("%s(%s) on %s: %s", v.ID, v.Type, v.Line, v.Text)
}

// Variables lists the variables declared in function with their resolved
// types and declaration source lines. The source line is looked up on the
// "<file>:<decl-at>" vertex, where file is the first vertex pointing at the
// function. Missing parts are rendered as "?"; type resolution errors abort.
func (r *TypeResolver) Variables(s *traversal.Session, function string) ([]Variable, error) {
	file, hasFile := s.V(function).In("").First().Value()

	ids := s.V(function).Out(LabelHasVar).ToArray()
	vars := make([]Variable, 0, len(ids))
	for _, id := range ids {
		v := Variable{ID: id, Type: missing, Line: missing, Text: missing}

		if decl, ok := s.V(id).Out(LabelDeclAt).First().Value(); ok {
			v.Line = decl
			if hasFile {
				v.Text = s.V(file + ":" + decl).Out(LabelLineContent).First().Or(missing)
			}
		}

		if typeID, ok := s.V(id).Out(LabelVarType).First().Value(); ok {
			name, err := r.Resolve(s, typeID)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", id, err)
			}
			v.Type = name
		}

		vars = append(vars, v)
	}
	return vars, nil
}

// VariableReport emits one line per variable of function to the session:
//
//	<var-id>(<type>) on <line>: <source text>
//
// Nothing is emitted when resolution fails.
func (r *TypeResolver) VariableReport(ctx context.Context, s *traversal.Session, function string) ([]Variable, error) {
	_, span := tracer.Start(ctx, "TypeResolver.VariableReport",
		trace.WithAttributes(
			attribute.String("function", function),
			attribute.String("session_id", s.ID()),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.WithLabelValues("variables").Observe(time.Since(start).Seconds())
	}()

	vars, err := r.Variables(s, function)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.AnalysisRuns.WithLabelValues("variables", "error").Inc()
		s.Logger().Warn("variable report failed", "function", function, "error", err)
		return nil, err
	}

	for _, v := range vars {
		s.Emit(v.String())
	}
	span.SetAttributes(attribute.Int("variables", len(vars)))
	metrics.AnalysisRuns.WithLabelValues("variables", "ok").Inc()
	s.Logger().Debug("variable report done", "function", function, "variables", len(vars))
	return vars, nil
}
