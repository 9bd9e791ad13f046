package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/hotspot"
	"github.com/sanonone/pbg/pkg/traversal"
)

// registerHTTPHandlers sets up the REST API routes.
func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/vertices/{id}/out/{label}", s.requireFrozen(s.handleOutNeighbors))
	mux.HandleFunc("GET /v1/vertices/{id}/predicates", s.requireFrozen(s.handlePredicates))
	mux.HandleFunc("GET /v1/types/{id}", s.requireFrozen(s.handleResolveType))
	mux.HandleFunc("GET /v1/reports/hotspot", s.requireFrozen(s.handleHotspot))
	mux.HandleFunc("GET /v1/reports/variables/{function}", s.requireFrozen(s.handleVariables))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, StatsResponse{
		Stats:  s.Engine.Stats(),
		Frozen: s.Engine.Store().Frozen(),
	})
}

// requireFrozen rejects queries while the graph is still being built.
func (s *Server) requireFrozen(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.Engine.Store().Frozen() {
			s.writeHTTPError(w, http.StatusServiceUnavailable, "graph is still being built")
			return
		}
		next(w, r)
	}
}

func (s *Server) session() *traversal.Session {
	return s.Engine.NewSession(traversal.WithLogger(s.logger))
}

func (s *Server) handleOutNeighbors(w http.ResponseWriter, r *http.Request) {
	id, label := r.PathValue("id"), r.PathValue("label")

	sess := s.session()
	path := sess.V(id).Out(label)

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeHTTPError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		path = path.Limit(limit)
	}

	s.writeHTTPResponse(w, http.StatusOK, NeighborsResponse{
		ID:       id,
		Label:    label,
		Vertices: path.ToArray(),
		Degree:   sess.V(id).OutDegree(label),
	})
}

func (s *Server) handlePredicates(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.writeHTTPResponse(w, http.StatusOK, PredicatesResponse{
		ID:     id,
		Labels: s.session().V(id).OutPredicates().ToArray(),
	})
}

func (s *Server) handleResolveType(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.Engine.Store().HasVertex(id) {
		s.writeHTTPError(w, http.StatusNotFound, "type id not found: "+id)
		return
	}

	name, err := s.resolver.Resolve(s.session(), id)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, TypeResponse{ID: id, Type: name})
}

func (s *Server) handleHotspot(w http.ResponseWriter, r *http.Request) {
	sess := s.session()
	res, err := s.analyzer.Report(r.Context(), sess)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, HotspotResponse{
		SessionID: sess.ID(),
		Result:    res,
		Report:    sess.Output().Lines(),
	})
}

func (s *Server) handleVariables(w http.ResponseWriter, r *http.Request) {
	function := r.PathValue("function")
	if !s.Engine.Store().HasVertex(function) {
		s.writeHTTPError(w, http.StatusNotFound, "function not found: "+function)
		return
	}

	sess := s.session()
	vars, err := s.resolver.VariableReport(r.Context(), sess, function)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, VariablesResponse{
		SessionID: sess.ID(),
		Function:  function,
		Variables: vars,
		Report:    sess.Output().Lines(),
	})
}

// writeAnalysisError maps analysis failures to status codes. Bad graph data
// is 422, nothing to report is 404.
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	var (
		noHotspot *hotspot.NoHotspotError
		unknown   *debuginfo.UnknownTypeKindError
	)
	switch {
	case errors.As(err, &noHotspot):
		s.writeHTTPResponse(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Details: noHotspot})
	case errors.As(err, &unknown):
		s.writeHTTPResponse(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Details: unknown})
	case errors.Is(err, hotspot.ErrLineTextMissing),
		errors.Is(err, debuginfo.ErrTypeChainTooDeep),
		errors.Is(err, traversal.ErrAbsentResult):
		s.writeHTTPError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("Analysis failed", "error", err)
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, ErrorResponse{Error: message})
}
