package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sanonone/pbg/internal/config"
	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/engine"
	"github.com/sanonone/pbg/pkg/hotspot"
)

// Server exposes the graph queries and analyses over HTTP.
type Server struct {
	Engine *engine.Engine

	httpServer *http.Server
	resolver   *debuginfo.TypeResolver
	analyzer   *hotspot.Analyzer
	authToken  string
	logger     *slog.Logger
}

// NewServer initializes the HTTP server using an existing Engine.
// Note: The Engine must be opened (and the graph frozen) before serving queries.
func NewServer(eng *engine.Engine, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		Engine:    eng,
		resolver:  debuginfo.NewTypeResolver(cfg.ResolverOptions()...),
		analyzer:  hotspot.NewAnalyzer(cfg.HotspotOptions()),
		authToken: cfg.AuthToken,
		logger:    logger,
	}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)

	// Chain middlewares: Recovery -> Logging -> Auth -> Mux
	var handler http.Handler = mux
	handler = s.AuthMiddleware(handler)
	handler = s.LoggingMiddleware(handler)
	handler = s.RecoveryMiddleware(handler)

	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("GET /metrics", promhttp.Handler())
	rootMux.Handle("/", handler)

	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           rootMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and blocks until it is shut down.
func (s *Server) Run() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server. It does NOT close the Engine.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown of HTTP Server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}
}
