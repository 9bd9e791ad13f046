// Package engine provides the embedded, persistent interface to a program
// behaviour graph.
//
// It owns the in-memory graph store (core) and the on-disk graph log
// (persistence): every build operation is applied to the store and then
// appended to the log, and Open replays the log to rebuild the store.
//
// Basic usage:
//
//	opts := engine.DefaultOptions("./data")
//	eng, err := engine.Open(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	_ = eng.AddRelation("main", "has-var", "argc")
//	_ = eng.Freeze()
//
//	sess := eng.NewSession()
//	vars := sess.V("main").Out("has-var").ToArray()
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sanonone/pbg/pkg/core"
	"github.com/sanonone/pbg/pkg/metrics"
	"github.com/sanonone/pbg/pkg/persistence"
	"github.com/sanonone/pbg/pkg/traversal"
)

// Options configures the Engine.
type Options struct {
	// DataDir is the directory holding the graph log. It is created if it
	// does not exist. An empty DataDir keeps the graph in memory only.
	DataDir string

	// LogFilename is the name of the graph log (default: "graph.log").
	LogFilename string

	// Logger is used for engine and session logs (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultOptions returns a standard configuration rooted at dataDir.
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:     dataDir,
		LogFilename: "graph.log",
	}
}

// Engine coordinates the in-memory store and the graph log.
type Engine struct {
	store *core.Store
	log   *persistence.LogWriter

	opts    Options
	logPath string
	logger  *slog.Logger

	closeOnce sync.Once

	failMu sync.Mutex
	failed error
}

// Open rebuilds the graph from the log in opts.DataDir and opens the log for
// appending:
// 1. Creates DataDir if missing.
// 2. Replays the graph log, truncating a torn tail.
// 3. Opens the log for appending.
// If the log ends with a FREEZE command, the store is returned frozen and
// ready for queries.
func Open(opts Options) (*Engine, error) {
	if opts.LogFilename == "" {
		opts.LogFilename = "graph.log"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		store:  core.NewStore(),
		opts:   opts,
		logger: logger,
	}

	if opts.DataDir == "" {
		return e, nil
	}

	// 1. Data directory
	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	e.logPath = filepath.Join(opts.DataDir, opts.LogFilename)

	// 2. Replay
	start := time.Now()
	applied, err := persistence.RecoverFile(e.logPath, e.apply)
	if err != nil {
		return nil, fmt.Errorf("failed to replay graph log: %w", err)
	}

	// 3. Reopen for appending
	w, err := persistence.NewLogWriter(e.logPath)
	if err != nil {
		return nil, err
	}
	e.log = w

	stats := e.store.Stats()
	metrics.ObserveGraph(stats.Vertices, stats.Edges, stats.Properties)
	logger.Info("Graph loaded",
		"path", e.logPath,
		"commands", applied,
		"vertices", stats.Vertices,
		"edges", stats.Edges,
		"properties", stats.Properties,
		"frozen", e.store.Frozen(),
		"duration", time.Since(start),
	)
	return e, nil
}

// Store returns the underlying graph store. Writes must go through the
// Engine to be persisted.
func (e *Engine) Store() *core.Store {
	return e.store
}

// LogPath returns the graph log path, or "" for an in-memory engine.
func (e *Engine) LogPath() string {
	return e.logPath
}

// Stats returns the store sizes.
func (e *Engine) Stats() core.Stats {
	return e.store.Stats()
}

// NewSession opens a query session over the store, logging through the
// engine logger unless overridden.
func (e *Engine) NewSession(opts ...traversal.SessionOption) *traversal.Session {
	all := append([]traversal.SessionOption{traversal.WithLogger(e.logger)}, opts...)
	return traversal.NewSession(e.store, all...)
}

// Close flushes and closes the graph log. It is safe to call more than once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.log != nil {
			err = e.log.Close()
		}
	})
	return err
}
