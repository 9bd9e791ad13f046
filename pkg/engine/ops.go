// This file implements the build operations of the Engine. Each one is
// validated and applied by the in-memory store first, so the graph log only
// ever contains commands that replay cleanly.
//
// If a log append fails the store is already ahead of the log. The engine is
// then marked failed and refuses every further build operation with
// ErrEngineFailed; reopen it to get back the state the log holds.
package engine

import (
	"errors"
	"fmt"

	"github.com/sanonone/pbg/pkg/metrics"
	"github.com/sanonone/pbg/pkg/persistence"
)

// ErrEngineFailed is returned by build operations after a graph log write failed.
var ErrEngineFailed = errors.New("engine failed: graph log is behind the store")

// AddVertex registers a vertex.
func (e *Engine) AddVertex(id string) error {
	if err := e.Err(); err != nil {
		return err
	}
	if err := e.store.AddVertex(id); err != nil {
		return err
	}
	return e.persist(persistence.CmdVertex, id)
}

// AddEdge appends an edge between two existing vertices.
func (e *Engine) AddEdge(from, label, to string) error {
	if err := e.Err(); err != nil {
		return err
	}
	if err := e.store.AddEdge(from, label, to); err != nil {
		return err
	}
	return e.persist(persistence.CmdEdge, from, label, to)
}

// AddRelation appends an edge, creating missing endpoints.
func (e *Engine) AddRelation(from, label, to string) error {
	if err := e.Err(); err != nil {
		return err
	}
	if err := e.store.AddRelation(from, label, to); err != nil {
		return err
	}
	return e.persist(persistence.CmdRelation, from, label, to)
}

// SetProperty sets an indexed, single-valued property on an existing vertex.
func (e *Engine) SetProperty(id, key, value string) error {
	if err := e.Err(); err != nil {
		return err
	}
	if err := e.store.SetProperty(id, key, value); err != nil {
		return err
	}
	return e.persist(persistence.CmdProp, id, key, value)
}

// AddIndexedValue adds one more value under an indexed key of an existing vertex.
func (e *Engine) AddIndexedValue(id, key, value string) error {
	if err := e.Err(); err != nil {
		return err
	}
	if err := e.store.AddIndexedValue(id, key, value); err != nil {
		return err
	}
	return e.persist(persistence.CmdIndex, id, key, value)
}

// Freeze ends the build phase and syncs the graph log to disk.
func (e *Engine) Freeze() error {
	if err := e.Err(); err != nil {
		return err
	}
	if e.store.Frozen() {
		return nil
	}
	e.store.Freeze()

	stats := e.store.Stats()
	metrics.ObserveGraph(stats.Vertices, stats.Edges, stats.Properties)

	if e.log == nil {
		return nil
	}
	if err := e.log.Append(persistence.CmdFreeze); err != nil {
		return e.fail(err)
	}
	if err := e.log.Sync(); err != nil {
		return e.fail(fmt.Errorf("CRITICAL: graph log sync failed: %w", err))
	}
	e.logger.Info("Graph frozen",
		"vertices", stats.Vertices,
		"edges", stats.Edges,
		"properties", stats.Properties,
	)
	return nil
}

// Flush pushes buffered log frames to the file.
func (e *Engine) Flush() error {
	if e.log == nil {
		return nil
	}
	return e.log.Flush()
}

func (e *Engine) persist(name string, args ...string) error {
	if e.log == nil {
		return nil
	}
	if err := e.log.Append(name, args...); err != nil {
		return e.fail(fmt.Errorf("persistence error (graph log write failed): %w", err))
	}
	return nil
}

// Err returns a non-nil error wrapping ErrEngineFailed once a log write failed.
func (e *Engine) Err() error {
	e.failMu.Lock()
	defer e.failMu.Unlock()
	if e.failed == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrEngineFailed, e.failed)
}

func (e *Engine) fail(err error) error {
	e.failMu.Lock()
	if e.failed == nil {
		e.failed = err
		e.logger.Error("Graph log write failed, engine refuses further writes", "error", err)
	}
	e.failMu.Unlock()
	return err
}
