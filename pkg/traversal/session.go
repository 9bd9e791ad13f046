// Package traversal implements the query layer over a core graph store.
//
// A Session is the explicit query context: it holds a shared, read-only
// reference to the store and an output Sink it owns exclusively. Queries are
// built as step chains rooted at Session.V:
//
//	s := traversal.NewSession(store)
//	vars := s.V("main").Out("has-var").ToArray()
//	name, ok := s.V(typeID).Out("has-type-name").First().Value()
//	s.Emit("done")
//
// Steps are evaluated lazily and sequentially when a terminal (ToArray, All,
// Count, First, OutDegree) runs. A Session is not safe for concurrent use;
// run one session per goroutine against the same frozen store instead.
package traversal

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sanonone/pbg/pkg/metrics"
)

// Reader is the read side of the graph store that traversals need.
// *core.Store implements it.
type Reader interface {
	HasVertex(id string) bool
	RangeVertices(fn func(id string) bool)
	OutEdges(id, label string) []string
	InEdges(id, label string) []string
	PredicateLabels(id string) []string
	Property(id, key string) (string, bool)
	HasProperty(id, key, value string) bool
	VerticesWithProperty(key, value string) []string
}

// Session is a single query session.
type Session struct {
	id     string
	store  Reader
	sink   *Sink
	logger *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger. The session id is attached to it.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSink makes the session emit into an existing sink.
func WithSink(sink *Sink) SessionOption {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithID overrides the generated session id.
func WithID(id string) SessionOption {
	return func(s *Session) {
		s.id = id
	}
}

// NewSession opens a query session over store.
func NewSession(store Reader, opts ...SessionOption) *Session {
	s := &Session{
		id:     uuid.New().String(),
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = NewSink()
	}
	s.logger = s.logger.With("session_id", s.id)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Output returns the session's sink.
func (s *Session) Output() *Sink {
	return s.sink
}

// Emit appends a line to the session output.
func (s *Session) Emit(line string) {
	s.sink.Write(line)
	metrics.SessionLinesEmitted.Inc()
}

// Emitf formats according to a format specifier and emits the result.
func (s *Session) Emitf(format string, args ...any) {
	s.Emit(fmt.Sprintf(format, args...))
}

// V starts a traversal. With no ids it is rooted at every vertex of the
// store, in insertion order; otherwise at the given ids that exist, in
// argument order with duplicates removed.
func (s *Session) V(ids ...string) *Path {
	if len(ids) == 0 {
		return &Path{
			session: s,
			root:    rootAll,
			seq: func(yield func(string) bool) {
				s.store.RangeVertices(yield)
			},
		}
	}

	explicit := append([]string(nil), ids...)
	return &Path{
		session: s,
		root:    rootExplicit,
		seq: func(yield func(string) bool) {
			seen := make(map[string]struct{}, len(explicit))
			for _, id := range explicit {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				if !s.store.HasVertex(id) {
					continue
				}
				if !yield(id) {
					return
				}
			}
		},
	}
}
