// Package importer loads external graph dumps into an engine: relation
// triples produced by the debug-info extractors and cache-miss traces.
package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Builder is the write side of the graph. *engine.Engine implements it.
type Builder interface {
	AddVertex(id string) error
	AddRelation(from, label, to string) error
	SetProperty(id, key, value string) error
	AddIndexedValue(id, key, value string) error
}

// Stats summarises one import.
type Stats struct {
	Lines      int `json:"lines"`
	Relations  int `json:"relations"`
	Properties int `json:"properties"`
	Skipped    int `json:"skipped"`
}

// ErrMalformedLine is returned for a triple line that does not have three
// tab-separated fields.
var ErrMalformedLine = errors.New("malformed line")

// LineError locates a failure in the input.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Open opens path for import, decompressing it when the name ends in ".gz".
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// TripleOptions configures ImportTriples.
type TripleOptions struct {
	// PropertyPredicates are stored as properties of the subject instead of
	// edges. The subject must not already hold a different value.
	PropertyPredicates []string
	// IndexedPredicates are stored as indexed values of the subject; a
	// subject may carry any number of them.
	IndexedPredicates []string
}

// ImportTriples reads "subject<TAB>predicate<TAB>object" lines. Empty lines
// and lines starting with '#' are skipped. The object keeps any further tabs.
func ImportTriples(r io.Reader, b Builder, opts TripleOptions) (Stats, error) {
	props := make(map[string]struct{}, len(opts.PropertyPredicates))
	for _, p := range opts.PropertyPredicates {
		props[p] = struct{}{}
	}
	indexed := make(map[string]struct{}, len(opts.IndexedPredicates))
	for _, p := range opts.IndexedPredicates {
		indexed[p] = struct{}{}
	}

	var stats Stats
	scanner := newScanner(r)
	for scanner.Scan() {
		stats.Lines++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			stats.Skipped++
			continue
		}

		parts := strings.SplitN(text, "\t", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return stats, &LineError{Line: stats.Lines, Err: ErrMalformedLine}
		}
		subject, predicate, object := parts[0], parts[1], parts[2]

		_, isProp := props[predicate]
		_, isIndexed := indexed[predicate]
		if isProp || isIndexed {
			if err := b.AddVertex(subject); err != nil {
				return stats, &LineError{Line: stats.Lines, Err: err}
			}
			set := b.SetProperty
			if isIndexed {
				set = b.AddIndexedValue
			}
			if err := set(subject, predicate, object); err != nil {
				return stats, &LineError{Line: stats.Lines, Err: err}
			}
			stats.Properties++
			continue
		}

		if err := b.AddRelation(subject, predicate, object); err != nil {
			return stats, &LineError{Line: stats.Lines, Err: err}
		}
		stats.Relations++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read triples: %w", err)
	}
	return stats, nil
}

// MissOptions configures ImportMisses.
type MissOptions struct {
	// Header skips the first line (the cachegrind-style "addr,target" header).
	Header bool
	// Label is the edge label of a miss (default "miss-address").
	Label string
}

// ImportMisses reads "address,target" records and adds one miss edge per
// record, so repeated records become parallel edges. Empty and malformed
// lines are skipped and counted.
func ImportMisses(r io.Reader, b Builder, opts MissOptions) (Stats, error) {
	label := opts.Label
	if label == "" {
		label = "miss-address"
	}

	var stats Stats
	scanner := newScanner(r)
	for scanner.Scan() {
		stats.Lines++
		text := strings.TrimSpace(scanner.Text())
		if (opts.Header && stats.Lines == 1) || text == "" {
			stats.Skipped++
			continue
		}

		parts := strings.Split(text, ",")
		if len(parts) != 2 {
			stats.Skipped++
			continue
		}
		addr, target := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if addr == "" || target == "" {
			stats.Skipped++
			continue
		}

		if err := b.AddRelation(addr, label, target); err != nil {
			return stats, &LineError{Line: stats.Lines, Err: err}
		}
		stats.Relations++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read miss trace: %w", err)
	}

	if stats.Skipped > 0 {
		slog.Debug("Miss trace lines skipped", "skipped", stats.Skipped, "lines", stats.Lines)
	}
	return stats, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Source lines can be long.
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return scanner
}
