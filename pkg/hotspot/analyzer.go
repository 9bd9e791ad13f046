// Package hotspot finds the source line with the most cache misses in a
// memory access trace stored in the graph.
//
// Each miss is a vertex named after the faulting address with one
// miss-address edge per trace record. Source lines carry a text-at-pc
// property holding their canonical address and a line-content edge to the
// line text.
package hotspot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sanonone/pbg/pkg/metrics"
	"github.com/sanonone/pbg/pkg/traversal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pbg.hotspot")

// Options configures the analyzer.
type Options struct {
	// IgnorePrefix excludes misses outside the monitored image. Empty
	// disables the filter.
	IgnorePrefix string
	// AddressPrefix is stripped before comparison and padding, and put back
	// on the canonical address.
	AddressPrefix string
	// Width is the number of digits of a canonical address.
	Width int

	MissLabel        string
	LineIndexKey     string
	LineContentLabel string
}

// DefaultOptions returns the settings for 32-bit traces with 0x7f... shared
// library addresses excluded.
func DefaultOptions() Options {
	return Options{
		IgnorePrefix:     "0x7f",
		AddressPrefix:    "0x",
		Width:            8,
		MissLabel:        "miss-address",
		LineIndexKey:     "text-at-pc",
		LineContentLabel: "line-content",
	}
}

// Filtered counts what each filter dropped. Ignored and Unindexed count miss
// addresses; SelfMatch counts trace records, since one address can carry
// both instruction-fetch and data records.
type Filtered struct {
	Ignored   int `json:"ignored"`
	SelfMatch int `json:"self_match"`
	Unindexed int `json:"unindexed"`
}

// Result is the outcome of an analysis.
type Result struct {
	Address    string   `json:"address"`
	Count      int      `json:"count"`
	LineVertex string   `json:"line_vertex"`
	Text       []string `json:"text"`
	Considered int      `json:"considered"`
	Filtered   Filtered `json:"filtered"`
}

// Analyzer computes miss hotspots. It holds no per-run state and may be
// shared between sessions.
type Analyzer struct {
	opts Options
}

// NewAnalyzer returns an analyzer. Zero Width and empty labels or address
// prefix fall back to DefaultOptions.
func NewAnalyzer(opts Options) *Analyzer {
	def := DefaultOptions()
	if opts.AddressPrefix == "" {
		opts.AddressPrefix = def.AddressPrefix
	}
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.MissLabel == "" {
		opts.MissLabel = def.MissLabel
	}
	if opts.LineIndexKey == "" {
		opts.LineIndexKey = def.LineIndexKey
	}
	if opts.LineContentLabel == "" {
		opts.LineContentLabel = def.LineContentLabel
	}
	return &Analyzer{opts: opts}
}

// Options returns the effective options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Canonical strips the address prefix from addr, left-pads it with zeros to
// the configured width and prefixes it again.
func (a *Analyzer) Canonical(addr string) string {
	suffix := strings.TrimPrefix(addr, a.opts.AddressPrefix)
	if pad := a.opts.Width - len(suffix); pad > 0 {
		suffix = strings.Repeat("0", pad) + suffix
	}
	return a.opts.AddressPrefix + suffix
}

// Analyze finds the canonical address with the most misses and resolves its
// source line. Nothing is emitted.
func (a *Analyzer) Analyze(ctx context.Context, s *traversal.Session) (*Result, error) {
	_, span := tracer.Start(ctx, "Analyzer.Analyze",
		trace.WithAttributes(attribute.String("session_id", s.ID())),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.WithLabelValues("hotspot").Observe(time.Since(start).Seconds())
	}()

	res, err := a.analyze(s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.AnalysisRuns.WithLabelValues("hotspot", "error").Inc()
		return nil, err
	}

	span.SetAttributes(
		attribute.String("address", res.Address),
		attribute.Int("count", res.Count),
		attribute.Int("considered", res.Considered),
	)
	metrics.AnalysisRuns.WithLabelValues("hotspot", "ok").Inc()
	return res, nil
}

func (a *Analyzer) analyze(s *traversal.Session) (*Result, error) {
	o := a.opts
	log := s.Logger()

	// 1. Filter and count misses per canonical address
	misses := s.V().In(o.MissLabel).ToArray()

	var (
		filtered Filtered
		order    []string
		counts   = make(map[string]int)
	)

	for _, miss := range misses {
		if o.IgnorePrefix != "" && strings.HasPrefix(miss, o.IgnorePrefix) {
			filtered.Ignored++
			continue
		}

		// Instruction fetch records point at their own address and are not
		// data misses.
		suffix := strings.TrimPrefix(miss, o.AddressPrefix)
		records := 0
		for _, target := range s.V(miss).OutRecords(o.MissLabel) {
			if strings.TrimPrefix(target, o.AddressPrefix) == suffix {
				filtered.SelfMatch++
				continue
			}
			records++
		}
		if records == 0 {
			continue
		}

		addr := a.Canonical(miss)
		if s.V().Has(o.LineIndexKey, addr).Limit(1).Count() == 0 {
			filtered.Unindexed++
			continue
		}

		if _, seen := counts[addr]; !seen {
			order = append(order, addr)
		}
		counts[addr] += records
	}

	log.Debug("miss filtering done",
		"misses", len(misses),
		"ignored", filtered.Ignored,
		"self_match", filtered.SelfMatch,
		"unindexed", filtered.Unindexed,
		"addresses", len(order),
	)

	if len(order) == 0 {
		return nil, &NoHotspotError{Considered: len(misses), Filtered: filtered}
	}

	// 2. Pick the worst address, first seen wins ties
	best := order[0]
	for _, addr := range order[1:] {
		if counts[addr] > counts[best] {
			best = addr
		}
	}

	res := &Result{
		Address:    best,
		Count:      counts[best],
		Considered: len(misses),
		Filtered:   filtered,
	}

	// 3. Resolve its source line
	line, ok := s.V().Has(o.LineIndexKey, best).Limit(1).First().Value()
	if !ok {
		return nil, &LineTextMissingError{Address: best, Count: res.Count}
	}
	res.LineVertex = line
	res.Text = s.V(line).Out(o.LineContentLabel).ToArray()
	if len(res.Text) == 0 {
		return nil, &LineTextMissingError{Address: best, Count: res.Count}
	}
	return res, nil
}

// Report runs Analyze and emits the hotspot report:
//
//	Worst address: <addr>
//	Worst number: <count>
//	<source line text>
//
// Nothing is emitted when the analysis fails.
func (a *Analyzer) Report(ctx context.Context, s *traversal.Session) (*Result, error) {
	res, err := a.Analyze(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("hotspot report: %w", err)
	}

	s.Emit("Worst address: " + res.Address)
	s.Emitf("Worst number: %d", res.Count)
	s.V(res.LineVertex).Out(a.opts.LineContentLabel).All()
	return res, nil
}
