package hotspot

import (
	"errors"
	"fmt"
)

var (
	ErrNoHotspotFound  = errors.New("no hotspot found")
	ErrLineTextMissing = errors.New("line text missing")
)

// NoHotspotError reports that every miss was filtered out, with the reason
// counters needed to diagnose the trace.
type NoHotspotError struct {
	Considered int
	Filtered   Filtered
}

func (e *NoHotspotError) Error() string {
	return fmt.Sprintf("no hotspot found: %d misses considered, %d ignored by prefix, %d self-matches, %d without line text",
		e.Considered, e.Filtered.Ignored, e.Filtered.SelfMatch, e.Filtered.Unindexed)
}

func (e *NoHotspotError) Is(target error) bool {
	return target == ErrNoHotspotFound
}

// LineTextMissingError reports that the winning address has no resolvable
// source line.
type LineTextMissingError struct {
	Address string
	Count   int
}

func (e *LineTextMissingError) Error() string {
	return fmt.Sprintf("failed to find text for %s (%d misses)", e.Address, e.Count)
}

func (e *LineTextMissingError) Is(target error) bool {
	return target == ErrLineTextMissing
}
