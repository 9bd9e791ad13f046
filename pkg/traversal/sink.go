package traversal

import (
	"io"
	"strings"
)

// Sink collects the line-oriented textual output of a session.
type Sink struct {
	lines []string
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Write appends one line. Embedded newlines are kept as-is.
func (s *Sink) Write(line string) {
	s.lines = append(s.lines, line)
}

// Lines returns a copy of the emitted lines.
func (s *Sink) Lines() []string {
	return append([]string(nil), s.lines...)
}

// Len returns the number of emitted lines.
func (s *Sink) Len() int {
	return len(s.lines)
}

// Reset discards all emitted lines.
func (s *Sink) Reset() {
	s.lines = s.lines[:0]
}

// String renders the output, every line terminated by a newline.
func (s *Sink) String() string {
	var b strings.Builder
	for _, line := range s.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTo writes the rendered output to w.
func (s *Sink) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}
