package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Graph log command names.
const (
	CmdVertex   = "VERTEX"   // VERTEX <id>
	CmdEdge     = "EDGE"     // EDGE <from> <label> <to>
	CmdRelation = "RELATION" // RELATION <from> <label> <to>, endpoints implied
	CmdProp     = "PROP"     // PROP <id> <key> <value>
	CmdIndex    = "INDEX"    // INDEX <id> <key> <value>, multi-valued key
	CmdFreeze   = "FREEZE"   // FREEZE
)

// LogWriter appends framed graph commands to the graph log file.
type LogWriter struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	frames *FrameWriter
	path   string
}

// NewLogWriter opens or creates a graph log at the given path.
func NewLogWriter(path string) (*LogWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph log: %w", err)
	}

	buf := bufio.NewWriter(file)
	return &LogWriter{
		file:   file,
		buf:    buf,
		frames: NewFrameWriter(buf),
		path:   path,
	}, nil
}

// Append writes one command as a single frame. It is buffered; call Flush or
// Sync to push it to the file.
func (l *LogWriter) Append(name string, args ...string) error {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	payload := FormatCommand(name, raw...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.frames.WriteFrame([]byte(payload)); err != nil {
		return fmt.Errorf("graph log append %s: %w", name, err)
	}
	return nil
}

// Flush forces the buffer contents to be written to the os file descriptor.
func (l *LogWriter) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Flush()
}

// Sync flushes and fsyncs the log.
func (l *LogWriter) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.buf.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close flushes and closes the underlying file.
func (l *LogWriter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.buf.Flush(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// Path returns the file path.
func (l *LogWriter) Path() string {
	return l.path
}

// Replay decodes every frame from r and hands the commands to apply, in order.
//
// A torn final frame (the builder crashed mid-write) ends the replay cleanly.
// A bad magic byte, checksum or length is corruption and aborts it, including
// a length that runs past EOF over later valid frames. Replay returns the
// number of commands applied.
func Replay(r io.Reader, apply func(*Command) error) (int, error) {
	applied, _, err := replay(r, apply)
	return applied, err
}

// replay also returns the size of the valid prefix of the stream.
func replay(r io.Reader, apply func(*Command) error) (int, int64, error) {
	reader := bufio.NewReader(r)
	applied := 0
	offset := int64(0)

	for {
		payload, n, partial, err := readFrame(reader)
		if err == io.EOF {
			return applied, offset, nil
		}
		if errors.Is(err, ErrIncompleteFrame) && containsFrame(partial) {
			// The declared length swallows frames written after this one.
			return applied, offset, fmt.Errorf("graph log corrupted at offset %d: %w", offset, ErrCorruptLength)
		}
		if errors.Is(err, ErrIncompleteFrame) {
			slog.Warn("Graph log ends with an incomplete frame, ignoring tail",
				"offset", offset,
				"applied", applied,
			)
			return applied, offset, nil
		}
		if err != nil {
			return applied, offset, fmt.Errorf("graph log corrupted at offset %d: %w", offset, err)
		}

		cmd, err := DecodeCommand(payload)
		if err != nil {
			return applied, offset, fmt.Errorf("graph log frame at offset %d: %w", offset, err)
		}
		if err := apply(cmd); err != nil {
			return applied, offset, fmt.Errorf("graph log command %s at offset %d: %w", cmd.Name, offset, err)
		}

		applied++
		offset += int64(n)
	}
}

// ReplayFile replays the log stored at path. A missing file replays nothing.
func ReplayFile(path string, apply func(*Command) error) (int, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open graph log: %w", err)
	}
	defer file.Close()

	return Replay(file, apply)
}

// RecoverFile replays the log at path like ReplayFile and then truncates a
// torn tail, so that new frames can be appended after the last good one.
func RecoverFile(path string, apply func(*Command) error) (int, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open graph log: %w", err)
	}
	defer file.Close()

	applied, good, err := replay(file, apply)
	if err != nil {
		return applied, err
	}

	info, err := file.Stat()
	if err != nil {
		return applied, fmt.Errorf("failed to stat graph log: %w", err)
	}
	if info.Size() > good {
		slog.Info("Truncating graph log tail", "path", path, "from", info.Size(), "to", good)
		if err := file.Truncate(good); err != nil {
			return applied, fmt.Errorf("failed to truncate graph log: %w", err)
		}
	}
	return applied, nil
}
