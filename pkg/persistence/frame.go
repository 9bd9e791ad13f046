package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// Graph log frame layout:
//
//	[magic 0xA5][opcode][payload length u32 LE][crc32 u32 LE][payload]
const (
	MagicByte     = 0xA5
	OpCodeCommand = 0x01

	// HeaderSize is magic + opcode + length + crc.
	HeaderSize = 1 + 1 + 4 + 4

	// MaxPayloadSize bounds one command. It matches the longest line the
	// importers accept, with room for the RESP framing.
	MaxPayloadSize = 4*1024*1024 + 64*1024
)

var (
	// ErrInvalidMagic indicates the stream lost synchronization or is not a graph log.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrChecksumMismatch indicates data corruption within the frame payload.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the file ended abruptly (e.g. a crash while the builder wrote).
	ErrIncompleteFrame = errors.New("incomplete frame")
	// ErrUnknownOpCode indicates a frame type this version cannot decode.
	ErrUnknownOpCode = errors.New("unknown frame opcode")
	// ErrCorruptLength indicates a frame length that cannot have been written:
	// above MaxPayloadSize, or running over frames stored after it.
	ErrCorruptLength = errors.New("corrupt frame length")
	// ErrFrameTooLarge is returned by WriteFrame for a payload above MaxPayloadSize.
	ErrFrameTooLarge = errors.New("frame payload too large")
	// ErrInvalidCommand indicates a payload that is not a well-formed RESP command.
	ErrInvalidCommand = errors.New("invalid command")
)

type frameHeader struct {
	opcode byte
	length uint32
	crc    uint32
}

func headerFor(payload []byte) frameHeader {
	return frameHeader{
		opcode: OpCodeCommand,
		length: uint32(len(payload)),
		crc:    crc32.ChecksumIEEE(payload),
	}
}

func (h frameHeader) marshal() []byte {
	b := make([]byte, HeaderSize)
	b[0] = MagicByte
	b[1] = h.opcode
	binary.LittleEndian.PutUint32(b[2:6], h.length)
	binary.LittleEndian.PutUint32(b[6:10], h.crc)
	return b
}

// parseHeader validates everything in b that does not need the payload.
func parseHeader(b []byte) (frameHeader, error) {
	if b[0] != MagicByte {
		return frameHeader{}, ErrInvalidMagic
	}
	h := frameHeader{
		opcode: b[1],
		length: binary.LittleEndian.Uint32(b[2:6]),
		crc:    binary.LittleEndian.Uint32(b[6:10]),
	}
	if h.opcode != OpCodeCommand {
		return h, ErrUnknownOpCode
	}
	if h.length > MaxPayloadSize {
		return h, ErrCorruptLength
	}
	return h, nil
}

// FrameWriter writes binary frames to an io.Writer.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter creates a writer that wraps an underlying io.Writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame encodes the payload into a single frame. Wrap w in a
// bufio.Writer to get header and payload out in one write.
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	if _, err := fw.w.Write(headerFor(payload).marshal()); err != nil {
		return err
	}
	_, err := fw.w.Write(payload)
	return err
}

// ReadFrame reads and validates the next frame.
// Returns the payload, the total bytes read (header + payload), and an error.
// io.EOF means the stream ended exactly at a frame boundary.
func ReadFrame(r io.Reader) ([]byte, int, error) {
	payload, n, _, err := readFrame(r)
	return payload, n, err
}

// readFrame is ReadFrame that also hands back, for an incomplete frame, the
// payload bytes that were available.
func readFrame(r io.Reader) (payload []byte, n int, partial []byte, err error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		if err == io.EOF {
			return nil, 0, nil, io.EOF
		}
		return nil, 0, nil, ErrIncompleteFrame
	}

	h, err := parseHeader(raw)
	if err != nil {
		return nil, HeaderSize, nil, err
	}

	payload = make([]byte, h.length)
	if got, err := io.ReadFull(r, payload); err != nil {
		return nil, HeaderSize, payload[:got], ErrIncompleteFrame
	}
	if crc32.ChecksumIEEE(payload) != h.crc {
		return nil, HeaderSize + len(payload), nil, ErrChecksumMismatch
	}
	return payload, HeaderSize + len(payload), nil, nil
}

// containsFrame reports whether a complete, checksum-valid frame starts
// anywhere in b. A torn final frame never has one after its header.
func containsFrame(b []byte) bool {
	for i := bytes.IndexByte(b, MagicByte); i >= 0; {
		rest := b[i:]
		if len(rest) >= HeaderSize {
			if h, err := parseHeader(rest[:HeaderSize]); err == nil {
				end := HeaderSize + int(h.length)
				if end <= len(rest) && crc32.ChecksumIEEE(rest[HeaderSize:end]) == h.crc {
					return true
				}
			}
		}
		next := bytes.IndexByte(b[i+1:], MagicByte)
		if next < 0 {
			return false
		}
		i += 1 + next
	}
	return false
}
