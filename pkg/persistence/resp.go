// Package persistence implements the on-disk graph log.
//
// This file provides functions for parsing and formatting a subset of the RESP
// (Redis Serialization Protocol). Every graph mutation is written as a RESP
// array, wrapped in a checksummed frame (see frame.go). The encoding is
// binary-safe, so ids and line contents may hold any byte.
package persistence

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Command represents a parsed log command.
type Command struct {
	// Name is the command name, e.g. "EDGE", "PROP".
	Name string
	// Args contains the command arguments.
	Args [][]byte
}

// Arg returns argument i as a string, or "" when it is missing.
func (c *Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return string(c.Args[i])
}

// FormatCommand formats a command name and its arguments into a single
// RESP-formatted string. Nil arguments are written as RESP null bulk strings.
func FormatCommand(commandName string, args ...[]byte) string {
	var b strings.Builder

	// Array header: number of elements.
	b.WriteString(fmt.Sprintf("*%d\r\n", 1+len(args)))

	// Command name.
	b.WriteString(fmt.Sprintf("$%d\r\n%s\r\n", len(commandName), commandName))

	for _, arg := range args {
		if arg == nil {
			b.WriteString("$-1\r\n")
		} else {
			b.WriteString(fmt.Sprintf("$%d\r\n%s\r\n", len(arg), string(arg)))
		}
	}

	return b.String()
}

// ParseCommand reads a RESP-formatted command from a bufio.Reader.
// It requires a bufio.Reader because a single command spans multiple lines.
func ParseCommand(reader *bufio.Reader) (*Command, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, err
	}

	line = strings.TrimSpace(line)
	if len(line) == 0 || line[0] != '*' {
		return nil, fmt.Errorf("%w: expected '*'", ErrInvalidCommand)
	}

	numArgs, err := strconv.Atoi(line[1:])
	if err != nil || numArgs <= 0 {
		return nil, fmt.Errorf("%w: invalid number of arguments", ErrInvalidCommand)
	}

	args := make([][]byte, numArgs)
	for i := 0; i < numArgs; i++ {
		// Length of the bulk string.
		line, err = reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] != '$' {
			return nil, fmt.Errorf("%w: expected '$'", ErrInvalidCommand)
		}

		lenArg, err := strconv.Atoi(line[1:])
		if err != nil || lenArg < -1 {
			return nil, fmt.Errorf("%w: invalid argument length", ErrInvalidCommand)
		}
		if lenArg == -1 {
			args[i] = nil
			continue
		}

		argData := make([]byte, lenArg)
		if _, err := io.ReadFull(reader, argData); err != nil {
			return nil, err
		}

		// Trailing \r\n
		crlf := make([]byte, 2)
		if _, err := io.ReadFull(reader, crlf); err != nil {
			return nil, err
		}

		args[i] = argData
	}

	if args[0] == nil {
		return nil, fmt.Errorf("%w: null command name", ErrInvalidCommand)
	}

	return &Command{
		Name: strings.ToUpper(string(args[0])),
		Args: args[1:],
	}, nil
}

// DecodeCommand parses a single command from a frame payload.
func DecodeCommand(payload []byte) (*Command, error) {
	return ParseCommand(bufio.NewReader(bytes.NewReader(payload)))
}
