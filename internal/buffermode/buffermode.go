// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package buffermode

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrInvalidMode is returned when a mode token cannot be parsed.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrModeOverflow is returned when a scaled mode size does not fit in 64 bits.
	ErrModeOverflow = errors.New("mode size overflows a 64-bit byte count")
	// ErrLineBufferedStdin is returned when line buffering is requested for standard input.
	ErrLineBufferedStdin = errors.New("line buffering stdin is meaningless")
)

// Kind identifies one of the closed set of buffering policies.
type Kind int

const (
	// KindDefault inherits the platform default buffering. It is the zero value.
	KindDefault Kind = iota
	// KindUnbuffered disables buffering for the stream.
	KindUnbuffered
	// KindLine requests line buffering. Never valid for standard input.
	KindLine
	// KindSize requests a fully buffered stream with a fixed buffer size.
	KindSize
)

const (
	kindDefaultStr    = "default"
	kindUnbufferedStr = "unbuffered"
	kindLineStr       = "line"
	kindSizeStr       = "size"
	kindUnknownStr    = "unknown"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindDefault:
		return kindDefaultStr
	case KindUnbuffered:
		return kindUnbufferedStr
	case KindLine:
		return kindLineStr
	case KindSize:
		return kindSizeStr
	default:
		return kindUnknownStr
	}
}

// Stream identifies one of the three standard streams of the wrapped command.
type Stream int

const (
	// StreamStdin is the wrapped command's standard input.
	StreamStdin Stream = iota
	// StreamStdout is the wrapped command's standard output.
	StreamStdout
	// StreamStderr is the wrapped command's standard error.
	StreamStderr
)

// String returns the conventional lowercase name of the stream.
func (s Stream) String() string {
	switch s {
	case StreamStdin:
		return "stdin"
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return kindUnknownStr
	}
}

// Mode is a canonical buffering directive for a single stream.
// The zero value is the platform default.
type Mode struct {
	Kind  Kind
	Bytes uint64 // buffer size, meaningful only when Kind is KindSize
}

// Token renders the mode in the canonical token form consumed by the child-side
// shim: empty for default, "0", "L", or a decimal byte count.
func (m Mode) Token() string {
	switch m.Kind {
	case KindUnbuffered:
		return "0"
	case KindLine:
		return "L"
	case KindSize:
		return strconv.FormatUint(m.Bytes, 10)
	default:
		return ""
	}
}

// String implements fmt.Stringer for log output.
func (m Mode) String() string {
	if m.Kind == KindSize {
		return fmt.Sprintf("%s(%d)", m.Kind, m.Bytes)
	}

	return m.Kind.String()
}

// unitRanks maps each unit letter to its power: K=1 up to Y=8.
const unitRanks = "KMGTPEZY"

const (
	binaryBase  = 1024 // bare unit letter, e.g. 64K
	decimalBase = 1000 // unit letter with B, e.g. 64KB
)

// Parse converts a user-supplied mode token into a Mode for the given stream.
// "0" is unbuffered and "L" is line buffered; any other token is a number with
// an optional unit suffix. Line buffering standard input is rejected with
// ErrLineBufferedStdin, a distinct error so callers can report it precisely.
func Parse(stream Stream, token string) (Mode, error) {
	switch token {
	case "0":
		return Mode{Kind: KindUnbuffered}, nil
	case "L":
		if stream == StreamStdin {
			return Mode{}, ErrLineBufferedStdin
		}

		return Mode{Kind: KindLine}, nil
	}

	size, err := parseSize(token)
	if err != nil {
		return Mode{}, err
	}

	return Mode{Kind: KindSize, Bytes: size}, nil
}

// parseSize parses a sized mode token such as "4096", "64K" or "1GB".
func parseSize(token string) (uint64, error) {
	suffix := strings.TrimLeftFunc(token, unicode.IsDigit)
	number := strings.TrimRightFunc(token, unicode.IsLetter)

	// The numeric run and the unit suffix must reconstruct the token exactly,
	// otherwise a non-numeric character is embedded before the unit.
	if number+suffix != token {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, token)
	}

	n, err := strconv.ParseUint(number, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, token)
	}

	rank, base, err := unitScale(token, suffix)
	if err != nil {
		return 0, err
	}

	for range rank {
		var hi uint64

		hi, n = bits.Mul64(n, base)
		if hi != 0 {
			return 0, fmt.Errorf("%w: %q", ErrModeOverflow, token)
		}
	}

	return n, nil
}

// unitScale resolves a unit suffix into its power and base. An empty suffix
// scales by 1; a bare unit letter is binary (1024) and letter+B decimal (1000).
func unitScale(token, suffix string) (int, uint64, error) {
	if suffix == "" {
		return 0, 1, nil
	}

	rank := strings.IndexByte(unitRanks, suffix[0])
	if rank < 0 {
		return 0, 0, fmt.Errorf("%w: %q: unknown unit %q", ErrInvalidMode, token, suffix)
	}

	switch suffix[1:] {
	case "":
		return rank + 1, binaryBase, nil
	case "B":
		return rank + 1, decimalBase, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q: unknown unit %q", ErrInvalidMode, token, suffix)
	}
}
