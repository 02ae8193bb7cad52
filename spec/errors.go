// Package spec implements the wire primitives shared by the vector tile command
// stream, the texture atlas index (.atl) and the bitmap font metrics (.info).
package spec

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds         = errors.New("vectiles: read out of bounds")
	ErrUnknownOpcode       = errors.New("vectiles: unknown opcode")
	ErrInvalidSegmentCount = errors.New("vectiles: segment count must be greater than 0")
	ErrMalformedCharacter  = errors.New("vectiles: malformed input")
	ErrTruncatedStream     = errors.New("vectiles: truncated or overlong stream")
	ErrUnknownVersion      = errors.New("vectiles: unknown format version")
	ErrInvalidKerning      = errors.New("vectiles: kerning keys must be strictly increasing")
)

// MalformedInputError reports an invalid legacy character sequence.
// Offset is the absolute buffer offset of the offending byte.
type MalformedInputError struct {
	Offset  int
	Partial bool // sequence cut short by the end of the text run
}

func (e *MalformedInputError) Error() string {
	if e.Partial {
		return fmt.Sprintf("%v: partial character at end (byte %d)", ErrMalformedCharacter, e.Offset)
	}
	return fmt.Sprintf("%v around byte %d", ErrMalformedCharacter, e.Offset)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedCharacter
}
