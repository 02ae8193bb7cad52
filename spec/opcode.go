package spec

import "fmt"

// Opcode identifies a tile command independently of its wire value,
// which depends on the format version.
type Opcode uint8

const (
	OpMoveTo Opcode = iota
	OpLineTo
	OpPolyline
	OpPolyline2
	OpLineStyleRGB
	OpLineStyleRGBA
	OpBeginFillRGB
	OpBeginFillRGBA
	OpEndFill
	OpDrawCircle
	OpDrawCircle2
	OpRotatedText
	OpText
	OpSymbol
)

var opcodeNames = [...]string{
	OpMoveTo:        "MOVE_TO",
	OpLineTo:        "LINE_TO",
	OpPolyline:      "POLYLINE",
	OpPolyline2:     "POLYLINE2",
	OpLineStyleRGB:  "LINE_STYLE_RGB",
	OpLineStyleRGBA: "LINE_STYLE_RGBA",
	OpBeginFillRGB:  "BEGIN_FILL_RGB",
	OpBeginFillRGBA: "BEGIN_FILL_RGBA",
	OpEndFill:       "END_FILL",
	OpDrawCircle:    "DRAW_CIRCLE",
	OpDrawCircle2:   "DRAW_CIRCLE2",
	OpRotatedText:   "ROTATED_TEXT",
	OpText:          "TEXT",
	OpSymbol:        "SYMBOL",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Version selects a revision of the tile command format. Revisions are not
// self-describing: the caller picks the version for a tile source.
type Version uint8

const (
	// Version1 has no DRAW_CIRCLE2 or SYMBOL, single-subpath POLYLINE2 and
	// inline UTF-8-like text.
	Version1 Version = iota + 1
	// Version2 adds DRAW_CIRCLE2, multi-subpath POLYLINE2 and rotated text
	// transforms. Text is still inline UTF-8-like.
	Version2
	// Version3 adds SYMBOL and encodes text as font and glyph indices.
	Version3

	VersionLatest = Version3
)

var opcodeTables = map[Version][]Opcode{
	Version1: {
		OpMoveTo, OpLineTo, OpPolyline, OpPolyline2,
		OpLineStyleRGB, OpLineStyleRGBA, OpBeginFillRGB, OpBeginFillRGBA, OpEndFill,
		OpDrawCircle, OpRotatedText, OpText,
	},
	Version2: {
		OpMoveTo, OpLineTo, OpPolyline, OpPolyline2,
		OpLineStyleRGB, OpLineStyleRGBA, OpBeginFillRGB, OpBeginFillRGBA, OpEndFill,
		OpDrawCircle, OpDrawCircle2, OpRotatedText, OpText,
	},
	Version3: {
		OpMoveTo, OpLineTo, OpPolyline, OpPolyline2,
		OpLineStyleRGB, OpLineStyleRGBA, OpBeginFillRGB, OpBeginFillRGBA, OpEndFill,
		OpDrawCircle, OpDrawCircle2, OpRotatedText, OpText, OpSymbol,
	},
}

func (v Version) Valid() bool {
	_, ok := opcodeTables[v]
	return ok
}

func (v Version) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

// Lookup maps a wire byte to its opcode.
func (v Version) Lookup(b byte) (Opcode, bool) {
	table := opcodeTables[v]
	if int(b) >= len(table) {
		return 0, false
	}
	return table[b], true
}

// Byte maps an opcode to its wire byte. It reports false if the opcode
// does not exist in this version.
func (v Version) Byte(op Opcode) (byte, bool) {
	for i, o := range opcodeTables[v] {
		if o == op {
			return byte(i), true
		}
	}
	return 0, false
}

// ParseVersion converts a numeric revision (as given on a command line) to a Version.
func ParseVersion(n int) (Version, error) {
	v := Version(n)
	if n < 0 || n > 255 || !v.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownVersion, n)
	}
	return v, nil
}
