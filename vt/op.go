package vt

import (
	"fmt"

	"github.com/eak1mov/go-vectiles/atlas"
	"github.com/eak1mov/go-vectiles/font"
)

// OpKind tags the variant held by an Op.
type OpKind uint8

const (
	MoveTo OpKind = iota
	LineTo
	LineStyle
	BeginFill
	EndFill
	DrawCircle
	PlaceGlyph
	PlaceGroupTransform
	PlaceSymbol
)

var kindNames = [...]string{
	MoveTo:              "MoveTo",
	LineTo:              "LineTo",
	LineStyle:           "LineStyle",
	BeginFill:           "BeginFill",
	EndFill:             "EndFill",
	DrawCircle:          "DrawCircle",
	PlaceGlyph:          "PlaceGlyph",
	PlaceGroupTransform: "PlaceGroupTransform",
	PlaceSymbol:         "PlaceSymbol",
}

func (k OpKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Op is a single drawing operation. Which fields are meaningful depends on Kind:
//
//	MoveTo, LineTo           X, Y
//	LineStyle                Width, Color, Alpha
//	BeginFill                Color, Alpha
//	EndFill                  -
//	DrawCircle               X, Y, Radius
//	PlaceGlyph               Font, Char, X, Y, Glyph
//	PlaceGroupTransform      X, Y, Rotation, Glyphs
//	PlaceSymbol              Texture, X, Y, Rotation, Rect
//
// A PlaceGroupTransform applies to the Glyphs PlaceGlyph ops that immediately
// follow it; their positions are in the group's local frame.
type Op struct {
	Kind OpKind

	X        float64
	Y        float64
	Radius   float64
	Rotation float64

	Width float64
	Color uint32 // 0xRRGGBB
	Alpha float64

	Font   int
	Char   int
	Glyph  *font.CharInfo // owned by the font table
	Glyphs int

	Texture int
	Rect    atlas.Rect
}

func (op Op) String() string {
	switch op.Kind {
	case MoveTo, LineTo:
		return fmt.Sprintf("%v(%g, %g)", op.Kind, op.X, op.Y)
	case LineStyle:
		return fmt.Sprintf("%v(%g, #%06x, %g)", op.Kind, op.Width, op.Color, op.Alpha)
	case BeginFill:
		return fmt.Sprintf("%v(#%06x, %g)", op.Kind, op.Color, op.Alpha)
	case EndFill:
		return op.Kind.String()
	case DrawCircle:
		return fmt.Sprintf("%v(%g, %g, %g)", op.Kind, op.X, op.Y, op.Radius)
	case PlaceGlyph:
		return fmt.Sprintf("%v(%d, %d, %g, %g)", op.Kind, op.Font, op.Char, op.X, op.Y)
	case PlaceGroupTransform:
		return fmt.Sprintf("%v(%g, %g, %g, %d)", op.Kind, op.X, op.Y, op.Rotation, op.Glyphs)
	case PlaceSymbol:
		return fmt.Sprintf("%v(%d, %g, %g, %g)", op.Kind, op.Texture, op.X, op.Y, op.Rotation)
	}
	return op.Kind.String()
}
