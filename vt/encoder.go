package vt

import (
	"fmt"

	"github.com/eak1mov/go-vectiles/spec"
)

type Point struct {
	X float64
	Y float64
}

// Subpath is a POLYLINE2 subpath in absolute coordinates.
type Subpath struct {
	Start  Point
	Points []Point
}

// Encoder builds command streams in the latest format version.
// Coordinates are rounded to the nearest twip.
type Encoder struct {
	buffer []byte
}

func NewEncoder() *Encoder {
	return &Encoder{buffer: make([]byte, 0, 256)}
}

// Bytes returns the encoded stream. The slice aliases the encoder's buffer.
func (e *Encoder) Bytes() []byte {
	return e.buffer
}

func (e *Encoder) op(opcode spec.Opcode) {
	b, ok := spec.VersionLatest.Byte(opcode)
	if !ok {
		panic(fmt.Sprintf("vectiles: opcode %v not in %v", opcode, spec.VersionLatest))
	}
	e.buffer = append(e.buffer, b)
}

func (e *Encoder) point(x, y float64) {
	e.buffer = spec.AppendTwips(e.buffer, x)
	e.buffer = spec.AppendTwips(e.buffer, y)
}

func (e *Encoder) MoveTo(x, y float64) *Encoder {
	e.op(spec.OpMoveTo)
	e.point(x, y)
	return e
}

func (e *Encoder) LineTo(x, y float64) *Encoder {
	e.op(spec.OpLineTo)
	e.point(x, y)
	return e
}

// Polyline encodes a chain of absolute points drawn with LineTo.
func (e *Encoder) Polyline(points ...Point) *Encoder {
	if len(points) == 0 || len(points) > 0xFFFF {
		panic(fmt.Sprintf("vectiles: polyline point count %d out of range", len(points)))
	}
	e.op(spec.OpPolyline)
	e.buffer = append(e.buffer, byte(len(points)>>8), byte(len(points)))
	for _, p := range points {
		e.point(p.X, p.Y)
	}
	return e
}

// Polyline2 encodes subpaths as deltas from the previous point.
func (e *Encoder) Polyline2(subpaths ...Subpath) *Encoder {
	if len(subpaths) == 0 {
		panic("vectiles: polyline2 without subpaths")
	}
	e.op(spec.OpPolyline2)
	e.buffer = spec.AppendUvarint(e.buffer, uint32(len(subpaths)))

	prev := Point{}
	for _, s := range subpaths {
		if len(s.Points) == 0 {
			panic("vectiles: polyline2 subpath without points")
		}
		e.point(s.Start.X-prev.X, s.Start.Y-prev.Y)
		prev = s.Start
		e.buffer = spec.AppendUvarint(e.buffer, uint32(len(s.Points)))
		for _, p := range s.Points {
			e.point(p.X-prev.X, p.Y-prev.Y)
			prev = p
		}
	}
	return e
}

func (e *Encoder) LineStyleRGB(width float64, rgb uint32) *Encoder {
	e.op(spec.OpLineStyleRGB)
	e.buffer = spec.AppendTwips(e.buffer, width)
	e.buffer = spec.AppendRGB(e.buffer, rgb)
	return e
}

func (e *Encoder) LineStyleRGBA(width float64, rgb uint32, alpha uint8) *Encoder {
	e.op(spec.OpLineStyleRGBA)
	e.buffer = spec.AppendTwips(e.buffer, width)
	e.buffer = spec.AppendRGB(e.buffer, rgb)
	e.buffer = append(e.buffer, alpha)
	return e
}

func (e *Encoder) BeginFillRGB(rgb uint32) *Encoder {
	e.op(spec.OpBeginFillRGB)
	e.buffer = spec.AppendRGB(e.buffer, rgb)
	return e
}

func (e *Encoder) BeginFillRGBA(rgb uint32, alpha uint8) *Encoder {
	e.op(spec.OpBeginFillRGBA)
	e.buffer = spec.AppendRGB(e.buffer, rgb)
	e.buffer = append(e.buffer, alpha)
	return e
}

func (e *Encoder) EndFill() *Encoder {
	e.op(spec.OpEndFill)
	return e
}

// DrawCircle encodes a circle in whole units.
func (e *Encoder) DrawCircle(x, y, r int32) *Encoder {
	e.op(spec.OpDrawCircle)
	e.buffer = spec.AppendSvarint(e.buffer, x)
	e.buffer = spec.AppendSvarint(e.buffer, y)
	e.buffer = spec.AppendSvarint(e.buffer, r)
	return e
}

func (e *Encoder) DrawCircle2(x, y, r float64) *Encoder {
	e.op(spec.OpDrawCircle2)
	e.point(x, y)
	e.buffer = spec.AppendTwips(e.buffer, r)
	return e
}

// Text encodes a text run. A negative glyph index marks a character missing
// from the glyph source.
func (e *Encoder) Text(x, y float64, fontIndex uint8, glyphs ...int) *Encoder {
	e.op(spec.OpText)
	e.point(x, y)
	e.glyphs(fontIndex, glyphs)
	return e
}

func (e *Encoder) RotatedText(x, y, rotation, width, height float64, fontIndex uint8, glyphs ...int) *Encoder {
	e.op(spec.OpRotatedText)
	e.point(x, y)
	e.buffer = spec.AppendTwips(e.buffer, rotation)
	e.point(width, height)
	e.glyphs(fontIndex, glyphs)
	return e
}

func (e *Encoder) glyphs(fontIndex uint8, glyphs []int) {
	e.buffer = append(e.buffer, fontIndex)
	e.buffer = spec.AppendUvarint(e.buffer, uint32(len(glyphs)))
	for _, g := range glyphs {
		e.buffer = spec.AppendUvarint(e.buffer, uint32(max(g+1, 0)))
	}
}

func (e *Encoder) Symbol(texture uint32, x, y, rotation float64) *Encoder {
	e.op(spec.OpSymbol)
	e.buffer = spec.AppendUvarint(e.buffer, texture)
	e.point(x, y)
	e.buffer = spec.AppendTwips(e.buffer, rotation)
	return e
}
