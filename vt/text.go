package vt

import (
	"github.com/eak1mov/go-vectiles/font"
	"github.com/eak1mov/go-vectiles/spec"
)

// pen lays glyphs out left to right on a single line.
type pen struct {
	x, y    float64
	prev    int
	hasPrev bool
}

// place positions a glyph and advances the pen. The kerning pair is looked up
// on the current glyph, keyed by the previous glyph's index.
func (p *pen) place(fontIndex, char int, ci *font.CharInfo) Op {
	if p.hasPrev {
		if k, ok := ci.Kerning(p.prev); ok {
			p.x += float64(k)
		}
	}
	op := Op{
		Kind:  PlaceGlyph,
		Font:  fontIndex,
		Char:  char,
		X:     p.x + float64(ci.XOffset),
		Y:     p.y + float64(ci.YOffset),
		Glyph: ci,
	}
	p.x += float64(ci.XAdvance)
	p.prev = char
	p.hasPrev = true
	return op
}

func (in *interpreter) text(rotated bool) error {
	x, y, err := in.readPoint()
	if err != nil {
		return err
	}

	var group *Op
	if rotated {
		if group, x, y, err = in.readTransform(x, y); err != nil {
			return err
		}
	}

	p := pen{x: x, y: y}
	in.glyphs = in.glyphs[:0]
	if in.version >= spec.Version3 {
		err = in.indexedGlyphs(&p)
	} else {
		err = in.inlineGlyphs(&p)
	}
	if err != nil {
		return err
	}

	if group != nil {
		group.Glyphs = len(in.glyphs)
		if err := in.visit(*group); err != nil {
			return err
		}
	}
	for _, op := range in.glyphs {
		if err := in.visit(op); err != nil {
			return err
		}
	}
	return nil
}

// readTransform reads the rotated text header and returns the group transform
// (nil when the version has none) and the pen origin.
func (in *interpreter) readTransform(x, y float64) (*Op, float64, float64, error) {
	if in.version == spec.Version1 {
		// two values that were never used; the text is drawn unrotated
		if _, _, err := in.readPoint(); err != nil {
			return nil, 0, 0, err
		}
		return nil, x, y, nil
	}

	rotation, err := in.cursor.ReadTwips()
	if err != nil {
		return nil, 0, 0, err
	}
	width, height, err := in.readPoint()
	if err != nil {
		return nil, 0, 0, err
	}

	group := &Op{Kind: PlaceGroupTransform, X: x, Y: y, Rotation: rotation}
	if in.version == spec.Version2 {
		return group, 0, 0, nil
	}
	// approximate optical centering, kept for compatibility with existing tiles
	return group, -width / 2, -(height - height/3), nil
}

// indexedGlyphs reads a font index and a list of 1-based glyph indices;
// 0 marks a character the glyph source does not have.
func (in *interpreter) indexedGlyphs(p *pen) error {
	fontIndex, err := in.cursor.ReadU8()
	if err != nil {
		return err
	}
	n, err := in.cursor.ReadUvarint()
	if err != nil {
		return err
	}

	for range n {
		v, err := in.cursor.ReadUvarint()
		if err != nil {
			return err
		}
		if v == 0 {
			continue
		}
		in.placeGlyph(p, int(fontIndex), int(v-1))
	}
	return nil
}

// inlineGlyphs reads a byte count followed by that many bytes of inline
// character codes, resolved against the first font by char code.
func (in *interpreter) inlineGlyphs(p *pen) error {
	n, err := in.cursor.ReadUvarint()
	if err != nil {
		return err
	}

	limit := in.cursor.Pos() + int(n)
	for in.cursor.Pos() < limit {
		char, err := spec.ReadCharCode(in.cursor, limit)
		if err != nil {
			return err
		}
		in.placeGlyph(p, 0, int(char))
	}
	return nil
}

func (in *interpreter) placeGlyph(p *pen, fontIndex, char int) {
	ci, ok := in.fonts.Lookup(fontIndex, char)
	if !ok {
		in.logger.Warn("vectiles: missed glyph", "font", fontIndex, "char", char)
		return
	}
	in.glyphs = append(in.glyphs, p.place(fontIndex, char, ci))
}
