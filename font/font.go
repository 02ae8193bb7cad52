// Package font decodes bitmap font metrics (.info). A metrics file holds one or
// more fonts; each font is an ordered list of characters positioned in a shared
// atlas image.
package font

import (
	"fmt"
	"maps"
	"slices"

	"github.com/eak1mov/go-vectiles/atlas"
	"github.com/eak1mov/go-vectiles/spec"
)

// CharInfo holds the metrics of a single glyph. It is immutable once parsed.
type CharInfo struct {
	XOffset  int8
	YOffset  int8
	XAdvance int8

	// Kernings maps the index of the preceding glyph to the pen adjustment
	// applied before placing this glyph. Nil when the glyph has no kerning pairs.
	Kernings map[int]int8

	Rect atlas.Rect
}

// Kerning returns the adjustment for this glyph when it follows prev.
func (ci *CharInfo) Kerning(prev int) (int8, bool) {
	k, ok := ci.Kernings[prev]
	return k, ok
}

// Font is indexed by glyph index.
type Font []CharInfo

// Table is indexed by font index.
type Table []Font

// Lookup returns the metrics of a glyph, or false if either index is out of range.
func (t Table) Lookup(font, char int) (*CharInfo, bool) {
	if font < 0 || font >= len(t) {
		return nil, false
	}
	chars := t[font]
	if char < 0 || char >= len(chars) {
		return nil, false
	}
	return &chars[char], true
}

func Parse(data []byte) (Table, error) {
	c := spec.NewCursor(data)

	n, err := c.ReadUvarint()
	if err != nil {
		return nil, fmt.Errorf("font: %w", err)
	}

	fonts := make(Table, 0, min(int(n), len(data)))
	for i := range n {
		chars, err := readChars(c)
		if err != nil {
			return nil, fmt.Errorf("font %d: %w", i, err)
		}
		fonts = append(fonts, chars)
	}

	if !c.Done() {
		return nil, fmt.Errorf("font: %w: %d trailing byte(s)", spec.ErrTruncatedStream, c.Remaining())
	}
	return fonts, nil
}

func readChars(c *spec.Cursor) (Font, error) {
	n, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}

	chars := make(Font, 0, min(int(n), c.Remaining()))
	prevX, prevY := 0, 0
	for i := range n {
		var ci CharInfo
		if err := readChar(c, &ci, &prevX, &prevY); err != nil {
			return nil, fmt.Errorf("char %d: %w", i, err)
		}
		chars = append(chars, ci)
	}
	return chars, nil
}

func readChar(c *spec.Cursor, ci *CharInfo, prevX, prevY *int) error {
	var err error
	if ci.XOffset, err = c.ReadI8(); err != nil {
		return err
	}
	if ci.YOffset, err = c.ReadI8(); err != nil {
		return err
	}
	if ci.XAdvance, err = c.ReadI8(); err != nil {
		return err
	}

	dx, err := c.ReadSvarint()
	if err != nil {
		return err
	}
	dy, err := c.ReadSvarint()
	if err != nil {
		return err
	}
	w, err := c.ReadU8()
	if err != nil {
		return err
	}
	h, err := c.ReadU8()
	if err != nil {
		return err
	}

	*prevX += int(dx)
	*prevY += int(dy)
	ci.Rect = atlas.Rect{X: *prevX, Y: *prevY, W: int(w), H: int(h)}

	ci.Kernings, err = readKernings(c)
	return err
}

func readKernings(c *spec.Cursor) (map[int]int8, error) {
	n, err := c.ReadUvarint()
	if err != nil || n == 0 {
		return nil, err
	}

	kernings := make(map[int]int8, min(int(n), c.Remaining()))
	charIndex := 0
	for i := range n {
		delta, err := c.ReadUvarint()
		if err != nil {
			return nil, err
		}
		if i > 0 && delta == 0 {
			return nil, fmt.Errorf("%w: repeated key %d", spec.ErrInvalidKerning, charIndex)
		}
		charIndex += int(delta)

		value, err := c.ReadI8()
		if err != nil {
			return nil, err
		}
		kernings[charIndex] = value
	}
	return kernings, nil
}

func Serialize(fonts Table) []byte {
	buffer := spec.AppendUvarint(nil, uint32(len(fonts)))
	for _, chars := range fonts {
		buffer = spec.AppendUvarint(buffer, uint32(len(chars)))

		prevX, prevY := 0, 0
		for _, ci := range chars {
			buffer = append(buffer, byte(ci.XOffset), byte(ci.YOffset), byte(ci.XAdvance))
			buffer = spec.AppendSvarint(buffer, int32(ci.Rect.X-prevX))
			buffer = spec.AppendSvarint(buffer, int32(ci.Rect.Y-prevY))
			buffer = append(buffer, byte(ci.Rect.W), byte(ci.Rect.H))
			prevX, prevY = ci.Rect.X, ci.Rect.Y

			buffer = spec.AppendUvarint(buffer, uint32(len(ci.Kernings)))
			prevIndex := 0
			for _, index := range slices.Sorted(maps.Keys(ci.Kernings)) {
				buffer = spec.AppendUvarint(buffer, uint32(index-prevIndex))
				buffer = append(buffer, byte(ci.Kernings[index]))
				prevIndex = index
			}
		}
	}
	return buffer
}
