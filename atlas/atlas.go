// Package atlas decodes texture atlas indexes (.atl): an ordered list of
// rectangles over one shared base image. The position of a rectangle in the
// list is its texture id.
package atlas

import (
	"fmt"
	"image"

	"github.com/eak1mov/go-vectiles/spec"
)

// Rect is a sub-rectangle of the base image in pixels.
type Rect struct {
	X int
	Y int
	W int
	H int
}

func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

type Atlas []Rect

// Rect returns the rectangle for a texture id.
func (a Atlas) Rect(id int) (Rect, bool) {
	if id < 0 || id >= len(a) {
		return Rect{}, false
	}
	return a[id], true
}

func Parse(data []byte) (Atlas, error) {
	c := spec.NewCursor(data)

	n, err := c.ReadUvarint()
	if err != nil {
		return nil, fmt.Errorf("atlas: %w", err)
	}

	var values [4]uint32
	rects := make(Atlas, 0, min(int(n), len(data)))
	for i := range n {
		for j := range values {
			if values[j], err = c.ReadUvarint(); err != nil {
				return nil, fmt.Errorf("atlas: rect %d: %w", i, err)
			}
		}
		rects = append(rects, Rect{
			X: int(values[0]),
			Y: int(values[1]),
			W: int(values[2]),
			H: int(values[3]),
		})
	}

	if !c.Done() {
		return nil, fmt.Errorf("atlas: %w: %d trailing byte(s)", spec.ErrTruncatedStream, c.Remaining())
	}
	return rects, nil
}

func Serialize(rects Atlas) []byte {
	buffer := spec.AppendUvarint(nil, uint32(len(rects)))
	for _, r := range rects {
		buffer = spec.AppendUvarint(buffer, uint32(r.X))
		buffer = spec.AppendUvarint(buffer, uint32(r.Y))
		buffer = spec.AppendUvarint(buffer, uint32(r.W))
		buffer = spec.AppendUvarint(buffer, uint32(r.H))
	}
	return buffer
}
