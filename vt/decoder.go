// Package vt interprets vector tile command streams into drawing operations.
package vt

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/eak1mov/go-vectiles/atlas"
	"github.com/eak1mov/go-vectiles/font"
	"github.com/eak1mov/go-vectiles/spec"
	"github.com/eak1mov/go-vectiles/tile"
)

// Line widths are scaled up past StrokeMinZoomLevel so strokes keep their
// apparent thickness when zooming in.
const (
	StrokeMinZoomLevel = 12
	StrokeIncrease     = 1.5
)

// StrokeScale returns the line width factor for a zoom level.
func StrokeScale(zoomLevel int) float64 {
	return math.Pow(StrokeIncrease, float64(max(zoomLevel-StrokeMinZoomLevel, 0)))
}

// Decoder interprets tile command streams of one format version. Fonts and
// textures must be fully loaded before the first decode; a Decoder is safe for
// concurrent use since it never mutates them.
type Decoder struct {
	version  spec.Version
	fonts    font.Table
	textures atlas.Atlas
	logger   *slog.Logger
}

type Option func(*Decoder)

func WithVersion(version spec.Version) Option {
	return func(d *Decoder) { d.version = version }
}

func WithFonts(fonts font.Table) Option {
	return func(d *Decoder) { d.fonts = fonts }
}

func WithTextures(textures atlas.Atlas) Option {
	return func(d *Decoder) { d.textures = textures }
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) { d.logger = logger }
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		version: spec.VersionLatest,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Decoder) Version() spec.Version { return d.version }

// Visit decodes data and calls visitor for every operation in stream order.
// Decoding stops at the first error, including one returned by visitor.
// An empty buffer holds no operations.
func (d *Decoder) Visit(data []byte, zoomLevel int, visitor func(Op) error) error {
	if !d.version.Valid() {
		return fmt.Errorf("%w: %d", spec.ErrUnknownVersion, d.version)
	}

	in := interpreter{
		Decoder:     d,
		cursor:      spec.NewCursor(data),
		strokeScale: StrokeScale(zoomLevel),
		visit:       visitor,
	}

	for !in.cursor.Done() {
		offset := in.cursor.Pos()
		b, err := in.cursor.ReadU8()
		if err != nil {
			return err
		}
		opcode, ok := d.version.Lookup(b)
		if !ok {
			return fmt.Errorf("%w: %d at offset %d", spec.ErrUnknownOpcode, b, offset)
		}
		if err := in.exec(opcode); err != nil {
			if errors.Is(err, spec.ErrOutOfBounds) {
				return fmt.Errorf("%w: %v at offset %d: %w", spec.ErrTruncatedStream, opcode, offset, err)
			}
			return fmt.Errorf("%v at offset %d: %w", opcode, offset, err)
		}
	}

	// Unreachable while Cursor never advances past the end of data: bytes
	// after the last op are read as the next opcode.
	if in.cursor.Pos() != in.cursor.Len() {
		return fmt.Errorf("%w: stopped at offset %d of %d", spec.ErrTruncatedStream, in.cursor.Pos(), in.cursor.Len())
	}
	return nil
}

// Decode returns all operations of a tile. The result is either complete or
// nil with an error.
func (d *Decoder) Decode(data []byte, zoomLevel int) ([]Op, error) {
	ops := make([]Op, 0)
	err := d.Visit(data, zoomLevel, func(op Op) error {
		ops = append(ops, op)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

// DecodeTile decodes tile data using the tile's zoom level for stroke scaling.
func (d *Decoder) DecodeTile(tileID tile.ID, data []byte) ([]Op, error) {
	return d.Decode(data, int(tileID.Z))
}

var errVisitCancelled = errors.New("visit cancelled")

// Ops returns an iterator over the operations of a tile.
// Iteration panics if the stream is malformed.
func (d *Decoder) Ops(data []byte, zoomLevel int) iter.Seq[Op] {
	return func(yield func(Op) bool) {
		err := d.Visit(data, zoomLevel, func(op Op) error {
			if !yield(op) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && !errors.Is(err, errVisitCancelled) {
			panic(err)
		}
	}
}

// interpreter holds the state of a single decode.
type interpreter struct {
	*Decoder
	cursor      *spec.Cursor
	strokeScale float64
	visit       func(Op) error

	glyphs []Op // pending glyph placements of the current text run
}

func (in *interpreter) exec(opcode spec.Opcode) error {
	switch opcode {
	case spec.OpMoveTo, spec.OpLineTo:
		x, y, err := in.readPoint()
		if err != nil {
			return err
		}
		kind := MoveTo
		if opcode == spec.OpLineTo {
			kind = LineTo
		}
		return in.visit(Op{Kind: kind, X: x, Y: y})

	case spec.OpPolyline:
		return in.polyline()

	case spec.OpPolyline2:
		if in.version == spec.Version1 {
			_, _, err := in.subpath(0, 0)
			return err
		}
		return in.polyline2()

	case spec.OpLineStyleRGB, spec.OpLineStyleRGBA:
		width, err := in.cursor.ReadTwips()
		if err != nil {
			return err
		}
		color, alpha, err := in.readColor(opcode == spec.OpLineStyleRGBA)
		if err != nil {
			return err
		}
		return in.visit(Op{Kind: LineStyle, Width: width * in.strokeScale, Color: color, Alpha: alpha})

	case spec.OpBeginFillRGB, spec.OpBeginFillRGBA:
		color, alpha, err := in.readColor(opcode == spec.OpBeginFillRGBA)
		if err != nil {
			return err
		}
		return in.visit(Op{Kind: BeginFill, Color: color, Alpha: alpha})

	case spec.OpEndFill:
		return in.visit(Op{Kind: EndFill})

	case spec.OpDrawCircle:
		var v [3]int32
		for i := range v {
			var err error
			if v[i], err = in.cursor.ReadSvarint(); err != nil {
				return err
			}
		}
		return in.visit(Op{Kind: DrawCircle, X: float64(v[0]), Y: float64(v[1]), Radius: float64(v[2])})

	case spec.OpDrawCircle2:
		x, y, err := in.readPoint()
		if err != nil {
			return err
		}
		r, err := in.cursor.ReadTwips()
		if err != nil {
			return err
		}
		return in.visit(Op{Kind: DrawCircle, X: x, Y: y, Radius: r})

	case spec.OpRotatedText:
		return in.text(true)

	case spec.OpText:
		return in.text(false)

	case spec.OpSymbol:
		return in.symbol()
	}

	return fmt.Errorf("%w: %v not handled", spec.ErrUnknownOpcode, opcode)
}

func (in *interpreter) readPoint() (float64, float64, error) {
	x, err := in.cursor.ReadTwips()
	if err != nil {
		return 0, 0, err
	}
	y, err := in.cursor.ReadTwips()
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (in *interpreter) readColor(withAlpha bool) (uint32, float64, error) {
	color, err := in.cursor.ReadRGB()
	if err != nil {
		return 0, 0, err
	}
	if !withAlpha {
		return color, 1, nil
	}
	alpha, err := in.cursor.ReadAlpha()
	if err != nil {
		return 0, 0, err
	}
	return color, alpha, nil
}

func (in *interpreter) checkCount(count uint32) error {
	if count == 0 {
		return fmt.Errorf("%w: at offset %d", spec.ErrInvalidSegmentCount, in.cursor.Pos())
	}
	return nil
}

// polyline reads a u16 point count followed by the points. Version3 points are
// absolute; earlier versions accumulate them from the origin.
func (in *interpreter) polyline() error {
	n, err := in.cursor.ReadU16()
	if err != nil {
		return err
	}
	if err := in.checkCount(uint32(n)); err != nil {
		return err
	}

	relative := in.version < spec.Version3
	prevX, prevY := 0.0, 0.0
	for range n {
		x, y, err := in.readPoint()
		if err != nil {
			return err
		}
		if relative {
			x += prevX
			y += prevY
		}
		if err := in.visit(Op{Kind: LineTo, X: x, Y: y}); err != nil {
			return err
		}
		prevX, prevY = x, y
	}
	return nil
}

// polyline2 reads a subpath count followed by the subpaths. Every anchor is
// relative to the last point of the previous subpath, the first one to the origin.
func (in *interpreter) polyline2() error {
	count, err := in.cursor.ReadUvarint()
	if err != nil {
		return err
	}
	if err := in.checkCount(count); err != nil {
		return err
	}

	prevX, prevY := 0.0, 0.0
	for range count {
		if prevX, prevY, err = in.subpath(prevX, prevY); err != nil {
			return err
		}
	}
	return nil
}

// subpath reads an anchor, a point count and the point deltas, and returns the
// last point. Version1 streams hold exactly one subpath with no leading count.
func (in *interpreter) subpath(prevX, prevY float64) (float64, float64, error) {
	dx, dy, err := in.readPoint()
	if err != nil {
		return 0, 0, err
	}
	x, y := prevX+dx, prevY+dy
	if err := in.visit(Op{Kind: MoveTo, X: x, Y: y}); err != nil {
		return 0, 0, err
	}

	n, err := in.cursor.ReadUvarint()
	if err != nil {
		return 0, 0, err
	}
	if err := in.checkCount(n); err != nil {
		return 0, 0, err
	}

	for range n {
		dx, dy, err := in.readPoint()
		if err != nil {
			return 0, 0, err
		}
		x += dx
		y += dy
		if err := in.visit(Op{Kind: LineTo, X: x, Y: y}); err != nil {
			return 0, 0, err
		}
	}
	return x, y, nil
}

func (in *interpreter) symbol() error {
	id, err := in.cursor.ReadUvarint()
	if err != nil {
		return err
	}
	x, y, err := in.readPoint()
	if err != nil {
		return err
	}
	rotation, err := in.cursor.ReadTwips()
	if err != nil {
		return err
	}

	rect, ok := in.textures.Rect(int(id))
	if !ok {
		in.logger.Warn("vectiles: missed texture", "texture", id, "textures", len(in.textures))
	}
	return in.visit(Op{Kind: PlaceSymbol, Texture: int(id), X: x, Y: y, Rotation: rotation, Rect: rect})
}
