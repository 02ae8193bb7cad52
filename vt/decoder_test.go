package vt_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/eak1mov/go-vectiles/atlas"
	"github.com/eak1mov/go-vectiles/font"
	"github.com/eak1mov/go-vectiles/spec"
	"github.com/eak1mov/go-vectiles/tile"
	"github.com/eak1mov/go-vectiles/vt"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func stream(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func op(b byte) []byte { return []byte{b} }
func tw(v float64) []byte { return spec.AppendTwips(nil, v) }
func uv(v uint32) []byte { return spec.AppendUvarint(nil, v) }
func sv(v int32) []byte { return spec.AppendSvarint(nil, v) }
func pt(x, y float64) []byte { return stream(tw(x), tw(y)) }
func u16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func rgb(v uint32) []byte { return spec.AppendRGB(nil, v) }

func decode(t *testing.T, d *vt.Decoder, data []byte, zoom int) []vt.Op {
	t.Helper()
	ops, err := d.Decode(data, zoom)
	require.NoError(t, err)
	return ops
}

func requireOps(t *testing.T, want, got []vt.Op) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode mismatch (-want+got):\n%v", diff)
	}
}

func TestMoveToLineTo(t *testing.T) {
	data := stream(
		op(0), sv(200), sv(0),
		op(1), sv(0), sv(200),
	)
	requireOps(t, []vt.Op{
		{Kind: vt.MoveTo, X: 10, Y: 0},
		{Kind: vt.LineTo, X: 0, Y: 10},
	}, decode(t, vt.NewDecoder(), data, 0))
}

func TestEmptyTile(t *testing.T) {
	ops, err := vt.NewDecoder().Decode(nil, 14)
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestPolyline(t *testing.T) {
	data := stream(op(2), u16(3), pt(1, 1), pt(2, 3), pt(-4, 5))

	requireOps(t, []vt.Op{
		{Kind: vt.LineTo, X: 1, Y: 1},
		{Kind: vt.LineTo, X: 2, Y: 3},
		{Kind: vt.LineTo, X: -4, Y: 5},
	}, decode(t, vt.NewDecoder(), data, 0))

	// earlier revisions accumulate points from the origin
	requireOps(t, []vt.Op{
		{Kind: vt.LineTo, X: 1, Y: 1},
		{Kind: vt.LineTo, X: 3, Y: 4},
		{Kind: vt.LineTo, X: -1, Y: 9},
	}, decode(t, vt.NewDecoder(vt.WithVersion(spec.Version2)), data, 0))
}

func TestPolyline2(t *testing.T) {
	data := stream(op(3), uv(1), pt(0, 0), uv(2), pt(5, 0), pt(0, 5))
	requireOps(t, []vt.Op{
		{Kind: vt.MoveTo, X: 0, Y: 0},
		{Kind: vt.LineTo, X: 5, Y: 0},
		{Kind: vt.LineTo, X: 5, Y: 5},
	}, decode(t, vt.NewDecoder(), data, 0))
}

func TestPolyline2Subpaths(t *testing.T) {
	data := stream(
		op(3), uv(2),
		pt(10, 10), uv(1), pt(1, 0),
		pt(-1, 5), uv(2), pt(0, 1), pt(2, 2),
	)
	requireOps(t, []vt.Op{
		{Kind: vt.MoveTo, X: 10, Y: 10},
		{Kind: vt.LineTo, X: 11, Y: 10},
		{Kind: vt.MoveTo, X: 10, Y: 15},
		{Kind: vt.LineTo, X: 10, Y: 16},
		{Kind: vt.LineTo, X: 12, Y: 18},
	}, decode(t, vt.NewDecoder(), data, 0))
}

func TestInvalidSegmentCount(t *testing.T) {
	for _, tc := range []struct {
		name    string
		version spec.Version
		data    []byte
	}{
		{"Polyline", spec.Version3, stream(op(2), u16(0))},
		{"Polyline2Subpaths", spec.Version3, stream(op(3), uv(0))},
		{"Polyline2Points", spec.Version3, stream(op(3), uv(1), pt(0, 0), uv(0))},
		{"Polyline2Legacy", spec.Version1, stream(op(3), pt(0, 0), uv(0))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := vt.NewDecoder(vt.WithVersion(tc.version)).Decode(tc.data, 0)
			require.ErrorIs(t, err, spec.ErrInvalidSegmentCount)
		})
	}
}

func TestStyles(t *testing.T) {
	data := stream(
		op(4), tw(2), rgb(0xFF8800),
		op(5), tw(1), rgb(0x112233), []byte{51},
		op(6), rgb(0xABCDEF),
		op(7), rgb(0x000001), []byte{255},
		op(8),
	)

	requireOps(t, []vt.Op{
		{Kind: vt.LineStyle, Width: 2, Color: 0xFF8800, Alpha: 1},
		{Kind: vt.LineStyle, Width: 1, Color: 0x112233, Alpha: 0.2},
		{Kind: vt.BeginFill, Color: 0xABCDEF, Alpha: 1},
		{Kind: vt.BeginFill, Color: 0x000001, Alpha: 1},
		{Kind: vt.EndFill},
	}, decode(t, vt.NewDecoder(), data, 12))

	ops := decode(t, vt.NewDecoder(), data, 14)
	require.Equal(t, 4.5, ops[0].Width)
	require.Equal(t, 2.25, ops[1].Width)
}

func TestStrokeScale(t *testing.T) {
	require.Equal(t, 1.0, vt.StrokeScale(0))
	require.Equal(t, 1.0, vt.StrokeScale(12))
	require.Equal(t, 1.5, vt.StrokeScale(13))
	require.Equal(t, 3.375, vt.StrokeScale(15))
}

func TestCircles(t *testing.T) {
	data := stream(
		op(9), sv(20), sv(-40), sv(5),
		op(10), pt(1, -2), tw(0.5),
	)
	requireOps(t, []vt.Op{
		{Kind: vt.DrawCircle, X: 20, Y: -40, Radius: 5},
		{Kind: vt.DrawCircle, X: 1, Y: -2, Radius: 0.5},
	}, decode(t, vt.NewDecoder(), data, 0))
}

func TestUnknownOpcode(t *testing.T) {
	_, err := vt.NewDecoder().Decode(stream(op(8), op(255)), 0)
	require.ErrorIs(t, err, spec.ErrUnknownOpcode)

	// SYMBOL does not exist before Version3
	_, err = vt.NewDecoder(vt.WithVersion(spec.Version2)).Decode(stream(op(13), uv(0), pt(0, 0), tw(0)), 0)
	require.ErrorIs(t, err, spec.ErrUnknownOpcode)

	_, err = vt.NewDecoder(vt.WithVersion(spec.Version(9))).Decode(op(8), 0)
	require.ErrorIs(t, err, spec.ErrUnknownVersion)
}

func TestTrailingBytes(t *testing.T) {
	d := vt.NewDecoder()

	ops, err := d.Decode(stream(op(8), []byte{0x40}), 0)
	require.ErrorIs(t, err, spec.ErrUnknownOpcode)
	require.ErrorContains(t, err, "64 at offset 1")
	require.Nil(t, ops)

	// A valid opcode byte left over becomes an op with truncated operands.
	ops, err = d.Decode(stream(op(8), op(0)), 0)
	require.ErrorIs(t, err, spec.ErrTruncatedStream)
	require.Nil(t, ops)
}

func TestTruncatedStream(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"MoveTo", stream(op(0), tw(1))},
		{"Varint", stream(op(1), tw(1), []byte{0x80})},
		{"LineStyle", stream(op(5), tw(1), rgb(0x123456))},
		{"Polyline", stream(op(2), u16(3), pt(1, 1))},
		{"Text", stream(op(12), pt(0, 0), []byte{0}, uv(2), uv(1))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ops, err := vt.NewDecoder().Decode(tc.data, 0)
			require.ErrorIs(t, err, spec.ErrTruncatedStream)
			require.ErrorIs(t, err, spec.ErrOutOfBounds)
			require.Nil(t, ops)
		})
	}
}

func TestVisitorError(t *testing.T) {
	data := stream(op(8), op(8), op(8))
	errStop := errors.New("stop")

	calls := 0
	err := vt.NewDecoder().Visit(data, 0, func(vt.Op) error {
		calls++
		if calls == 2 {
			return errStop
		}
		return nil
	})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, 2, calls)
}

func TestOps(t *testing.T) {
	data := stream(op(8), op(8), op(8))

	count := 0
	for o := range vt.NewDecoder().Ops(data, 0) {
		require.Equal(t, vt.EndFill, o.Kind)
		count++
		if count == 2 {
			break
		}
	}
	require.Equal(t, 2, count)

	require.Panics(t, func() {
		for range vt.NewDecoder().Ops(op(200), 0) {
		}
	})
}

func TestDecodeTile(t *testing.T) {
	data := stream(op(4), tw(2), rgb(0))
	ops, err := vt.NewDecoder().DecodeTile(tile.ID{X: 1, Y: 2, Z: 13}, data)
	require.NoError(t, err)
	require.Equal(t, 3.0, ops[0].Width)
}

func testFonts() font.Table {
	return font.Table{{
		{XOffset: 1, YOffset: -2, XAdvance: 10, Rect: atlas.Rect{X: 0, Y: 0, W: 9, H: 12}},
		{XOffset: 0, YOffset: 0, XAdvance: 8, Rect: atlas.Rect{X: 9, Y: 0, W: 8, H: 12},
			Kernings: map[int]int8{0: -3}},
	}}
}

func TestText(t *testing.T) {
	fonts := testFonts()
	var logs bytes.Buffer
	d := vt.NewDecoder(
		vt.WithFonts(fonts),
		vt.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	// glyphs: 0, unavailable, 1, missing from the font, 0
	data := stream(op(12), pt(100, 50), []byte{0}, uv(5), uv(1), uv(0), uv(2), uv(6), uv(1))

	requireOps(t, []vt.Op{
		{Kind: vt.PlaceGlyph, Font: 0, Char: 0, X: 101, Y: 48, Glyph: &fonts[0][0]},
		// kerning of glyph 1 after glyph 0
		{Kind: vt.PlaceGlyph, Font: 0, Char: 1, X: 107, Y: 50, Glyph: &fonts[0][1]},
		// glyph 0 has no pair for glyph 1; the reverse pair must not apply
		{Kind: vt.PlaceGlyph, Font: 0, Char: 0, X: 116, Y: 48, Glyph: &fonts[0][0]},
	}, decode(t, d, data, 0))

	require.Contains(t, logs.String(), "missed glyph")
	require.Contains(t, logs.String(), "char=5")
}

func TestTextSentinelKeepsPen(t *testing.T) {
	fonts := testFonts()
	d := vt.NewDecoder(vt.WithFonts(fonts))

	withSentinel := decode(t, d, stream(op(12), pt(0, 0), []byte{0}, uv(3), uv(0), uv(1), uv(0)), 0)
	without := decode(t, d, stream(op(12), pt(0, 0), []byte{0}, uv(1), uv(1)), 0)
	requireOps(t, without, withSentinel)
}

func TestTextUnknownFont(t *testing.T) {
	ops := decode(t, vt.NewDecoder(vt.WithFonts(testFonts())), stream(op(12), pt(0, 0), []byte{3}, uv(2), uv(1), uv(2)), 0)
	require.Empty(t, ops)
}

func TestRotatedText(t *testing.T) {
	fonts := testFonts()
	d := vt.NewDecoder(vt.WithFonts(fonts))
	data := stream(op(11), pt(30, 40), tw(1.5), pt(20, 12), []byte{0}, uv(2), uv(1), uv(3))

	requireOps(t, []vt.Op{
		{Kind: vt.PlaceGroupTransform, X: 30, Y: 40, Rotation: 1.5, Glyphs: 1},
		{Kind: vt.PlaceGlyph, Font: 0, Char: 0, X: -9, Y: -10, Glyph: &fonts[0][0]},
	}, decode(t, d, data, 0))
}

func TestSymbol(t *testing.T) {
	textures := atlas.Atlas{
		{X: 0, Y: 0, W: 16, H: 16},
		{X: 16, Y: 0, W: 8, H: 8},
	}
	var logs bytes.Buffer
	d := vt.NewDecoder(
		vt.WithTextures(textures),
		vt.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	data := stream(
		op(13), uv(1), pt(5, 6), tw(0.5),
		op(13), uv(7), pt(0, 0), tw(0),
	)

	requireOps(t, []vt.Op{
		{Kind: vt.PlaceSymbol, Texture: 1, X: 5, Y: 6, Rotation: 0.5, Rect: textures[1]},
		{Kind: vt.PlaceSymbol, Texture: 7},
	}, decode(t, d, data, 0))
	require.Contains(t, logs.String(), "missed texture")
}
