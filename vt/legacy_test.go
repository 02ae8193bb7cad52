package vt_test

import (
	"errors"
	"testing"

	"github.com/eak1mov/go-vectiles/font"
	"github.com/eak1mov/go-vectiles/spec"
	"github.com/eak1mov/go-vectiles/vt"
	"github.com/stretchr/testify/require"
)

// legacyFonts returns a single font indexed by char code.
func legacyFonts() font.Table {
	chars := make(font.Font, '€'+1)
	chars['A'] = font.CharInfo{XAdvance: 5}
	chars['é'] = font.CharInfo{XAdvance: 6, Kernings: map[int]int8{'A': -1}}
	chars['€'] = font.CharInfo{XAdvance: 7, YOffset: -1}
	return font.Table{chars}
}

func TestLegacyText(t *testing.T) {
	fonts := legacyFonts()
	text := []byte("Aé€")
	d := vt.NewDecoder(vt.WithVersion(spec.Version1), vt.WithFonts(fonts))

	data := stream(op(11), pt(10, 20), uv(uint32(len(text))), text)
	requireOps(t, []vt.Op{
		{Kind: vt.PlaceGlyph, Char: 'A', X: 10, Y: 20, Glyph: &fonts[0]['A']},
		{Kind: vt.PlaceGlyph, Char: 'é', X: 14, Y: 20, Glyph: &fonts[0]['é']},
		{Kind: vt.PlaceGlyph, Char: '€', X: 20, Y: 19, Glyph: &fonts[0]['€']},
	}, decode(t, d, data, 0))
}

func TestLegacyRotatedText(t *testing.T) {
	fonts := legacyFonts()

	v1 := stream(op(10), pt(10, 20), pt(99, 99), uv(1), []byte("A"))
	requireOps(t, []vt.Op{
		{Kind: vt.PlaceGlyph, Char: 'A', X: 10, Y: 20, Glyph: &fonts[0]['A']},
	}, decode(t, vt.NewDecoder(vt.WithVersion(spec.Version1), vt.WithFonts(fonts)), v1, 0))

	v2 := stream(op(11), pt(30, 40), tw(0.25), pt(5, 5), uv(1), []byte("A"))
	requireOps(t, []vt.Op{
		{Kind: vt.PlaceGroupTransform, X: 30, Y: 40, Rotation: 0.25, Glyphs: 1},
		{Kind: vt.PlaceGlyph, Char: 'A', X: 0, Y: 0, Glyph: &fonts[0]['A']},
	}, decode(t, vt.NewDecoder(vt.WithVersion(spec.Version2), vt.WithFonts(fonts)), v2, 0))
}

func TestLegacyOpcodes(t *testing.T) {
	v1 := stream(
		op(3), pt(1, 1), uv(2), pt(1, 0), pt(0, 1),
		op(9), sv(1), sv(2), sv(3),
	)
	requireOps(t, []vt.Op{
		{Kind: vt.MoveTo, X: 1, Y: 1},
		{Kind: vt.LineTo, X: 2, Y: 1},
		{Kind: vt.LineTo, X: 2, Y: 2},
		{Kind: vt.DrawCircle, X: 1, Y: 2, Radius: 3},
	}, decode(t, vt.NewDecoder(vt.WithVersion(spec.Version1)), v1, 0))

	_, err := vt.NewDecoder(vt.WithVersion(spec.Version1)).Decode(op(12), 0)
	require.ErrorIs(t, err, spec.ErrUnknownOpcode)

	v2 := stream(
		op(3), uv(1), pt(1, 1), uv(1), pt(1, 0),
		op(10), pt(1, 2), tw(3),
	)
	requireOps(t, []vt.Op{
		{Kind: vt.MoveTo, X: 1, Y: 1},
		{Kind: vt.LineTo, X: 2, Y: 1},
		{Kind: vt.DrawCircle, X: 1, Y: 2, Radius: 3},
	}, decode(t, vt.NewDecoder(vt.WithVersion(spec.Version2)), v2, 0))
}

func TestLegacyMalformedText(t *testing.T) {
	d := vt.NewDecoder(vt.WithVersion(spec.Version1), vt.WithFonts(legacyFonts()))

	for _, tc := range []struct {
		name    string
		data    []byte
		offset  int
		partial bool
	}{
		{"BadContinuation", stream(op(11), pt(0, 0), uv(2), []byte{0xC3, 0x41}), 5, false},
		{"PartialAtEnd", stream(op(11), pt(0, 0), uv(1), []byte{0xC3, 0xA9}), 4, true},
		{"BadLeadByte", stream(op(11), pt(0, 0), uv(1), []byte{0xF8}), 4, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Decode(tc.data, 0)
			require.ErrorIs(t, err, spec.ErrMalformedCharacter)

			var malformed *spec.MalformedInputError
			require.True(t, errors.As(err, &malformed))
			require.Equal(t, tc.offset, malformed.Offset)
			require.Equal(t, tc.partial, malformed.Partial)
		})
	}
}
