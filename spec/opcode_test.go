package spec_test

import (
	"testing"

	"github.com/eak1mov/go-vectiles/spec"
	"github.com/stretchr/testify/require"
)

func TestOpcodeTables(t *testing.T) {
	for _, tc := range []struct {
		version spec.Version
		b       byte
		op      spec.Opcode
	}{
		{spec.Version1, 0, spec.OpMoveTo},
		{spec.Version1, 9, spec.OpDrawCircle},
		{spec.Version1, 10, spec.OpRotatedText},
		{spec.Version1, 11, spec.OpText},
		{spec.Version2, 10, spec.OpDrawCircle2},
		{spec.Version2, 12, spec.OpText},
		{spec.Version3, 11, spec.OpRotatedText},
		{spec.Version3, 13, spec.OpSymbol},
	} {
		op, ok := tc.version.Lookup(tc.b)
		require.Truef(t, ok, "%v: byte %d", tc.version, tc.b)
		require.Equal(t, tc.op, op)

		b, ok := tc.version.Byte(tc.op)
		require.True(t, ok)
		require.Equal(t, tc.b, b)
	}
}

func TestOpcodeUnknown(t *testing.T) {
	for _, tc := range []struct {
		version spec.Version
		b       byte
	}{
		{spec.Version1, 12},
		{spec.Version2, 13},
		{spec.Version3, 14},
		{spec.Version3, 255},
	} {
		_, ok := tc.version.Lookup(tc.b)
		require.Falsef(t, ok, "%v: byte %d", tc.version, tc.b)
	}

	_, ok := spec.Version1.Byte(spec.OpSymbol)
	require.False(t, ok)
}

func TestParseVersion(t *testing.T) {
	v, err := spec.ParseVersion(3)
	require.NoError(t, err)
	require.Equal(t, spec.VersionLatest, v)

	for _, n := range []int{0, 4, -1, 300} {
		_, err := spec.ParseVersion(n)
		require.ErrorIs(t, err, spec.ErrUnknownVersion)
	}
}
