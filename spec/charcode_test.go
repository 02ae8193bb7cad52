package spec_test

import (
	"errors"
	"testing"

	"github.com/eak1mov/go-vectiles/spec"
	"github.com/stretchr/testify/require"
)

func TestReadCharCode(t *testing.T) {
	text := []byte("Aé€")
	c := spec.NewCursor(text)

	var got []rune
	for !c.Done() {
		r, err := spec.ReadCharCode(c, len(text))
		require.NoError(t, err)
		got = append(got, r)
	}
	require.Equal(t, []rune{'A', 'é', '€'}, got)
}

func TestReadCharCodeMalformed(t *testing.T) {
	for _, tc := range []struct {
		name    string
		data    []byte
		limit   int
		offset  int
		partial bool
	}{
		{"BadContinuation2", []byte{0xC3, 0x41}, 2, 1, false},
		{"BadContinuation3Second", []byte{0xE2, 0x41, 0x80}, 3, 1, false},
		{"BadContinuation3Third", []byte{0xE2, 0x82, 0x41}, 3, 2, false},
		{"BadLeadByte", []byte{0x41, 0xF0, 0x80}, 3, 1, false},
		{"ContinuationAsLead", []byte{0x80}, 1, 0, false},
		{"Partial2", []byte{0xC3, 0xA9}, 1, 0, true},
		{"Partial3", []byte{0xE2, 0x82, 0xAC}, 2, 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := spec.NewCursor(tc.data)
			var err error
			for err == nil && c.Pos() < tc.limit {
				_, err = spec.ReadCharCode(c, tc.limit)
			}
			require.ErrorIs(t, err, spec.ErrMalformedCharacter)

			var malformed *spec.MalformedInputError
			require.True(t, errors.As(err, &malformed))
			require.Equal(t, tc.offset, malformed.Offset)
			require.Equal(t, tc.partial, malformed.Partial)
		})
	}
}
