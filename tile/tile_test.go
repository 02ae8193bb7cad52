package tile_test

import (
	"errors"
	"maps"
	"testing"

	"github.com/eak1mov/go-vectiles/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type mapSource map[tile.ID][]byte

func (m mapSource) VisitTiles(visitor func(tile.ID, []byte) error) error {
	for id, data := range m {
		if err := visitor(id, data); err != nil {
			return err
		}
	}
	return nil
}

type failingSource struct{}

func (failingSource) VisitTiles(func(tile.ID, []byte) error) error {
	return errors.New("broken tileset")
}

func TestValid(t *testing.T) {
	require.True(t, tile.ID{X: 0, Y: 0, Z: 0}.Valid())
	require.True(t, tile.ID{X: 4095, Y: 4095, Z: 12}.Valid())
	require.False(t, tile.ID{X: 1, Y: 0, Z: 0}.Valid())
	require.False(t, tile.ID{X: 0, Y: 4096, Z: 12}.Valid())
	require.False(t, tile.ID{Z: 32}.Valid())
	require.Equal(t, "14/8800/5373", tile.ID{X: 8800, Y: 5373, Z: 14}.String())
}

func TestIterTiles(t *testing.T) {
	tiles := mapSource{
		{X: 0, Y: 0, Z: 0}: []byte{8},
		{X: 1, Y: 1, Z: 1}: []byte{8, 8},
		{X: 6, Y: 6, Z: 6}: nil,
	}
	if diff := cmp.Diff(map[tile.ID][]byte(tiles), maps.Collect(tile.IterTiles(tiles))); diff != "" {
		t.Errorf("IterTiles mismatch (-want+got):\n%v", diff)
	}

	count := 0
	for range tile.IterTiles(tiles) {
		count++
		break
	}
	require.Equal(t, 1, count)

	require.Panics(t, func() {
		for range tile.IterTiles(failingSource{}) {
		}
	})
}
