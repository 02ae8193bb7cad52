// Package tile provides tile identifiers and the interfaces of tile sources
// feeding the vector tile decoder.
package tile

import "fmt"

// ID represents tile coordinates in the XYZ scheme (Tiled web map).
// Z is the zoom level the tile is decoded and styled at.
type ID struct {
	X uint32
	Y uint32
	Z uint32
}

func (t ID) Valid() bool {
	return t.Z < 32 && t.X < (1<<t.Z) && t.Y < (1<<t.Z)
}

func (t ID) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

type Reader interface {
	// ReadTile reads the command stream of a single tile.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadTile(tileID ID) ([]byte, error)
}

type Visitor interface {
	// VisitTiles visits all tiles of the source, calling the visitor for each.
	// Order of tiles, upfront cpu and memory consumption are implementation-defined.
	VisitTiles(visitor func(ID, []byte) error) error
}

// Source is a readable tileset that must be closed after use.
type Source interface {
	Reader
	Visitor
	Close() error
}
