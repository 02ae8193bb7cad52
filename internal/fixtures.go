// Package internal builds tileset fixtures for tests.
package internal

import (
	"bytes"
	"cmp"
	"compress/gzip"
	"database/sql"
	"encoding/binary"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/eak1mov/go-vectiles/tile"
	"github.com/eak1mov/go-vectiles/tileset"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// WriteDir stores every tile as a file named after pattern.
func WriteDir(t *testing.T, pattern string, tiles map[tile.ID][]byte) {
	t.Helper()
	for tileID, data := range tiles {
		path := strings.NewReplacer(
			"{x}", strconv.Itoa(int(tileID.X)),
			"{y}", strconv.Itoa(int(tileID.Y)),
			"{z}", strconv.Itoa(int(tileID.Z)),
		).Replace(pattern)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// WriteMBTiles creates an MBTiles database with rows in TMS order.
func WriteMBTiles(t *testing.T, path string, tiles map[tile.ID][]byte, metadata map[string]string) {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	stmts := []string{
		"CREATE TABLE metadata (name TEXT, value TEXT)",
		"CREATE TABLE tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB)",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	for name, value := range metadata {
		if _, err := db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", name, value); err != nil {
			t.Fatal(err)
		}
	}
	for tileID, data := range tiles {
		row := (1 << tileID.Z) - 1 - tileID.Y
		if _, err := db.Exec("INSERT INTO tiles VALUES (?, ?, ?, ?)", tileID.Z, tileID.X, row, data); err != nil {
			t.Fatal(err)
		}
	}
}

// PMTilesOptions controls the layout of a generated archive.
type PMTilesOptions struct {
	Gzip        bool // gzip directories, metadata and tiles
	Zstd        bool // same with zstd; takes precedence over Gzip
	LeafEntries int  // entries per leaf directory; 0 keeps everything in the root
	Metadata    string
}

type pmEntry struct {
	code      uint64
	offset    uint64
	length    uint64
	runLength uint64
}

// PMTiles builds a version 3 archive. Tiles with identical content
// on consecutive tile codes are stored once as a run.
func PMTiles(t *testing.T, tiles map[tile.ID][]byte, opts PMTilesOptions) []byte {
	t.Helper()

	compress := func(data []byte) []byte {
		if opts.Zstd {
			enc, err := zstd.NewWriter(nil)
			if err != nil {
				t.Fatal(err)
			}
			defer enc.Close()
			return enc.EncodeAll(data, nil)
		}
		if !opts.Gzip {
			return data
		}
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	ids := slices.SortedFunc(maps.Keys(tiles), func(a, b tile.ID) int {
		return cmp.Compare(tileset.EncodeTileCode(a), tileset.EncodeTileCode(b))
	})

	var tileData []byte
	var entries []pmEntry
	var last []byte
	for _, id := range ids {
		code := tileset.EncodeTileCode(id)
		if n := len(entries); n > 0 && bytes.Equal(tiles[id], last) &&
			entries[n-1].code+entries[n-1].runLength == code {
			entries[n-1].runLength++
			continue
		}
		last = tiles[id]
		data := compress(tiles[id])
		entries = append(entries, pmEntry{code: code, offset: uint64(len(tileData)), length: uint64(len(data)), runLength: 1})
		tileData = append(tileData, data...)
	}

	var leaves []byte
	root := entries
	if opts.LeafEntries > 0 {
		root = nil
		for chunk := range slices.Chunk(entries, opts.LeafEntries) {
			leaf := compress(serializeDirectory(chunk))
			root = append(root, pmEntry{code: chunk[0].code, offset: uint64(len(leaves)), length: uint64(len(leaf))})
			leaves = append(leaves, leaf...)
		}
	}
	rootData := compress(serializeDirectory(root))
	metadata := compress([]byte(opts.Metadata))

	compression := byte(1)
	switch {
	case opts.Zstd:
		compression = 4
	case opts.Gzip:
		compression = 2
	}

	rootOffset := uint64(127)
	metadataOffset := rootOffset + uint64(len(rootData))
	leavesOffset := metadataOffset + uint64(len(metadata))
	tilesOffset := leavesOffset + uint64(len(leaves))

	header := make([]byte, 0, 127)
	header = append(header, "PMTiles"...)
	header = append(header, 3)
	for _, v := range []uint64{
		rootOffset, uint64(len(rootData)),
		metadataOffset, uint64(len(metadata)),
		leavesOffset, uint64(len(leaves)),
		tilesOffset, uint64(len(tileData)),
		uint64(len(tiles)), uint64(len(entries)), uint64(len(entries)),
	} {
		header = binary.LittleEndian.AppendUint64(header, v)
	}
	header = append(header, 0, compression, compression, 0)
	if len(ids) > 0 {
		header = append(header, byte(ids[0].Z), byte(ids[len(ids)-1].Z))
	} else {
		header = append(header, 0, 0)
	}
	header = append(header, make([]byte, 127-len(header))...)

	return slices.Concat(header, rootData, metadata, leaves, tileData)
}

func serializeDirectory(entries []pmEntry) []byte {
	buf := binary.AppendUvarint(nil, uint64(len(entries)))
	var lastCode uint64
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, e.code-lastCode)
		lastCode = e.code
	}
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, e.runLength)
	}
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, e.length)
	}
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, e.offset+1)
	}
	return buf
}
