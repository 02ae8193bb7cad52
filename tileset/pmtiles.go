package tileset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"os"
	"sort"

	"github.com/eak1mov/go-vectiles/tile"
	"github.com/google/hilbert"
	"github.com/klauspost/compress/zstd"
)

const (
	pmHeaderLength = 127
	pmMagic        = "PMTiles"
	pmVersion      = 3

	// Guards against directory cycles in corrupt archives.
	pmMaxDepth = 4
)

var (
	ErrInvalidHeader    = errors.New("vectiles: invalid pmtiles header")
	ErrInvalidDirectory = errors.New("vectiles: invalid pmtiles directory")
)

type Compression uint8

const (
	CompressionUnknown Compression = iota
	CompressionNone
	CompressionGzip
	CompressionBrotli
	CompressionZstd
)

// PMHeader holds the fields of a version 3 PMTiles header that the reader uses.
type PMHeader struct {
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	InternalCompression Compression
	TileCompression     Compression
	MinZoom             uint8
	MaxZoom             uint8
}

func parsePMHeader(data []byte) (PMHeader, error) {
	if len(data) < pmHeaderLength {
		return PMHeader{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	if string(data[:7]) != pmMagic {
		return PMHeader{}, ErrInvalidHeader
	}
	if data[7] != pmVersion {
		return PMHeader{}, fmt.Errorf("%w: version %d", ErrInvalidHeader, data[7])
	}

	u64 := func(i int) uint64 { return binary.LittleEndian.Uint64(data[8+8*i:]) }
	return PMHeader{
		RootOffset:          u64(0),
		RootLength:          u64(1),
		MetadataOffset:      u64(2),
		MetadataLength:      u64(3),
		LeafDirectoryOffset: u64(4),
		LeafDirectoryLength: u64(5),
		TileDataOffset:      u64(6),
		TileDataLength:      u64(7),
		InternalCompression: Compression(data[97]),
		TileCompression:     Compression(data[98]),
		MinZoom:             data[100],
		MaxZoom:             data[101],
	}, nil
}

func decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionUnknown, CompressionNone:
		return data, nil
	case CompressionGzip:
		return gunzip(data)
	case CompressionZstd:
		return zstdDecoder.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("compression not supported (%v)", c)
	}
}

// A nil-reader decoder only serves DecodeAll, which is safe for concurrent use.
var zstdDecoder, _ = zstd.NewReader(nil)

type pmEntry struct {
	tileCode  uint64
	offset    uint64
	length    uint32
	runLength uint32
}

// parseDirectory decodes a column-oriented directory: entry count, tile code
// deltas, run lengths, lengths, then offsets where 0 means "right after the
// previous entry".
func parseDirectory(data []byte) ([]pmEntry, error) {
	r := bytes.NewReader(data)

	var err error
	read := func() uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = binary.ReadUvarint(r)
		return v
	}

	n := read()
	// Every entry takes at least four bytes.
	if err != nil || n > uint64(len(data)) {
		return nil, fmt.Errorf("%w: bad entry count", ErrInvalidDirectory)
	}
	entries := make([]pmEntry, n)

	var code uint64
	for i := range entries {
		code += read()
		entries[i].tileCode = code
	}
	for i := range entries {
		entries[i].runLength = uint32(read())
	}
	for i := range entries {
		entries[i].length = uint32(read())
	}
	for i := range entries {
		v := read()
		switch {
		case v > 0:
			entries[i].offset = v - 1
		case i > 0:
			entries[i].offset = entries[i-1].offset + uint64(entries[i-1].length)
		case err == nil:
			err = errors.New("first entry has no offset")
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	return entries, nil
}

// findEntry returns the entry covering tileCode: either a run containing it or
// a leaf directory pointer (runLength 0) that may contain it.
func findEntry(entries []pmEntry, tileCode uint64) (pmEntry, bool) {
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].tileCode > tileCode
	})
	if i == 0 {
		return pmEntry{}, false
	}
	e := entries[i-1]
	if e.runLength == 0 || tileCode < e.tileCode+uint64(e.runLength) {
		return e, true
	}
	return pmEntry{}, false
}

// EncodeTileCode maps a tile to its position on the PMTiles Hilbert curve,
// counting every tile of the lower zoom levels first.
func EncodeTileCode(tileID tile.ID) uint64 {
	h, _ := hilbert.NewHilbert(1 << tileID.Z)
	d, _ := h.MapInverse(int(tileID.X), int(tileID.Y))
	return uint64(d) + zoomBase(tileID.Z)
}

func DecodeTileCode(code uint64) tile.ID {
	z := uint32(bits.Len64(3*code+1)-1) / 2
	h, _ := hilbert.NewHilbert(1 << z)
	x, y, _ := h.Map(int(code - zoomBase(z)))
	return tile.ID{X: uint32(x), Y: uint32(y), Z: z}
}

// zoomBase is the number of tiles on all zoom levels below z.
func zoomBase(z uint32) uint64 {
	return (1<<(2*z) - 1) / 3
}

// PMTiles reads tiles from a version 3 PMTiles archive.
type PMTiles struct {
	r      io.ReaderAt
	closer io.Closer
	size   uint64
	header PMHeader
	logger *slog.Logger
}

func OpenPMTiles(filePath string, opts ...Option) (*PMTiles, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	p, err := NewPMTiles(f, info.Size(), opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

// NewPMTiles reads an archive of the given size from r.
// Closing the result does not close r.
func NewPMTiles(r io.ReaderAt, size int64, opts ...Option) (*PMTiles, error) {
	o := newOptions(opts)
	p := &PMTiles{r: r, size: uint64(max(size, 0)), logger: o.logger}

	if p.size < pmHeaderLength {
		return nil, fmt.Errorf("%w: archive is %d bytes", ErrInvalidHeader, size)
	}
	data, err := p.readAt(0, pmHeaderLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if p.header, err = parsePMHeader(data); err != nil {
		return nil, err
	}

	h := &p.header
	for _, s := range []struct {
		name           string
		offset, length uint64
	}{
		{"root directory", h.RootOffset, h.RootLength},
		{"metadata", h.MetadataOffset, h.MetadataLength},
		{"leaf directories", h.LeafDirectoryOffset, h.LeafDirectoryLength},
		{"tile data", h.TileDataOffset, h.TileDataLength},
	} {
		if !within(s.offset, s.length, p.size) {
			return nil, fmt.Errorf("%w: %s [%d, +%d) outside archive of %d bytes",
				ErrInvalidHeader, s.name, s.offset, s.length, p.size)
		}
	}

	p.logger.Debug("vectiles: pmtiles opened",
		"minZoom", p.header.MinZoom, "maxZoom", p.header.MaxZoom,
		"tileCompression", p.header.TileCompression)
	return p, nil
}

// within reports whether [offset, offset+length) fits into limit bytes.
func within(offset, length, limit uint64) bool {
	return offset <= limit && length <= limit-offset
}

func (p *PMTiles) Header() PMHeader { return p.header }

func (p *PMTiles) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func (p *PMTiles) readAt(offset, length uint64) ([]byte, error) {
	if !within(offset, length, p.size) {
		return nil, fmt.Errorf("read [%d, +%d) outside archive of %d bytes", offset, length, p.size)
	}
	buf := make([]byte, length)
	if _, err := p.r.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadMetadata returns the decompressed JSON metadata.
func (p *PMTiles) ReadMetadata() ([]byte, error) {
	data, err := p.readAt(p.header.MetadataOffset, p.header.MetadataLength)
	if err != nil {
		return nil, err
	}
	return decompress(data, p.header.InternalCompression)
}

func (p *PMTiles) readDirectory(offset, length uint64) ([]pmEntry, error) {
	data, err := p.readAt(offset, length)
	if err != nil {
		return nil, err
	}
	if data, err = decompress(data, p.header.InternalCompression); err != nil {
		return nil, err
	}
	return parseDirectory(data)
}

func (p *PMTiles) readTileData(e pmEntry) ([]byte, error) {
	if !within(e.offset, uint64(e.length), p.header.TileDataLength) {
		return nil, fmt.Errorf("%w: tile [%d, +%d) outside tile data", ErrInvalidDirectory, e.offset, e.length)
	}
	data, err := p.readAt(p.header.TileDataOffset+e.offset, uint64(e.length))
	if err != nil {
		return nil, err
	}
	return decompress(data, p.header.TileCompression)
}

// leaf locates the leaf directory an entry points to.
func (p *PMTiles) leaf(e pmEntry) (uint64, uint64, error) {
	if !within(e.offset, uint64(e.length), p.header.LeafDirectoryLength) {
		return 0, 0, fmt.Errorf("%w: leaf [%d, +%d) outside leaf directories", ErrInvalidDirectory, e.offset, e.length)
	}
	return p.header.LeafDirectoryOffset + e.offset, uint64(e.length), nil
}

func (p *PMTiles) ReadTile(tileID tile.ID) ([]byte, error) {
	if !tileID.Valid() {
		return nil, fmt.Errorf("vectiles: invalid tile %v", tileID)
	}
	code := EncodeTileCode(tileID)

	offset, length := p.header.RootOffset, p.header.RootLength
	for range pmMaxDepth {
		entries, err := p.readDirectory(offset, length)
		if err != nil {
			return nil, err
		}
		e, found := findEntry(entries, code)
		if !found {
			return []byte{}, nil
		}
		if e.runLength > 0 {
			return p.readTileData(e)
		}
		if offset, length, err = p.leaf(e); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: leaf directories nested too deep", ErrInvalidDirectory)
}

func (p *PMTiles) VisitTiles(visitor func(tile.ID, []byte) error) error {
	var traverse func(offset, length uint64, depth int) error
	traverse = func(offset, length uint64, depth int) error {
		if depth >= pmMaxDepth {
			return fmt.Errorf("%w: leaf directories nested too deep", ErrInvalidDirectory)
		}
		entries, err := p.readDirectory(offset, length)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.runLength == 0 {
				leafOffset, leafLength, err := p.leaf(e)
				if err != nil {
					return err
				}
				if err := traverse(leafOffset, leafLength, depth+1); err != nil {
					return err
				}
				continue
			}
			data, err := p.readTileData(e)
			if err != nil {
				return err
			}
			for i := range uint64(e.runLength) {
				if err := visitor(DecodeTileCode(e.tileCode+i), data); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return traverse(p.header.RootOffset, p.header.RootLength, 0)
}
