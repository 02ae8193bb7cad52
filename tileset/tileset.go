// Package tileset provides read-only tile sources for vector tile command
// streams: MBTiles databases, PMTiles archives and XYZ directories.
package tileset

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/eak1mov/go-vectiles/tile"
)

type Format string

const (
	FormatMBTiles Format = "mbtiles"
	FormatPMTiles Format = "pmtiles"
	FormatDir     Format = "dir"
)

var ErrUnknownFormat = errors.New("vectiles: unknown tileset format")

type options struct {
	logger *slog.Logger
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DeduceFormat guesses the tileset format from a path: ".mbtiles" and
// ".pmtiles" files, or a directory pattern containing "{z}".
func DeduceFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mbtiles":
		return FormatMBTiles, nil
	case ".pmtiles":
		return FormatPMTiles, nil
	}
	if strings.Contains(path, "{z}") {
		return FormatDir, nil
	}
	return "", fmt.Errorf("%w: cannot deduce from path %q", ErrUnknownFormat, path)
}

// Open opens a tile source. An empty format is deduced from the path.
func Open(format Format, path string, opts ...Option) (tile.Source, error) {
	if format == "" {
		var err error
		if format, err = DeduceFormat(path); err != nil {
			return nil, err
		}
	}

	var src tile.Source
	var err error
	switch format {
	case FormatMBTiles:
		src, err = OpenMBTiles(path, opts...)
	case FormatPMTiles:
		src, err = OpenPMTiles(path, opts...)
	case FormatDir:
		src, err = OpenDir(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Raw command streams never start with the gzip magic: the first byte of a
// non-empty stream is an opcode.
func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	defer r.Close()

	result, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return result, nil
}

func maybeGunzip(data []byte) ([]byte, error) {
	if isGzip(data) {
		return gunzip(data)
	}
	return data, nil
}
