package tileset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-vectiles/tile"
)

var ErrInvalidPattern = errors.New("vectiles: invalid file pattern")

var placeholders = []string{"{x}", "{y}", "{z}"}

// Dir reads tiles stored as individual files, e.g. "/srv/tiles/{z}/{x}/{y}.vt".
type Dir struct {
	pattern string
	rootDir string
	pathRe  *regexp.Regexp
	logger  *slog.Logger
}

func OpenDir(pattern string, opts ...Option) (*Dir, error) {
	o := newOptions(opts)

	for _, p := range placeholders {
		if !strings.Contains(pattern, p) {
			return nil, fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, p)
		}
	}

	expr := regexp.QuoteMeta(filepath.Clean(pattern))
	for _, p := range placeholders {
		name := p[1:2]
		expr = strings.ReplaceAll(expr, regexp.QuoteMeta(p), "(?P<"+name+">\\d+)")
	}
	pathRe, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	// The root is the longest directory prefix that does not depend on tile coordinates.
	path0 := formatPattern(pattern, tile.ID{X: 0, Y: 0, Z: 0})
	path1 := formatPattern(pattern, tile.ID{X: 1, Y: 1, Z: 1})
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}

	return &Dir{pattern: pattern, rootDir: path0, pathRe: pathRe, logger: o.logger}, nil
}

func formatPattern(pattern string, tileID tile.ID) string {
	return filepath.Clean(strings.NewReplacer(
		"{x}", strconv.FormatUint(uint64(tileID.X), 10),
		"{y}", strconv.FormatUint(uint64(tileID.Y), 10),
		"{z}", strconv.FormatUint(uint64(tileID.Z), 10),
	).Replace(pattern))
}

func (d *Dir) Close() error { return nil }

func (d *Dir) ReadTile(tileID tile.ID) ([]byte, error) {
	data, err := os.ReadFile(formatPattern(d.pattern, tileID))
	if errors.Is(err, fs.ErrNotExist) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	return maybeGunzip(data)
}

func (d *Dir) VisitTiles(visitor func(tile.ID, []byte) error) error {
	return filepath.WalkDir(d.rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		m := d.pathRe.FindStringSubmatch(path)
		if m == nil {
			d.logger.Debug("vectiles: skipping file", "path", path)
			return nil
		}

		var coords [3]uint32
		for i, name := range []string{"x", "y", "z"} {
			v, err := strconv.ParseUint(m[d.pathRe.SubexpIndex(name)], 10, 32)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			coords[i] = uint32(v)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if data, err = maybeGunzip(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return visitor(tile.ID{X: coords[0], Y: coords[1], Z: coords[2]}, data)
	})
}
