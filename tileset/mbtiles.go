package tileset

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-vectiles/tile"
)

// MBTiles reads tiles from an MBTiles sqlite database. Gzipped tile blobs are
// decompressed transparently.
//
// The sqlite3 driver must be registered by the caller
// (import _ "github.com/mattn/go-sqlite3").
type MBTiles struct {
	db     *sql.DB
	stmt   *sql.Stmt
	logger *slog.Logger
}

func OpenMBTiles(filePath string, opts ...Option) (*MBTiles, error) {
	o := newOptions(opts)

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	o.logger.Debug("vectiles: mbtiles opened", "path", filePath)
	return &MBTiles{db: db, stmt: stmt, logger: o.logger}, nil
}

func (m *MBTiles) Close() error {
	return errors.Join(m.stmt.Close(), m.db.Close())
}

// ReadMetadata returns the name/value pairs of the metadata table.
func (m *MBTiles) ReadMetadata() (map[string]string, error) {
	rows, err := m.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}
	return metadata, rows.Err()
}

// flipY converts between XYZ and TMS rows; the conversion is symmetric.
func flipY(y, z uint32) uint32 {
	return (1 << z) - 1 - y
}

func (m *MBTiles) ReadTile(tileID tile.ID) ([]byte, error) {
	if !tileID.Valid() {
		return nil, fmt.Errorf("vectiles: invalid tile %v", tileID)
	}

	var data []byte
	err := m.stmt.QueryRow(tileID.Z, tileID.X, flipY(tileID.Y, tileID.Z)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	return maybeGunzip(data)
}

func (m *MBTiles) VisitTiles(visitor func(tile.ID, []byte) error) error {
	rows, err := m.db.Query("SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, z uint32
		var data []byte
		if err := rows.Scan(&z, &x, &y, &data); err != nil {
			return err
		}

		tileID := tile.ID{X: x, Y: flipY(y, z), Z: z}
		if data, err = maybeGunzip(data); err != nil {
			return fmt.Errorf("tile %v: %w", tileID, err)
		}
		if err := visitor(tileID, data); err != nil {
			return err
		}
	}
	return rows.Err()
}
