package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorustyt/gonavtile/common/message"
)

const createTilesTable = `
	CREATE TABLE IF NOT EXISTS navigation_tiles (
		id        INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		mesh_id   INT UNSIGNED NOT NULL,
		tile_x    INT          NOT NULL,
		tile_y    INT          NOT NULL,
		tile_z    INT          NOT NULL,
		nav_data  LONGBLOB,
		poly_data LONGBLOB,
		INDEX idx_mesh (mesh_id)
	) ENGINE=InnoDB
`

// MySQLStore keeps tiles in the navigation_tiles table of a MySQL or MariaDB
// database. Blobs are stored zstd compressed.
type MySQLStore struct {
	db    *sql.DB
	codec *blobCodec
}

// OpenMySQLStore connects with dsn (user:pass@tcp(host:port)/dbname) and
// creates the table when missing.
func OpenMySQLStore(ctx context.Context, dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping mysql: %w", err)
	}
	s, err := NewMySQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewMySQLStore uses an already open database. Close closes db.
func NewMySQLStore(ctx context.Context, db *sql.DB) (*MySQLStore, error) {
	if _, err := db.ExecContext(ctx, createTilesTable); err != nil {
		return nil, fmt.Errorf("storage: create navigation_tiles: %w", err)
	}
	codec, err := newBlobCodec()
	if err != nil {
		return nil, err
	}
	return &MySQLStore{db: db, codec: codec}, nil
}

func (s *MySQLStore) InsertTile(ctx context.Context, rec message.TileRecord) (uint32, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO navigation_tiles (mesh_id, tile_x, tile_y, tile_z, nav_data, poly_data) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ParentMeshID, rec.TileX, rec.TileY, rec.TileZ,
		s.codec.compress(rec.NavData), s.codec.compress(rec.PolyData))
	if err != nil {
		return 0, fmt.Errorf("storage: insert tile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: insert tile: %w", err)
	}
	return uint32(id), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *MySQLStore) scanTile(row rowScanner) (message.TileRecord, error) {
	var rec message.TileRecord
	var nav, poly []byte
	if err := row.Scan(&rec.ID, &rec.ParentMeshID, &rec.TileX, &rec.TileY, &rec.TileZ, &nav, &poly); err != nil {
		return rec, err
	}
	var err error
	if rec.NavData, err = s.codec.decompress(nav); err != nil {
		return rec, fmt.Errorf("storage: tile %d nav data: %w", rec.ID, err)
	}
	if rec.PolyData, err = s.codec.decompress(poly); err != nil {
		return rec, fmt.Errorf("storage: tile %d poly data: %w", rec.ID, err)
	}
	return rec, nil
}

const selectTile = `SELECT id, mesh_id, tile_x, tile_y, tile_z, nav_data, poly_data FROM navigation_tiles`

func (s *MySQLStore) LoadTile(ctx context.Context, id uint32) (message.TileRecord, error) {
	rec, err := s.scanTile(s.db.QueryRowContext(ctx, selectTile+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	return rec, err
}

func (s *MySQLStore) LoadMeshTiles(ctx context.Context, meshID uint32) ([]message.TileRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectTile+` WHERE mesh_id = ? ORDER BY id`, meshID)
	if err != nil {
		return nil, fmt.Errorf("storage: load tiles of mesh %d: %w", meshID, err)
	}
	defer rows.Close()

	var recs []message.TileRecord
	for rows.Next() {
		rec, err := s.scanTile(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *MySQLStore) Close() error {
	s.codec.close()
	return s.db.Close()
}
