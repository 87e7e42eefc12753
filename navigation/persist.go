package navigation

import (
	"context"
	"fmt"

	"github.com/gorustyt/gonavtile/common/message"
	"go.uber.org/zap"
)

// TileRecord is one persisted tile.
type TileRecord = message.TileRecord

// TileStore persists tiles. One store is opened per world and shared by every
// navigation mesh in it; implementations synchronize internally.
type TileStore interface {
	// InsertTile stores rec and returns its new id. rec.ID is ignored.
	InsertTile(ctx context.Context, rec TileRecord) (uint32, error)
	LoadTile(ctx context.Context, id uint32) (TileRecord, error)
	// LoadMeshTiles returns every tile of the mesh in insertion order.
	LoadMeshTiles(ctx context.Context, meshID uint32) ([]TileRecord, error)
	Close() error
}

// Record returns the persisted form of the tile.
func (t *Tile) Record(parentMeshID uint32) TileRecord {
	return TileRecord{
		ID:           t.databaseID,
		ParentMeshID: parentMeshID,
		TileX:        t.tileX,
		TileY:        t.tileY,
		TileZ:        t.tileZ,
		NavData:      t.navData,
		PolyData:     EncodePolyMesh(t.polyMesh),
	}
}

// Serialize inserts the tile into store unless it was stored before. Tiles are
// never updated in place.
func (t *Tile) Serialize(ctx context.Context, store TileStore, parentMeshID uint32) error {
	if store == nil {
		return ErrNoStore
	}
	if t.databaseID != 0 {
		return nil
	}
	id, err := store.InsertTile(ctx, t.Record(parentMeshID))
	if err != nil {
		t.log.Error("failed to insert navigation tile", zap.Uint32("mesh", parentMeshID), zap.Error(err))
		return fmt.Errorf("navigation: insert tile (%d,%d,%d): %w", t.tileX, t.tileY, t.tileZ, err)
	}
	t.databaseID = id
	t.metrics().observePersisted()
	return nil
}

// Deserialize replaces the tile's coordinates and data with the stored tile
// id. A cloned tile keeps no database id, so the next Serialize inserts a new
// record.
func (t *Tile) Deserialize(ctx context.Context, store TileStore, id uint32, cloning bool) error {
	if store == nil {
		return ErrNoStore
	}
	rec, err := store.LoadTile(ctx, id)
	if err != nil {
		t.log.Error("failed to load navigation tile", zap.Uint32("id", id), zap.Error(err))
		return fmt.Errorf("navigation: load tile %d: %w", id, err)
	}
	return t.restore(rec, cloning)
}

func (t *Tile) restore(rec TileRecord, cloning bool) error {
	pmesh, err := DecodePolyMesh(rec.PolyData)
	if err != nil {
		t.log.Error("failed to decode polygon mesh", zap.Uint32("id", rec.ID), zap.Error(err))
		return fmt.Errorf("navigation: tile %d: %w", rec.ID, err)
	}
	t.reset()
	t.tileX, t.tileY, t.tileZ = rec.TileX, rec.TileY, rec.TileZ
	t.navData = rec.NavData
	t.polyMesh = pmesh
	t.databaseID = rec.ID
	if cloning {
		t.databaseID = 0
	}
	t.log = t.baseLogger().With(zap.Int32("tileX", t.tileX), zap.Int32("tileY", t.tileY), zap.Int32("tileZ", t.tileZ))
	return nil
}
