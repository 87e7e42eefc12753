package navigation

import (
	"github.com/gorustyt/gonavtile/common/logger"
	"github.com/gorustyt/gonavtile/detour"
	"github.com/gorustyt/gonavtile/recast"
	"go.uber.org/zap"
)

// Tile is one cell of a navigation mesh grid together with everything built
// for it: the editable polygon mesh, its height detail and the packed runtime
// data registered with the navigation mesh.
type Tile struct {
	mesh *NavigationMesh

	tileX, tileY, tileZ int32

	tileRef    detour.DtTileRef
	polyMesh   *recast.RcPolyMesh
	detailMesh *recast.RcPolyMeshDetail
	navData    []byte
	debugMesh  *DebugMesh
	databaseID uint32

	log *zap.Logger
}

// NewTile returns an empty tile at grid coordinates (x, y, z). mesh may be
// nil for a tile that is built on its own.
func NewTile(mesh *NavigationMesh, x, y, z int32) *Tile {
	t := &Tile{
		mesh:    mesh,
		tileX:   x,
		tileY:   y,
		tileZ:   z,
		tileRef: detour.InvalidTileRef,
	}
	t.log = t.baseLogger().With(zap.Int32("tileX", x), zap.Int32("tileY", y), zap.Int32("tileZ", z))
	return t
}

func (t *Tile) baseLogger() *zap.Logger {
	if t.mesh != nil {
		return t.mesh.log
	}
	return logger.Default()
}

func (t *Tile) Mesh() *NavigationMesh { return t.mesh }
func (t *Tile) TileX() int32          { return t.tileX }
func (t *Tile) TileY() int32          { return t.tileY }
func (t *Tile) TileZ() int32          { return t.tileZ }

// NavigationData returns the packed runtime tile, empty when the tile has no
// walkable area.
func (t *Tile) NavigationData() []byte { return t.navData }

func (t *Tile) PolyMesh() *recast.RcPolyMesh         { return t.polyMesh }
func (t *Tile) DetailMesh() *recast.RcPolyMeshDetail { return t.detailMesh }

// DatabaseID is the store id of the tile, 0 until it has been persisted.
func (t *Tile) DatabaseID() uint32 { return t.databaseID }

// TileRef returns the reference the navigation mesh assigned to the tile.
// ok is false while the tile is not registered.
func (t *Tile) TileRef() (ref detour.DtTileRef, ok bool) {
	return t.tileRef, t.tileRef != detour.InvalidTileRef
}

func (t *Tile) setTileRef(ref detour.DtTileRef) { t.tileRef = ref }

// Close drops every derived mesh and the packed data.
func (t *Tile) Close() {
	t.reset()
}

func (t *Tile) reset() {
	t.polyMesh = nil
	t.detailMesh = nil
	t.navData = nil
	t.debugMesh = nil
	t.tileRef = detour.InvalidTileRef
}

func (t *Tile) metrics() *Metrics {
	if t.mesh == nil {
		return nil
	}
	return t.mesh.metrics
}
