package navigation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/google/uuid"
	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/common/logger"
	"github.com/gorustyt/gonavtile/detour"
	"github.com/gorustyt/gonavtile/recast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxTileBits  = 14
	refIndexBits = 22 // tile and polygon bits of a polygon reference
	trisPerChunk = 256
)

// Option configures a NavigationMesh.
type Option func(*NavigationMesh)

// WithLogger sets the logger tiles and builds report through.
func WithLogger(l *zap.Logger) Option {
	return func(m *NavigationMesh) {
		if l != nil {
			m.log = l
		}
	}
}

// WithWorkers limits how many tiles are built at once. Values below one use
// every CPU.
func WithWorkers(n int) Option {
	return func(m *NavigationMesh) { m.workers = n }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *NavigationMesh) { m.metrics = metrics }
}

// NavigationMesh is a grid of tiles built from one set of world geometry and
// registered with a runtime navigation mesh.
type NavigationMesh struct {
	id      uint32
	params  BuildParams
	log     *zap.Logger
	workers int
	metrics *Metrics

	bounds  Bounds
	navMesh *detour.DtNavMesh
	tiles   []*Tile
}

// NewNavigationMesh returns an unbuilt mesh. id is the key its tiles are
// persisted under.
func NewNavigationMesh(id uint32, params BuildParams, opts ...Option) *NavigationMesh {
	m := &NavigationMesh{
		id:     id,
		params: params,
		log:    logger.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.Uint32("navMesh", id))
	if m.workers < 1 {
		m.workers = runtime.GOMAXPROCS(0)
	}
	return m
}

func (m *NavigationMesh) ID() uint32                 { return m.id }
func (m *NavigationMesh) Params() BuildParams        { return m.params }
func (m *NavigationMesh) Bounds() Bounds             { return m.bounds }
func (m *NavigationMesh) Tiles() []*Tile             { return m.tiles }
func (m *NavigationMesh) NavMesh() *detour.DtNavMesh { return m.navMesh }

// Tile returns the registered tile at grid column (x, z), or nil.
func (m *NavigationMesh) Tile(x, z int32) *Tile {
	for _, t := range m.tiles {
		if t.tileX == x && t.tileZ == z {
			return t
		}
	}
	return nil
}

func (m *NavigationMesh) tileSize() float32 {
	return float32(m.params.TileCells) * m.params.CellSize
}

// Close releases every tile and the runtime mesh.
func (m *NavigationMesh) Close() {
	for _, t := range m.tiles {
		t.Close()
	}
	m.tiles = nil
	m.navMesh = nil
}

func (m *NavigationMesh) initNavMesh(orig common.Vec3, tileCount int) error {
	tileBits := min(int(common.Ilog2(common.NextPow2(uint32(tileCount)))), maxTileBits)
	polyBits := refIndexBits - tileBits
	navMesh, err := detour.NewDtNavMesh(&detour.NavMeshParams{
		Orig:       orig,
		TileWidth:  m.tileSize(),
		TileHeight: m.tileSize(),
		MaxTiles:   1 << tileBits,
		MaxPolys:   1 << polyBits,
	})
	if err != nil {
		m.log.Error("unable to initialize navigation mesh", zap.Error(err))
		return fmt.Errorf("navigation: init mesh %d: %w", m.id, err)
	}
	m.navMesh = navMesh
	return nil
}

// Build discards any previous tiles, covers the merged geometry with a grid of
// TileCells sized tiles and builds them, at most WithWorkers at a time. Tiles
// that fail or have no walkable area are skipped with a warning. The
// remaining tiles are registered in grid order once every build finished, so
// tile refs do not depend on scheduling.
func (m *NavigationMesh) Build(ctx context.Context, meshes []MeshSource, terrain []TerrainBlock) error {
	if err := m.params.Validate(); err != nil {
		return err
	}
	log := m.log.With(zap.String("build", uuid.NewString()))
	m.Close()

	geom := MergeGeometry(meshes, terrain)
	m.bounds = geom.Bounds()
	log.Info("building navigation mesh",
		zap.Int("meshes", len(meshes)),
		zap.Int("terrainBlocks", len(terrain)),
		zap.Int("tris", geom.TriCount()))

	gw, gh := recast.RcCalcGridSize(m.bounds.Min[:], m.bounds.Max[:], m.params.CellSize)
	tilesX := (gw + m.params.TileCells - 1) / m.params.TileCells
	tilesZ := (gh + m.params.TileCells - 1) / m.params.TileCells
	if err := m.initNavMesh(m.bounds.Min, tilesX*tilesZ); err != nil {
		return err
	}

	tileSize := m.tileSize()
	inflate := float32(math.Ceil(float64(m.params.AgentRadius/m.params.CellSize))+3) * m.params.CellSize
	chunky := newChunkyTriMesh(geom.Verts, geom.Tris, geom.TriCount(), trisPerChunk)

	built := make([]*Tile, tilesX*tilesZ)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for z := 0; z < tilesZ; z++ {
		for x := 0; x < tilesX; x++ {
			if gctx.Err() != nil {
				break
			}
			var tb Bounds
			tb.Min = common.Vec3{m.bounds.Min[0] + float32(x)*tileSize, m.bounds.Min[1], m.bounds.Min[2] + float32(z)*tileSize}
			tb.Max = common.Vec3{m.bounds.Min[0] + float32(x+1)*tileSize, m.bounds.Max[1], m.bounds.Min[2] + float32(z+1)*tileSize}

			tris := chunky.trianglesInRect(
				[2]float32{tb.Min[0] - inflate, tb.Min[2] - inflate},
				[2]float32{tb.Max[0] + inflate, tb.Max[2] + inflate})
			if len(tris) == 0 {
				continue
			}

			x, z := x, z
			slot := z*tilesX + x
			tile := NewTile(m, int32(x), 0, int32(z))
			g.Go(func() error {
				if err := tile.build(gctx, m.params, tb, geom.Verts, tris); err != nil {
					if gctx.Err() != nil {
						return err
					}
					log.Warn("skipping navigation tile", zap.Int("x", x), zap.Int("z", z), zap.Error(err))
					return nil
				}
				built[slot] = tile
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		m.Close()
		return err
	}
	if err := ctx.Err(); err != nil {
		m.Close()
		return err
	}

	for _, tile := range built {
		if tile == nil {
			continue
		}
		if len(tile.navData) == 0 {
			continue
		}
		if err := m.register(tile); err != nil {
			log.Warn("failed to add navigation tile to the mesh",
				zap.Int32("x", tile.tileX), zap.Int32("y", tile.tileY), zap.Int32("z", tile.tileZ), zap.Error(err))
			continue
		}
		m.tiles = append(m.tiles, tile)
	}
	log.Info("navigation mesh built",
		zap.Int("tilesX", tilesX), zap.Int("tilesZ", tilesZ), zap.Int("tiles", len(m.tiles)))
	return nil
}

// register replaces whatever occupies the tile's grid slot with the tile's
// navigation data and stores the assigned ref in the tile.
func (m *NavigationMesh) register(tile *Tile) error {
	data, err := detour.FromBin(tile.navData)
	if err != nil {
		return err
	}
	x, y, layer := int(data.Header.X), int(data.Header.Y), int(data.Header.Layer)
	if old := m.navMesh.GetTileRefAt(x, y, layer); old != 0 {
		if _, err := m.navMesh.RemoveTile(old); err != nil {
			return err
		}
	}
	ref, err := m.navMesh.AddTile(data, 0, 0)
	if err != nil {
		return err
	}
	tile.setTileRef(ref)
	return nil
}

// Serialize inserts every tile not yet stored. A failing tile does not stop
// the remaining ones; all failures are returned together.
func (m *NavigationMesh) Serialize(ctx context.Context, store TileStore) error {
	if store == nil {
		return ErrNoStore
	}
	if m.navMesh == nil {
		return ErrNotBuilt
	}
	var errs []error
	for _, t := range m.tiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Serialize(ctx, store, m.id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadTiles replaces the mesh's tiles with the ones stored for its id and
// registers them with a new runtime mesh. Records that fail to decode are
// skipped with a warning. Cloned tiles are inserted as new records by the
// next Serialize.
func (m *NavigationMesh) LoadTiles(ctx context.Context, store TileStore, cloning bool) error {
	if store == nil {
		return ErrNoStore
	}
	recs, err := store.LoadMeshTiles(ctx, m.id)
	if err != nil {
		m.log.Error("failed to load navigation tiles", zap.Error(err))
		return fmt.Errorf("navigation: load tiles of mesh %d: %w", m.id, err)
	}
	m.Close()

	tiles := make([]*Tile, 0, len(recs))
	var orig common.Vec3
	haveOrig := false
	for _, rec := range recs {
		tile := NewTile(m, rec.TileX, rec.TileY, rec.TileZ)
		if err := tile.restore(rec, cloning); err != nil {
			m.log.Warn("skipping stored navigation tile", zap.Uint32("id", rec.ID), zap.Error(err))
			continue
		}
		if len(tile.navData) == 0 {
			m.log.Debug("stored tile has no navigation data", zap.Uint32("id", rec.ID))
			continue
		}
		if !haveOrig {
			data, err := detour.FromBin(tile.navData)
			if err != nil {
				m.log.Warn("skipping stored navigation tile", zap.Uint32("id", rec.ID), zap.Error(err))
				continue
			}
			h := data.Header
			orig = common.Vec3{
				h.Bmin[0] - float32(h.X)*m.tileSize(),
				h.Bmin[1],
				h.Bmin[2] - float32(h.Y)*m.tileSize(),
			}
			haveOrig = true
		}
		tiles = append(tiles, tile)
	}
	if err := m.initNavMesh(orig, len(tiles)); err != nil {
		return err
	}
	for _, tile := range tiles {
		if err := m.register(tile); err != nil {
			m.log.Warn("failed to add navigation tile to the mesh",
				zap.Int32("x", tile.tileX), zap.Int32("y", tile.tileY), zap.Int32("z", tile.tileZ), zap.Error(err))
			continue
		}
		m.tiles = append(m.tiles, tile)
	}
	m.log.Info("navigation tiles loaded", zap.Int("tiles", len(m.tiles)), zap.Bool("cloning", cloning))
	return nil
}

// DebugDraw draws every tile.
func (m *NavigationMesh) DebugDraw(driver RenderDriver, rm *ResourceManager) {
	for _, t := range m.tiles {
		t.DebugDraw(driver, rm)
	}
}
