package navigation

import (
	"context"
	"fmt"
	"time"

	"github.com/gorustyt/gonavtile/detour"
	"github.com/gorustyt/gonavtile/recast"
	"go.uber.org/zap"
)

// BuildTile voxelizes the given meshes and terrain inside bounds and builds
// the tile's polygon mesh, detail mesh and packed runtime data. Any data from
// a previous build is discarded first. A tile without walkable area is not an
// error: it ends with no polygon mesh and empty navigation data.
//
// ctx is checked between pipeline stages only.
func (t *Tile) BuildTile(ctx context.Context, params BuildParams, bounds Bounds, meshes []MeshSource, terrain []TerrainBlock) error {
	geom := MergeGeometry(meshes, terrain)
	return t.build(ctx, params, bounds, geom.Verts, geom.Tris)
}

func (t *Tile) build(ctx context.Context, params BuildParams, bounds Bounds, verts []float32, tris []int) (err error) {
	t.reset()
	if err := params.Validate(); err != nil {
		return err
	}

	start := time.Now()
	npolys := 0
	defer func() {
		t.metrics().observeBuild(time.Since(start), npolys, err)
	}()

	rc := recast.NewRcContext(t.log, true)
	rc.StartTimer(recast.RC_TIMER_TOTAL)

	cfg := DeriveConfig(params, bounds)
	ntris := len(tris) / 3
	if ntris == 0 {
		t.log.Debug("no input triangles for tile")
		return nil
	}

	fail := func(stage string, cause error) error {
		t.log.Error("tile build failed", zap.String("stage", stage), zap.Error(cause))
		return fmt.Errorf("navigation: %s tile (%d,%d,%d): %w", stage, t.tileX, t.tileY, t.tileZ, cause)
	}

	// Step 1. Rasterize input polygon soup.
	hf, err := recast.RcCreateHeightfield(rc, cfg.Width, cfg.Height, cfg.Bmin[:], cfg.Bmax[:], cfg.Cs, cfg.Ch)
	if err != nil {
		return fail("create heightfield", err)
	}
	triAreas := make([]uint8, ntris)
	recast.RcMarkWalkableTriangles(rc, cfg.WalkableSlopeAngle, verts, tris, ntris, triAreas)
	recast.RcRasterizeTriangles(rc, verts, tris, triAreas, ntris, hf, cfg.WalkableClimb)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 2. Filter walkable surfaces.
	recast.RcFilterLowHangingWalkableObstacles(rc, cfg.WalkableClimb, hf)
	recast.RcFilterLedgeSpans(rc, cfg.WalkableHeight, cfg.WalkableClimb, hf)
	recast.RcFilterWalkableLowHeightSpans(rc, cfg.WalkableHeight, hf)

	// Step 3. Partition walkable surface to simple regions.
	chf := recast.RcBuildCompactHeightfield(rc, cfg.WalkableHeight, cfg.WalkableClimb, hf)
	hf = nil
	if chf.SpanCount == 0 {
		t.log.Debug("tile has no walkable spans")
		return nil
	}
	recast.RcErodeWalkableArea(rc, cfg.WalkableRadius, chf)
	markAreaVolumes(rc, params.AreaVolumes, chf)
	if err := ctx.Err(); err != nil {
		return err
	}
	recast.RcBuildDistanceField(rc, chf)
	if err := recast.RcBuildRegions(rc, chf, cfg.BorderSize, cfg.MinRegionArea, cfg.MergeRegionArea); err != nil {
		return fail("build regions", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 4. Trace and simplify region contours.
	cset, err := recast.RcBuildContours(rc, chf, cfg.MaxSimplificationError, cfg.MaxEdgeLen, recast.RC_CONTOUR_TESS_WALL_EDGES)
	if err != nil {
		return fail("build contours", err)
	}
	if cset.NConts == 0 {
		t.log.Debug("tile has no walkable area")
		return nil
	}

	// Step 5. Build polygons mesh from contours.
	pmesh, err := recast.RcBuildPolyMesh(rc, cset, cfg.MaxVertsPerPoly)
	if err != nil {
		return fail("build polygon mesh", err)
	}
	if err := checkVertexCount(pmesh); err != nil {
		t.log.Error("too many vertices per tile", zap.Int("verts", pmesh.NVerts), zap.Int("max", 0xffff))
		return fmt.Errorf("navigation: tile (%d,%d,%d): %w", t.tileX, t.tileY, t.tileZ, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 6. Create detail mesh which allows to access approximate height on each polygon.
	dmesh, err := recast.RcBuildPolyMeshDetail(rc, pmesh, chf, cfg.DetailSampleDist, cfg.DetailSampleMaxError)
	if err != nil {
		return fail("build detail mesh", err)
	}

	// Step 7. Create Detour data from Recast poly mesh.
	tagPolys(pmesh)
	navData, err := t.pack(params, pmesh, dmesh)
	if err != nil {
		return fail("pack", err)
	}

	t.polyMesh = pmesh
	t.detailMesh = dmesh
	t.navData = navData
	npolys = pmesh.NPolys

	rc.StopTimer(recast.RC_TIMER_TOTAL)
	t.log.Debug("tile built", append([]zap.Field{
		zap.Int("verts", pmesh.NVerts),
		zap.Int("polys", pmesh.NPolys),
		zap.Int("navDataBytes", len(navData)),
	}, rc.TimerFields()...)...)
	return nil
}

// checkVertexCount fails when polygon vertices can not be addressed by the
// 16 bit indices of the runtime format.
func checkVertexCount(pmesh *recast.RcPolyMesh) error {
	if pmesh.NVerts >= 0xffff {
		return fmt.Errorf("%w: %d vertices (max: %d)", ErrTooManyVertices, pmesh.NVerts, 0xffff)
	}
	return nil
}

func (t *Tile) pack(params BuildParams, pmesh *recast.RcPolyMesh, dmesh *recast.RcPolyMeshDetail) ([]byte, error) {
	create := &detour.DtNavMeshCreateParams{
		Verts:            pmesh.Verts,
		VertCount:        pmesh.NVerts,
		Polys:            pmesh.Polys,
		PolyAreas:        pmesh.Areas,
		PolyFlags:        pmesh.Flags,
		PolyCount:        pmesh.NPolys,
		Nvp:              pmesh.Nvp,
		DetailMeshes:     dmesh.Meshes,
		DetailVerts:      dmesh.Verts,
		DetailVertsCount: dmesh.NVerts,
		DetailTris:       dmesh.Tris,
		DetailTriCount:   dmesh.NTris,
		WalkableHeight:   params.AgentHeight,
		WalkableRadius:   params.AgentRadius,
		WalkableClimb:    params.AgentMaxStepHeight,
		TileX:            int(t.tileX),
		TileY:            int(t.tileZ),
		TileLayer:        int(t.tileY),
		Bmin:             pmesh.Bmin,
		Bmax:             pmesh.Bmax,
		Cs:               pmesh.Cs,
		Ch:               pmesh.Ch,
		BuildBvTree:      true,
	}
	data, err := detour.DtCreateNavMeshData(create)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackFailed, err)
	}
	return data.ToBin(), nil
}
