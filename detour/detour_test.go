package detour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nullIdx = MESH_NULL_IDX

// quadParams is a single 10x10 quad tile with unit cells. neis holds the
// recast neighbour value of each of the four edges.
func quadParams(tileX int, originX float32, neis [4]int) *DtNavMeshCreateParams {
	polys := []int{0, 1, 2, 3, nullIdx, nullIdx, neis[0], neis[1], neis[2], neis[3], nullIdx, nullIdx}
	return &DtNavMeshCreateParams{
		Verts:          []int{0, 0, 0, 0, 0, 10, 10, 0, 10, 10, 0, 0},
		VertCount:      4,
		Polys:          polys,
		PolyFlags:      []uint16{1},
		PolyAreas:      []uint8{0},
		PolyCount:      1,
		Nvp:            6,
		TileX:          tileX,
		Bmin:           [3]float32{originX, 0, 0},
		Bmax:           [3]float32{originX + 10, 2, 10},
		WalkableHeight: 2,
		WalkableRadius: 0.5,
		WalkableClimb:  0.5,
		Cs:             1,
		Ch:             1,
		BuildBvTree:    true,
	}
}

func borderQuad() *DtNavMeshCreateParams {
	return quadParams(0, 0, [4]int{nullIdx, nullIdx, nullIdx, nullIdx})
}

func countLinks(tile *DtMeshTile, poly int) []DtLink {
	var links []DtLink
	for i := tile.Polys[poly].FirstLink; i != DT_NULL_LINK; i = tile.Links[i].Next {
		links = append(links, tile.Links[i])
	}
	return links
}

func TestCreateNavMeshData(t *testing.T) {
	data, err := DtCreateNavMeshData(borderQuad())
	require.NoError(t, err)

	h := data.Header
	assert.Equal(t, int32(DT_NAVMESH_MAGIC), h.Magic)
	assert.Equal(t, int32(DT_NAVMESH_VERSION), h.Version)
	assert.Equal(t, int32(1), h.PolyCount)
	assert.Equal(t, int32(4), h.VertCount)
	assert.Equal(t, int32(4), h.MaxLinkCount)
	assert.Equal(t, int32(2), h.DetailTriCount)
	assert.Equal(t, int32(0), h.DetailVertCount)
	assert.Equal(t, int32(1), h.BvNodeCount)
	assert.Equal(t, float32(1), h.BvQuantFactor)

	assert.Equal(t, []float32{0, 0, 0, 0, 0, 10, 10, 0, 10, 10, 0, 0}, data.NavVerts)
	poly := data.NavPolys[0]
	assert.Equal(t, uint8(4), poly.VertCount)
	assert.Equal(t, [DT_VERTS_PER_POLYGON]uint16{}, poly.Neis)
	assert.Equal(t, uint16(1), poly.Flags)
	assert.Equal(t, uint8(DT_POLYTYPE_GROUND), poly.GetType())

	// Fan triangulation with boundary flags.
	assert.Equal(t, []uint8{0, 1, 2, 1<<0 | 1<<2, 0, 2, 3, 1<<2 | 1<<4}, data.NavDTris)
	assert.Equal(t, DtBVNode{Bmin: [3]uint16{0, 0, 0}, Bmax: [3]uint16{10, 0, 10}, I: 0}, data.NavBvtree[0])
}

func TestCreateNavMeshDataNeighbours(t *testing.T) {
	data, err := DtCreateNavMeshData(quadParams(0, 0, [4]int{0x8000 | 0, 0x8000 | 1, 0x8000 | 2, 0x8000 | 3}))
	require.NoError(t, err)
	assert.Equal(t, [DT_VERTS_PER_POLYGON]uint16{DT_EXT_LINK | 4, DT_EXT_LINK | 2, DT_EXT_LINK | 0, DT_EXT_LINK | 6, 0, 0},
		data.NavPolys[0].Neis)
	// Four edges plus two links per portal.
	assert.Equal(t, int32(12), data.Header.MaxLinkCount)

	params := borderQuad()
	params.PolyCount = 2
	params.Polys = []int{
		0, 1, 2, nullIdx, nullIdx, nullIdx, nullIdx, nullIdx, 1, nullIdx, nullIdx, nullIdx,
		0, 2, 3, nullIdx, nullIdx, nullIdx, 0, nullIdx, nullIdx, nullIdx, nullIdx, nullIdx,
	}
	params.PolyFlags = []uint16{1, 1}
	params.PolyAreas = []uint8{0, 0}
	data, err = DtCreateNavMeshData(params)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), data.NavPolys[0].Neis[2])
	assert.Equal(t, uint16(1), data.NavPolys[1].Neis[0])
	assert.Equal(t, int32(3), data.Header.BvNodeCount)
	assert.Equal(t, int32(-3), data.NavBvtree[0].I)
}

func TestCreateNavMeshDataDetail(t *testing.T) {
	params := borderQuad()
	params.DetailMeshes = []int{0, 5, 0, 4}
	params.DetailVerts = []float32{0, 0, 0, 0, 0, 10, 10, 0, 10, 10, 0, 0, 5, 1, 5}
	params.DetailVertsCount = 5
	params.DetailTris = []uint8{0, 1, 4, 1, 1, 2, 4, 1, 2, 3, 4, 1, 3, 0, 4, 1}
	params.DetailTriCount = 4

	data, err := DtCreateNavMeshData(params)
	require.NoError(t, err)
	assert.Equal(t, int32(1), data.Header.DetailVertCount)
	assert.Equal(t, []float32{5, 1, 5}, data.NavDVerts)
	assert.Equal(t, DtPolyDetail{VertBase: 0, TriBase: 0, VertCount: 1, TriCount: 4}, data.NavDMeshes[0])
	assert.Equal(t, params.DetailTris, data.NavDTris)
	// Detail bounds include the raised centre.
	assert.Equal(t, [3]uint16{10, 1, 10}, data.NavBvtree[0].Bmax)
}

func TestCreateNavMeshDataRejects(t *testing.T) {
	params := borderQuad()
	params.Nvp = 7
	_, err := DtCreateNavMeshData(params)
	assert.ErrorIs(t, err, ErrVertsPerPolygon)

	params = borderQuad()
	params.PolyCount = 0
	_, err = DtCreateNavMeshData(params)
	assert.ErrorIs(t, err, ErrEmptyPolygonMesh)

	params = borderQuad()
	params.VertCount = 0xffff
	_, err = DtCreateNavMeshData(params)
	assert.ErrorIs(t, err, ErrTooManyVertices)
}

func TestNavMeshDataBinary(t *testing.T) {
	data, err := DtCreateNavMeshData(borderQuad())
	require.NoError(t, err)

	bin := data.ToBin()
	// header + verts + poly + links + detail mesh + tris + bv node
	assert.Equal(t, 100+48+32+48+12+8+16, len(bin))
	assert.Equal(t, data.Size(), len(bin))

	decoded, err := FromBin(bin)
	require.NoError(t, err)
	assert.Equal(t, *data.Header, *decoded.Header)
	assert.Equal(t, data.NavVerts, decoded.NavVerts)
	assert.Equal(t, data.NavPolys, decoded.NavPolys)
	assert.Equal(t, data.NavDTris, decoded.NavDTris)
	assert.Equal(t, data.NavBvtree, decoded.NavBvtree)
	assert.Equal(t, bin, decoded.ToBin())
}

func TestNavMeshDataBinaryErrors(t *testing.T) {
	data, err := DtCreateNavMeshData(borderQuad())
	require.NoError(t, err)
	bin := data.ToBin()

	_, err = FromBin(bin[:50])
	assert.Error(t, err)

	_, err = FromBin(bin[:150])
	assert.ErrorIs(t, err, ErrTruncated)

	bad := append([]byte(nil), bin...)
	bad[0] ^= 0xff
	_, err = FromBin(bad)
	assert.ErrorIs(t, err, ErrWrongMagic)

	bad = append([]byte(nil), bin...)
	bad[4] = 6
	_, err = FromBin(bad)
	assert.ErrorIs(t, err, ErrWrongVersion)
}

func newTestNavMesh(t *testing.T) *DtNavMesh {
	t.Helper()
	mesh, err := NewDtNavMesh(&NavMeshParams{TileWidth: 10, TileHeight: 10, MaxTiles: 4, MaxPolys: 16})
	require.NoError(t, err)
	return mesh
}

func TestNavMeshInit(t *testing.T) {
	_, err := NewDtNavMesh(&NavMeshParams{MaxTiles: 1 << 12, MaxPolys: 1 << 12})
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = NewDtNavMesh(&NavMeshParams{MaxTiles: 0, MaxPolys: 1})
	assert.ErrorIs(t, err, ErrInvalidParam)

	mesh := newTestNavMesh(t)
	assert.Equal(t, uint32(2), mesh.tileBits)
	assert.Equal(t, uint32(4), mesh.polyBits)
	assert.Equal(t, uint32(26), mesh.saltBits)

	ref := mesh.EncodePolyId(5, 3, 9)
	salt, it, ip := mesh.DecodePolyId(ref)
	assert.Equal(t, []uint32{5, 3, 9}, []uint32{salt, it, ip})
	assert.Equal(t, uint32(5), mesh.DecodePolyIdSalt(ref))
	assert.Equal(t, uint32(3), mesh.DecodePolyIdTile(ref))
	assert.Equal(t, uint32(9), mesh.DecodePolyIdPoly(ref))

	tx, ty := mesh.CalcTileLoc([]float32{15, 0, -1})
	assert.Equal(t, 1, tx)
	assert.Equal(t, -1, ty)
}

func TestAddRemoveTile(t *testing.T) {
	mesh := newTestNavMesh(t)
	data, err := DtCreateNavMeshData(borderQuad())
	require.NoError(t, err)

	ref, err := mesh.AddTile(data, 0, 0)
	require.NoError(t, err)
	assert.NotZero(t, ref)
	assert.Equal(t, 1, mesh.TileCount())

	tile := mesh.GetTileAt(0, 0, 0)
	require.NotNil(t, tile)
	assert.Same(t, tile, mesh.GetTileByRef(ref))
	assert.Equal(t, ref, mesh.GetTileRefAt(0, 0, 0))
	assert.Nil(t, mesh.GetTileAt(1, 0, 0))
	assert.True(t, mesh.IsValidPolyRef(mesh.GetPolyRefBase(tile)))
	assert.False(t, mesh.IsValidPolyRef(mesh.GetPolyRefBase(tile)|1))

	_, err = mesh.AddTile(data, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyOccupied)

	base := mesh.GetPolyRefBase(tile)
	require.NoError(t, mesh.SetPolyFlags(base, 0x10))
	flags, err := mesh.GetPolyFlags(base)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x10), flags)
	require.NoError(t, mesh.SetPolyArea(base, 3))
	area, err := mesh.GetPolyArea(base)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), area)

	removed, err := mesh.RemoveTile(ref)
	require.NoError(t, err)
	assert.Same(t, data, removed)
	assert.Nil(t, mesh.GetTileByRef(ref))
	assert.Nil(t, mesh.GetTileAt(0, 0, 0))
	assert.Equal(t, 0, mesh.TileCount())

	_, err = mesh.RemoveTile(ref)
	assert.ErrorIs(t, err, ErrInvalidParam)

	// Restoring with the previous ref keeps polygon refs stable.
	restored, err := mesh.AddTile(removed, 0, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, restored)
}

func TestAddTileRejects(t *testing.T) {
	mesh := newTestNavMesh(t)
	data, err := DtCreateNavMeshData(borderQuad())
	require.NoError(t, err)

	data.Header.Magic = 0
	_, err = mesh.AddTile(data, 0, 0)
	assert.ErrorIs(t, err, ErrWrongMagic)

	data.Header.Magic = DT_NAVMESH_MAGIC
	data.Header.Version = 1
	_, err = mesh.AddTile(data, 0, 0)
	assert.ErrorIs(t, err, ErrWrongVersion)

	data.Header.Version = DT_NAVMESH_VERSION
	data.Header.PolyCount = 64
	_, err = mesh.AddTile(data, 0, 0)
	assert.ErrorIs(t, err, ErrTooManyPolygons)
}

func TestAddTileOutOfSlots(t *testing.T) {
	mesh, err := NewDtNavMesh(&NavMeshParams{TileWidth: 10, TileHeight: 10, MaxTiles: 1, MaxPolys: 4})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		data, err := DtCreateNavMeshData(quadParams(i, float32(i*10), [4]int{nullIdx, nullIdx, nullIdx, nullIdx}))
		require.NoError(t, err)
		_, err = mesh.AddTile(data, 0, 0)
		if i == 0 {
			require.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrOutOfMemory)
		}
	}
}

func TestInternalLinks(t *testing.T) {
	params := borderQuad()
	params.PolyCount = 2
	params.Polys = []int{
		0, 1, 2, nullIdx, nullIdx, nullIdx, nullIdx, nullIdx, 1, nullIdx, nullIdx, nullIdx,
		0, 2, 3, nullIdx, nullIdx, nullIdx, 0, nullIdx, nullIdx, nullIdx, nullIdx, nullIdx,
	}
	params.PolyFlags = []uint16{1, 1}
	params.PolyAreas = []uint8{0, 0}
	data, err := DtCreateNavMeshData(params)
	require.NoError(t, err)

	mesh := newTestNavMesh(t)
	_, err = mesh.AddTile(data, 0, 0)
	require.NoError(t, err)
	tile := mesh.GetTileAt(0, 0, 0)
	base := mesh.GetPolyRefBase(tile)

	links := countLinks(tile, 0)
	require.Len(t, links, 1)
	assert.Equal(t, base|1, links[0].Ref)
	assert.Equal(t, uint8(2), links[0].Edge)
	assert.Equal(t, uint8(0xff), links[0].Side)

	links = countLinks(tile, 1)
	require.Len(t, links, 1)
	assert.Equal(t, base, links[0].Ref)
	assert.Equal(t, uint8(0), links[0].Edge)
}

func TestExternalLinks(t *testing.T) {
	mesh := newTestNavMesh(t)
	// Tile A has a portal on its x+ edge, tile B on its x- edge.
	a, err := DtCreateNavMeshData(quadParams(0, 0, [4]int{nullIdx, nullIdx, 0x8000 | 2, nullIdx}))
	require.NoError(t, err)
	b, err := DtCreateNavMeshData(quadParams(1, 10, [4]int{0x8000 | 0, nullIdx, nullIdx, nullIdx}))
	require.NoError(t, err)

	_, err = mesh.AddTile(a, 0, 0)
	require.NoError(t, err)
	refB, err := mesh.AddTile(b, 0, 0)
	require.NoError(t, err)

	tileA := mesh.GetTileAt(0, 0, 0)
	tileB := mesh.GetTileAt(1, 0, 0)

	links := countLinks(tileA, 0)
	require.Len(t, links, 1)
	assert.Equal(t, mesh.GetPolyRefBase(tileB), links[0].Ref)
	assert.Equal(t, uint8(0), links[0].Side)
	assert.Equal(t, uint8(2), links[0].Edge)
	assert.Equal(t, uint8(0), links[0].Bmin)
	assert.Equal(t, uint8(255), links[0].Bmax)

	links = countLinks(tileB, 0)
	require.Len(t, links, 1)
	assert.Equal(t, mesh.GetPolyRefBase(tileA), links[0].Ref)
	assert.Equal(t, uint8(4), links[0].Side)

	_, err = mesh.RemoveTile(refB)
	require.NoError(t, err)
	assert.Empty(t, countLinks(tileA, 0))
}

func TestQueryPolygonsInTile(t *testing.T) {
	mesh := newTestNavMesh(t)
	data, err := DtCreateNavMeshData(borderQuad())
	require.NoError(t, err)
	_, err = mesh.AddTile(data, 0, 0)
	require.NoError(t, err)
	tile := mesh.GetTileAt(0, 0, 0)
	base := mesh.GetPolyRefBase(tile)

	polys := mesh.QueryPolygonsInTile(tile, []float32{2, -0.5, 2}, []float32{4, 0.5, 4}, 8)
	assert.Equal(t, []DtPolyRef{base}, polys)

	ref, pt := mesh.findNearestPolyInTile(tile, []float32{3, 0.5, 6}, []float32{1, 1, 1})
	assert.Equal(t, base, ref)
	assert.InDelta(t, 3, pt[0], 1e-5)
	assert.InDelta(t, 0, pt[1], 1e-5)
	assert.InDelta(t, 6, pt[2], 1e-5)
}

func TestOffMeshConnections(t *testing.T) {
	params := borderQuad()
	params.OffMeshConVerts = []float32{2, 0, 3, 8, 0, 7}
	params.OffMeshConRad = []float32{1}
	params.OffMeshConFlags = []uint16{1}
	params.OffMeshConAreas = []uint8{5}
	params.OffMeshConDir = []uint8{DT_OFFMESH_CON_BIDIR}
	params.OffMeshConUserID = []uint32{42}
	params.OffMeshConCount = 1

	data, err := DtCreateNavMeshData(params)
	require.NoError(t, err)
	require.Equal(t, int32(1), data.Header.OffMeshConCount)
	assert.Equal(t, int32(2), data.Header.PolyCount)
	assert.Equal(t, int32(6), data.Header.VertCount)
	assert.Equal(t, int32(8), data.Header.MaxLinkCount)
	con := data.OffMeshCons[0]
	assert.Equal(t, uint16(1), con.Poly)
	assert.Equal(t, uint8(0xff), con.Side)
	assert.Equal(t, uint32(42), con.UserId)
	assert.Equal(t, uint8(DT_POLYTYPE_OFFMESH_CONNECTION), data.NavPolys[1].GetType())

	mesh := newTestNavMesh(t)
	_, err = mesh.AddTile(data, 0, 0)
	require.NoError(t, err)
	tile := mesh.GetTileAt(0, 0, 0)
	base := mesh.GetPolyRefBase(tile)

	// Both end points land on the ground polygon.
	offLinks := countLinks(tile, 1)
	require.Len(t, offLinks, 2)
	for _, l := range offLinks {
		assert.Equal(t, base, l.Ref)
	}
	groundLinks := countLinks(tile, 0)
	require.Len(t, groundLinks, 2)
	for _, l := range groundLinks {
		assert.Equal(t, base|1, l.Ref)
	}
}

func TestOffMeshConnectionOutsideTile(t *testing.T) {
	params := borderQuad()
	// Starts beyond the x+ side, so it is not stored in this tile.
	params.OffMeshConVerts = []float32{12, 0, 3, 8, 0, 7}
	params.OffMeshConRad = []float32{1}
	params.OffMeshConFlags = []uint16{1}
	params.OffMeshConAreas = []uint8{5}
	params.OffMeshConDir = []uint8{0}
	params.OffMeshConCount = 1

	data, err := DtCreateNavMeshData(params)
	require.NoError(t, err)
	assert.Equal(t, int32(0), data.Header.OffMeshConCount)
	assert.Equal(t, int32(1), data.Header.PolyCount)
	// The landing end inside the tile still reserves links.
	assert.Equal(t, int32(4+2), data.Header.MaxLinkCount)
}

func TestClassifyOffMeshPoint(t *testing.T) {
	bmin := [3]float32{0, 0, 0}
	bmax := [3]float32{10, 1, 10}
	assert.Equal(t, uint8(0xff), classifyOffMeshPoint([]float32{5, 0, 5}, bmin, bmax))
	assert.Equal(t, uint8(0), classifyOffMeshPoint([]float32{11, 0, 5}, bmin, bmax))
	assert.Equal(t, uint8(1), classifyOffMeshPoint([]float32{11, 0, 11}, bmin, bmax))
	assert.Equal(t, uint8(2), classifyOffMeshPoint([]float32{5, 0, 11}, bmin, bmax))
	assert.Equal(t, uint8(4), classifyOffMeshPoint([]float32{-1, 0, 5}, bmin, bmax))
	assert.Equal(t, uint8(6), classifyOffMeshPoint([]float32{5, 0, -1}, bmin, bmax))
}
