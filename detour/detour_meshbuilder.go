package detour

import (
	"cmp"
	"math"
	"slices"

	"github.com/gorustyt/gonavtile/common"
)

// / Represents the source data used to build an navigation mesh tile.
// / @ingroup detour
type DtNavMeshCreateParams struct {

	/// @name Polygon Mesh Attributes
	/// Used to create the base navigation graph.
	/// See #RcPolyMesh for details related to these attributes.
	/// @{

	Verts     []int    ///< The polygon mesh vertices. [(x, y, z) * #vertCount] [Unit: vx]
	VertCount int      ///< The number vertices in the polygon mesh. [Limit: >= 3]
	Polys     []int    ///< The polygon data. [Size: #polyCount * 2 * #nvp]
	PolyFlags []uint16 ///< The user defined flags assigned to each polygon. [Size: #polyCount]
	PolyAreas []uint8  ///< The user defined area ids assigned to each polygon. [Size: #polyCount]
	PolyCount int      ///< Number of polygons in the mesh. [Limit: >= 1]
	Nvp       int      ///< Number maximum number of vertices per polygon. [Limit: >= 3]

	/// @}
	/// @name Height Detail Attributes (Optional)
	/// See #RcPolyMeshDetail for details related to these attributes.
	/// @{

	DetailMeshes     []int     ///< The height detail sub-mesh data. [Size: 4 * #polyCount]
	DetailVerts      []float32 ///< The detail mesh vertices. [Size: 3 * #detailVertsCount] [Unit: wu]
	DetailVertsCount int       ///< The number of vertices in the detail mesh.
	DetailTris       []uint8   ///< The detail mesh triangles. [Size: 4 * #detailTriCount]
	DetailTriCount   int       ///< The number of triangles in the detail mesh.

	/// @}
	/// @name Off-Mesh Connections Attributes (Optional)
	/// Used to define a custom point-to-point edge within the navigation graph, an
	/// off-mesh connection is a user defined traversable connection made up to two vertices,
	/// at least one of which resides within a navigation mesh polygon.
	/// @{

	/// Off-mesh connection vertices. [(ax, ay, az, bx, by, bz) * #offMeshConCount] [Unit: wu]
	OffMeshConVerts []float32
	/// Off-mesh connection radii. [Size: #offMeshConCount] [Unit: wu]
	OffMeshConRad []float32
	/// User defined flags assigned to the off-mesh connections. [Size: #offMeshConCount]
	OffMeshConFlags []uint16
	/// User defined area ids assigned to the off-mesh connections. [Size: #offMeshConCount]
	OffMeshConAreas []uint8
	/// The permitted travel direction of the off-mesh connections. [Size: #offMeshConCount]
	///
	/// 0 = Travel only from endpoint A to endpoint B.<br/>
	/// #DT_OFFMESH_CON_BIDIR = Bidirectional travel.
	OffMeshConDir []uint8
	/// The user defined ids of the off-mesh connection. [Size: #offMeshConCount]
	OffMeshConUserID []uint32
	/// The number of off-mesh connections. [Limit: >= 0]
	OffMeshConCount int

	/// @}
	/// @name Tile Attributes
	/// @note The tile grid/layer data can be left at zero if the destination is a single tile mesh.
	/// @{

	UserId    uint32     ///< The user defined id of the tile.
	TileX     int        ///< The tile's x-grid location within the multi-tile destination mesh. (Along the x-axis.)
	TileY     int        ///< The tile's y-grid location within the multi-tile destination mesh. (Along the z-axis.)
	TileLayer int        ///< The tile's layer within the layered destination mesh. [Limit: >= 0] (Along the y-axis.)
	Bmin      [3]float32 ///< The minimum bounds of the tile. [(x, y, z)] [Unit: wu]
	Bmax      [3]float32 ///< The maximum bounds of the tile. [(x, y, z)] [Unit: wu]

	/// @}
	/// @name General Configuration Attributes
	/// @{

	WalkableHeight float32 ///< The agent height. [Unit: wu]
	WalkableRadius float32 ///< The agent radius. [Unit: wu]
	WalkableClimb  float32 ///< The agent maximum traversable ledge. (Up/Down) [Unit: wu]
	Cs             float32 ///< The xz-plane cell size of the polygon mesh. [Limit: > 0] [Unit: wu]
	Ch             float32 ///< The y-axis cell height of the polygon mesh. [Limit: > 0] [Unit: wu]

	/// True if a bounding volume tree should be built for the tile.
	/// @note The BVTree is not normally needed for layered navigation meshes.
	BuildBvTree bool

	/// @}
}

type bvItem struct {
	bmin [3]int
	bmax [3]int
	i    int
}

func calcExtends(items []bvItem) (bmin, bmax [3]int) {
	bmin = items[0].bmin
	bmax = items[0].bmax
	for _, it := range items[1:] {
		for k := 0; k < 3; k++ {
			bmin[k] = min(bmin[k], it.bmin[k])
			bmax[k] = max(bmax[k], it.bmax[k])
		}
	}
	return
}

func longestAxis(x, y, z int) int {
	axis := 0
	maxVal := x
	if y > maxVal {
		axis = 1
		maxVal = y
	}
	if z > maxVal {
		axis = 2
	}
	return axis
}

func subdivide(items []bvItem, imin, imax int, curNode *int, nodes []DtBVNode) {
	inum := imax - imin
	icur := *curNode

	node := &nodes[*curNode]
	*curNode++

	if inum == 1 {
		// Leaf
		for k := 0; k < 3; k++ {
			node.Bmin[k] = uint16(items[imin].bmin[k])
			node.Bmax[k] = uint16(items[imin].bmax[k])
		}
		node.I = int32(items[imin].i)
		return
	}

	// Split
	bmin, bmax := calcExtends(items[imin:imax])
	for k := 0; k < 3; k++ {
		node.Bmin[k] = uint16(bmin[k])
		node.Bmax[k] = uint16(bmax[k])
	}

	axis := longestAxis(bmax[0]-bmin[0], bmax[1]-bmin[1], bmax[2]-bmin[2])
	slices.SortFunc(items[imin:imax], func(a, b bvItem) int {
		return cmp.Compare(a.bmin[axis], b.bmin[axis])
	})

	isplit := imin + inum/2

	// Left
	subdivide(items, imin, isplit, curNode, nodes)
	// Right
	subdivide(items, isplit, imax, curNode, nodes)

	// Negative index means escape.
	node.I = -int32(*curNode - icur)
}

func quantize(v, origin, factor float32) int {
	return int(common.Clamp((v-origin)*factor, 0, 0xffff))
}

func createBVTree(params *DtNavMeshCreateParams, nodes []DtBVNode) int {
	// Build tree
	quantFactor := 1 / params.Cs
	items := make([]bvItem, params.PolyCount)
	for i := 0; i < params.PolyCount; i++ {
		it := &items[i]
		it.i = i
		// Calc polygon bounds. Use detail meshes if available.
		if len(params.DetailMeshes) > 0 {
			vb := params.DetailMeshes[i*4+0]
			ndv := params.DetailMeshes[i*4+1]
			var bmin, bmax [3]float32
			copy(bmin[:], common.GetVert3(params.DetailVerts, vb))
			copy(bmax[:], common.GetVert3(params.DetailVerts, vb))
			for j := 1; j < ndv; j++ {
				common.Vmin(bmin[:], common.GetVert3(params.DetailVerts, vb+j))
				common.Vmax(bmax[:], common.GetVert3(params.DetailVerts, vb+j))
			}

			// BV-tree uses cs for all dimensions
			for k := 0; k < 3; k++ {
				it.bmin[k] = quantize(bmin[k], params.Bmin[k], quantFactor)
				it.bmax[k] = quantize(bmax[k], params.Bmin[k], quantFactor)
			}
			continue
		}

		p := params.Polys[i*params.Nvp*2:]
		copy(it.bmin[:], common.GetVert3(params.Verts, p[0]))
		copy(it.bmax[:], common.GetVert3(params.Verts, p[0]))
		for j := 1; j < params.Nvp; j++ {
			if p[j] == MESH_NULL_IDX {
				break
			}
			v := common.GetVert3(params.Verts, p[j])
			for k := 0; k < 3; k++ {
				it.bmin[k] = min(it.bmin[k], v[k])
				it.bmax[k] = max(it.bmax[k], v[k])
			}
		}
		// Remap y
		it.bmin[1] = int(math.Floor(float64(float32(it.bmin[1]) * params.Ch / params.Cs)))
		it.bmax[1] = int(math.Ceil(float64(float32(it.bmax[1]) * params.Ch / params.Cs)))
	}

	curNode := 0
	subdivide(items, 0, params.PolyCount, &curNode, nodes)
	return curNode
}

// classifyOffMeshPoint returns the neighbour side a point lies on, or 0xff
// when it is inside the tile bounds.
func classifyOffMeshPoint(pt []float32, bmin, bmax [3]float32) uint8 {
	const (
		XP = 1 << 0
		ZP = 1 << 1
		XM = 1 << 2
		ZM = 1 << 3
	)

	outcode := 0
	if pt[0] >= bmax[0] {
		outcode |= XP
	}
	if pt[2] >= bmax[2] {
		outcode |= ZP
	}
	if pt[0] < bmin[0] {
		outcode |= XM
	}
	if pt[2] < bmin[2] {
		outcode |= ZM
	}

	switch outcode {
	case XP:
		return 0
	case XP | ZP:
		return 1
	case ZP:
		return 2
	case XM | ZP:
		return 3
	case XM:
		return 4
	case XM | ZM:
		return 5
	case ZM:
		return 6
	case XP | ZM:
		return 7
	}
	return 0xff
}

func countPolyVerts(p []int, nvp int) int {
	for j := 0; j < nvp; j++ {
		if p[j] == MESH_NULL_IDX {
			return j
		}
	}
	return nvp
}

// / Builds navigation mesh tile data from the provided tile creation data.
// / @ingroup detour
// /  @param[in]		params		Tile creation data.
// / @return The packed tile, or an error if the polygon mesh cannot be packed.
func DtCreateNavMeshData(params *DtNavMeshCreateParams) (*NavMeshData, error) {
	if params.Nvp > DT_VERTS_PER_POLYGON {
		return nil, ErrVertsPerPolygon
	}
	if params.VertCount >= 0xffff {
		return nil, ErrTooManyVertices
	}
	if params.VertCount == 0 || len(params.Verts) == 0 {
		return nil, ErrEmptyPolygonMesh
	}
	if params.PolyCount == 0 || len(params.Polys) == 0 {
		return nil, ErrEmptyPolygonMesh
	}
	if params.Cs <= 0 || params.Ch <= 0 {
		return nil, ErrInvalidParam
	}

	nvp := params.Nvp

	// Classify off-mesh connection points. We store only the connections
	// whose start point is inside the tile.
	var offMeshConClass []uint8
	storedOffMeshConCount := 0
	offMeshConLinkCount := 0

	if params.OffMeshConCount > 0 {
		offMeshConClass = make([]uint8, params.OffMeshConCount*2)

		// Find tight heigh bounds, used for culling out off-mesh start locations.
		hmin := float32(math.MaxFloat32)
		hmax := float32(-math.MaxFloat32)

		if params.DetailVertsCount > 0 {
			for i := 0; i < params.DetailVertsCount; i++ {
				h := params.DetailVerts[i*3+1]
				hmin = min(hmin, h)
				hmax = max(hmax, h)
			}
		} else {
			for i := 0; i < params.VertCount; i++ {
				h := params.Bmin[1] + float32(params.Verts[i*3+1])*params.Ch
				hmin = min(hmin, h)
				hmax = max(hmax, h)
			}
		}
		hmin -= params.WalkableClimb
		hmax += params.WalkableClimb
		bmin := params.Bmin
		bmax := params.Bmax
		bmin[1] = hmin
		bmax[1] = hmax

		for i := 0; i < params.OffMeshConCount; i++ {
			p0 := common.GetVert3(params.OffMeshConVerts, i*2+0)
			p1 := common.GetVert3(params.OffMeshConVerts, i*2+1)
			offMeshConClass[i*2+0] = classifyOffMeshPoint(p0, bmin, bmax)
			offMeshConClass[i*2+1] = classifyOffMeshPoint(p1, bmin, bmax)

			// Zero out off-mesh start positions which are not even potentially touching the mesh.
			if offMeshConClass[i*2+0] == 0xff {
				if p0[1] < bmin[1] || p0[1] > bmax[1] {
					offMeshConClass[i*2+0] = 0
				}
			}

			// Count how many links should be allocated for off-mesh connections.
			if offMeshConClass[i*2+0] == 0xff {
				offMeshConLinkCount++
			}
			if offMeshConClass[i*2+1] == 0xff {
				offMeshConLinkCount++
			}
			if offMeshConClass[i*2+0] == 0xff {
				storedOffMeshConCount++
			}
		}
	}

	// Off-mesh connections are stored as polygons, adjust values.
	totPolyCount := params.PolyCount + storedOffMeshConCount
	totVertCount := params.VertCount + storedOffMeshConCount*2

	// Find portal edges which are at tile borders.
	edgeCount := 0
	portalCount := 0
	for i := 0; i < params.PolyCount; i++ {
		p := params.Polys[i*2*nvp:]
		for j := 0; j < nvp; j++ {
			if p[j] == MESH_NULL_IDX {
				break
			}
			edgeCount++

			if p[nvp+j]&0x8000 != 0 {
				dir := p[nvp+j] & 0xf
				if dir != 0xf {
					portalCount++
				}
			}
		}
	}

	maxLinkCount := edgeCount + portalCount*2 + offMeshConLinkCount*2

	// Find unique detail vertices.
	uniqueDetailVertCount := 0
	detailTriCount := 0
	if len(params.DetailMeshes) > 0 {
		// Has detail mesh, count unique detail vertex count and use input detail tri count.
		detailTriCount = params.DetailTriCount
		for i := 0; i < params.PolyCount; i++ {
			ndv := params.DetailMeshes[i*4+1]
			nv := countPolyVerts(params.Polys[i*nvp*2:], nvp)
			uniqueDetailVertCount += ndv - nv
		}
	} else {
		// No input detail mesh, build detail mesh from nav polys.
		for i := 0; i < params.PolyCount; i++ {
			nv := countPolyVerts(params.Polys[i*nvp*2:], nvp)
			detailTriCount += nv - 2
		}
	}

	header := &DtMeshHeader{
		Magic:           DT_NAVMESH_MAGIC,
		Version:         DT_NAVMESH_VERSION,
		X:               int32(params.TileX),
		Y:               int32(params.TileY),
		Layer:           int32(params.TileLayer),
		UserId:          params.UserId,
		PolyCount:       int32(totPolyCount),
		VertCount:       int32(totVertCount),
		MaxLinkCount:    int32(maxLinkCount),
		Bmin:            params.Bmin,
		Bmax:            params.Bmax,
		DetailMeshCount: int32(params.PolyCount),
		DetailVertCount: int32(uniqueDetailVertCount),
		DetailTriCount:  int32(detailTriCount),
		BvQuantFactor:   1.0 / params.Cs,
		OffMeshBase:     int32(params.PolyCount),
		WalkableHeight:  params.WalkableHeight,
		WalkableRadius:  params.WalkableRadius,
		WalkableClimb:   params.WalkableClimb,
		OffMeshConCount: int32(storedOffMeshConCount),
	}
	data := &NavMeshData{
		Header:      header,
		NavVerts:    make([]float32, 3*totVertCount),
		NavPolys:    make([]DtPoly, totPolyCount),
		Links:       make([]DtLink, maxLinkCount),
		NavDMeshes:  make([]DtPolyDetail, params.PolyCount),
		NavDVerts:   make([]float32, 3*uniqueDetailVertCount),
		NavDTris:    make([]uint8, 4*detailTriCount),
		OffMeshCons: make([]DtOffMeshConnection, storedOffMeshConCount),
	}

	offMeshVertsBase := params.VertCount
	offMeshPolyBase := params.PolyCount

	// Mesh vertices
	for i := 0; i < params.VertCount; i++ {
		iv := common.GetVert3(params.Verts, i)
		v := common.GetVert3(data.NavVerts, i)
		v[0] = params.Bmin[0] + float32(iv[0])*params.Cs
		v[1] = params.Bmin[1] + float32(iv[1])*params.Ch
		v[2] = params.Bmin[2] + float32(iv[2])*params.Cs
	}
	// Off-mesh link vertices.
	n := 0
	for i := 0; i < params.OffMeshConCount; i++ {
		// Only store connections which start from this tile.
		if offMeshConClass[i*2+0] == 0xff {
			copy(data.NavVerts[(offMeshVertsBase+n*2)*3:], params.OffMeshConVerts[i*6:i*6+6])
			n++
		}
	}

	// Store polygons
	// Mesh polys
	for i := 0; i < params.PolyCount; i++ {
		src := params.Polys[i*2*nvp:]
		p := &data.NavPolys[i]
		p.VertCount = 0
		p.Flags = params.PolyFlags[i]
		p.SetArea(params.PolyAreas[i])
		p.SetType(DT_POLYTYPE_GROUND)
		for j := 0; j < nvp; j++ {
			if src[j] == MESH_NULL_IDX {
				break
			}
			p.Verts[j] = uint16(src[j])
			if src[nvp+j]&0x8000 != 0 {
				// Border or portal edge.
				switch src[nvp+j] & 0xf {
				case 0xf: // Border
					p.Neis[j] = 0
				case 0: // Portal x-
					p.Neis[j] = DT_EXT_LINK | 4
				case 1: // Portal z+
					p.Neis[j] = DT_EXT_LINK | 2
				case 2: // Portal x+
					p.Neis[j] = DT_EXT_LINK | 0
				case 3: // Portal z-
					p.Neis[j] = DT_EXT_LINK | 6
				}
			} else {
				// Normal connection
				p.Neis[j] = uint16(src[nvp+j] + 1)
			}
			p.VertCount++
		}
	}
	// Off-mesh connection vertices.
	n = 0
	for i := 0; i < params.OffMeshConCount; i++ {
		// Only store connections which start from this tile.
		if offMeshConClass[i*2+0] == 0xff {
			p := &data.NavPolys[offMeshPolyBase+n]
			p.VertCount = 2
			p.Verts[0] = uint16(offMeshVertsBase + n*2 + 0)
			p.Verts[1] = uint16(offMeshVertsBase + n*2 + 1)
			p.Flags = params.OffMeshConFlags[i]
			p.SetArea(params.OffMeshConAreas[i])
			p.SetType(DT_POLYTYPE_OFFMESH_CONNECTION)
			n++
		}
	}

	// Store detail meshes and vertices.
	// The nav polygon vertices are stored as the first vertices on each mesh.
	// We compress the mesh data by skipping them and using the navmesh coordinates.
	if len(params.DetailMeshes) > 0 {
		vbase := 0
		for i := 0; i < params.PolyCount; i++ {
			dtl := &data.NavDMeshes[i]
			vb := params.DetailMeshes[i*4+0]
			ndv := params.DetailMeshes[i*4+1]
			nv := int(data.NavPolys[i].VertCount)
			dtl.VertBase = uint32(vbase)
			dtl.VertCount = uint8(ndv - nv)
			dtl.TriBase = uint32(params.DetailMeshes[i*4+2])
			dtl.TriCount = uint8(params.DetailMeshes[i*4+3])
			// Copy vertices except the first 'nv' verts which are equal to nav poly verts.
			if ndv-nv > 0 {
				copy(data.NavDVerts[vbase*3:], params.DetailVerts[(vb+nv)*3:(vb+ndv)*3])
				vbase += ndv - nv
			}
		}
		// Store triangles.
		copy(data.NavDTris, params.DetailTris[:4*params.DetailTriCount])
	} else {
		// Create dummy detail mesh by triangulating polys.
		tbase := 0
		for i := 0; i < params.PolyCount; i++ {
			dtl := &data.NavDMeshes[i]
			nv := int(data.NavPolys[i].VertCount)
			dtl.VertBase = 0
			dtl.VertCount = 0
			dtl.TriBase = uint32(tbase)
			dtl.TriCount = uint8(nv - 2)
			// Triangulate polygon (local indices).
			for j := 2; j < nv; j++ {
				t := common.GetVert4(data.NavDTris, tbase)
				t[0] = 0
				t[1] = uint8(j - 1)
				t[2] = uint8(j)
				// Bit for each edge that belongs to poly boundary.
				t[3] = 1 << 2
				if j == 2 {
					t[3] |= 1 << 0
				}
				if j == nv-1 {
					t[3] |= 1 << 4
				}
				tbase++
			}
		}
	}

	// Store and create BVtree.
	if params.BuildBvTree {
		nodes := make([]DtBVNode, params.PolyCount*2)
		used := createBVTree(params, nodes)
		data.NavBvtree = nodes[:used]
		header.BvNodeCount = int32(used)
	}

	// Store Off-Mesh connections.
	n = 0
	for i := 0; i < params.OffMeshConCount; i++ {
		// Only store connections which start from this tile.
		if offMeshConClass[i*2+0] == 0xff {
			con := &data.OffMeshCons[n]
			con.Poly = uint16(offMeshPolyBase + n)
			// Copy connection end-points.
			copy(con.Pos[:], params.OffMeshConVerts[i*6:i*6+6])
			con.Rad = params.OffMeshConRad[i]
			con.Flags = 0
			if params.OffMeshConDir[i]&DT_OFFMESH_CON_BIDIR != 0 {
				con.Flags = DT_OFFMESH_CON_BIDIR
			}
			con.Side = offMeshConClass[i*2+1]
			if len(params.OffMeshConUserID) > 0 {
				con.UserId = params.OffMeshConUserID[i]
			}
			n++
		}
	}

	return data, nil
}
