package detour

import (
	"math"

	"github.com/gorustyt/gonavtile/common"
)

// QueryPolygonsInTile returns the ground polygons of tile whose bounds overlap
// the query box, walking the BV tree when the tile has one.
func (mesh *DtNavMesh) QueryPolygonsInTile(tile *DtMeshTile, qmin, qmax []float32, maxPolys int) []DtPolyRef {
	var polys []DtPolyRef
	base := mesh.GetPolyRefBase(tile)

	if tile.BvTree != nil {
		tbmin := tile.Header.Bmin
		tbmax := tile.Header.Bmax
		qfac := tile.Header.BvQuantFactor

		// Clamp query box to world box.
		minx := common.Clamp(qmin[0], tbmin[0], tbmax[0]) - tbmin[0]
		miny := common.Clamp(qmin[1], tbmin[1], tbmax[1]) - tbmin[1]
		minz := common.Clamp(qmin[2], tbmin[2], tbmax[2]) - tbmin[2]
		maxx := common.Clamp(qmax[0], tbmin[0], tbmax[0]) - tbmin[0]
		maxy := common.Clamp(qmax[1], tbmin[1], tbmax[1]) - tbmin[1]
		maxz := common.Clamp(qmax[2], tbmin[2], tbmax[2]) - tbmin[2]

		// Quantize
		var bmin, bmax [3]uint16
		bmin[0] = uint16(qfac*minx) & 0xfffe
		bmin[1] = uint16(qfac*miny) & 0xfffe
		bmin[2] = uint16(qfac*minz) & 0xfffe
		bmax[0] = uint16(qfac*maxx+1) | 1
		bmax[1] = uint16(qfac*maxy+1) | 1
		bmax[2] = uint16(qfac*maxz+1) | 1

		// Traverse tree
		for node := 0; node < len(tile.BvTree); {
			n := &tile.BvTree[node]
			overlap := dtOverlapQuantBounds(bmin, bmax, n.Bmin, n.Bmax)
			isLeafNode := n.I >= 0

			if isLeafNode && overlap && len(polys) < maxPolys {
				polys = append(polys, base|DtPolyRef(n.I))
			}

			if overlap || isLeafNode {
				node++
			} else {
				node += int(-n.I)
			}
		}
		return polys
	}

	var bmin, bmax [3]float32
	for i := range tile.Polys {
		p := &tile.Polys[i]
		// Do not return off-mesh connection polygons.
		if p.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}
		// Calc polygon bounds.
		copy(bmin[:], common.GetVert3(tile.Verts, p.Verts[0]))
		copy(bmax[:], common.GetVert3(tile.Verts, p.Verts[0]))
		for j := 1; j < int(p.VertCount); j++ {
			v := common.GetVert3(tile.Verts, p.Verts[j])
			common.Vmin(bmin[:], v)
			common.Vmax(bmax[:], v)
		}
		if common.OverlapBounds(qmin, qmax, bmin[:], bmax[:]) && len(polys) < maxPolys {
			polys = append(polys, base|DtPolyRef(i))
		}
	}
	return polys
}

func (mesh *DtNavMesh) findNearestPolyInTile(tile *DtMeshTile, center, halfExtents []float32) (nearest DtPolyRef, nearestPt [3]float32) {
	var bmin, bmax [3]float32
	common.Vsub(bmin[:], center, halfExtents)
	common.Vadd(bmax[:], center, halfExtents)

	// Find nearest polygon amongst the nearby polygons.
	nearestDistanceSqr := float32(math.MaxFloat32)
	for _, ref := range mesh.QueryPolygonsInTile(tile, bmin[:], bmax[:], 128) {
		poly := &tile.Polys[mesh.DecodePolyIdPoly(ref)]
		closest, posOverPoly := closestPointOnPoly(tile, poly, center)

		// If a point is directly over a polygon and closer than
		// climb height, favor that instead of straight line nearest point.
		var diff [3]float32
		common.Vsub(diff[:], center, closest[:])
		var d float32
		if posOverPoly {
			d = common.Abs(diff[1]) - tile.Header.WalkableClimb
			if d > 0 {
				d = d * d
			} else {
				d = 0
			}
		} else {
			d = common.Vdot(diff[:], diff[:])
		}

		if d < nearestDistanceSqr {
			nearestPt = closest
			nearestDistanceSqr = d
			nearest = ref
		}
	}
	return nearest, nearestPt
}

func polyIndex(tile *DtMeshTile, poly *DtPoly) int {
	for i := range tile.Polys {
		if &tile.Polys[i] == poly {
			return i
		}
	}
	return -1
}

func detailTriVerts(tile *DtMeshTile, poly *DtPoly, pd *DtPolyDetail, t []uint8) (v [3][]float32) {
	for k := 0; k < 3; k++ {
		if t[k] < poly.VertCount {
			v[k] = common.GetVert3(tile.Verts, poly.Verts[t[k]])
		} else {
			v[k] = common.GetVert3(tile.DetailVerts, pd.VertBase+uint32(t[k]-poly.VertCount))
		}
	}
	return
}

func closestPointOnPoly(tile *DtMeshTile, poly *DtPoly, pos []float32) (closest [3]float32, posOverPoly bool) {
	copy(closest[:], pos)
	if h, ok := getPolyHeight(tile, poly, pos); ok {
		closest[1] = h
		return closest, true
	}
	// Off-mesh connections don't have detail polygons.
	if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		v0 := common.GetVert3(tile.Verts, poly.Verts[0])
		v1 := common.GetVert3(tile.Verts, poly.Verts[1])
		t, _ := dtDistancePtSegSqr2D(pos, v0, v1)
		dtVlerp(closest[:], v0, v1, t)
		return closest, false
	}
	// Outside poly that is not an offmesh connection.
	closestPointOnDetailEdges(true, tile, poly, pos, closest[:])
	return closest, false
}

func getPolyHeight(tile *DtMeshTile, poly *DtPoly, pos []float32) (float32, bool) {
	// Off-mesh connections do not have detail polys and getting height
	// over them does not make sense.
	if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		return 0, false
	}

	pd := &tile.DetailMeshes[polyIndex(tile, poly)]

	var verts [DT_VERTS_PER_POLYGON * 3]float32
	nv := int(poly.VertCount)
	for i := 0; i < nv; i++ {
		copy(verts[i*3:i*3+3], common.GetVert3(tile.Verts, poly.Verts[i]))
	}
	if !dtPointInPolygon(pos, verts[:], nv) {
		return 0, false
	}

	// Find height at the location.
	for j := 0; j < int(pd.TriCount); j++ {
		t := common.GetVert4(tile.DetailTris, pd.TriBase+uint32(j))
		v := detailTriVerts(tile, poly, pd, t)
		if h, ok := dtClosestHeightPointTriangle(pos, v[0], v[1], v[2]); ok {
			return h, true
		}
	}

	// If all triangle checks failed above (can happen with degenerate triangles
	// or larger floating point values) the point is on an edge, so just select
	// closest.
	var closest [3]float32
	closestPointOnDetailEdges(false, tile, poly, pos, closest[:])
	return closest[1], true
}

func closestPointOnDetailEdges(onlyBoundary bool, tile *DtMeshTile, poly *DtPoly, pos []float32, closest []float32) {
	pd := &tile.DetailMeshes[polyIndex(tile, poly)]
	dmin := float32(math.MaxFloat32)
	tmin := float32(0)
	var pmin, pmax []float32

	const anyBoundaryEdge = (DT_DETAIL_EDGE_BOUNDARY << 0) | (DT_DETAIL_EDGE_BOUNDARY << 2) | (DT_DETAIL_EDGE_BOUNDARY << 4)
	for i := 0; i < int(pd.TriCount); i++ {
		tris := common.GetVert4(tile.DetailTris, pd.TriBase+uint32(i))
		if onlyBoundary && tris[3]&anyBoundaryEdge == 0 {
			continue
		}
		v := detailTriVerts(tile, poly, pd, tris)
		for k, j := 0, 2; k < 3; j, k = k, k+1 {
			if dtGetDetailTriEdgeFlags(tris[3], j)&DT_DETAIL_EDGE_BOUNDARY == 0 && (onlyBoundary || tris[j] < tris[k]) {
				// Only looking at boundary edges and this is internal, or
				// this is an inner edge that we will see again or have already seen.
				continue
			}
			t, d := dtDistancePtSegSqr2D(pos, v[j], v[k])
			if d < dmin {
				dmin = d
				tmin = t
				pmin = v[j]
				pmax = v[k]
			}
		}
	}
	if pmin == nil {
		copy(closest, pos)
		return
	}
	dtVlerp(closest, pmin, pmax, tmin)
}
