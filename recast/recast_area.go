package recast

import (
	"github.com/gorustyt/gonavtile/common"
	"go.uber.org/zap"
)

// neighbourIndex returns the cell coordinates and span index reached from span in
// direction dir. The connection must exist.
func (chf *RcCompactHeightfield) neighbourIndex(x, z int, span *RcCompactSpan, dir int) (nx, nz, ni int) {
	nx = x + common.GetDirOffsetX(dir)
	nz = z + common.GetDirOffsetY(dir)
	ni = chf.Cells[nx+nz*chf.Width].Index + RcGetCon(span, dir)
	return
}

// / Erodes the walkable area within the heightfield by the specified radius.
// /
// / Basically, any spans that are closer to a boundary or obstruction than the specified radius
// / are marked as un-walkable.
// /
// / This method is usually called immediately after the heightfield has been built.
// /
// /  @param[in]		erosionRadius	The radius of erosion. [Limits: 0 < value < 255] [Units: vx]
// /  @param[in,out]	chf				The populated compact heightfield to erode.
func RcErodeWalkableArea(ctx *RcContext, erosionRadius int, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_ERODE_AREA)
	defer ctx.StopTimer(RC_TIMER_ERODE_AREA)

	xSize := chf.Width
	zSize := chf.Height
	zStride := xSize

	distanceToBoundary := make([]uint8, chf.SpanCount)
	for i := range distanceToBoundary {
		distanceToBoundary[i] = 0xff
	}

	// Mark boundary cells.
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					distanceToBoundary[spanIndex] = 0
					continue
				}
				span := &chf.Spans[spanIndex]

				// Check that there is a non-null adjacent span in each of the 4 cardinal directions.
				neighborCount := 0
				for direction := 0; direction < 4; direction++ {
					if RcGetCon(span, direction) == RC_NOT_CONNECTED {
						break
					}
					_, _, neighborSpanIndex := chf.neighbourIndex(x, z, span, direction)
					if chf.Areas[neighborSpanIndex] == RC_NULL_AREA {
						break
					}
					neighborCount++
				}

				// At least one missing neighbour, so this is a boundary cell.
				if neighborCount != 4 {
					distanceToBoundary[spanIndex] = 0
				}
			}
		}
	}

	// relax lowers the distance of spanIndex through the straight neighbour in
	// direction dir (+2) and the diagonal reached by turning to diagDir (+3).
	relax := func(x, z, spanIndex int, span *RcCompactSpan, dir, diagDir int) {
		if RcGetCon(span, dir) == RC_NOT_CONNECTED {
			return
		}
		aX, aZ, aIndex := chf.neighbourIndex(x, z, span, dir)
		newDistance := uint8(min(int(distanceToBoundary[aIndex])+2, 255))
		if newDistance < distanceToBoundary[spanIndex] {
			distanceToBoundary[spanIndex] = newDistance
		}
		aSpan := &chf.Spans[aIndex]
		if RcGetCon(aSpan, diagDir) == RC_NOT_CONNECTED {
			return
		}
		_, _, bIndex := chf.neighbourIndex(aX, aZ, aSpan, diagDir)
		newDistance = uint8(min(int(distanceToBoundary[bIndex])+3, 255))
		if newDistance < distanceToBoundary[spanIndex] {
			distanceToBoundary[spanIndex] = newDistance
		}
	}

	// Pass 1
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]
				// (-1,0) then (-1,-1)
				relax(x, z, spanIndex, span, 0, 3)
				// (0,-1) then (1,-1)
				relax(x, z, spanIndex, span, 3, 2)
			}
		}
	}

	// Pass 2
	for z := zSize - 1; z >= 0; z-- {
		for x := xSize - 1; x >= 0; x-- {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]
				// (1,0) then (1,1)
				relax(x, z, spanIndex, span, 2, 1)
				// (0,1) then (-1,1)
				relax(x, z, spanIndex, span, 1, 0)
			}
		}
	}

	minBoundaryDistance := erosionRadius * 2
	for spanIndex := 0; spanIndex < chf.SpanCount; spanIndex++ {
		if int(distanceToBoundary[spanIndex]) < minBoundaryDistance {
			chf.Areas[spanIndex] = RC_NULL_AREA
		}
	}
}

// / Checks if a point is contained within a polygon
// /
// / @param[in]	numVerts	Number of vertices in the polygon
// / @param[in]	verts		The polygon vertices
// / @param[in]	point		The point to check
// / @returns true if the point lies within the polygon, false otherwise.
func pointInPoly(numVerts int, verts []float32, point []float32) bool {
	inPoly := false
	for i, j := 0, numVerts-1; i < numVerts; j, i = i, i+1 {
		vi := common.GetVert3(verts, i)
		vj := common.GetVert3(verts, j)

		if (vi[2] > point[2]) == (vj[2] > point[2]) {
			continue
		}
		if point[0] >= (vj[0]-vi[0])*(point[2]-vi[2])/(vj[2]-vi[2])+vi[0] {
			continue
		}
		inPoly = !inPoly
	}
	return inPoly
}

// / Applies the area id to the all spans within the specified convex polygon.
// /
// / The value of spacial parameters are in world units.
// /
// / The y-values of the polygon vertices are ignored. So the polygon is effectively
// / projected onto the xz-plane, translated to @p minY, and extruded to @p maxY.
// /
// /  @param[in]		verts			The vertices of the polygon [For: (x, y, z) * @p numVerts]
// /  @param[in]		numVerts		The number of vertices in the polygon.
// /  @param[in]		minY			The height of the base of the polygon. [Units: wu]
// /  @param[in]		maxY			The height of the top of the polygon. [Units: wu]
// /  @param[in]		areaId			The area id to apply. [Limit: <= #RC_WALKABLE_AREA]
// /  @param[in,out]	chf				A populated compact heightfield.
func RcMarkConvexPolyArea(ctx *RcContext, verts []float32, numVerts int, minY, maxY float32, areaId uint8, chf *RcCompactHeightfield) {
	if numVerts < 3 {
		ctx.Log(RC_LOG_WARNING, "rcMarkConvexPolyArea: degenerate polygon", zap.Int("verts", numVerts))
		return
	}
	xSize := chf.Width
	zSize := chf.Height
	zStride := xSize

	// Compute the bounding box of the polygon
	var bmin, bmax [3]float32
	copy(bmin[:], verts[:3])
	copy(bmax[:], verts[:3])
	for i := 1; i < numVerts; i++ {
		common.Vmin(bmin[:], common.GetVert3(verts, i))
		common.Vmax(bmax[:], common.GetVert3(verts, i))
	}
	bmin[1] = minY
	bmax[1] = maxY

	// Compute the grid footprint of the polygon
	minx := int((bmin[0] - chf.Bmin[0]) / chf.Cs)
	miny := int((bmin[1] - chf.Bmin[1]) / chf.Ch)
	minz := int((bmin[2] - chf.Bmin[2]) / chf.Cs)
	maxx := int((bmax[0] - chf.Bmin[0]) / chf.Cs)
	maxy := int((bmax[1] - chf.Bmin[1]) / chf.Ch)
	maxz := int((bmax[2] - chf.Bmin[2]) / chf.Cs)

	// Early-out if the polygon lies entirely outside the grid.
	if maxx < 0 || minx >= xSize || maxz < 0 || minz >= zSize {
		return
	}

	// Clamp the polygon footprint to the grid
	minx = max(minx, 0)
	maxx = min(maxx, xSize-1)
	minz = max(minz, 0)
	maxz = min(maxz, zSize-1)

	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]

				// Skip if span is removed.
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					continue
				}

				// Skip if y extents don't overlap.
				if span.Y < miny || span.Y > maxy {
					continue
				}

				point := [3]float32{
					chf.Bmin[0] + (float32(x)+0.5)*chf.Cs,
					0,
					chf.Bmin[2] + (float32(z)+0.5)*chf.Cs,
				}
				if pointInPoly(numVerts, verts, point[:]) {
					chf.Areas[spanIndex] = areaId
				}
			}
		}
	}
}
