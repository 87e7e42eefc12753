package recast

import (
	"math"

	"github.com/gorustyt/gonavtile/common"
	"go.uber.org/zap"
)

// / Contains triangle meshes that represent detailed height data associated
// / with the polygons in its associated polygon mesh object.
type RcPolyMeshDetail struct {
	Meshes  []int     ///< The sub-mesh data. [Size: 4*#nmeshes]
	Verts   []float32 ///< The mesh vertices. [Size: 3*#nverts]
	Tris    []uint8   ///< The mesh triangles. [Size: 4*#ntris]
	NMeshes int       ///< The number of sub-meshes defined by #meshes.
	NVerts  int       ///< The number of vertices in #verts.
	NTris   int       ///< The number of triangles in #tris.
}

const (
	RC_UNSET_HEIGHT = 0xffff

	MAX_VERTS          = 127
	MAX_TRIS           = 255 // Max tris for delaunay is 2n-2-k (n=num verts, k=num hull verts).
	MAX_VERTS_PER_EDGE = 32

	EV_UNDEF = -1
	EV_HULL  = -2

	// Matches DT_DETAIL_EDGE_BOUNDARY
	DETAIL_EDGE_BOUNDARY = 0x1
)

type rcHeightPatch struct {
	data                      []int
	xmin, ymin, width, height int
}

func getJitterX(i int) float32 {
	return (float32((uint32(i)*0x8da6b343)&0xffff) / 65535.0 * 2.0) - 1.0
}

func getJitterY(i int) float32 {
	return (float32((uint32(i)*0xd8163841)&0xffff) / 65535.0 * 2.0) - 1.0
}

func polyMinExtent(verts []float32, nverts int) float32 {
	minDist := float32(math.MaxFloat32)
	for i := 0; i < nverts; i++ {
		ni := (i + 1) % nverts
		p1 := common.GetVert3(verts, i)
		p2 := common.GetVert3(verts, ni)
		var maxEdgeDist float32
		for j := 0; j < nverts; j++ {
			if j == i || j == ni {
				continue
			}
			d := common.DistancePtSeg2d(common.GetVert3(verts, j), p1, p2)
			maxEdgeDist = max(maxEdgeDist, d)
		}
		minDist = min(minDist, maxEdgeDist)
	}
	return common.Sqrt(minDist)
}

func getHeight(fx, fy, fz, cs, ics, ch float32, radius int, hp *rcHeightPatch) int {
	ix := int(math.Floor(float64(fx*ics + 0.01)))
	iz := int(math.Floor(float64(fz*ics + 0.01)))
	ix = common.Clamp(ix-hp.xmin, 0, hp.width-1)
	iz = common.Clamp(iz-hp.ymin, 0, hp.height-1)
	h := hp.data[ix+iz*hp.width]
	if h != RC_UNSET_HEIGHT {
		return h
	}

	// Special case when data might be bad.
	// Walk adjacent cells in a spiral up to 'radius', and look
	// for a pixel which has a valid height.
	x, z, dx, dz := 1, 0, 1, 0
	maxSize := radius*2 + 1
	maxIter := maxSize*maxSize - 1

	nextRingIterStart := 8
	nextRingIters := 16

	dmin := float32(math.MaxFloat32)
	for i := 0; i < maxIter; i++ {
		nx := ix + x
		nz := iz + z

		if nx >= 0 && nz >= 0 && nx < hp.width && nz < hp.height {
			nh := hp.data[nx+nz*hp.width]
			if nh != RC_UNSET_HEIGHT {
				d := common.Abs(float32(nh)*ch - fy)
				if d < dmin {
					h = nh
					dmin = d
				}
			}
		}

		// Each ring around the center has 8 more cells than the previous one. Stop at
		// the end of the first ring that produced a valid height.
		if i+1 == nextRingIterStart {
			if h != RC_UNSET_HEIGHT {
				break
			}
			nextRingIterStart += nextRingIters
			nextRingIters += 8
		}

		if (x == z) || ((x < 0) && (x == -z)) || ((x > 0) && (x == 1-z)) {
			dx, dz = -dz, dx
		}
		x += dx
		z += dz
	}
	return h
}

func findEdge(edges []int, s, t int) int {
	for i := 0; i < len(edges)/4; i++ {
		e := edges[i*4:]
		if (e[0] == s && e[1] == t) || (e[0] == t && e[1] == s) {
			return i
		}
	}
	return EV_UNDEF
}

func addEdge(ctx *RcContext, edges []int, maxEdges, s, t, l, r int) []int {
	if len(edges)/4 >= maxEdges {
		ctx.Log(RC_LOG_ERROR, "addEdge: too many edges", zap.Int("edges", len(edges)/4), zap.Int("max", maxEdges))
		return edges
	}
	// Add edge if not already in the triangulation.
	if findEdge(edges, s, t) == EV_UNDEF {
		edges = append(edges, s, t, l, r)
	}
	return edges
}

func updateLeftFace(e []int, s, t, f int) {
	if e[0] == s && e[1] == t && e[2] == EV_UNDEF {
		e[2] = f
	} else if e[1] == s && e[0] == t && e[3] == EV_UNDEF {
		e[3] = f
	}
}

func overlapSegSeg2d(a, b, c, d []float32) bool {
	a1 := common.Vcross2(a, b, d)
	a2 := common.Vcross2(a, b, c)
	if a1*a2 < 0 {
		a3 := common.Vcross2(c, d, a)
		a4 := a3 + a2 - a1
		if a3*a4 < 0 {
			return true
		}
	}
	return false
}

func overlapEdges(pts []float32, edges []int, s1, t1 int) bool {
	for i := 0; i < len(edges)/4; i++ {
		s0 := edges[i*4+0]
		t0 := edges[i*4+1]
		// Same or connected edges do not overlap.
		if s0 == s1 || s0 == t1 || t0 == s1 || t0 == t1 {
			continue
		}
		if overlapSegSeg2d(common.GetVert3(pts, s0), common.GetVert3(pts, t0), common.GetVert3(pts, s1), common.GetVert3(pts, t1)) {
			return true
		}
	}
	return false
}

func completeFacet(ctx *RcContext, pts []float32, npts int, edges []int, maxEdges int, nfaces *int, e int) []int {
	const EPS = 1e-5

	edge := edges[e*4:]

	// Cache s and t.
	var s, t int
	if edge[2] == EV_UNDEF {
		s = edge[0]
		t = edge[1]
	} else if edge[3] == EV_UNDEF {
		s = edge[1]
		t = edge[0]
	} else {
		// Edge already completed.
		return edges
	}

	// Find best point on left of edge.
	pt := npts
	var c [3]float32
	r := float32(-1)
	for u := 0; u < npts; u++ {
		if u == s || u == t {
			continue
		}
		if common.Vcross2(common.GetVert3(pts, s), common.GetVert3(pts, t), common.GetVert3(pts, u)) <= EPS {
			continue
		}
		if r < 0 {
			// The circle is not updated yet, do it now.
			pt = u
			r, _ = common.CircumCircle(common.GetVert3(pts, s), common.GetVert3(pts, t), common.GetVert3(pts, u), c[:])
			continue
		}
		d := common.Vdist2(c[:], common.GetVert3(pts, u))
		const tol = 0.001
		if d > r*(1+tol) {
			// Outside current circumcircle, skip.
			continue
		} else if d >= r*(1-tol) {
			// Inside epsilon circum circle, do extra tests to make sure the edge is valid.
			// s-u and t-u cannot overlap with s-pt nor t-pt if they exists.
			if overlapEdges(pts, edges, s, u) {
				continue
			}
			if overlapEdges(pts, edges, t, u) {
				continue
			}
		}
		// Edge is valid.
		pt = u
		r, _ = common.CircumCircle(common.GetVert3(pts, s), common.GetVert3(pts, t), common.GetVert3(pts, u), c[:])
	}

	// Add new triangle or update edge info if s-t is on hull.
	if pt >= npts {
		updateLeftFace(edges[e*4:], s, t, EV_HULL)
		return edges
	}

	// Update face information of edge being completed.
	updateLeftFace(edges[e*4:], s, t, *nfaces)

	// Add new edge or update face info of old edge.
	if e = findEdge(edges, pt, s); e == EV_UNDEF {
		edges = addEdge(ctx, edges, maxEdges, pt, s, *nfaces, EV_UNDEF)
	} else {
		updateLeftFace(edges[e*4:], pt, s, *nfaces)
	}

	// Add new edge or update face info of old edge.
	if e = findEdge(edges, t, pt); e == EV_UNDEF {
		edges = addEdge(ctx, edges, maxEdges, t, pt, *nfaces, EV_UNDEF)
	} else {
		updateLeftFace(edges[e*4:], t, pt, *nfaces)
	}

	*nfaces++
	return edges
}

func delaunayHull(ctx *RcContext, npts int, pts []float32, nhull int, hull []int, tris, edges []int) (outTris, outEdges []int) {
	nfaces := 0
	maxEdges := npts * 10
	edges = edges[:0]

	for i, j := 0, nhull-1; i < nhull; j, i = i, i+1 {
		edges = addEdge(ctx, edges, maxEdges, hull[j], hull[i], EV_HULL, EV_UNDEF)
	}

	for currentEdge := 0; currentEdge < len(edges)/4; currentEdge++ {
		if edges[currentEdge*4+2] == EV_UNDEF {
			edges = completeFacet(ctx, pts, npts, edges, maxEdges, &nfaces, currentEdge)
		}
		if edges[currentEdge*4+3] == EV_UNDEF {
			edges = completeFacet(ctx, pts, npts, edges, maxEdges, &nfaces, currentEdge)
		}
	}

	// Create tris
	tris = tris[:0]
	for i := 0; i < nfaces*4; i++ {
		tris = append(tris, -1)
	}

	for i := 0; i < len(edges)/4; i++ {
		e := edges[i*4:]
		if e[3] >= 0 {
			// Left face
			t := tris[e[3]*4:]
			if t[0] == -1 {
				t[0] = e[0]
				t[1] = e[1]
			} else if t[0] == e[1] {
				t[2] = e[0]
			} else if t[1] == e[0] {
				t[2] = e[1]
			}
		}
		if e[2] >= 0 {
			// Right
			t := tris[e[2]*4:]
			if t[0] == -1 {
				t[0] = e[1]
				t[1] = e[0]
			} else if t[0] == e[0] {
				t[2] = e[1]
			} else if t[1] == e[1] {
				t[2] = e[0]
			}
		}
	}

	for i := 0; i < len(tris)/4; i++ {
		t := tris[i*4 : i*4+4]
		if t[0] == -1 || t[1] == -1 || t[2] == -1 {
			ctx.Log(RC_LOG_WARNING, "delaunayHull: removing dangling face",
				zap.Int("face", i), zap.Ints("tri", []int{t[0], t[1], t[2]}))
			n := len(tris)
			copy(t, tris[n-4:n])
			tris = tris[:n-4]
			i--
		}
	}
	return tris, edges
}

func triangulateHull(verts []float32, nhull int, hull []int, nin int, tris []int) []int {
	start, left, right := 0, 1, nhull-1

	// Start from an ear with shortest perimeter.
	// This tends to favor well formed triangles as starting point.
	dmin := float32(math.MaxFloat32)
	for i := 0; i < nhull; i++ {
		if hull[i] >= nin {
			continue // Ears are triangles with original vertices as middle vertex while others are actually line segments on edges
		}
		pi := common.Prev(i, nhull)
		ni := common.Next(i, nhull)
		pv := common.GetVert3(verts, hull[pi])
		cv := common.GetVert3(verts, hull[i])
		nv := common.GetVert3(verts, hull[ni])
		d := common.Vdist2(pv, cv) + common.Vdist2(cv, nv) + common.Vdist2(nv, pv)
		if d < dmin {
			start = i
			left = ni
			right = pi
			dmin = d
		}
	}

	// Add first triangle
	tris = append(tris, hull[start], hull[left], hull[right], 0)

	// Triangulate the polygon by moving left or right,
	// depending on which triangle has shorter perimeter.
	// This heuristic was chose emprically, since it seems
	// handle tesselated straight edges well.
	for common.Next(left, nhull) != right {
		// Check to see if se should advance left or right.
		nleft := common.Next(left, nhull)
		nright := common.Prev(right, nhull)

		cvleft := common.GetVert3(verts, hull[left])
		nvleft := common.GetVert3(verts, hull[nleft])
		cvright := common.GetVert3(verts, hull[right])
		nvright := common.GetVert3(verts, hull[nright])
		dleft := common.Vdist2(cvleft, nvleft) + common.Vdist2(nvleft, cvright)
		dright := common.Vdist2(cvright, nvright) + common.Vdist2(cvleft, nvright)

		if dleft < dright {
			tris = append(tris, hull[left], hull[nleft], hull[right], 0)
			left = nleft
		} else {
			tris = append(tris, hull[left], hull[nright], hull[right], 0)
			right = nright
		}
	}
	return tris
}

type polyDetailScratch struct {
	verts   [256 * 3]float32
	tris    []int
	edges   []int
	samples []int
}

// buildPolyDetail tessellates the polygon in (nin vertices) into scratch.verts and
// scratch.tris and returns the number of vertices produced.
func buildPolyDetail(ctx *RcContext, in []float32, nin int, sampleDist, sampleMaxError float32,
	heightSearchRadius int, chf *RcCompactHeightfield, hp *rcHeightPatch, scratch *polyDetailScratch) int {
	var edge [(MAX_VERTS_PER_EDGE + 1) * 3]float32
	var hull [MAX_VERTS]int
	nhull := 0

	verts := scratch.verts[:]
	copy(verts, in[:nin*3])
	nverts := nin

	scratch.edges = scratch.edges[:0]
	scratch.tris = scratch.tris[:0]

	cs := chf.Cs
	ics := 1.0 / cs

	// Calculate minimum extents of the polygon based on input data.
	minExtent := polyMinExtent(verts, nverts)

	// Tessellate outlines.
	// This is done in separate pass in order to ensure
	// seamless height values across the ply boundaries.
	if sampleDist > 0 {
		for i, j := 0, nin-1; i < nin; j, i = i, i+1 {
			vj := common.GetVert3(in, j)
			vi := common.GetVert3(in, i)
			swapped := false
			// Make sure the segments are always handled in same order
			// using lexological sort or else there will be seams.
			if common.Abs(vj[0]-vi[0]) < 1e-6 {
				if vj[2] > vi[2] {
					vj, vi = vi, vj
					swapped = true
				}
			} else if vj[0] > vi[0] {
				vj, vi = vi, vj
				swapped = true
			}
			// Create samples along the edge.
			dx := vi[0] - vj[0]
			dy := vi[1] - vj[1]
			dz := vi[2] - vj[2]
			d := common.Sqrt(dx*dx + dz*dz)
			nn := 1 + int(math.Floor(float64(d/sampleDist)))
			if nn >= MAX_VERTS_PER_EDGE {
				nn = MAX_VERTS_PER_EDGE - 1
			}
			if nverts+nn >= MAX_VERTS {
				nn = MAX_VERTS - 1 - nverts
			}

			for k := 0; k <= nn; k++ {
				u := float32(k) / float32(nn)
				pos := edge[k*3 : k*3+3]
				pos[0] = vj[0] + dx*u
				pos[1] = vj[1] + dy*u
				pos[2] = vj[2] + dz*u
				pos[1] = float32(getHeight(pos[0], pos[1], pos[2], cs, ics, chf.Ch, heightSearchRadius, hp)) * chf.Ch
			}
			// Simplify samples.
			var idx [MAX_VERTS_PER_EDGE]int
			idx[0] = 0
			idx[1] = nn
			nidx := 2
			for k := 0; k < nidx-1; {
				a := idx[k]
				b := idx[k+1]
				va := edge[a*3 : a*3+3]
				vb := edge[b*3 : b*3+3]
				// Find maximum deviation along the segment.
				var maxd float32
				maxi := -1
				for m := a + 1; m < b; m++ {
					dev := common.DistancePtSeg(edge[m*3:m*3+3], va, vb)
					if dev > maxd {
						maxd = dev
						maxi = m
					}
				}
				// If the max deviation is larger than accepted error,
				// add new point, else continue to next segment.
				if maxi != -1 && maxd > common.Sqr(sampleMaxError) {
					copy(idx[k+2:nidx+1], idx[k+1:nidx])
					idx[k+1] = maxi
					nidx++
				} else {
					k++
				}
			}

			hull[nhull] = j
			nhull++
			// Add new vertices.
			if swapped {
				for k := nidx - 2; k > 0; k-- {
					copy(verts[nverts*3:nverts*3+3], edge[idx[k]*3:idx[k]*3+3])
					hull[nhull] = nverts
					nhull++
					nverts++
				}
			} else {
				for k := 1; k < nidx-1; k++ {
					copy(verts[nverts*3:nverts*3+3], edge[idx[k]*3:idx[k]*3+3])
					hull[nhull] = nverts
					nhull++
					nverts++
				}
			}
		}
	} else {
		// No edge tessellation, the hull is the input polygon.
		for i := 0; i < nin; i++ {
			hull[nhull] = i
			nhull++
		}
	}

	// If the polygon minimum extent is small (sliver or small triangle), do not try to add internal points.
	if minExtent < sampleDist*2 {
		scratch.tris = triangulateHull(verts, nhull, hull[:], nin, scratch.tris)
		return nverts
	}

	// Tessellate the base mesh.
	// We're using the triangulateHull instead of delaunayHull as it tends to
	// create a bit better triangulation for long thin triangles when there
	// are no internal points.
	scratch.tris = triangulateHull(verts, nhull, hull[:], nin, scratch.tris)

	if len(scratch.tris) == 0 {
		// Could not triangulate the poly, make sure there is some valid data there.
		ctx.Log(RC_LOG_WARNING, "buildPolyDetail: could not triangulate polygon", zap.Int("verts", nverts))
		return nverts
	}

	if sampleDist > 0 {
		// Create sample locations in a grid.
		var bmin, bmax [3]float32
		copy(bmin[:], in[:3])
		copy(bmax[:], in[:3])
		for i := 1; i < nin; i++ {
			common.Vmin(bmin[:], common.GetVert3(in, i))
			common.Vmax(bmax[:], common.GetVert3(in, i))
		}
		x0 := int(math.Floor(float64(bmin[0] / sampleDist)))
		x1 := int(math.Ceil(float64(bmax[0] / sampleDist)))
		z0 := int(math.Floor(float64(bmin[2] / sampleDist)))
		z1 := int(math.Ceil(float64(bmax[2] / sampleDist)))
		samples := scratch.samples[:0]
		for z := z0; z < z1; z++ {
			for x := x0; x < x1; x++ {
				pt := [3]float32{
					float32(x) * sampleDist,
					(bmax[1] + bmin[1]) * 0.5,
					float32(z) * sampleDist,
				}
				// Make sure the samples are not too close to the edges.
				if common.DistToPoly(nin, in, pt[:]) > -sampleDist/2 {
					continue
				}
				samples = append(samples, x, getHeight(pt[0], pt[1], pt[2], cs, ics, chf.Ch, heightSearchRadius, hp), z, 0) // Not added
			}
		}
		scratch.samples = samples

		// Add the samples starting from the one that has the most
		// error. The procedure stops when all samples are added
		// or when the max error is within treshold.
		nsamples := len(samples) / 4
		for iter := 0; iter < nsamples; iter++ {
			if nverts >= MAX_VERTS {
				break
			}

			// Find sample with most error.
			var bestpt [3]float32
			var bestd float32
			besti := -1
			for i := 0; i < nsamples; i++ {
				s := samples[i*4 : i*4+4]
				if s[3] != 0 {
					continue // skip added.
				}
				// The sample location is jittered to get rid of some bad triangulations
				// which are cause by symmetrical data from the grid structure.
				pt := [3]float32{
					float32(s[0])*sampleDist + getJitterX(i)*cs*0.1,
					float32(s[1]) * chf.Ch,
					float32(s[2])*sampleDist + getJitterY(i)*cs*0.1,
				}
				d := common.DistToTriMesh(pt[:], verts, scratch.tris, len(scratch.tris)/4)
				if d < 0 {
					continue // did not hit the mesh.
				}
				if d > bestd {
					bestd = d
					besti = i
					bestpt = pt
				}
			}
			// If the max error is within accepted threshold, stop tesselating.
			if bestd <= sampleMaxError || besti == -1 {
				break
			}
			// Mark sample as added.
			samples[besti*4+3] = 1
			// Add the new sample point.
			copy(verts[nverts*3:nverts*3+3], bestpt[:])
			nverts++

			// Create new triangulation.
			scratch.tris, scratch.edges = delaunayHull(ctx, nverts, verts, nhull, hull[:], scratch.tris, scratch.edges)
		}
	}

	ntris := len(scratch.tris) / 4
	if ntris > MAX_TRIS {
		scratch.tris = scratch.tris[:MAX_TRIS*4]
		ctx.Log(RC_LOG_ERROR, "rcBuildPolyMeshDetail: shrinking triangle count", zap.Int("tris", ntris), zap.Int("max", MAX_TRIS))
	}
	return nverts
}

func seedArrayWithPolyCenter(ctx *RcContext, chf *RcCompactHeightfield, poly []int, npoly int, verts []int, bs int, hp *rcHeightPatch, array []int) []int {
	// Note: Reads to the compact heightfield are offset by border size (bs)
	// since border size offset is already removed from the polymesh vertices.
	offset := [9 * 2]int{0, 0, -1, -1, 0, -1, 1, -1, 1, 0, 1, 1, 0, 1, -1, 1, -1, 0}

	// Find cell closest to a poly vertex
	startCellX, startCellY, startSpanIndex := 0, 0, -1
	dmin := RC_UNSET_HEIGHT
	for j := 0; j < npoly && dmin > 0; j++ {
		for k := 0; k < 9 && dmin > 0; k++ {
			ax := verts[poly[j]*3+0] + offset[k*2+0]
			ay := verts[poly[j]*3+1]
			az := verts[poly[j]*3+2] + offset[k*2+1]
			if ax < hp.xmin || ax >= hp.xmin+hp.width || az < hp.ymin || az >= hp.ymin+hp.height {
				continue
			}
			c := &chf.Cells[(ax+bs)+(az+bs)*chf.Width]
			for i, ni := c.Index, c.Index+c.Count; i < ni && dmin > 0; i++ {
				s := &chf.Spans[i]
				d := common.Abs(ay - s.Y)
				if d < dmin {
					startCellX = ax
					startCellY = az
					startSpanIndex = i
					dmin = d
				}
			}
		}
	}
	if startSpanIndex == -1 {
		ctx.Log(RC_LOG_WARNING, "seedArrayWithPolyCenter: no span near polygon vertices")
		return array[:0]
	}

	// Find center of the polygon
	pcx, pcy := 0, 0
	for j := 0; j < npoly; j++ {
		pcx += verts[poly[j]*3+0]
		pcy += verts[poly[j]*3+2]
	}
	pcx /= npoly
	pcy /= npoly

	array = append(array[:0], startCellX, startCellY, startSpanIndex)

	dirs := [4]int{0, 1, 2, 3}
	for i := range hp.data[:hp.width*hp.height] {
		hp.data[i] = 0
	}
	// DFS to move to the center. Note that we need a DFS here and can not just move
	// directly towards the center without recording intermediate nodes, even though the polygons
	// are convex. In very rare we can get stuck due to contour simplification if we do not
	// record nodes.
	cx, cy, ci := startCellX, startCellY, startSpanIndex
	for {
		if len(array) < 3 {
			ctx.Log(RC_LOG_WARNING, "Walk towards polygon center failed to reach center")
			break
		}
		n := len(array)
		cx, cy, ci = array[n-3], array[n-2], array[n-1]
		array = array[:n-3]

		// Check if close to center of the polygon.
		if cx == pcx && cy == pcy {
			break
		}

		// If we are already at the correct X-position, prefer direction
		// directly towards the center in the Y-axis; otherwise prefer
		// direction in the X-axis
		var directDir int
		if cx == pcx {
			if pcy > cy {
				directDir = common.GetDirForOffset(0, 1)
			} else {
				directDir = common.GetDirForOffset(0, -1)
			}
		} else if pcx > cx {
			directDir = common.GetDirForOffset(1, 0)
		} else {
			directDir = common.GetDirForOffset(-1, 0)
		}

		// Push the direct dir last so we start with this on next iteration
		dirs[directDir], dirs[3] = dirs[3], dirs[directDir]

		cs := &chf.Spans[ci]
		for i := 0; i < 4; i++ {
			dir := dirs[i]
			if RcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			newX := cx + common.GetDirOffsetX(dir)
			newY := cy + common.GetDirOffsetY(dir)

			hpx := newX - hp.xmin
			hpy := newY - hp.ymin
			if hpx < 0 || hpx >= hp.width || hpy < 0 || hpy >= hp.height {
				continue
			}
			if hp.data[hpx+hpy*hp.width] != 0 {
				continue
			}
			hp.data[hpx+hpy*hp.width] = 1
			array = append(array, newX, newY, chf.Cells[(newX+bs)+(newY+bs)*chf.Width].Index+RcGetCon(cs, dir))
		}

		dirs[directDir], dirs[3] = dirs[3], dirs[directDir]
	}

	// getHeightData seeds are given in coordinates with borders
	array = append(array[:0], cx+bs, cy+bs, ci)

	for i := range hp.data[:hp.width*hp.height] {
		hp.data[i] = RC_UNSET_HEIGHT
	}
	hp.data[cx-hp.xmin+(cy-hp.ymin)*hp.width] = chf.Spans[ci].Y
	return array
}

func getHeightData(ctx *RcContext, chf *RcCompactHeightfield, poly []int, npoly int, verts []int, bs int, hp *rcHeightPatch, queue []int, region int) []int {
	// Note: Reads to the compact heightfield are offset by border size (bs)
	// since border size offset is already removed from the polymesh vertices.
	queue = queue[:0]
	// Set all heights to RC_UNSET_HEIGHT.
	for i := range hp.data[:hp.width*hp.height] {
		hp.data[i] = RC_UNSET_HEIGHT
	}

	empty := true

	// We cannot sample from this poly if it was created from polys
	// of different regions. If it was then it could potentially be overlapping
	// with polys of that region and the heights sampled here could be wrong.
	if region != RC_MULTIPLE_REGS {
		// Copy the height from the same region, and mark region borders
		// as seed points to fill the rest.
		for hy := 0; hy < hp.height; hy++ {
			y := hp.ymin + hy + bs
			for hx := 0; hx < hp.width; hx++ {
				x := hp.xmin + hx + bs
				c := &chf.Cells[x+y*chf.Width]
				for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
					s := &chf.Spans[i]
					if s.Reg != region {
						continue
					}
					// Store height
					hp.data[hx+hy*hp.width] = s.Y
					empty = false

					// If any of the neighbours is not in same region,
					// add the current location as flood fill start
					border := false
					for dir := 0; dir < 4; dir++ {
						if RcGetCon(s, dir) != RC_NOT_CONNECTED {
							_, _, ai := chf.neighbourIndex(x, y, s, dir)
							if chf.Spans[ai].Reg != region {
								border = true
								break
							}
						}
					}
					if border {
						queue = append(queue, x, y, i)
					}
					break
				}
			}
		}
	}

	// if the polygon does not contain any points from the current region (rare, but happens)
	// or if it could potentially be overlapping polygons of the same region,
	// then use the center as the seed point.
	if empty {
		queue = seedArrayWithPolyCenter(ctx, chf, poly, npoly, verts, bs, hp, queue)
	}

	// We assume the seed is centered in the polygon, so a BFS to collect
	// height data will ensure we do not move onto overlapping polygons and
	// sample wrong heights.
	for head := 0; head*3 < len(queue); head++ {
		cx := queue[head*3+0]
		cy := queue[head*3+1]
		ci := queue[head*3+2]

		cs := &chf.Spans[ci]
		for dir := 0; dir < 4; dir++ {
			if RcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax := cx + common.GetDirOffsetX(dir)
			ay := cy + common.GetDirOffsetY(dir)
			hx := ax - hp.xmin - bs
			hy := ay - hp.ymin - bs

			if hx < 0 || hx >= hp.width || hy < 0 || hy >= hp.height {
				continue
			}
			if hp.data[hx+hy*hp.width] != RC_UNSET_HEIGHT {
				continue
			}

			ai := chf.Cells[ax+ay*chf.Width].Index + RcGetCon(cs, dir)
			hp.data[hx+hy*hp.width] = chf.Spans[ai].Y
			queue = append(queue, ax, ay, ai)
		}
	}
	return queue
}

func getEdgeFlags(va, vb, vpoly []float32, npoly int) uint8 {
	// The flag returned by this function matches dtDetailTriEdgeFlags in Detour.
	// Figure out if edge (va,vb) is part of the polygon boundary.
	const thrSqr = 0.001 * 0.001
	for i, j := 0, npoly-1; i < npoly; j, i = i, i+1 {
		pj := common.GetVert3(vpoly, j)
		pi := common.GetVert3(vpoly, i)
		if common.DistancePtSeg2d(va, pj, pi) < thrSqr && common.DistancePtSeg2d(vb, pj, pi) < thrSqr {
			return DETAIL_EDGE_BOUNDARY
		}
	}
	return 0
}

func getTriFlags(va, vb, vc, vpoly []float32, npoly int) uint8 {
	var flags uint8
	flags |= getEdgeFlags(va, vb, vpoly, npoly) << 0
	flags |= getEdgeFlags(vb, vc, vpoly, npoly) << 2
	flags |= getEdgeFlags(vc, va, vpoly, npoly) << 4
	return flags
}

// / Builds a detail mesh from the provided polygon mesh.
// /  @param[in]		mesh			A fully built polygon mesh.
// /  @param[in]		chf				The compact heightfield used to build the polygon mesh.
// /  @param[in]		sampleDist		Sets the distance to use when sampling the heightfield. [Limit: >=0] [Units: wu]
// /  @param[in]		sampleMaxError	The maximum distance the detail mesh surface should deviate
// /  								from heightfield data. [Limit: >=0] [Units: wu]
// /  @returns The resulting detail mesh.
func RcBuildPolyMeshDetail(ctx *RcContext, mesh *RcPolyMesh, chf *RcCompactHeightfield, sampleDist, sampleMaxError float32) (*RcPolyMeshDetail, error) {
	if mesh == nil || chf == nil {
		return nil, ErrInvalidParam
	}
	ctx.StartTimer(RC_TIMER_BUILD_POLYMESHDETAIL)
	defer ctx.StopTimer(RC_TIMER_BUILD_POLYMESHDETAIL)

	dmesh := &RcPolyMeshDetail{}
	if mesh.NVerts == 0 || mesh.NPolys == 0 {
		return dmesh, nil
	}

	nvp := mesh.Nvp
	cs := mesh.Cs
	ch := mesh.Ch
	orig := mesh.Bmin
	borderSize := mesh.BorderSize
	heightSearchRadius := max(1, int(math.Ceil(float64(mesh.MaxEdgeError))))

	var scratch polyDetailScratch
	var hp rcHeightPatch
	var queue []int
	nPolyVerts := 0
	maxhw, maxhh := 0, 0

	bounds := make([]int, mesh.NPolys*4)
	poly := make([]float32, nvp*3)

	// Find max size for a polygon area.
	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)
		xmin, xmax, zmin, zmax := chf.Width, 0, chf.Height, 0
		for j := 0; j < nvp; j++ {
			if p[j] == RC_MESH_NULL_IDX {
				break
			}
			v := mesh.Verts[p[j]*3:]
			xmin = min(xmin, v[0])
			xmax = max(xmax, v[0])
			zmin = min(zmin, v[2])
			zmax = max(zmax, v[2])
			nPolyVerts++
		}
		xmin = max(0, xmin-1)
		xmax = min(chf.Width, xmax+1)
		zmin = max(0, zmin-1)
		zmax = min(chf.Height, zmax+1)
		bounds[i*4+0], bounds[i*4+1], bounds[i*4+2], bounds[i*4+3] = xmin, xmax, zmin, zmax
		if xmin >= xmax || zmin >= zmax {
			continue
		}
		maxhw = max(maxhw, xmax-xmin)
		maxhh = max(maxhh, zmax-zmin)
	}

	hp.data = make([]int, maxhw*maxhh)

	dmesh.NMeshes = mesh.NPolys
	dmesh.Meshes = make([]int, dmesh.NMeshes*4)

	vcap := nPolyVerts + nPolyVerts/2
	tcap := vcap * 2
	dmesh.Verts = make([]float32, 0, vcap*3)
	dmesh.Tris = make([]uint8, 0, tcap*4)

	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)

		// Store polygon vertices for processing.
		npoly := 0
		for j := 0; j < nvp; j++ {
			if p[j] == RC_MESH_NULL_IDX {
				break
			}
			v := mesh.Verts[p[j]*3:]
			poly[j*3+0] = float32(v[0]) * cs
			poly[j*3+1] = float32(v[1]) * ch
			poly[j*3+2] = float32(v[2]) * cs
			npoly++
		}

		// Get the height data from the area of the polygon.
		hp.xmin = bounds[i*4+0]
		hp.ymin = bounds[i*4+2]
		hp.width = bounds[i*4+1] - bounds[i*4+0]
		hp.height = bounds[i*4+3] - bounds[i*4+2]
		if hp.width <= 0 || hp.height <= 0 {
			ctx.Log(RC_LOG_ERROR, "rcBuildPolyMeshDetail: empty polygon bounds", zap.Int("poly", i))
			return nil, ErrBuildFailed
		}
		queue = getHeightData(ctx, chf, p, npoly, mesh.Verts, borderSize, &hp, queue, mesh.Regs[i])

		// Build detail mesh.
		nverts := buildPolyDetail(ctx, poly, npoly, sampleDist, sampleMaxError, heightSearchRadius, chf, &hp, &scratch)
		verts := scratch.verts[:nverts*3]

		// Move detail verts to world space.
		for j := 0; j < nverts; j++ {
			verts[j*3+0] += orig[0]
			verts[j*3+1] += orig[1] + chf.Ch // Is this offset necessary?
			verts[j*3+2] += orig[2]
		}
		// Offset poly too, will be used to flag checking.
		for j := 0; j < npoly; j++ {
			poly[j*3+0] += orig[0]
			poly[j*3+1] += orig[1]
			poly[j*3+2] += orig[2]
		}

		// Store detail submesh.
		tris := scratch.tris
		ntris := len(tris) / 4

		dmesh.Meshes[i*4+0] = dmesh.NVerts
		dmesh.Meshes[i*4+1] = nverts
		dmesh.Meshes[i*4+2] = dmesh.NTris
		dmesh.Meshes[i*4+3] = ntris

		dmesh.Verts = append(dmesh.Verts, verts...)
		dmesh.NVerts += nverts

		for j := 0; j < ntris; j++ {
			t := tris[j*4:]
			if t[0] > 0xff || t[1] > 0xff || t[2] > 0xff {
				ctx.Log(RC_LOG_ERROR, "rcBuildPolyMeshDetail: triangle index overflow", zap.Int("poly", i))
				return nil, ErrDetailMeshOverrun
			}
			dmesh.Tris = append(dmesh.Tris,
				uint8(t[0]), uint8(t[1]), uint8(t[2]),
				getTriFlags(common.GetVert3(verts, t[0]), common.GetVert3(verts, t[1]), common.GetVert3(verts, t[2]), poly, npoly))
			dmesh.NTris++
		}
	}
	return dmesh, nil
}
