package recast

import (
	"github.com/gorustyt/gonavtile/common"
	"go.uber.org/zap"
)

// / Represents a polygon mesh suitable for use in building a navigation mesh.
type RcPolyMesh struct {
	Verts        []int      ///< The mesh vertices. [Form: (x, y, z) * #nverts]
	Polys        []int      ///< Polygon and neighbor data. [Length: #maxpolys * 2 * #nvp]
	Regs         []int      ///< The region id assigned to each polygon. [Length: #maxpolys]
	Flags        []uint16   ///< The user defined flags for each polygon. [Length: #maxpolys]
	Areas        []uint8    ///< The area id assigned to each polygon. [Length: #maxpolys]
	NVerts       int        ///< The number of vertices.
	NPolys       int        ///< The number of polygons.
	MaxPolys     int        ///< The number of allocated polygons.
	Nvp          int        ///< The maximum number of vertices per polygon.
	Bmin         [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax         [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs           float32    ///< The size of each cell. (On the xz-plane.)
	Ch           float32    ///< The height of each cell. (The minimum increment along the y-axis.)
	BorderSize   int        ///< The AABB border size used to generate the source data from which the mesh was derived.
	MaxEdgeError float32    ///< The max error of the polygon edges in the mesh.
}

// Poly returns the 2*Nvp entries (vertex indices then neighbours) of polygon i.
func (mesh *RcPolyMesh) Poly(i int) []int {
	return mesh.Polys[i*2*mesh.Nvp : (i+1)*2*mesh.Nvp]
}

const (
	VERTEX_BUCKET_COUNT = 1 << 12

	removableFlag = 0x80000000
	indexMask     = 0x0fffffff
)

type rcEdge struct {
	vert     [2]int
	polyEdge [2]int
	poly     [2]int
}

func buildMeshAdjacency(polys []int, npolys, nverts, vertsPerPoly int) {
	// Based on code by Eric Lengyel from:
	// https://web.archive.org/web/20080704083314/http://www.terathon.com/code/edges.php
	maxEdgeCount := npolys * vertsPerPoly
	firstEdge := make([]int, nverts+maxEdgeCount)
	nextEdge := firstEdge[nverts:]
	edgeCount := 0

	edges := make([]rcEdge, maxEdgeCount)

	for i := 0; i < nverts; i++ {
		firstEdge[i] = -1
	}

	edgeVerts := func(t []int, j int) (v0, v1 int) {
		v0 = t[j]
		if j+1 >= vertsPerPoly || t[j+1] == RC_MESH_NULL_IDX {
			return v0, t[0]
		}
		return v0, t[j+1]
	}

	for i := 0; i < npolys; i++ {
		t := polys[i*vertsPerPoly*2:]
		for j := 0; j < vertsPerPoly; j++ {
			if t[j] == RC_MESH_NULL_IDX {
				break
			}
			v0, v1 := edgeVerts(t, j)
			if v0 < v1 {
				edge := &edges[edgeCount]
				edge.vert = [2]int{v0, v1}
				edge.poly = [2]int{i, i}
				edge.polyEdge = [2]int{j, 0}
				// Insert edge
				nextEdge[edgeCount] = firstEdge[v0]
				firstEdge[v0] = edgeCount
				edgeCount++
			}
		}
	}

	for i := 0; i < npolys; i++ {
		t := polys[i*vertsPerPoly*2:]
		for j := 0; j < vertsPerPoly; j++ {
			if t[j] == RC_MESH_NULL_IDX {
				break
			}
			v0, v1 := edgeVerts(t, j)
			if v0 > v1 {
				for e := firstEdge[v1]; e != -1; e = nextEdge[e] {
					edge := &edges[e]
					if edge.vert[1] == v0 && edge.poly[0] == edge.poly[1] {
						edge.poly[1] = i
						edge.polyEdge[1] = j
						break
					}
				}
			}
		}
	}

	// Store adjacency
	for i := 0; i < edgeCount; i++ {
		e := &edges[i]
		if e.poly[0] != e.poly[1] {
			p0 := polys[e.poly[0]*vertsPerPoly*2:]
			p1 := polys[e.poly[1]*vertsPerPoly*2:]
			p0[vertsPerPoly+e.polyEdge[0]] = e.poly[1]
			p1[vertsPerPoly+e.polyEdge[1]] = e.poly[0]
		}
	}
}

func computeVertexHash(x, y, z int) int {
	const h1 uint32 = 0x8da6b343 // Large multiplicative constants;
	const h2 uint32 = 0xd8163841 // here arbitrarily chosen primes
	const h3 uint32 = 0xcb1ab31f
	n := h1*uint32(x) + h2*uint32(y) + h3*uint32(z)
	return int(n & (VERTEX_BUCKET_COUNT - 1))
}

func addVertex(x, y, z int, verts, firstVert, nextVert []int, nv *int) int {
	bucket := computeVertexHash(x, 0, z)
	i := firstVert[bucket]

	for i != -1 {
		v := verts[i*3:]
		if v[0] == x && common.Abs(v[1]-y) <= 2 && v[2] == z {
			return i
		}
		i = nextVert[i] // next
	}

	// Could not find, create new.
	i = *nv
	*nv++
	v := verts[i*3:]
	v[0] = x
	v[1] = y
	v[2] = z
	nextVert[i] = firstVert[bucket]
	firstVert[bucket] = i
	return i
}

func contourVert(verts, indices []int, i int) []int {
	return common.GetVert4(verts, indices[i]&indexMask)
}

// Returns true iff (v_i, v_j) is a proper internal *or* external
// diagonal of P, *ignoring edges incident to v_i and v_j*.
func diagonalie(i, j, n int, verts, indices []int) bool {
	d0 := contourVert(verts, indices, i)
	d1 := contourVert(verts, indices, j)

	// For each edge (k,k+1) of P
	for k := 0; k < n; k++ {
		k1 := common.Next(k, n)
		// Skip edges incident to i or j
		if k == i || k1 == i || k == j || k1 == j {
			continue
		}
		p0 := contourVert(verts, indices, k)
		p1 := contourVert(verts, indices, k1)
		if common.Vequal2D(d0, p0) || common.Vequal2D(d1, p0) || common.Vequal2D(d0, p1) || common.Vequal2D(d1, p1) {
			continue
		}
		if common.Intersect(d0, d1, p0, p1) {
			return false
		}
	}
	return true
}

// Returns true iff the diagonal (i,j) is strictly internal to the
// polygon P in the neighborhood of the i endpoint.
func inCone(i, j, n int, verts, indices []int) bool {
	pi := contourVert(verts, indices, i)
	pj := contourVert(verts, indices, j)
	pi1 := contourVert(verts, indices, common.Next(i, n))
	pin1 := contourVert(verts, indices, common.Prev(i, n))

	// If P[i] is a convex vertex [ i+1 left or on (i-1,i) ].
	if common.LeftOn(pin1, pi, pi1) {
		return common.Left(pi, pj, pin1) && common.Left(pj, pi, pi1)
	}
	// Assume (i-1,i,i+1) not collinear.
	// else P[i] is reflex.
	return !(common.LeftOn(pi, pj, pi1) && common.LeftOn(pj, pi, pin1))
}

// Returns true iff (v_i, v_j) is a proper internal
// diagonal of P.
func diagonal(i, j, n int, verts, indices []int) bool {
	return inCone(i, j, n, verts, indices) && diagonalie(i, j, n, verts, indices)
}

func diagonalieLoose(i, j, n int, verts, indices []int) bool {
	d0 := contourVert(verts, indices, i)
	d1 := contourVert(verts, indices, j)

	// For each edge (k,k+1) of P
	for k := 0; k < n; k++ {
		k1 := common.Next(k, n)
		// Skip edges incident to i or j
		if k == i || k1 == i || k == j || k1 == j {
			continue
		}
		p0 := contourVert(verts, indices, k)
		p1 := contourVert(verts, indices, k1)
		if common.Vequal2D(d0, p0) || common.Vequal2D(d1, p0) || common.Vequal2D(d0, p1) || common.Vequal2D(d1, p1) {
			continue
		}
		if common.IntersectProp(d0, d1, p0, p1) {
			return false
		}
	}
	return true
}

func inConeLoose(i, j, n int, verts, indices []int) bool {
	pi := contourVert(verts, indices, i)
	pj := contourVert(verts, indices, j)
	pi1 := contourVert(verts, indices, common.Next(i, n))
	pin1 := contourVert(verts, indices, common.Prev(i, n))

	// If P[i] is a convex vertex [ i+1 left or on (i-1,i) ].
	if common.LeftOn(pin1, pi, pi1) {
		return common.LeftOn(pi, pj, pin1) && common.LeftOn(pj, pi, pi1)
	}
	// Assume (i-1,i,i+1) not collinear.
	// else P[i] is reflex.
	return !(common.LeftOn(pi, pj, pi1) && common.LeftOn(pj, pi, pin1))
}

func diagonalLoose(i, j, n int, verts, indices []int) bool {
	return inConeLoose(i, j, n, verts, indices) && diagonalieLoose(i, j, n, verts, indices)
}

// triangulate ear-clips the polygon described by indices into verts (stride 4).
// A negative result means the triangulation failed after -n triangles.
func triangulate(n int, verts, indices, tris []int) int {
	ntris := 0
	dst := 0

	// The last bit of the index is used to indicate if the vertex can be removed.
	for i := 0; i < n; i++ {
		i1 := common.Next(i, n)
		i2 := common.Next(i1, n)
		if diagonal(i, i2, n, verts, indices) {
			indices[i1] |= removableFlag
		}
	}

	for n > 3 {
		minLen := -1
		mini := -1
		for i := 0; i < n; i++ {
			i1 := common.Next(i, n)
			if indices[i1]&removableFlag != 0 {
				p0 := contourVert(verts, indices, i)
				p2 := contourVert(verts, indices, common.Next(i1, n))

				dx := p2[0] - p0[0]
				dz := p2[2] - p0[2]
				length := dx*dx + dz*dz
				if minLen < 0 || length < minLen {
					minLen = length
					mini = i
				}
			}
		}

		if mini == -1 {
			// We might get here because the contour has overlapping segments, like this:
			//
			//  A o-o=====o---o B
			//   /  |C   D|    \.
			//  o   o     o     o
			//  :   :     :     :
			// We'll try to recover by loosing up the inCone test a bit so that a diagonal
			// like A-B or C-D can be found and we can continue.
			minLen = -1
			mini = -1
			for i := 0; i < n; i++ {
				i1 := common.Next(i, n)
				i2 := common.Next(i1, n)
				if diagonalLoose(i, i2, n, verts, indices) {
					p0 := contourVert(verts, indices, i)
					p2 := contourVert(verts, indices, common.Next(i2, n))
					dx := p2[0] - p0[0]
					dz := p2[2] - p0[2]
					length := dx*dx + dz*dz
					if minLen < 0 || length < minLen {
						minLen = length
						mini = i
					}
				}
			}
			if mini == -1 {
				// The contour is messed up. This sometimes happens
				// if the contour simplification is too aggressive.
				return -ntris
			}
		}

		i := mini
		i1 := common.Next(i, n)
		i2 := common.Next(i1, n)

		tris[dst+0] = indices[i] & indexMask
		tris[dst+1] = indices[i1] & indexMask
		tris[dst+2] = indices[i2] & indexMask
		dst += 3
		ntris++

		// Removes P[i1] by copying P[i+1]...P[n-1] left one index.
		n--
		copy(indices[i1:n], indices[i1+1:n+1])

		if i1 >= n {
			i1 = 0
		}
		i = common.Prev(i1, n)
		// Update diagonal flags.
		if diagonal(common.Prev(i, n), i1, n, verts, indices) {
			indices[i] |= removableFlag
		} else {
			indices[i] &= indexMask
		}
		if diagonal(i, common.Next(i1, n), n, verts, indices) {
			indices[i1] |= removableFlag
		} else {
			indices[i1] &= indexMask
		}
	}

	// Append the remaining triangle.
	tris[dst+0] = indices[0] & indexMask
	tris[dst+1] = indices[1] & indexMask
	tris[dst+2] = indices[2] & indexMask
	ntris++
	return ntris
}

func countPolyVerts(p []int, nvp int) int {
	for i := 0; i < nvp; i++ {
		if p[i] == RC_MESH_NULL_IDX {
			return i
		}
	}
	return nvp
}

// getPolyMergeValue returns the squared length of the shared edge when pa and pb can be
// merged into a convex polygon, or -1.
func getPolyMergeValue(pa, pb, verts []int, nvp int) (value, ea, eb int) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	// If the merged polygon would be too big, do not merge.
	if na+nb-2 > nvp {
		return -1, -1, -1
	}

	// Check if the polygons share an edge.
	ea, eb = -1, -1
	for i := 0; i < na && ea == -1; i++ {
		va0 := pa[i]
		va1 := pa[(i+1)%na]
		if va0 > va1 {
			va0, va1 = va1, va0
		}
		for j := 0; j < nb; j++ {
			vb0 := pb[j]
			vb1 := pb[(j+1)%nb]
			if vb0 > vb1 {
				vb0, vb1 = vb1, vb0
			}
			if va0 == vb0 && va1 == vb1 {
				ea = i
				eb = j
				break
			}
		}
	}

	// No common edge, cannot merge.
	if ea == -1 || eb == -1 {
		return -1, -1, -1
	}

	// Check to see if the merged polygon would be convex.
	va := pa[(ea+na-1)%na]
	vb := pa[ea]
	vc := pb[(eb+2)%nb]
	if !common.Uleft(verts[va*3:va*3+3], verts[vb*3:vb*3+3], verts[vc*3:vc*3+3]) {
		return -1, -1, -1
	}

	va = pb[(eb+nb-1)%nb]
	vb = pb[eb]
	vc = pa[(ea+2)%na]
	if !common.Uleft(verts[va*3:va*3+3], verts[vb*3:vb*3+3], verts[vc*3:vc*3+3]) {
		return -1, -1, -1
	}

	va = pa[ea]
	vb = pa[(ea+1)%na]

	dx := verts[va*3+0] - verts[vb*3+0]
	dz := verts[va*3+2] - verts[vb*3+2]
	return dx*dx + dz*dz, ea, eb
}

func mergePolyVerts(pa, pb []int, ea, eb int, tmp []int, nvp int) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	// Merge polygons.
	for i := 0; i < nvp; i++ {
		tmp[i] = RC_MESH_NULL_IDX
	}
	n := 0
	// Add pa
	for i := 0; i < na-1; i++ {
		tmp[n] = pa[(ea+1+i)%na]
		n++
	}
	// Add pb
	for i := 0; i < nb-1; i++ {
		tmp[n] = pb[(eb+1+i)%nb]
		n++
	}
	copy(pa[:nvp], tmp[:nvp])
}

// mergePolys greedily merges the npolys polygons (stride nvp) sharing the longest
// edge until no convex merge remains, calling onMerge before the last polygon is
// moved into slot pb. It returns the new polygon count.
func mergePolys(polys []int, npolys int, verts, tmpPoly []int, nvp int, onMerge func(pa, pb, last int)) int {
	for {
		// Find best polygons to merge.
		bestMergeVal := 0
		bestPa, bestPb, bestEa, bestEb := 0, 0, 0, 0

		for j := 0; j < npolys-1; j++ {
			pj := polys[j*nvp : (j+1)*nvp]
			for k := j + 1; k < npolys; k++ {
				pk := polys[k*nvp : (k+1)*nvp]
				v, ea, eb := getPolyMergeValue(pj, pk, verts, nvp)
				if v > bestMergeVal {
					bestMergeVal = v
					bestPa = j
					bestPb = k
					bestEa = ea
					bestEb = eb
				}
			}
		}

		if bestMergeVal <= 0 {
			// Could not merge any polygons, stop.
			return npolys
		}
		// Found best, merge.
		pa := polys[bestPa*nvp : (bestPa+1)*nvp]
		pb := polys[bestPb*nvp : (bestPb+1)*nvp]
		mergePolyVerts(pa, pb, bestEa, bestEb, tmpPoly, nvp)
		if onMerge != nil {
			onMerge(bestPa, bestPb, npolys-1)
		}
		if bestPb != npolys-1 {
			copy(pb, polys[(npolys-1)*nvp:npolys*nvp])
		}
		npolys--
	}
}

func pushFront(v int, arr []int) []int {
	arr = append(arr, 0)
	copy(arr[1:], arr)
	arr[0] = v
	return arr
}

func canRemoveVertex(mesh *RcPolyMesh, rem int) bool {
	nvp := mesh.Nvp

	// Count number of polygons to remove.
	numTouchedVerts := 0
	numRemainingEdges := 0
	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)
		numRemoved := 0
		numVerts := 0
		for j := 0; j < nv; j++ {
			if p[j] == rem {
				numTouchedVerts++
				numRemoved++
			}
			numVerts++
		}
		if numRemoved != 0 {
			numRemainingEdges += numVerts - (numRemoved + 1)
		}
	}

	// There would be too few edges remaining to create a polygon.
	// This can happen for example when a tip of a triangle is marked
	// as deletion, but there are no other polys that share the vertex.
	// In this case, the vertex should not be removed.
	if numRemainingEdges <= 2 {
		return false
	}

	// Find edges which share the removed vertex.
	maxEdges := numTouchedVerts * 2
	edges := make([]int, 0, maxEdges*3)

	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)

		// Collect edges which touches the removed vertex.
		for j, k := 0, nv-1; j < nv; k, j = j, j+1 {
			if p[j] != rem && p[k] != rem {
				continue
			}
			// Arrange edge so that a=rem.
			a, b := p[j], p[k]
			if b == rem {
				a, b = b, a
			}
			// Check if the edge exists
			exists := false
			for m := 0; m < len(edges); m += 3 {
				if edges[m+1] == b {
					// Exists, increment vertex share count.
					edges[m+2]++
					exists = true
				}
			}
			// Add new edge.
			if !exists {
				edges = append(edges, a, b, 1)
			}
		}
	}

	// There should be no more than 2 open edges.
	// This catches the case that two non-adjacent polygons
	// share the removed vertex. In that case, do not remove the vertex.
	numOpenEdges := 0
	for i := 0; i < len(edges); i += 3 {
		if edges[i+2] < 2 {
			numOpenEdges++
		}
	}
	return numOpenEdges <= 2
}

func removeVertex(ctx *RcContext, mesh *RcPolyMesh, rem, maxTris int) error {
	nvp := mesh.Nvp

	// Count number of polygons to remove.
	numRemovedVerts := 0
	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)
		for j := 0; j < nv; j++ {
			if p[j] == rem {
				numRemovedVerts++
			}
		}
	}

	edges := make([]int, 0, numRemovedVerts*nvp*4)
	hole := make([]int, 0, numRemovedVerts*nvp)
	hreg := make([]int, 0, numRemovedVerts*nvp)
	harea := make([]int, 0, numRemovedVerts*nvp)

	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)
		hasRem := false
		for j := 0; j < nv; j++ {
			if p[j] == rem {
				hasRem = true
			}
		}
		if !hasRem {
			continue
		}
		// Collect edges which does not touch the removed vertex.
		for j, k := 0, nv-1; j < nv; k, j = j, j+1 {
			if p[j] != rem && p[k] != rem {
				edges = append(edges, p[k], p[j], mesh.Regs[i], int(mesh.Areas[i]))
			}
		}
		// Remove the polygon.
		last := mesh.NPolys - 1
		if i != last {
			copy(p[:nvp], mesh.Poly(last)[:nvp])
		}
		for j := nvp; j < nvp*2; j++ {
			p[j] = RC_MESH_NULL_IDX
		}
		mesh.Regs[i] = mesh.Regs[last]
		mesh.Areas[i] = mesh.Areas[last]
		mesh.NPolys--
		i--
	}

	// Remove vertex.
	copy(mesh.Verts[rem*3:(mesh.NVerts-1)*3], mesh.Verts[(rem+1)*3:mesh.NVerts*3])
	mesh.NVerts--

	// Adjust indices to match the removed vertex layout.
	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)
		for j := 0; j < nv; j++ {
			if p[j] > rem {
				p[j]--
			}
		}
	}
	for i := 0; i < len(edges); i += 4 {
		if edges[i+0] > rem {
			edges[i+0]--
		}
		if edges[i+1] > rem {
			edges[i+1]--
		}
	}

	if len(edges) == 0 {
		return nil
	}

	// Start with one vertex, keep appending connected
	// segments to the start and end of the hole.
	hole = append(hole, edges[0])
	hreg = append(hreg, edges[2])
	harea = append(harea, edges[3])

	for len(edges) > 0 {
		match := false
		for i := 0; i < len(edges); i += 4 {
			ea := edges[i+0]
			eb := edges[i+1]
			r := edges[i+2]
			a := edges[i+3]
			add := false
			if hole[0] == eb {
				// The segment matches the beginning of the hole boundary.
				hole = pushFront(ea, hole)
				hreg = pushFront(r, hreg)
				harea = pushFront(a, harea)
				add = true
			} else if hole[len(hole)-1] == ea {
				// The segment matches the end of the hole boundary.
				hole = append(hole, eb)
				hreg = append(hreg, r)
				harea = append(harea, a)
				add = true
			}
			if add {
				// The edge segment was added, remove it.
				n := len(edges)
				copy(edges[i:i+4], edges[n-4:n])
				edges = edges[:n-4]
				match = true
				i -= 4
			}
		}
		if !match {
			break
		}
	}

	nhole := len(hole)
	tris := make([]int, nhole*3)
	tverts := make([]int, nhole*4)
	thole := make([]int, nhole)

	// Generate temp vertex array for triangulation.
	for i := 0; i < nhole; i++ {
		pi := hole[i]
		tverts[i*4+0] = mesh.Verts[pi*3+0]
		tverts[i*4+1] = mesh.Verts[pi*3+1]
		tverts[i*4+2] = mesh.Verts[pi*3+2]
		tverts[i*4+3] = 0
		thole[i] = i
	}

	// Triangulate the hole.
	ntris := triangulate(nhole, tverts, thole, tris)
	if ntris < 0 {
		ntris = -ntris
		ctx.Log(RC_LOG_WARNING, "removeVertex: triangulate() returned bad results")
	}

	// Merge the hole triangles back to polygons.
	polys := make([]int, (ntris+1)*nvp)
	pregs := make([]int, ntris)
	pareas := make([]uint8, ntris)
	tmpPoly := polys[ntris*nvp:]

	// Build initial polygons.
	npolys := 0
	for i := range polys[:ntris*nvp] {
		polys[i] = RC_MESH_NULL_IDX
	}
	for j := 0; j < ntris; j++ {
		t := tris[j*3:]
		if t[0] != t[1] && t[0] != t[2] && t[1] != t[2] {
			polys[npolys*nvp+0] = hole[t[0]]
			polys[npolys*nvp+1] = hole[t[1]]
			polys[npolys*nvp+2] = hole[t[2]]

			// If this polygon covers multiple region types then
			// mark it as such
			if hreg[t[0]] != hreg[t[1]] || hreg[t[1]] != hreg[t[2]] {
				pregs[npolys] = RC_MULTIPLE_REGS
			} else {
				pregs[npolys] = hreg[t[0]]
			}
			pareas[npolys] = uint8(harea[t[0]])
			npolys++
		}
	}
	if npolys == 0 {
		return nil
	}

	// Merge polygons.
	if nvp > 3 {
		npolys = mergePolys(polys, npolys, mesh.Verts, tmpPoly, nvp, func(pa, pb, last int) {
			if pregs[pa] != pregs[pb] {
				pregs[pa] = RC_MULTIPLE_REGS
			}
			pregs[pb] = pregs[last]
			pareas[pb] = pareas[last]
		})
	}

	// Store polygons.
	for i := 0; i < npolys; i++ {
		if mesh.NPolys >= maxTris {
			break
		}
		p := mesh.Poly(mesh.NPolys)
		for j := range p {
			p[j] = RC_MESH_NULL_IDX
		}
		copy(p[:nvp], polys[i*nvp:(i+1)*nvp])
		mesh.Regs[mesh.NPolys] = pregs[i]
		mesh.Areas[mesh.NPolys] = pareas[i]
		mesh.NPolys++
		if mesh.NPolys > maxTris {
			ctx.Log(RC_LOG_ERROR, "removeVertex: too many polygons", zap.Int("polys", mesh.NPolys), zap.Int("max", maxTris))
			return ErrBuildFailed
		}
	}
	return nil
}

// / Builds a polygon mesh from the provided contours.
// /
// /  @param[in]		cset	A fully built contour set.
// /  @param[in]		nvp		The maximum number of vertices allowed for polygons generated during the
// /  						contour to polygon conversion process. [Limit: >= 3]
// /  @returns The resulting polygon mesh.
// /
// / @note If the mesh data is to be used to construct a Detour navigation mesh, then the upper
// / limit must be retricted to <= #DT_VERTS_PER_POLYGON.
func RcBuildPolyMesh(ctx *RcContext, cset *RcContourSet, nvp int) (*RcPolyMesh, error) {
	if cset == nil || nvp < 3 {
		return nil, ErrInvalidParam
	}
	ctx.StartTimer(RC_TIMER_BUILD_POLYMESH)
	defer ctx.StopTimer(RC_TIMER_BUILD_POLYMESH)

	mesh := &RcPolyMesh{
		Bmin:         cset.Bmin,
		Bmax:         cset.Bmax,
		Cs:           cset.Cs,
		Ch:           cset.Ch,
		BorderSize:   cset.BorderSize,
		MaxEdgeError: cset.MaxError,
		Nvp:          nvp,
	}

	maxVertices := 0
	maxTris := 0
	maxVertsPerCont := 0
	for i := 0; i < cset.NConts; i++ {
		// Skip null contours.
		if cset.Conts[i].NVerts < 3 {
			continue
		}
		maxVertices += cset.Conts[i].NVerts
		maxTris += cset.Conts[i].NVerts - 2
		maxVertsPerCont = max(maxVertsPerCont, cset.Conts[i].NVerts)
	}

	if maxVertices >= 0xfffe {
		ctx.Log(RC_LOG_ERROR, "rcBuildPolyMesh: too many vertices", zap.Int("verts", maxVertices))
		return nil, ErrTooManyVertices
	}

	vflags := make([]bool, maxVertices)

	mesh.Verts = make([]int, maxVertices*3)
	mesh.Polys = make([]int, maxTris*nvp*2)
	mesh.Regs = make([]int, maxTris)
	mesh.Areas = make([]uint8, maxTris)
	mesh.MaxPolys = maxTris

	for i := range mesh.Polys {
		mesh.Polys[i] = RC_MESH_NULL_IDX
	}

	nextVert := make([]int, maxVertices)
	firstVert := make([]int, VERTEX_BUCKET_COUNT)
	for i := range firstVert {
		firstVert[i] = -1
	}

	indices := make([]int, maxVertsPerCont)
	tris := make([]int, maxVertsPerCont*3)
	polys := make([]int, (maxVertsPerCont+1)*nvp)
	tmpPoly := polys[maxVertsPerCont*nvp:]

	for i := 0; i < cset.NConts; i++ {
		cont := &cset.Conts[i]

		// Skip null contours.
		if cont.NVerts < 3 {
			continue
		}

		// Triangulate contour
		for j := 0; j < cont.NVerts; j++ {
			indices[j] = j
		}

		ntris := triangulate(cont.NVerts, cont.Verts, indices, tris)
		if ntris <= 0 {
			// Bad triangulation, should not happen.
			ctx.Log(RC_LOG_WARNING, "rcBuildPolyMesh: bad triangulation", zap.Int("contour", i))
			ntris = -ntris
		}

		// Add and merge vertices.
		for j := 0; j < cont.NVerts; j++ {
			v := cont.Verts[j*4:]
			indices[j] = addVertex(v[0], v[1], v[2], mesh.Verts, firstVert, nextVert, &mesh.NVerts)
			if v[3]&RC_BORDER_VERTEX != 0 {
				// This vertex should be removed.
				vflags[indices[j]] = true
			}
		}

		// Build initial polygons.
		npolys := 0
		for j := range polys[:maxVertsPerCont*nvp] {
			polys[j] = RC_MESH_NULL_IDX
		}
		for j := 0; j < ntris; j++ {
			t := tris[j*3:]
			if t[0] != t[1] && t[0] != t[2] && t[1] != t[2] {
				polys[npolys*nvp+0] = indices[t[0]]
				polys[npolys*nvp+1] = indices[t[1]]
				polys[npolys*nvp+2] = indices[t[2]]
				npolys++
			}
		}
		if npolys == 0 {
			continue
		}

		// Merge polygons.
		if nvp > 3 {
			npolys = mergePolys(polys, npolys, mesh.Verts, tmpPoly, nvp, nil)
		}

		// Store polygons.
		for j := 0; j < npolys; j++ {
			if mesh.NPolys >= maxTris {
				ctx.Log(RC_LOG_ERROR, "rcBuildPolyMesh: too many polygons", zap.Int("polys", mesh.NPolys), zap.Int("max", maxTris))
				return nil, ErrBuildFailed
			}
			p := mesh.Poly(mesh.NPolys)
			copy(p[:nvp], polys[j*nvp:(j+1)*nvp])
			mesh.Regs[mesh.NPolys] = cont.Reg
			mesh.Areas[mesh.NPolys] = cont.Area
			mesh.NPolys++
		}
	}

	// Remove edge vertices.
	for i := 0; i < mesh.NVerts; i++ {
		if !vflags[i] {
			continue
		}
		if !canRemoveVertex(mesh, i) {
			continue
		}
		if err := removeVertex(ctx, mesh, i, maxTris); err != nil {
			// Failed to remove vertex
			ctx.Log(RC_LOG_ERROR, "rcBuildPolyMesh: failed to remove edge vertex", zap.Int("vertex", i))
			return nil, err
		}
		// Remove vertex
		// Note: mesh.NVerts is already decremented inside removeVertex()!
		// Fixup vertex flags
		copy(vflags[i:mesh.NVerts], vflags[i+1:mesh.NVerts+1])
		i--
	}

	// Calculate adjacency.
	buildMeshAdjacency(mesh.Polys, mesh.NPolys, mesh.NVerts, nvp)

	// Find portal edges
	if mesh.BorderSize > 0 {
		w := cset.Width
		h := cset.Height
		for i := 0; i < mesh.NPolys; i++ {
			p := mesh.Poly(i)
			for j := 0; j < nvp; j++ {
				if p[j] == RC_MESH_NULL_IDX {
					break
				}
				// Skip connected edges.
				if p[nvp+j] != RC_MESH_NULL_IDX {
					continue
				}
				nj := j + 1
				if nj >= nvp || p[nj] == RC_MESH_NULL_IDX {
					nj = 0
				}
				va := mesh.Verts[p[j]*3:]
				vb := mesh.Verts[p[nj]*3:]

				if va[0] == 0 && vb[0] == 0 {
					p[nvp+j] = 0x8000 | 0
				} else if va[2] == h && vb[2] == h {
					p[nvp+j] = 0x8000 | 1
				} else if va[0] == w && vb[0] == w {
					p[nvp+j] = 0x8000 | 2
				} else if va[2] == 0 && vb[2] == 0 {
					p[nvp+j] = 0x8000 | 3
				}
			}
		}
	}

	// Just allocate the mesh flags array. The user is resposible to fill it.
	mesh.Flags = make([]uint16, mesh.NPolys)
	mesh.Verts = mesh.Verts[:mesh.NVerts*3]
	mesh.Polys = mesh.Polys[:mesh.NPolys*nvp*2]
	mesh.Regs = mesh.Regs[:mesh.NPolys]
	mesh.Areas = mesh.Areas[:mesh.NPolys]
	mesh.MaxPolys = mesh.NPolys

	if mesh.NVerts > 0xffff {
		ctx.Log(RC_LOG_ERROR, "rcBuildPolyMesh: the resulting mesh has too many vertices", zap.Int("verts", mesh.NVerts))
		return nil, ErrTooManyVertices
	}
	if mesh.NPolys > 0xffff {
		ctx.Log(RC_LOG_ERROR, "rcBuildPolyMesh: the resulting mesh has too many polygons", zap.Int("polys", mesh.NPolys))
		return nil, ErrBuildFailed
	}
	return mesh, nil
}
