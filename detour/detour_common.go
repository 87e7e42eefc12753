package detour

import (
	"math"

	"github.com/gorustyt/gonavtile/common"
)

func dtDistancePtSegSqr2D(pt, p, q []float32) (t, distSqr float32) {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t = pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	t = common.Clamp(t, 0, 1)
	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return t, dx*dx + dz*dz
}

func dtVlerp(dest, v1, v2 []float32, t float32) {
	dest[0] = v1[0] + (v2[0]-v1[0])*t
	dest[1] = v1[1] + (v2[1]-v1[1])*t
	dest[2] = v1[2] + (v2[2]-v1[2])*t
}

func dtClosestHeightPointTriangle(p, a, b, c []float32) (h float32, ok bool) {
	const EPS = 1e-6
	var v0, v1, v2 [3]float32
	common.Vsub(v0[:], c, a)
	common.Vsub(v1[:], b, a)
	common.Vsub(v2[:], p, a)

	// Compute scaled barycentric coordinates
	denom := v0[0]*v1[2] - v0[2]*v1[0]
	if math.Abs(float64(denom)) < EPS {
		return 0, false
	}
	u := v1[2]*v2[0] - v1[0]*v2[2]
	v := v0[0]*v2[2] - v0[2]*v2[0]

	if denom < 0 {
		denom = -denom
		u = -u
		v = -v
	}

	// If point lies inside the triangle, return interpolated ycoord.
	if u >= 0.0 && v >= 0.0 && (u+v) <= denom {
		return a[1] + (v0[1]*u+v1[1]*v)/denom, true
	}
	return 0, false
}

// / All points are projected onto the xz-plane, so the y-values are ignored.
func dtPointInPolygon(pt, verts []float32, nverts int) bool {
	c := false
	for i, j := 0, nverts-1; i < nverts; j, i = i, i+1 {
		vi := common.GetVert3(verts, i)
		vj := common.GetVert3(verts, j)
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) &&
			(pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
	}
	return c
}

func dtOppositeTile(side int) int { return (side + 4) & 0x7 }

// / Determines if two axis-aligned bounding boxes overlap.
func dtOverlapQuantBounds(amin, amax, bmin, bmax [3]uint16) bool {
	return !(amin[0] > bmax[0] || amax[0] < bmin[0] ||
		amin[1] > bmax[1] || amax[1] < bmin[1] ||
		amin[2] > bmax[2] || amax[2] < bmin[2])
}

// / Gets the detail edge flags of edgeIndex of a detail triangle.
func dtGetDetailTriEdgeFlags(triFlags uint8, edgeIndex int) uint8 {
	return (triFlags >> (edgeIndex * 2)) & 0x3
}

func computeTileHash(x, y int, mask int) int {
	const h1 uint32 = 0x8da6b343 // Large multiplicative constants;
	const h2 uint32 = 0xd8163841 // here arbitrarily chosen primes
	n := h1*uint32(x) + h2*uint32(y)
	return int(n & uint32(mask))
}
