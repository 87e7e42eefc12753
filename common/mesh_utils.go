package common

import "math"

// Prev returns the index before i in a ring of n elements.
func Prev[T IT](i, n T) T {
	if i-1 >= 0 {
		return i - 1
	}
	return n - 1
}

// Next returns the index after i in a ring of n elements.
func Next[T IT](i, n T) T {
	if i+1 < n {
		return i + 1
	}
	return 0
}

// Area2 returns twice the signed xz area of triangle (a, b, c).
func Area2[T IT](a, b, c []T) T {
	return (b[0]-a[0])*(c[2]-a[2]) - (c[0]-a[0])*(b[2]-a[2])
}

// Returns true iff c is strictly to the left of the directed
// line through a to b.
func Left[T IT](a, b, c []T) bool {
	return Area2(a, b, c) < 0
}

func LeftOn[T IT](a, b, c []T) bool {
	return Area2(a, b, c) <= 0
}

func Collinear[T IT](a, b, c []T) bool {
	return Area2(a, b, c) == 0
}

// Exclusive or: true iff exactly one argument is true.
func Xorb(x, y bool) bool {
	return x != y
}

// Returns true iff ab properly intersects cd: they share
// a point interior to both segments.  The properness of the
// intersection is ensured by using strict leftness.
func IntersectProp[T IT](a, b, c, d []T) bool {
	// Eliminate improper cases.
	if Collinear(a, b, c) || Collinear(a, b, d) ||
		Collinear(c, d, a) || Collinear(c, d, b) {
		return false
	}
	return Xorb(Left(a, b, c), Left(a, b, d)) && Xorb(Left(c, d, a), Left(c, d, b))
}

// Returns true iff (a,b,c) are collinear and point c lies
// on the closed segement ab.
func Between[T IT](a, b, c []T) bool {
	if !Collinear(a, b, c) {
		return false
	}
	// If ab not vertical, check betweenness on x; else on z.
	if a[0] != b[0] {
		return ((a[0] <= c[0]) && (c[0] <= b[0])) || ((a[0] >= c[0]) && (c[0] >= b[0]))
	}
	return ((a[2] <= c[2]) && (c[2] <= b[2])) || ((a[2] >= c[2]) && (c[2] >= b[2]))
}

// Returns true iff segments ab and cd intersect, properly or improperly.
func Intersect[T IT](a, b, c, d []T) bool {
	if IntersectProp(a, b, c, d) {
		return true
	}
	return Between(a, b, c) || Between(a, b, d) ||
		Between(c, d, a) || Between(c, d, b)
}

// Vequal2D reports whether a and b share x and z.
func Vequal2D[T IT](a, b []T) bool {
	return a[0] == b[0] && a[2] == b[2]
}

// Uleft reports whether c is strictly left of the directed line a->b on the xz plane.
func Uleft[T IT](a, b, c []T) bool {
	return (b[0]-a[0])*(c[2]-a[2])-(c[0]-a[0])*(b[2]-a[2]) < 0
}

func Vcross2[T float64 | float32](p1, p2, p3 []T) T {
	u1 := p2[0] - p1[0]
	v1 := p2[2] - p1[2]
	u2 := p3[0] - p1[0]
	v2 := p3[2] - p1[2]
	return u1*v2 - v1*u2
}

func Vdot2[T float64 | float32](a, b []T) T {
	return a[0]*b[0] + a[2]*b[2]
}

func VdistSq2[T float64 | float32](p, q []T) T {
	dx := q[0] - p[0]
	dy := q[2] - p[2]
	return dx*dx + dy*dy
}

func Vdist2[T float64 | float32](p, q []T) T {
	return T(math.Sqrt(float64(VdistSq2(p, q))))
}

// CircumCircle computes the xz circumcircle of (p1, p2, p3) into c and returns its radius.
// It returns false for degenerate triangles.
func CircumCircle(p1, p2, p3, c []float32) (r float32, ok bool) {
	const EPS = 1e-6
	// Calculate the circle relative to p1, to avoid some precision issues.
	v1 := [3]float32{}
	var v2, v3 [3]float32
	Vsub(v2[:], p2, p1)
	Vsub(v3[:], p3, p1)

	cp := Vcross2(v1[:], v2[:], v3[:])
	if Abs(cp) > EPS {
		v1Sq := Vdot2(v1[:], v1[:])
		v2Sq := Vdot2(v2[:], v2[:])
		v3Sq := Vdot2(v3[:], v3[:])
		c[0] = (v1Sq*(v2[2]-v3[2]) + v2Sq*(v3[2]-v1[2]) + v3Sq*(v1[2]-v2[2])) / (2 * cp)
		c[1] = 0
		c[2] = (v1Sq*(v3[0]-v2[0]) + v2Sq*(v1[0]-v3[0]) + v3Sq*(v2[0]-v1[0])) / (2 * cp)
		r = Vdist2(c, v1[:])
		Vadd(c, c, p1)
		return r, true
	}
	copy(c, p1)
	return 0, false
}

// DistPtTri returns the vertical distance from p to triangle (a, b, c) when p projects
// inside it, or math.MaxFloat32 otherwise.
func DistPtTri(p, a, b, c []float32) float32 {
	var v0, v1, v2 [3]float32
	Vsub(v0[:], c, a)
	Vsub(v1[:], b, a)
	Vsub(v2[:], p, a)

	dot00 := Vdot2(v0[:], v0[:])
	dot01 := Vdot2(v0[:], v1[:])
	dot02 := Vdot2(v0[:], v2[:])
	dot11 := Vdot2(v1[:], v1[:])
	dot12 := Vdot2(v1[:], v2[:])

	// Compute barycentric coordinates
	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	// If point lies inside the triangle, return interpolated y-coord.
	const EPS = 1e-4
	if u >= -EPS && v >= -EPS && (u+v) <= 1+EPS {
		y := a[1] + v0[1]*u + v1[1]*v
		return Abs(y - p[1])
	}
	return math.MaxFloat32
}

// DistancePtSeg returns the squared distance from pt to segment pq.
func DistancePtSeg[T float64 | float32](pt, p, q []T) T {
	pqx := q[0] - p[0]
	pqy := q[1] - p[1]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dy := pt[1] - p[1]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqy*pqy + pqz*pqz
	t := pqx*dx + pqy*dy + pqz*dz
	if d > 0 {
		t /= d
	}
	t = Clamp(t, 0, 1)

	dx = p[0] + t*pqx - pt[0]
	dy = p[1] + t*pqy - pt[1]
	dz = p[2] + t*pqz - pt[2]
	return dx*dx + dy*dy + dz*dz
}

// DistancePtSeg2d returns the squared xz distance from pt to segment pq.
func DistancePtSeg2d[T float64 | float32](pt, p, q []T) T {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t := pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	t = Clamp(t, 0, 1)

	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return dx*dx + dz*dz
}

// DistToTriMesh returns the smallest vertical distance from p to the triangles
// (stride 4), or -1 when p projects onto none of them.
func DistToTriMesh(p, verts []float32, tris []int, ntris int) float32 {
	dmin := float32(math.MaxFloat32)
	for i := 0; i < ntris; i++ {
		va := GetVert3(verts, tris[i*4+0])
		vb := GetVert3(verts, tris[i*4+1])
		vc := GetVert3(verts, tris[i*4+2])
		d := DistPtTri(p, va, vb, vc)
		if d < dmin {
			dmin = d
		}
	}
	if dmin == math.MaxFloat32 {
		return -1
	}
	return dmin
}

// DistToPoly returns the squared xz distance from p to the polygon outline,
// negated when p is inside.
func DistToPoly(nvert int, verts []float32, p []float32) float32 {
	dmin := float32(math.MaxFloat32)
	c := false
	for i, j := 0, nvert-1; i < nvert; j, i = i, i+1 {
		vi := GetVert3(verts, i)
		vj := GetVert3(verts, j)
		if ((vi[2] > p[2]) != (vj[2] > p[2])) &&
			(p[0] < (vj[0]-vi[0])*(p[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
		dmin = min(dmin, DistancePtSeg2d(p, vj, vi))
	}
	if c {
		return -dmin
	}
	return dmin
}
