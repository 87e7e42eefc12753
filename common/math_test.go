package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(2, 0, 1), "Higher than range error")
	assert.Equal(t, 1, Clamp(1, 0, 2), "Within range error")
	assert.Equal(t, 1, Clamp(0, 1, 2), "Lower than range error")
}

func TestSqr(t *testing.T) {
	assert.Equal(t, 4, Sqr(2))
	assert.Equal(t, 16, Sqr(-4))
	assert.Equal(t, 0, Sqr(0))
}

func TestVcross(t *testing.T) {
	v1 := []float32{3, -3, 1}
	v2 := []float32{4, 9, 2}
	result := make([]float32, 3)
	Vcross(result, v1, v2)
	assert.Equal(t, []float32{-15, -2, 39}, result, "Computes cross product")

	Vcross(result, v1, v1)
	assert.Equal(t, []float32{0, 0, 0}, result, "Cross product with itself is zero")
}

func TestVdot(t *testing.T) {
	v1 := []float32{1, 0, 0}
	assert.Equal(t, float32(1), Vdot(v1, v1), "Dot normalized vector with itself")
	assert.Equal(t, float32(0), Vdot([]float32{1, 2, 3}, []float32{0, 0, 0}), "Dot zero vector with anything is zero")
}

func TestVdist(t *testing.T) {
	assert.InDelta(t, 3.4641, Vdist([]float32{3, 1, 3}, []float32{1, 3, 1}), 1e-4)

	v1 := []float32{3, 1, 3}
	magnitude := Sqrt(Sqr(v1[0]) + Sqr(v1[1]) + Sqr(v1[2]))
	assert.Equal(t, magnitude, Vdist(v1, []float32{0, 0, 0}), "Distance from zero is magnitude")
}

func TestVdistSqr(t *testing.T) {
	assert.Equal(t, float32(12), VdistSqr([]float32{3, 1, 3}, []float32{1, 3, 1}))
	v1 := []float32{3, 1, 3}
	assert.Equal(t, Sqr(v1[0])+Sqr(v1[1])+Sqr(v1[2]), VdistSqr(v1, []float32{0, 0, 0}))
}

func TestVnormalize(t *testing.T) {
	v := []float32{3, 3, 3}
	Vnormalize(v)
	for i := range v {
		assert.InDelta(t, Sqrt(float32(1.0/3.0)), v[i], 1e-6)
	}
	assert.InDelta(t, 1, Sqrt(Sqr(v[0])+Sqr(v[1])+Sqr(v[2])), 1e-6)

	zero := []float32{0, 0, 0}
	Vnormalize(zero)
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestDirOffsets(t *testing.T) {
	for dir := 0; dir < 4; dir++ {
		assert.Equal(t, dir, GetDirForOffset(GetDirOffsetX(dir), GetDirOffsetY(dir)))
	}
	assert.Equal(t, -1, GetDirOffsetX(0))
	assert.Equal(t, 1, GetDirOffsetY(1))
}

func TestNextPow2AndLog(t *testing.T) {
	assert.Equal(t, uint32(1), NextPow2(1))
	assert.Equal(t, uint32(8), NextPow2(5))
	assert.Equal(t, uint32(16), NextPow2(16))
	assert.Equal(t, uint32(4), Ilog2(16))
	assert.Equal(t, uint32(4), Ilog2(31))
	assert.Equal(t, 8, Align4(5))
	assert.Equal(t, 4, Align4(4))
}

func TestGeometryPredicates(t *testing.T) {
	a := []int{0, 0, 0}
	b := []int{4, 0, 0}
	c := []int{4, 0, 4}
	d := []int{0, 0, 4}

	assert.True(t, Collinear(a, b, []int{2, 0, 0}))
	assert.True(t, Between(a, b, []int{2, 0, 0}))
	assert.False(t, Between(a, b, []int{5, 0, 0}))
	assert.True(t, Intersect(a, c, b, d), "diagonals of a square cross")
	assert.True(t, IntersectProp(a, c, b, d))
	assert.False(t, Intersect(a, b, d, c), "opposite sides never meet")
	assert.Equal(t, Left(a, b, c), Area2(a, b, c) < 0)
	assert.Equal(t, 2, Next(1, 3))
	assert.Equal(t, 0, Next(2, 3))
	assert.Equal(t, 2, Prev(0, 3))
	assert.True(t, Vequal2D([]int{1, 5, 2}, []int{1, 9, 2}))
}

func TestDistToPoly(t *testing.T) {
	square := []float32{
		0, 0, 0,
		0, 0, 2,
		2, 0, 2,
		2, 0, 0,
	}
	assert.InDelta(t, -1, DistToPoly(4, square, []float32{1, 0, 1}), 1e-6, "inside is negative")
	assert.InDelta(t, 1, DistToPoly(4, square, []float32{3, 0, 1}), 1e-6, "outside is the squared distance")
}

func TestDistPtTri(t *testing.T) {
	a := []float32{0, 1, 0}
	b := []float32{0, 1, 2}
	c := []float32{2, 1, 0}
	assert.InDelta(t, 0.5, DistPtTri([]float32{0.5, 1.5, 0.5}, a, b, c), 1e-5)
	assert.Greater(t, DistPtTri([]float32{5, 0, 5}, a, b, c), float32(1e30))

	tris := []int{0, 1, 2, 0}
	verts := append(append(append([]float32{}, a...), b...), c...)
	assert.InDelta(t, 0.5, DistToTriMesh([]float32{0.5, 0.5, 0.5}, verts, tris, 1), 1e-5)
	assert.Equal(t, float32(-1), DistToTriMesh([]float32{5, 0, 5}, verts, tris, 1))
}

func TestCircumCircle(t *testing.T) {
	c := make([]float32, 3)
	r, ok := CircumCircle([]float32{0, 0, 0}, []float32{0, 0, 2}, []float32{2, 0, 0}, c)
	assert.True(t, ok)
	assert.InDelta(t, 1, c[0], 1e-5)
	assert.InDelta(t, 1, c[2], 1e-5)
	assert.InDelta(t, Sqrt(float32(2)), r, 1e-5)

	_, ok = CircumCircle([]float32{0, 0, 0}, []float32{1, 0, 0}, []float32{2, 0, 0}, c)
	assert.False(t, ok, "collinear points have no circle")
}
