package recast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCalcBounds(t *testing.T) {
	verts := []float32{1, 2, 3}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 1, bmin, bmax)
	assert.Equal(t, verts, bmin, "bounds of one vector")
	assert.Equal(t, verts, bmax, "bounds of one vector")

	verts = []float32{
		1, 2, 3,
		0, 2, 5,
	}
	RcCalcBounds(verts, 2, bmin, bmax)
	assert.Equal(t, []float32{0, 2, 3}, bmin, "bounds of more than one vector")
	assert.Equal(t, []float32{1, 2, 5}, bmax, "bounds of more than one vector")
}

func TestCalcGridSize(t *testing.T) {
	verts := []float32{
		1, 2, 3,
		0, 2, 6,
	}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 2, bmin, bmax)

	width, height := RcCalcGridSize(bmin, bmax, 1.5)
	assert.Equal(t, 1, width, "computes the size of an x & z axis grid")
	assert.Equal(t, 2, height, "computes the size of an x & z axis grid")
}

func TestCreateHeightfield(t *testing.T) {
	verts := []float32{
		1, 2, 3,
		0, 2, 6,
	}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 2, bmin, bmax)
	var cellSize, cellHeight float32 = 1.5, 2
	width, height := RcCalcGridSize(bmin, bmax, cellSize)

	hf, err := RcCreateHeightfield(nil, width, height, bmin, bmax, cellSize, cellHeight)
	require.NoError(t, err)
	assert.Equal(t, width, hf.Width)
	assert.Equal(t, height, hf.Height)
	assert.Equal(t, bmin, hf.Bmin[:])
	assert.Equal(t, bmax, hf.Bmax[:])
	assert.Equal(t, cellSize, hf.Cs)
	assert.Equal(t, cellHeight, hf.Ch)
	assert.Len(t, hf.Spans, width*height)
	assert.Nil(t, hf.pools)
	assert.Nil(t, hf.freelist)

	_, err = RcCreateHeightfield(nil, 0, height, bmin, bmax, cellSize, cellHeight)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestMarkWalkableTriangles(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	walkableTri := []int{0, 1, 2}
	unwalkableTri := []int{0, 2, 1}

	areas := []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(nil, 45, verts, walkableTri, 1, areas)
	assert.EqualValues(t, RC_WALKABLE_AREA, areas[0], "One walkable triangle")

	areas = []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(nil, 45, verts, unwalkableTri, 1, areas)
	assert.EqualValues(t, RC_NULL_AREA, areas[0], "One non-walkable triangle")

	areas = []uint8{42}
	RcMarkWalkableTriangles(nil, 45, verts, unwalkableTri, 1, areas)
	assert.EqualValues(t, 42, areas[0], "Non-walkable triangle area id's are not modified")

	areas = []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(nil, 0, verts, walkableTri, 1, areas)
	assert.EqualValues(t, RC_WALKABLE_AREA, areas[0], "Flat ground stays walkable at a zero slope limit")
}

func newAddSpanField(t *testing.T) *RcHeightfield {
	verts := []float32{
		1, 2, 3,
		0, 2, 6,
	}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 2, bmin, bmax)
	width, height := RcCalcGridSize(bmin, bmax, 1.5)
	hf, err := RcCreateHeightfield(nil, width, height, bmin, bmax, 1.5, 2)
	require.NoError(t, err)
	return hf
}

func TestAddSpan(t *testing.T) {
	const area = 42
	const flagMergeThr = 1

	t.Run("Add a span to an empty heightfield", func(t *testing.T) {
		hf := newAddSpanField(t)
		RcAddSpan(hf, 0, 0, 0, 1, area, flagMergeThr)
		require.NotNil(t, hf.Spans[0])
		assert.Equal(t, 0, hf.Spans[0].Smin)
		assert.Equal(t, 1, hf.Spans[0].Smax)
		assert.EqualValues(t, area, hf.Spans[0].Area)
	})

	t.Run("Add a span that gets merged with an existing span", func(t *testing.T) {
		hf := newAddSpanField(t)
		RcAddSpan(hf, 0, 0, 0, 1, area, flagMergeThr)
		RcAddSpan(hf, 0, 0, 1, 2, area, flagMergeThr)
		require.NotNil(t, hf.Spans[0])
		assert.Equal(t, 0, hf.Spans[0].Smin)
		assert.Equal(t, 2, hf.Spans[0].Smax)
		assert.EqualValues(t, area, hf.Spans[0].Area)
		assert.Nil(t, hf.Spans[0].Next)
	})

	t.Run("Add a span that merges with two spans above and below", func(t *testing.T) {
		hf := newAddSpanField(t)
		RcAddSpan(hf, 0, 0, 0, 1, area, flagMergeThr)
		RcAddSpan(hf, 0, 0, 2, 3, area, flagMergeThr)
		require.NotNil(t, hf.Spans[0].Next)
		assert.Equal(t, 2, hf.Spans[0].Next.Smin)
		assert.Equal(t, 3, hf.Spans[0].Next.Smax)

		RcAddSpan(hf, 0, 0, 1, 2, area, flagMergeThr)
		require.NotNil(t, hf.Spans[0])
		assert.Equal(t, 0, hf.Spans[0].Smin)
		assert.Equal(t, 3, hf.Spans[0].Smax)
		assert.EqualValues(t, area, hf.Spans[0].Area)
		assert.Nil(t, hf.Spans[0].Next)
	})

	t.Run("Higher area wins within the merge threshold", func(t *testing.T) {
		hf := newAddSpanField(t)
		RcAddSpan(hf, 0, 0, 0, 3, 10, flagMergeThr)
		RcAddSpan(hf, 0, 0, 1, 2, 20, flagMergeThr)
		require.NotNil(t, hf.Spans[0])
		assert.EqualValues(t, 20, hf.Spans[0].Area)

		RcAddSpan(hf, 0, 0, 1, 6, 5, flagMergeThr)
		assert.Equal(t, 6, hf.Spans[0].Smax)
		assert.EqualValues(t, 5, hf.Spans[0].Area, "the new top surface decides the area")
	})
}

func TestRasterizeTriangle(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 3, bmin, bmax)

	var cellSize, cellHeight float32 = .5, .5
	width, height := RcCalcGridSize(bmin, bmax, cellSize)
	solid, err := RcCreateHeightfield(nil, width, height, bmin, bmax, cellSize, cellHeight)
	require.NoError(t, err)

	const area = 42
	RcRasterizeTriangle(nil, verts[0:3], verts[3:6], verts[6:9], area, solid, 1)

	assert.NotNil(t, solid.Spans[0+0*width])
	assert.Nil(t, solid.Spans[1+0*width])
	assert.NotNil(t, solid.Spans[0+1*width])
	assert.NotNil(t, solid.Spans[1+1*width])

	for _, idx := range []int{0 + 0*width, 0 + 1*width, 1 + 1*width} {
		span := solid.Spans[idx]
		require.NotNil(t, span)
		assert.Equal(t, 0, span.Smin)
		assert.Equal(t, 1, span.Smax)
		assert.EqualValues(t, area, span.Area)
		assert.Nil(t, span.Next)
	}
}

func TestRasterizeTriangleOutsideField(t *testing.T) {
	// The triangle's bounding box overlaps the field but the triangle does not.
	bmin := []float32{0, 0, 0}
	bmax := []float32{10, 10, 10}
	hf, err := RcCreateHeightfield(nil, 10, 10, bmin, bmax, 1, 1)
	require.NoError(t, err)

	verts := []float32{
		-10.0, 5.5, -10.0,
		-10.0, 5.5, 3,
		3.0, 5.5, -10.0,
	}
	RcRasterizeTriangle(nil, verts[0:3], verts[3:6], verts[6:9], 42, hf, 1)

	for i := range hf.Spans {
		assert.Nil(t, hf.Spans[i])
	}
}

func TestRasterizeSkinnyTriangles(t *testing.T) {
	cases := map[string][]float32{
		"along x axis": {
			5, 0, 0.005,
			5, 0, -0.005,
			-5, 0, 0.005,

			-5, 0, 0.005,
			5, 0, -0.005,
			-5, 0, -0.005,
		},
		"along z axis": {
			0.005, 0, 5,
			-0.005, 0, 5,
			0.005, 0, -5,

			0.005, 0, -5,
			-0.005, 0, 5,
			-0.005, 0, -5,
		},
	}
	for name, verts := range cases {
		t.Run(name, func(t *testing.T) {
			bmin := make([]float32, 3)
			bmax := make([]float32, 3)
			RcCalcBounds(verts, 6, bmin, bmax)
			width, height := RcCalcGridSize(bmin, bmax, 1)
			width, height = max(width, 1), max(height, 1)
			hf, err := RcCreateHeightfield(nil, width, height, bmin, bmax, 1, 1)
			require.NoError(t, err)

			tris := []int{0, 1, 2, 3, 4, 5}
			assert.NotPanics(t, func() {
				RcRasterizeTriangles(nil, verts, tris, []uint8{42, 42}, 2, hf, 1)
			})
		})
	}
}

func TestRasterizeTriangles(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
		0, 0, 1,
	}
	tris := []int{
		0, 1, 2,
		0, 3, 1,
	}
	areas := []uint8{1, 2}
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	RcCalcBounds(verts, 4, bmin, bmax)

	var cellSize, cellHeight float32 = .5, .5
	width, height := RcCalcGridSize(bmin, bmax, cellSize)
	solid, err := RcCreateHeightfield(nil, width, height, bmin, bmax, cellSize, cellHeight)
	require.NoError(t, err)

	RcRasterizeTriangles(nil, verts, tris, areas, 2, solid, 1)

	assert.NotNil(t, solid.Spans[0+0*width])
	assert.NotNil(t, solid.Spans[0+1*width])
	assert.NotNil(t, solid.Spans[0+2*width])
	assert.NotNil(t, solid.Spans[0+3*width])
	assert.Nil(t, solid.Spans[1+0*width])
	assert.NotNil(t, solid.Spans[1+1*width])
	assert.NotNil(t, solid.Spans[1+2*width])
	assert.Nil(t, solid.Spans[1+3*width])

	expected := map[int]uint8{
		0 + 0*width: 1,
		0 + 1*width: 1,
		0 + 2*width: 2,
		0 + 3*width: 2,
		1 + 1*width: 1,
		1 + 2*width: 2,
	}
	for idx, area := range expected {
		span := solid.Spans[idx]
		require.NotNil(t, span)
		assert.Equal(t, 0, span.Smin)
		assert.Equal(t, 1, span.Smax)
		assert.Equal(t, area, span.Area)
		assert.Nil(t, span.Next)
	}
}

func TestNilContext(t *testing.T) {
	var ctx *RcContext
	assert.NotPanics(t, func() {
		ctx.Log(RC_LOG_ERROR, "ignored")
		ctx.StartTimer(RC_TIMER_TOTAL)
		ctx.StopTimer(RC_TIMER_TOTAL)
		ctx.ResetTimers()
	})
	assert.EqualValues(t, -1, ctx.GetAccumulatedTime(RC_TIMER_TOTAL))
	assert.Nil(t, ctx.TimerFields())
	assert.NotNil(t, ctx.Logger())
}

func TestContextTimers(t *testing.T) {
	ctx := NewRcContext(zap.NewNop(), true)
	assert.EqualValues(t, -1, ctx.GetAccumulatedTime(RC_TIMER_TOTAL), "never started")

	ctx.StartTimer(RC_TIMER_TOTAL)
	ctx.StopTimer(RC_TIMER_TOTAL)
	assert.GreaterOrEqual(t, int64(ctx.GetAccumulatedTime(RC_TIMER_TOTAL)), int64(0))
	assert.Equal(t, "total", RC_TIMER_TOTAL.String())
	assert.Equal(t, "unknown", RC_MAX_TIMERS.String())

	disabled := NewRcContext(zap.NewNop(), false)
	disabled.StartTimer(RC_TIMER_TOTAL)
	disabled.StopTimer(RC_TIMER_TOTAL)
	assert.EqualValues(t, -1, disabled.GetAccumulatedTime(RC_TIMER_TOTAL))
}

func TestTriangulateSquare(t *testing.T) {
	verts := []int{
		0, 0, 0, 0,
		0, 0, 4, 0,
		4, 0, 4, 0,
		4, 0, 0, 0,
	}
	indices := []int{0, 1, 2, 3}
	tris := make([]int, 6)

	ntris := triangulate(4, verts, indices, tris)
	require.Equal(t, 2, ntris)
	used := map[int]bool{}
	for _, v := range tris {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 4)
		used[v] = true
	}
	assert.Len(t, used, 4, "both triangles together cover every corner")
}

func TestCalcAreaOfPolygon2D(t *testing.T) {
	outline := []int{
		0, 0, 0, 0,
		0, 0, 4, 0,
		4, 0, 4, 0,
		4, 0, 0, 0,
	}
	assert.Equal(t, 16, calcAreaOfPolygon2D(outline, 4))

	hole := []int{
		4, 0, 0, 0,
		4, 0, 4, 0,
		0, 0, 4, 0,
		0, 0, 0, 0,
	}
	assert.Less(t, calcAreaOfPolygon2D(hole, 4), 0, "reversed winding gives a negative area")
}

func TestRemoveDegenerateSegments(t *testing.T) {
	simplified := []int{
		0, 0, 0, 1,
		0, 5, 0, 2,
		3, 0, 0, 3,
		3, 0, 3, 4,
	}
	out := removeDegenerateSegments(simplified)
	assert.Equal(t, []int{
		0, 5, 0, 2,
		3, 0, 0, 3,
		3, 0, 3, 4,
	}, out)
}

func TestBuildMeshAdjacency(t *testing.T) {
	const nvp = 3
	polys := []int{
		0, 1, 2, RC_MESH_NULL_IDX, RC_MESH_NULL_IDX, RC_MESH_NULL_IDX,
		0, 2, 3, RC_MESH_NULL_IDX, RC_MESH_NULL_IDX, RC_MESH_NULL_IDX,
	}
	buildMeshAdjacency(polys, 2, 4, nvp)

	// Edge 2->0 of the first triangle is shared with edge 0->2 of the second.
	assert.Equal(t, []int{RC_MESH_NULL_IDX, RC_MESH_NULL_IDX, 1}, polys[nvp:2*nvp])
	assert.Equal(t, []int{0, RC_MESH_NULL_IDX, RC_MESH_NULL_IDX}, polys[3*nvp:4*nvp])
}

func TestComputeVertexHash(t *testing.T) {
	for _, p := range [][3]int{{0, 0, 0}, {1, 2, 3}, {1000, 50, 999}, {65535, 0, 65535}} {
		h := computeVertexHash(p[0], p[1], p[2])
		assert.GreaterOrEqual(t, h, 0)
		assert.Less(t, h, VERTEX_BUCKET_COUNT)
	}
	assert.Equal(t, computeVertexHash(7, 0, 9), computeVertexHash(7, 0, 9))
}

// flatSquare is a 10x10 world unit floor at y=0 made of two upward facing triangles.
func flatSquare() ([]float32, []int) {
	verts := []float32{
		0, 0, 0,
		0, 0, 10,
		10, 0, 10,
		10, 0, 0,
	}
	tris := []int{
		0, 1, 2,
		0, 2, 3,
	}
	return verts, tris
}

func buildFlatCompactField(t *testing.T, ctx *RcContext, filter bool) *RcCompactHeightfield {
	t.Helper()
	verts, tris := flatSquare()
	bmin := []float32{0, -1, 0}
	bmax := []float32{10, 1, 10}
	const cs, ch = 0.5, 0.2
	width, height := RcCalcGridSize(bmin, bmax, cs)
	require.Equal(t, 20, width)
	require.Equal(t, 20, height)

	hf, err := RcCreateHeightfield(ctx, width, height, bmin, bmax, cs, ch)
	require.NoError(t, err)

	areas := make([]uint8, 2)
	RcMarkWalkableTriangles(ctx, 45, verts, tris, 2, areas)
	require.Equal(t, []uint8{RC_WALKABLE_AREA, RC_WALKABLE_AREA}, areas)

	RcRasterizeTriangles(ctx, verts, tris, areas, 2, hf, 4)
	require.Equal(t, 400, RcGetHeightFieldSpanCount(hf))

	if filter {
		RcFilterLowHangingWalkableObstacles(ctx, 4, hf)
		RcFilterLedgeSpans(ctx, 10, 4, hf)
		RcFilterWalkableLowHeightSpans(ctx, 10, hf)
		// Columns on the field edge have no neighbour and count as ledges.
		require.Equal(t, 324, RcGetHeightFieldSpanCount(hf))
	}

	chf := RcBuildCompactHeightfield(ctx, 10, 4, hf)
	require.NotNil(t, chf)
	return chf
}

func countWalkable(chf *RcCompactHeightfield) int {
	n := 0
	for _, a := range chf.Areas {
		if a != RC_NULL_AREA {
			n++
		}
	}
	return n
}

func TestErodeWalkableArea(t *testing.T) {
	chf := buildFlatCompactField(t, nil, false)
	require.Equal(t, 400, chf.SpanCount)

	RcErodeWalkableArea(nil, 1, chf)
	assert.Equal(t, 324, countWalkable(chf), "one ring of cells is removed")
}

func TestMarkConvexPolyArea(t *testing.T) {
	chf := buildFlatCompactField(t, nil, false)
	box := []float32{
		2, 0, 2,
		2, 0, 4,
		4, 0, 4,
		4, 0, 2,
	}
	RcMarkConvexPolyArea(nil, box, 4, -1, 1, 5, chf)

	marked := 0
	for _, a := range chf.Areas {
		if a == 5 {
			marked++
		}
	}
	assert.Equal(t, 16, marked)

	// A degenerate polygon leaves the field untouched.
	RcMarkConvexPolyArea(nil, box[:6], 2, -1, 1, 7, chf)
	for _, a := range chf.Areas {
		assert.NotEqual(t, uint8(7), a)
	}
}

func TestBuildFlatSquarePipeline(t *testing.T) {
	ctx := NewRcContext(zap.NewNop(), true)
	chf := buildFlatCompactField(t, ctx, true)
	require.Equal(t, 324, chf.SpanCount)

	RcErodeWalkableArea(ctx, 1, chf)
	require.Equal(t, 256, countWalkable(chf))

	RcBuildDistanceField(ctx, chf)
	assert.Greater(t, chf.MaxDistance, 0)
	require.NoError(t, RcBuildRegions(ctx, chf, 0, 8, 20))
	require.GreaterOrEqual(t, chf.MaxRegions, 1)

	cset, err := RcBuildContours(ctx, chf, 1.3, 12, RC_CONTOUR_TESS_WALL_EDGES)
	require.NoError(t, err)
	require.GreaterOrEqual(t, cset.NConts, 1)
	for i := 0; i < cset.NConts; i++ {
		assert.GreaterOrEqual(t, cset.Conts[i].NVerts, 3)
	}

	mesh, err := RcBuildPolyMesh(ctx, cset, 6)
	require.NoError(t, err)
	require.GreaterOrEqual(t, mesh.NPolys, 1)
	assert.Equal(t, mesh.NPolys, mesh.MaxPolys)
	assert.Len(t, mesh.Areas, mesh.NPolys)

	area2 := 0
	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)
		n := countPolyVerts(p, mesh.Nvp)
		assert.GreaterOrEqual(t, n, 3)
		for j, k := 0, n-1; j < n; k, j = j, j+1 {
			vi := mesh.Verts[p[j]*3 : p[j]*3+3]
			vj := mesh.Verts[p[k]*3 : p[k]*3+3]
			area2 += vi[0]*vj[2] - vj[0]*vi[2]
			assert.GreaterOrEqual(t, vi[0], 2)
			assert.LessOrEqual(t, vi[0], 18)
		}
		assert.EqualValues(t, RC_WALKABLE_AREA, mesh.Areas[i])
	}
	// Polygons tile the 16x16 cell walkable square.
	assert.InDelta(t, 256, float64(area2)/2, 4)

	dmesh, err := RcBuildPolyMeshDetail(ctx, mesh, chf, 3, 1)
	require.NoError(t, err)
	require.Equal(t, mesh.NPolys, dmesh.NMeshes)
	for i := 0; i < dmesh.NMeshes; i++ {
		m := dmesh.Meshes[i*4 : i*4+4]
		vbase, nverts, tbase, ntris := m[0], m[1], m[2], m[3]
		assert.GreaterOrEqual(t, ntris, 1)
		for v := vbase; v < vbase+nverts; v++ {
			assert.InDelta(t, 0, dmesh.Verts[v*3+1], 0.6)
		}
		for tr := tbase; tr < tbase+ntris; tr++ {
			for k := 0; k < 3; k++ {
				assert.Less(t, int(dmesh.Tris[tr*4+k]), nverts)
			}
		}
	}

	assert.NotEmpty(t, ctx.TimerFields())
}

func TestBuildContoursRejectsNil(t *testing.T) {
	_, err := RcBuildContours(nil, nil, 1.3, 12, RC_CONTOUR_TESS_WALL_EDGES)
	assert.ErrorIs(t, err, ErrInvalidParam)
	_, err = RcBuildPolyMesh(nil, nil, 6)
	assert.ErrorIs(t, err, ErrInvalidParam)
	_, err = RcBuildPolyMeshDetail(nil, nil, nil, 3, 1)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestBuildPolyMeshTooManyVertices(t *testing.T) {
	// Square contours of 4 vertices until the total passes the 16 bit index range.
	const nconts = 0xfffe/4 + 1
	cset := &RcContourSet{Conts: make([]RcContour, nconts), NConts: nconts, Cs: 1, Ch: 1}
	for i := range cset.Conts {
		x := (i % 256) * 4
		z := (i / 256) * 4
		cset.Conts[i] = RcContour{
			Verts:  []int{x, 0, z, 0, x, 0, z + 2, 0, x + 2, 0, z + 2, 0, x + 2, 0, z, 0},
			NVerts: 4,
			Reg:    i + 1,
			Area:   RC_WALKABLE_AREA,
		}
	}
	mesh, err := RcBuildPolyMesh(NewRcContext(zap.NewNop(), false), cset, 6)
	assert.ErrorIs(t, err, ErrTooManyVertices)
	assert.Nil(t, mesh)
}
