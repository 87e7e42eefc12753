package navigation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gonavtile/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triNormalY is the y component of the recast face normal (v1-v0) x (v2-v0).
func triNormalY(g *Geometry, tri int) float32 {
	var e0, e1, n [3]float32
	v0 := common.GetVert3(g.Verts, g.Tris[tri*3])
	v1 := common.GetVert3(g.Verts, g.Tris[tri*3+1])
	v2 := common.GetVert3(g.Verts, g.Tris[tri*3+2])
	common.Vsub(e0[:], v1, v0)
	common.Vsub(e1[:], v2, v0)
	common.Vcross(n[:], e0[:], e1[:])
	return n[1]
}

func TestMergeGeometryMesh(t *testing.T) {
	src := MeshSource{Mesh: quadMesh(2, 0), Transform: mgl32.Translate3D(1, 2, 3)}
	g := MergeGeometry([]MeshSource{src}, nil)

	require.Equal(t, 4, g.VertCount())
	require.Equal(t, 2, g.TriCount())
	assert.Equal(t, []float32{
		1, 2, 3,
		3, 2, 3,
		3, 2, 5,
		1, 2, 5,
	}, g.Verts)
	assert.Equal(t, []int{0, 2, 1, 0, 3, 2}, g.Tris)
	for i := 0; i < g.TriCount(); i++ {
		assert.Greater(t, triNormalY(g, i), float32(0), "triangle %d faces up", i)
	}

	b := g.Bounds()
	assert.Equal(t, common.Vec3{1, 2, 3}, b.Min)
	assert.Equal(t, common.Vec3{3, 2, 5}, b.Max)
}

func TestMergeGeometryTerrain(t *testing.T) {
	ls := &Landscape{Scale: common.Vec3{2, 0.5, 2}, Offset: common.Vec3{10, 0, 20}}
	block := TerrainBlock{
		Landscape: ls,
		OffsetX:   1,
		OffsetZ:   2,
		Width:     3,
		Depth:     2,
		Heights:   []int16{0, 2, 4, 6, 8, 10},
	}
	g := MergeGeometry(nil, []TerrainBlock{block})

	require.Equal(t, 6, g.VertCount())
	require.Equal(t, 4, g.TriCount())
	assert.Equal(t, []float32{12, 0, 24}, common.GetVert3(g.Verts, 0))
	assert.Equal(t, []float32{16, 2, 24}, common.GetVert3(g.Verts, 2))
	assert.Equal(t, []float32{12, 3, 26}, common.GetVert3(g.Verts, 3))
	assert.Equal(t, []int{0, 3, 4, 0, 4, 1}, g.Tris[:6])
	for i := 0; i < g.TriCount(); i++ {
		assert.Greater(t, triNormalY(g, i), float32(0), "triangle %d faces up", i)
	}
}

func TestMergeGeometryOffsetsIndices(t *testing.T) {
	meshes := []MeshSource{
		{Mesh: quadMesh(1, 0), Transform: identity()},
		{Mesh: quadMesh(1, 5), Transform: identity()},
	}
	g := MergeGeometry(meshes, []TerrainBlock{flatTerrain(2, 2)})

	assert.Equal(t, 12, g.VertCount())
	assert.Equal(t, 6, g.TriCount())
	assert.Equal(t, []int{4, 6, 5, 4, 7, 6}, g.Tris[6:12])
	assert.Equal(t, []int{8, 10, 11, 8, 11, 9}, g.Tris[12:])
}

func TestMergeGeometryDegenerateTerrain(t *testing.T) {
	g := MergeGeometry(nil, []TerrainBlock{flatTerrain(1, 5)})
	assert.Equal(t, 5, g.VertCount())
	assert.Zero(t, g.TriCount())
}

func TestWorldBounds(t *testing.T) {
	src := MeshSource{Mesh: quadMesh(2, 1), Transform: mgl32.Translate3D(-1, 0, 4)}
	b := src.WorldBounds()
	assert.Equal(t, common.Vec3{-1, 1, 4}, b.Min)
	assert.Equal(t, common.Vec3{1, 1, 6}, b.Max)

	empty := MeshSource{Mesh: &TriangleMesh{}, Transform: identity()}
	assert.Equal(t, Bounds{}, empty.WorldBounds())
}

func TestBoundsOverlaps(t *testing.T) {
	a := Bounds{Min: common.Vec3{0, 0, 0}, Max: common.Vec3{2, 1, 2}}
	assert.True(t, a.Overlaps(Bounds{Min: common.Vec3{1, 50, 1}, Max: common.Vec3{3, 60, 3}}), "y is ignored")
	assert.True(t, a.Overlaps(Bounds{Min: common.Vec3{2, 0, 2}, Max: common.Vec3{3, 1, 3}}), "touching")
	assert.False(t, a.Overlaps(Bounds{Min: common.Vec3{2.1, 0, 0}, Max: common.Vec3{3, 1, 1}}))
}

func TestChunkyTriMesh(t *testing.T) {
	g := MergeGeometry(nil, []TerrainBlock{flatTerrain(21, 21)})
	ntris := g.TriCount()
	require.Equal(t, 800, ntris)

	cm := newChunkyTriMesh(g.Verts, g.Tris, ntris, 16)
	assert.LessOrEqual(t, cm.maxTrisPerChunk, 16)
	assert.Len(t, cm.tris, ntris*3)

	all := cm.trianglesInRect([2]float32{-1, -1}, [2]float32{21, 21})
	require.Len(t, all, ntris*3)
	assert.ElementsMatch(t, triKeys(g.Tris), triKeys(all))

	corner := cm.trianglesInRect([2]float32{0.2, 0.2}, [2]float32{0.8, 0.8})
	assert.NotEmpty(t, corner)
	assert.Less(t, len(corner), ntris*3)
	keys := triKeys(corner)
	// Both triangles of the first terrain cell.
	assert.Contains(t, keys, [3]int{0, 21, 22})
	assert.Contains(t, keys, [3]int{0, 22, 1})

	assert.Empty(t, cm.trianglesInRect([2]float32{30, 30}, [2]float32{40, 40}))
}

func TestChunkyTriMeshEmpty(t *testing.T) {
	cm := newChunkyTriMesh(nil, nil, 0, 16)
	assert.Empty(t, cm.trianglesInRect([2]float32{0, 0}, [2]float32{1, 1}))
}

func triKeys(tris []int) [][3]int {
	keys := make([][3]int, 0, len(tris)/3)
	for i := 0; i+2 < len(tris); i += 3 {
		keys = append(keys, [3]int{tris[i], tris[i+1], tris[i+2]})
	}
	return keys
}
