package navigation

import (
	"context"
	"testing"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gonavtile/common"
	"github.com/stretchr/testify/require"
)

var unitLandscape = &Landscape{Scale: common.Vec3{1, 1, 1}}

// flatTerrain is a w x d sample block at height 0.
func flatTerrain(w, d int) TerrainBlock {
	return TerrainBlock{
		Landscape: unitLandscape,
		Width:     w,
		Depth:     d,
		Heights:   make([]int16, w*d),
	}
}

// hillyTerrain samples perlin noise into a w x d block. Heights are scaled so
// that neighbouring samples never differ by more than a gentle slope.
func hillyTerrain(w, d int, seed int64) TerrainBlock {
	noise := perlin.NewPerlin(2, 2, 3, seed)
	ls := &Landscape{Scale: common.Vec3{1, 0.01, 1}}
	heights := make([]int16, w*d)
	for j := 0; j < d; j++ {
		for i := 0; i < w; i++ {
			n := noise.Noise2D(float64(i)/float64(w), float64(j)/float64(d))
			heights[j*w+i] = int16(n * 100)
		}
	}
	return TerrainBlock{Landscape: ls, Width: w, Depth: d, Heights: heights}
}

func testParams() BuildParams {
	p := DefaultBuildParams()
	p.CellSize = 0.5
	p.CellHeight = 0.2
	p.AgentHeight = 2
	p.AgentRadius = 0.5
	p.AgentMaxStepHeight = 0.9
	p.TileCells = 32
	return p
}

func tileBounds(size float32) Bounds {
	return Bounds{Min: common.Vec3{0, -1, 0}, Max: common.Vec3{size, 1, size}}
}

// buildFlatTile builds tile (0,0,0) over a flat 10 x 10 unit square.
func buildFlatTile(t *testing.T, mesh *NavigationMesh) *Tile {
	t.Helper()
	tile := NewTile(mesh, 0, 0, 0)
	err := tile.BuildTile(context.Background(), testParams(), tileBounds(16), nil, []TerrainBlock{flatTerrain(11, 11)})
	require.NoError(t, err)
	return tile
}

func quadMesh(size float32, y float32) *TriangleMesh {
	return &TriangleMesh{
		Verts: []common.Vec3{{0, y, 0}, {size, y, 0}, {size, y, size}, {0, y, size}},
		// Wound downward; MergeGeometry flips them to face up.
		Faces: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func identity() common.Mat4 { return mgl32.Ident4() }

// waterVolume covers the xz rectangle (x0,z0)-(x1,z1) between minY and maxY.
func waterVolume(x0, x1, z0, z1, minY, maxY float32) AreaVolume {
	return AreaVolume{
		Verts: []common.Vec3{{x0, 0, z0}, {x1, 0, z0}, {x1, 0, z1}, {x0, 0, z1}},
		MinY:  minY,
		MaxY:  maxY,
		Area:  RegionWater,
	}
}
