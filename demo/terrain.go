package main

import (
	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/demo/config"
	"github.com/gorustyt/gonavtile/navigation"
)

// heightSteps is the resolution of one unit of noise in height samples.
const heightSteps = 1000

func perlinTerrain(cfg config.TerrainConfig) navigation.TerrainBlock {
	noise := perlin.NewPerlin(2, 2, 3, cfg.Seed)
	ls := &navigation.Landscape{
		Scale: common.Vec3{cfg.Spacing, cfg.Amplitude / heightSteps, cfg.Spacing},
	}
	heights := make([]int16, cfg.Width*cfg.Depth)
	for j := 0; j < cfg.Depth; j++ {
		for i := 0; i < cfg.Width; i++ {
			n := noise.Noise2D(float64(i)/float64(cfg.Width), float64(j)/float64(cfg.Depth))
			heights[j*cfg.Width+i] = int16(n * heightSteps)
		}
	}
	return navigation.TerrainBlock{
		Landscape: ls,
		Width:     cfg.Width,
		Depth:     cfg.Depth,
		Heights:   heights,
	}
}

// unitBox spans (0,0,0)-(1,1,1). Faces are wound downward like every other
// triangle mesh handed to the builder.
var unitBox = &navigation.TriangleMesh{
	Verts: []common.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1},
		{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1},
	},
	Faces: []uint32{
		4, 5, 6, 4, 6, 7, // top
		0, 2, 1, 0, 3, 2, // bottom
		0, 1, 5, 0, 5, 4,
		1, 2, 6, 1, 6, 5,
		2, 3, 7, 2, 7, 6,
		3, 0, 4, 3, 4, 7,
	},
}

// wallSource places unitBox over w.
func wallSource(w config.Wall) navigation.MeshSource {
	size := mgl32.Vec3{w.Max[0] - w.Min[0], w.Max[1] - w.Min[1], w.Max[2] - w.Min[2]}
	m := mgl32.Translate3D(w.Min[0], w.Min[1], w.Min[2]).Mul4(mgl32.Scale3D(size[0], size[1], size[2]))
	return navigation.MeshSource{Mesh: unitBox, Transform: m}
}
