package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/demo/config"
	"github.com/gorustyt/gonavtile/navigation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func smallConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Terrain.Width = 33
	cfg.Terrain.Depth = 33
	cfg.Terrain.Amplitude = 0.5
	cfg.Build.TileCells = 32
	cfg.Build.CellSize = 0.5
	cfg.Build.CellHeight = 0.2
	cfg.Build.AgentRadius = 0.5
	dir := t.TempDir()
	cfg.Render.Output = filepath.Join(dir, "tiles.png")
	cfg.Render.ObjDir = filepath.Join(dir, "obj")
	return cfg
}

func TestPerlinTerrain(t *testing.T) {
	cfg := config.Default().Terrain
	cfg.Width, cfg.Depth = 9, 5
	a := perlinTerrain(cfg)
	assert.Len(t, a.Heights, 45)
	assert.Equal(t, a.Heights, perlinTerrain(cfg).Heights)
	assert.InDelta(t, cfg.Amplitude/heightSteps, a.Landscape.Scale[1], 1e-9)
}

func TestWallSource(t *testing.T) {
	src := wallSource(config.Wall{Min: [3]float32{1, 0, 2}, Max: [3]float32{3, 4, 5}})
	b := src.WorldBounds()
	for i, want := range []float32{1, 0, 2} {
		assert.InDelta(t, want, b.Min[i], 1e-5)
	}
	for i, want := range []float32{3, 4, 5} {
		assert.InDelta(t, want, b.Max[i], 1e-5)
	}
	assert.Equal(t, 12, unitBox.FaceCount())
}

func TestRun(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Terrain.Walls = []config.Wall{{Min: [3]float32{10, -2, 10}, Max: [3]float32{12, 5, 20}}}
	cfg.Build.AreaVolumes = []navigation.AreaVolume{{
		Verts: []common.Vec3{{20, 0, 20}, {30, 0, 20}, {30, 0, 30}, {20, 0, 30}},
		MinY:  -5,
		MaxY:  5,
		Area:  navigation.RegionWater,
	}}
	require.NoError(t, run(context.Background(), cfg, zaptest.NewLogger(t)))

	info, err := os.Stat(cfg.Render.Output)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
	objs, err := filepath.Glob(filepath.Join(cfg.Render.ObjDir, "*.obj"))
	require.NoError(t, err)
	assert.NotEmpty(t, objs)
}

func TestRunInvalidParams(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Build.CellSize = 0
	err := run(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, navigation.ErrInvalidParams)
}
