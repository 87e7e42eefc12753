package navigation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gorustyt/gonavtile/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBuildParams(t *testing.T) {
	p := DefaultBuildParams()
	require.NoError(t, p.Validate())
	assert.InDelta(t, 0.3, p.CellSize, 1e-6)
	assert.InDelta(t, 0.2, p.CellHeight, 1e-6)
	assert.Equal(t, 6, p.VerticesPerPoly)
	assert.Equal(t, 64, p.TileCells)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(p *BuildParams){
		"cell size":       func(p *BuildParams) { p.CellSize = 0.001 },
		"cell height":     func(p *BuildParams) { p.CellHeight = 0 },
		"agent height":    func(p *BuildParams) { p.AgentHeight = 0 },
		"negative radius": func(p *BuildParams) { p.AgentRadius = -1 },
		"vertical slope":  func(p *BuildParams) { p.AgentMaxSlope = 90 },
		"negative slope":  func(p *BuildParams) { p.AgentMaxSlope = -1 },
		"negative step":   func(p *BuildParams) { p.AgentMaxStepHeight = -0.1 },
		"too many verts":  func(p *BuildParams) { p.VerticesPerPoly = 7 },
		"too few verts":   func(p *BuildParams) { p.VerticesPerPoly = 2 },
		"empty tile":      func(p *BuildParams) { p.TileCells = 0 },
		"region size":     func(p *BuildParams) { p.RegionMinSize = -1 },
		"detail distance": func(p *BuildParams) { p.DetailSampleDistance = -1 },
		"volume outline": func(p *BuildParams) {
			p.AreaVolumes = []AreaVolume{{Verts: []common.Vec3{{0, 0, 0}, {1, 0, 0}}, MaxY: 1}}
		},
		"volume height": func(p *BuildParams) { p.AreaVolumes = []AreaVolume{waterVolume(0, 1, 0, 1, 2, 1)} },
		"volume area": func(p *BuildParams) {
			v := waterVolume(0, 1, 0, 1, 0, 1)
			v.Area = RegionJump + 1
			p.AreaVolumes = []AreaVolume{v}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultBuildParams()
			mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}

	p := DefaultBuildParams()
	p.AgentMaxSlope = 0
	p.AgentRadius = 0
	assert.NoError(t, p.Validate(), "zero slope and radius are allowed")

	p.AreaVolumes = []AreaVolume{waterVolume(0, 1, 0, 1, -1, 1)}
	assert.NoError(t, p.Validate())
}

func TestLoadAreaVolumes(t *testing.T) {
	path := writeConfig(t, `
area_volumes:
  - verts: [[0, 0, 0], [5, 0, 0], [5, 0, 10], [0, 0, 10]]
    min_y: -1
    max_y: 1
    area: 1
`)
	p, err := LoadBuildParams(path)
	require.NoError(t, err)
	require.Len(t, p.AreaVolumes, 1)
	assert.Equal(t, waterVolume(0, 5, 0, 10, -1, 1), p.AreaVolumes[0])
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navigation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadBuildParams(t *testing.T) {
	path := writeConfig(t, "cell_size: 0.5\ntile_cells: 32\nagent_max_slope: 30\n")
	p, err := LoadBuildParams(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), p.CellSize)
	assert.Equal(t, 32, p.TileCells)
	assert.Equal(t, float32(30), p.AgentMaxSlope)
	assert.Equal(t, DefaultBuildParams().AgentHeight, p.AgentHeight, "missing keys keep defaults")
}

func TestLoadBuildParamsEnv(t *testing.T) {
	t.Setenv(ConfigEnv, writeConfig(t, "agent_radius: 1.5\n"))
	p, err := LoadBuildParams("")
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), p.AgentRadius)

	t.Setenv(ConfigEnv, "")
	p, err = LoadBuildParams("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBuildParams(), p)
}

func TestLoadBuildParamsErrors(t *testing.T) {
	_, err := LoadBuildParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadBuildParams(writeConfig(t, "agent_max_slope: 95\n"))
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = LoadBuildParams(writeConfig(t, "cell_size: [1, 2]\n"))
	assert.Error(t, err)
}

func TestDeriveConfig(t *testing.T) {
	cfg := DeriveConfig(testParams(), tileBounds(16))

	assert.Equal(t, 10, cfg.WalkableHeight)
	assert.Equal(t, 4, cfg.WalkableClimb)
	assert.Equal(t, 1, cfg.WalkableRadius)
	assert.Equal(t, 24, cfg.MaxEdgeLen)
	assert.Equal(t, 64, cfg.MinRegionArea)
	assert.Equal(t, 400, cfg.MergeRegionArea)
	assert.Equal(t, 6, cfg.MaxVertsPerPoly)
	assert.Equal(t, 32, cfg.TileSize)
	assert.Equal(t, 4, cfg.BorderSize)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
	assert.InDelta(t, 3, cfg.DetailSampleDist, 1e-6)
	assert.InDelta(t, 0.2, cfg.DetailSampleMaxError, 1e-6)

	assert.InDelta(t, -2, cfg.Bmin[0], 1e-6)
	assert.InDelta(t, -1, cfg.Bmin[1], 1e-6)
	assert.InDelta(t, -2, cfg.Bmin[2], 1e-6)
	assert.InDelta(t, 18, cfg.Bmax[0], 1e-6)
	assert.InDelta(t, 1, cfg.Bmax[1], 1e-6)
	assert.InDelta(t, 18, cfg.Bmax[2], 1e-6)
}

func TestDeriveConfigNoDetailSampling(t *testing.T) {
	p := testParams()
	p.DetailSampleDistance = 0.5
	cfg := DeriveConfig(p, tileBounds(16))
	assert.Zero(t, cfg.DetailSampleDist)
}
