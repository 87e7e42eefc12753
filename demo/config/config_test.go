package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gorustyt/gonavtile/navigation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mesh_id: 7
workers: 2
store:
  kind: badger
  dsn: /tmp/tiles
build:
  agent_radius: 0.4
terrain:
  width: 33
  walls:
    - min: [1, 0, 1]
      max: [2, 3, 9]
render:
  output: out.png
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), cfg.MeshID)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, StoreConfig{Kind: "badger", DSN: "/tmp/tiles"}, cfg.Store)
	assert.Equal(t, float32(0.4), cfg.Build.AgentRadius)
	assert.Equal(t, navigation.DefaultBuildParams().CellSize, cfg.Build.CellSize)
	assert.Equal(t, 33, cfg.Terrain.Width)
	assert.Equal(t, 129, cfg.Terrain.Depth)
	require.Len(t, cfg.Terrain.Walls, 1)
	assert.Equal(t, [3]float32{2, 3, 9}, cfg.Terrain.Walls[0].Max)
	assert.Equal(t, "out.png", cfg.Render.Output)
	assert.Equal(t, float32(4), cfg.Render.PixelsPerUnit)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("terrain: [1"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	small := filepath.Join(dir, "small.yaml")
	require.NoError(t, os.WriteFile(small, []byte("terrain:\n  width: 1\n"), 0o644))
	_, err = Load(small)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("build:\n  cell_size: 0\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, navigation.ErrInvalidParams)
}
