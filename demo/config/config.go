// Package config holds the settings of the tile builder demo.
package config

import (
	"fmt"
	"os"

	"github.com/gorustyt/gonavtile/common/logger"
	"github.com/gorustyt/gonavtile/navigation"
	"gopkg.in/yaml.v3"
)

type Config struct {
	MeshID  uint32                 `yaml:"mesh_id"`
	Workers int                    `yaml:"workers"`
	Log     logger.Config          `yaml:"log"`
	Build   navigation.BuildParams `yaml:"build"`
	Store   StoreConfig            `yaml:"store"`
	Terrain TerrainConfig          `yaml:"terrain"`
	Render  RenderConfig           `yaml:"render"`
	// MetricsAddr serves /metrics when set, e.g. ":9100".
	MetricsAddr string `yaml:"metrics_addr"`
}

// StoreConfig selects the tile store, see storage.Open.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	DSN  string `yaml:"dsn"`
}

// TerrainConfig describes the generated perlin landscape.
type TerrainConfig struct {
	Width     int     `yaml:"width"`
	Depth     int     `yaml:"depth"`
	Seed      int64   `yaml:"seed"`
	Amplitude float32 `yaml:"amplitude"`
	Spacing   float32 `yaml:"spacing"`
	// Walls adds an axis aligned box obstacle per entry.
	Walls []Wall `yaml:"walls"`
}

type Wall struct {
	Min [3]float32 `yaml:"min"`
	Max [3]float32 `yaml:"max"`
}

type RenderConfig struct {
	// Output is an image path ending in .png, .bmp or .tiff. Empty disables rendering.
	Output        string  `yaml:"output"`
	PixelsPerUnit float32 `yaml:"pixels_per_unit"`
	// Obj dumps every tile polygon mesh into this directory when set.
	ObjDir string `yaml:"obj_dir"`
}

func Default() Config {
	return Config{
		MeshID:  1,
		Workers: 0,
		Log:     logger.DefaultConfig(),
		Build:   navigation.DefaultBuildParams(),
		Store:   StoreConfig{Kind: "memory"},
		Terrain: TerrainConfig{
			Width:     129,
			Depth:     129,
			Seed:      1,
			Amplitude: 8,
			Spacing:   1,
		},
		Render: RenderConfig{PixelsPerUnit: 4},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := c.Build.Validate(); err != nil {
		return err
	}
	if c.Terrain.Width < 2 || c.Terrain.Depth < 2 {
		return fmt.Errorf("config: terrain needs at least 2 x 2 samples, got %d x %d", c.Terrain.Width, c.Terrain.Depth)
	}
	if c.Terrain.Spacing <= 0 {
		return fmt.Errorf("config: terrain spacing must be positive, got %v", c.Terrain.Spacing)
	}
	return nil
}
