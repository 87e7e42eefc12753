package navigation

import (
	"fmt"
	"math"
	"os"

	"github.com/gorustyt/gonavtile/detour"
	"github.com/gorustyt/gonavtile/recast"
	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable consulted by LoadBuildParams when
// no path is given.
const ConfigEnv = "GONAVTILE_CONFIG"

const (
	minCellSize    float32 = 0.01
	minAgentHeight float32 = 0.001
	maxSlopeAngle  float32 = 90
)

// BuildParams are the world unit settings a navigation mesh is generated with.
type BuildParams struct {
	CellSize             float32 `yaml:"cell_size"`
	CellHeight           float32 `yaml:"cell_height"`
	AgentHeight          float32 `yaml:"agent_height"`
	AgentRadius          float32 `yaml:"agent_radius"`
	AgentMaxSlope        float32 `yaml:"agent_max_slope"`
	AgentMaxStepHeight   float32 `yaml:"agent_max_step_height"`
	EdgeMaxLength        float32 `yaml:"edge_max_length"`
	EdgeMaxError         float32 `yaml:"edge_max_error"`
	RegionMinSize        float32 `yaml:"region_min_size"`
	RegionMergedSize     float32 `yaml:"region_merged_size"`
	VerticesPerPoly      int     `yaml:"vertices_per_poly"`
	TileCells            int     `yaml:"tile_cells"`
	DetailSampleDistance float32 `yaml:"detail_sample_distance"`
	DetailSampleMaxError float32 `yaml:"detail_sample_max_error"`
	// AreaVolumes are applied after erosion, later volumes win.
	AreaVolumes []AreaVolume `yaml:"area_volumes"`
}

// DefaultBuildParams returns settings for a human sized agent. The cell size
// is half the agent radius and the cell height two thirds of the cell size.
func DefaultBuildParams() BuildParams {
	p := BuildParams{
		AgentHeight:          2.0,
		AgentRadius:          0.6,
		AgentMaxSlope:        45,
		AgentMaxStepHeight:   0.9,
		EdgeMaxLength:        12,
		EdgeMaxError:         1.3,
		RegionMinSize:        8,
		RegionMergedSize:     20,
		VerticesPerPoly:      detour.DT_VERTS_PER_POLYGON,
		TileCells:            64,
		DetailSampleDistance: 6,
		DetailSampleMaxError: 1,
	}
	p.CellSize = p.AgentRadius * 0.5
	p.CellHeight = p.CellSize * 0.66666666
	return p
}

// Validate reports the first setting outside its permitted range.
func (p BuildParams) Validate() error {
	check := func(ok bool, name string, v any) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%w: %s = %v", ErrInvalidParams, name, v)
	}
	for _, err := range []error{
		check(p.CellSize >= minCellSize, "cell_size", p.CellSize),
		check(p.CellHeight >= minCellSize, "cell_height", p.CellHeight),
		check(p.AgentHeight >= minAgentHeight, "agent_height", p.AgentHeight),
		check(p.AgentRadius >= 0, "agent_radius", p.AgentRadius),
		check(p.AgentMaxSlope >= 0 && p.AgentMaxSlope < maxSlopeAngle, "agent_max_slope", p.AgentMaxSlope),
		check(p.AgentMaxStepHeight >= 0, "agent_max_step_height", p.AgentMaxStepHeight),
		check(p.EdgeMaxLength >= 0, "edge_max_length", p.EdgeMaxLength),
		check(p.EdgeMaxError >= 0, "edge_max_error", p.EdgeMaxError),
		check(p.RegionMinSize >= 0, "region_min_size", p.RegionMinSize),
		check(p.RegionMergedSize >= 0, "region_merged_size", p.RegionMergedSize),
		check(p.VerticesPerPoly >= 3 && p.VerticesPerPoly <= detour.DT_VERTS_PER_POLYGON, "vertices_per_poly", p.VerticesPerPoly),
		check(p.TileCells >= 1, "tile_cells", p.TileCells),
		check(p.DetailSampleDistance >= 0, "detail_sample_distance", p.DetailSampleDistance),
		check(p.DetailSampleMaxError >= 0, "detail_sample_max_error", p.DetailSampleMaxError),
	} {
		if err != nil {
			return err
		}
	}
	for i, v := range p.AreaVolumes {
		name := fmt.Sprintf("area_volumes[%d]", i)
		for _, err := range []error{
			check(len(v.Verts) >= 3, name+".verts", len(v.Verts)),
			check(v.MinY <= v.MaxY, name+".max_y", v.MaxY),
			check(v.Area <= RegionJump, name+".area", v.Area),
		} {
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadBuildParams reads YAML settings from path, or from $GONAVTILE_CONFIG
// when path is empty. Keys missing from the file keep their defaults. With
// neither a path nor the variable set the defaults are returned.
func LoadBuildParams(path string) (BuildParams, error) {
	p := DefaultBuildParams()
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("navigation: read build params: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("navigation: parse build params %s: %w", path, err)
	}
	return p, p.Validate()
}

// DeriveConfig converts world unit settings into the voxel space
// configuration used to build the tile covering bounds. The returned bounds
// are grown by the border on the x and z axes.
func DeriveConfig(p BuildParams, bounds Bounds) recast.RcConfig {
	cfg := recast.RcConfig{
		Cs:                     p.CellSize,
		Ch:                     p.CellHeight,
		WalkableSlopeAngle:     p.AgentMaxSlope,
		WalkableHeight:         int(math.Ceil(float64(p.AgentHeight / p.CellHeight))),
		WalkableClimb:          int(math.Floor(float64(p.AgentMaxStepHeight / p.CellHeight))),
		WalkableRadius:         int(math.Ceil(float64(p.AgentRadius / p.CellSize))),
		MaxEdgeLen:             int(p.EdgeMaxLength / p.CellSize),
		MaxSimplificationError: p.EdgeMaxError,
		MinRegionArea:          int(p.RegionMinSize * p.RegionMinSize),       // Note: area = size*size
		MergeRegionArea:        int(p.RegionMergedSize * p.RegionMergedSize), // Note: area = size*size
		MaxVertsPerPoly:        p.VerticesPerPoly,
		TileSize:               p.TileCells,
		DetailSampleMaxError:   p.CellHeight * p.DetailSampleMaxError,
	}
	cfg.BorderSize = cfg.WalkableRadius + 3 // Reserve enough padding.
	cfg.Width = cfg.TileSize + cfg.BorderSize*2
	cfg.Height = cfg.TileSize + cfg.BorderSize*2
	if p.DetailSampleDistance >= 0.9 {
		cfg.DetailSampleDist = p.CellSize * p.DetailSampleDistance
	}

	cfg.Bmin = bounds.Min
	cfg.Bmax = bounds.Max
	border := float32(cfg.BorderSize) * cfg.Cs
	cfg.Bmin[0] -= border
	cfg.Bmin[2] -= border
	cfg.Bmax[0] += border
	cfg.Bmax[2] += border
	return cfg
}
