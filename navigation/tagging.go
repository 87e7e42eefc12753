package navigation

import (
	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/recast"
)

// RegionType is the area id stored on every navigation polygon.
type RegionType uint8

const (
	RegionGround RegionType = iota
	RegionWater
	RegionRoad
	RegionDoor
	RegionGrass
	RegionJump
)

func (r RegionType) String() string {
	switch r {
	case RegionGround:
		return "Ground"
	case RegionWater:
		return "Water"
	case RegionRoad:
		return "Road"
	case RegionDoor:
		return "Door"
	case RegionGrass:
		return "Grass"
	case RegionJump:
		return "Jump"
	}
	return "Unknown"
}

// AreaVolume assigns Area to the walkable surface inside a vertical prism.
// Verts is the convex outline on the xz plane; their y is ignored.
type AreaVolume struct {
	Verts []common.Vec3 `yaml:"verts"`
	MinY  float32       `yaml:"min_y"`
	MaxY  float32       `yaml:"max_y"`
	Area  RegionType    `yaml:"area"`
}

// recastArea keeps ground volumes walkable; area 0 is the null area to recast.
func (v AreaVolume) recastArea() uint8 {
	if v.Area == RegionGround {
		return recast.RC_WALKABLE_AREA
	}
	return uint8(v.Area)
}

func markAreaVolumes(rc *recast.RcContext, volumes []AreaVolume, chf *recast.RcCompactHeightfield) {
	for _, v := range volumes {
		verts := make([]float32, 0, len(v.Verts)*3)
		for _, p := range v.Verts {
			verts = append(verts, p[0], p[1], p[2])
		}
		recast.RcMarkConvexPolyArea(rc, verts, len(v.Verts), v.MinY, v.MaxY, v.recastArea(), chf)
	}
}

// PolyFlags are the traversal abilities a polygon requires.
type PolyFlags = uint16

const (
	PolyFlagWalk     PolyFlags = 0x01   // Ability to walk (ground, grass, road)
	PolyFlagSwim     PolyFlags = 0x02   // Ability to swim (water).
	PolyFlagDoor     PolyFlags = 0x04   // Ability to move through doors.
	PolyFlagJump     PolyFlags = 0x08   // Ability to jump.
	PolyFlagDisabled PolyFlags = 0x10   // Disabled polygon
	PolyFlagAll      PolyFlags = 0xffff // All abilities.
)

// FlagsForArea returns the traversal flags polygons of area require.
func FlagsForArea(area RegionType) PolyFlags {
	switch area {
	case RegionGround, RegionGrass, RegionRoad:
		return PolyFlagWalk
	case RegionWater:
		return PolyFlagSwim
	case RegionDoor:
		return PolyFlagWalk | PolyFlagDoor
	}
	return 0
}

// tagPolys rewrites the generic walkable area to ground and derives every
// polygon's flags from its area.
func tagPolys(pmesh *recast.RcPolyMesh) {
	for i := 0; i < pmesh.NPolys; i++ {
		if pmesh.Areas[i] == recast.RC_WALKABLE_AREA {
			pmesh.Areas[i] = uint8(RegionGround)
		}
		pmesh.Flags[i] = FlagsForArea(RegionType(pmesh.Areas[i]))
	}
}
