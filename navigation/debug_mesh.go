package navigation

import (
	"image/color"

	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/recast"
)

// DebugTechnique is the technique debug meshes are drawn with.
const DebugTechnique = "drawGhostedShapeMesh"

var (
	debugInteriorColor = color.NRGBA{R: 178, G: 51, B: 25, A: 102}
	debugWireColor     = color.NRGBA{A: 255}
)

// ResourceManager owns render side resources. Debug meshes are bound to the
// manager they were built for and are rebuilt when drawn through another.
type ResourceManager struct {
	Name string
}

func NewResourceManager(name string) *ResourceManager {
	return &ResourceManager{Name: name}
}

// DebugMesh is a triangle list visualizing a tile's polygon mesh in world
// space.
type DebugMesh struct {
	Vertices []common.Vec3
	Indices  []uint32

	manager *ResourceManager
}

func (m *DebugMesh) TriangleCount() int { return len(m.Indices) / 3 }

func (m *DebugMesh) Manager() *ResourceManager { return m.manager }

// RenderDriver draws debug geometry.
type RenderDriver interface {
	DrawMesh(technique string, mesh *DebugMesh, interior, wire color.Color)
}

// DebugMesh returns the tile's debug mesh for rm, building it on first use or
// when it was built for a different manager. It returns nil when the tile has
// no polygon mesh or rm is nil.
func (t *Tile) DebugMesh(rm *ResourceManager) *DebugMesh {
	if t.debugMesh != nil && t.debugMesh.manager == rm {
		return t.debugMesh
	}
	t.debugMesh = nil
	if t.polyMesh == nil || rm == nil {
		return nil
	}
	t.debugMesh = buildDebugMesh(t.polyMesh, rm)
	return t.debugMesh
}

// DebugDraw draws the tile's debug mesh with the ghosted shape technique.
func (t *Tile) DebugDraw(driver RenderDriver, rm *ResourceManager) {
	m := t.DebugMesh(rm)
	if m == nil || driver == nil {
		return
	}
	driver.DrawMesh(DebugTechnique, m, debugInteriorColor, debugWireColor)
}

func buildDebugMesh(pmesh *recast.RcPolyMesh, rm *ResourceManager) *DebugMesh {
	cs, ch := pmesh.Cs, pmesh.Ch
	orig := pmesh.Bmin
	m := &DebugMesh{
		Vertices: make([]common.Vec3, pmesh.NVerts),
		manager:  rm,
	}
	for i := range m.Vertices {
		v := common.GetVert3(pmesh.Verts, i)
		m.Vertices[i] = common.Vec3{
			orig[0] + float32(v[0])*cs,
			orig[1] + float32(v[1]+1)*ch,
			orig[2] + float32(v[2])*cs,
		}
	}

	ntris := 0
	for i := 0; i < pmesh.NPolys; i++ {
		ntris += max(polyVertCount(pmesh.Poly(i)[:pmesh.Nvp])-2, 0)
	}
	m.Indices = make([]uint32, 0, ntris*3)
	for i := 0; i < pmesh.NPolys; i++ {
		p := pmesh.Poly(i)
		for j := 2; j < polyVertCount(p[:pmesh.Nvp]); j++ {
			m.Indices = append(m.Indices, uint32(p[0]), uint32(p[j-1]), uint32(p[j]))
		}
	}
	return m
}

func polyVertCount(p []int) int {
	for j, v := range p {
		if v == recast.RC_MESH_NULL_IDX {
			return j
		}
	}
	return len(p)
}
