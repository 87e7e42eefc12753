package debug_utils

import (
	"image/color"

	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/navigation"
	"github.com/gorustyt/gonavtile/recast"
)

type displayCall struct {
	technique string
	mesh      *navigation.DebugMesh
	interior  color.Color
	wire      color.Color
}

// DisplayList records debug mesh draws so they can be replayed later, for
// example into an image sized to everything that was drawn.
type DisplayList struct {
	calls []displayCall
}

func NewDisplayList() *DisplayList {
	return &DisplayList{}
}

func (d *DisplayList) DrawMesh(technique string, mesh *navigation.DebugMesh, interior, wire color.Color) {
	if mesh == nil {
		return
	}
	d.calls = append(d.calls, displayCall{technique, mesh, interior, wire})
}

func (d *DisplayList) Len() int { return len(d.calls) }

func (d *DisplayList) Clear() {
	d.calls = d.calls[:0]
}

// Bounds returns the box of every recorded vertex. ok is false when nothing
// was recorded.
func (d *DisplayList) Bounds() (b navigation.Bounds, ok bool) {
	for _, c := range d.calls {
		for _, v := range c.mesh.Vertices {
			if !ok {
				b.Min, b.Max = v, v
				ok = true
				continue
			}
			common.Vmin(b.Min[:], v[:])
			common.Vmax(b.Max[:], v[:])
		}
	}
	return b, ok
}

// Draw replays every recorded call in order.
func (d *DisplayList) Draw(dd navigation.RenderDriver) {
	if dd == nil {
		return
	}
	for _, c := range d.calls {
		dd.DrawMesh(c.technique, c.mesh, c.interior, c.wire)
	}
}

// Edge colors of DrawPolyMesh.
var (
	polyNeighbourColor = DuRGBA(0, 48, 64, 32)
	polyBoundaryColor  = DuRGBA(0, 48, 64, 220)
)

// PolyCanvas is what DrawPolyMesh draws onto. Points are in world space.
type PolyCanvas interface {
	FillPolygon(pts []common.Vec3, col Colorb)
	Line(a, b common.Vec3, width float32, col Colorb)
}

// DrawPolyMesh fills every polygon with its area color, then draws shared
// edges thin and boundary edges thick.
func DrawPolyMesh(dd PolyCanvas, mesh *recast.RcPolyMesh) {
	if dd == nil || mesh == nil {
		return
	}
	nvp := mesh.Nvp
	cs := mesh.Cs
	ch := mesh.Ch
	orig := mesh.Bmin
	vert := func(i int) common.Vec3 {
		v := common.GetVert3(mesh.Verts, i)
		return common.Vec3{
			orig[0] + float32(v[0])*cs,
			orig[1] + float32(v[1]+1)*ch,
			orig[2] + float32(v[2])*cs,
		}
	}

	pts := make([]common.Vec3, 0, nvp)
	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Poly(i)
		pts = pts[:0]
		for j := 0; j < nvp && p[j] != recast.RC_MESH_NULL_IDX; j++ {
			pts = append(pts, vert(p[j]))
		}
		col := DuTransCol(AreaToCol(mesh.Areas[i]), 64)
		if mesh.Areas[i] == recast.RC_WALKABLE_AREA {
			col = DuRGBA(0, 192, 255, 64)
		}
		dd.FillPolygon(pts, col)
	}

	for _, boundary := range []bool{false, true} {
		col, width := polyNeighbourColor, float32(1.5)
		if boundary {
			col, width = polyBoundaryColor, 2.5
		}
		for i := 0; i < mesh.NPolys; i++ {
			p := mesh.Poly(i)
			for j := 0; j < nvp; j++ {
				if p[j] == recast.RC_MESH_NULL_IDX {
					break
				}
				if (p[nvp+j]&0x8000 != 0) != boundary {
					continue
				}
				nj := j + 1
				if j+1 >= nvp || p[j+1] == recast.RC_MESH_NULL_IDX {
					nj = 0
				}
				dd.Line(vert(p[j]), vert(p[nj]), width, col)
			}
		}
	}
}
