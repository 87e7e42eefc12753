package navigation

import (
	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/recast"
)

// Bounds is a world space axis aligned box.
type Bounds struct {
	Min common.Vec3
	Max common.Vec3
}

// Overlaps reports whether b and o intersect on the x and z axes.
func (b Bounds) Overlaps(o Bounds) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

// MeshData is an indexed triangle list in object space.
type MeshData interface {
	VertexCount() int
	FaceCount() int
	Vertices() []common.Vec3
	// Indices returns three entries per face.
	Indices() []uint32
}

// TriangleMesh is the plain slice backed MeshData.
type TriangleMesh struct {
	Verts []common.Vec3
	Faces []uint32
}

func (m *TriangleMesh) VertexCount() int        { return len(m.Verts) }
func (m *TriangleMesh) FaceCount() int          { return len(m.Faces) / 3 }
func (m *TriangleMesh) Vertices() []common.Vec3 { return m.Verts }
func (m *TriangleMesh) Indices() []uint32       { return m.Faces }

// MeshSource places a mesh in the world.
type MeshSource struct {
	Mesh      MeshData
	Transform common.Mat4
}

// WorldBounds returns the box of the transformed mesh.
func (s MeshSource) WorldBounds() Bounds {
	verts := s.Mesh.Vertices()
	if len(verts) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: verts[0], Max: verts[0]}
	for _, v := range verts[1:] {
		common.Vmin(b.Min[:], v[:])
		common.Vmax(b.Max[:], v[:])
	}
	b.Min, b.Max = common.TransformBounds(s.Transform, b.Min, b.Max)
	return b
}

// Landscape maps height samples to world space.
type Landscape struct {
	Scale  common.Vec3
	Offset common.Vec3
}

// TerrainBlock is a Width x Depth window of landscape height samples starting
// at sample (OffsetX, OffsetZ). Heights is row major along x.
type TerrainBlock struct {
	Landscape *Landscape
	OffsetX   int
	OffsetZ   int
	Width     int
	Depth     int
	Heights   []int16
}

func (t *TerrainBlock) vertexCount() int { return t.Width * t.Depth }

func (t *TerrainBlock) triCount() int {
	if t.Width < 2 || t.Depth < 2 {
		return 0
	}
	return (t.Width - 1) * (t.Depth - 1) * 2
}

// Geometry is the merged world space soup a tile is voxelized from.
type Geometry struct {
	Verts []float32 // x, y, z per vertex
	Tris  []int     // three vertex indices per triangle
}

func (g *Geometry) VertCount() int { return len(g.Verts) / 3 }
func (g *Geometry) TriCount() int  { return len(g.Tris) / 3 }

// Bounds returns the box of every merged vertex.
func (g *Geometry) Bounds() Bounds {
	var b Bounds
	recast.RcCalcBounds(g.Verts, g.VertCount(), b.Min[:], b.Max[:])
	return b
}

// MergeGeometry transforms every mesh into world space and triangulates every
// terrain block into one vertex and index list. Mesh faces have their winding
// flipped so that upward faces produce a +Y normal; terrain cells are emitted
// already facing up.
func MergeGeometry(meshes []MeshSource, terrain []TerrainBlock) *Geometry {
	nverts, ntris := 0, 0
	for i := range meshes {
		nverts += meshes[i].Mesh.VertexCount()
		ntris += meshes[i].Mesh.FaceCount()
	}
	for i := range terrain {
		nverts += terrain[i].vertexCount()
		ntris += terrain[i].triCount()
	}

	g := &Geometry{
		Verts: make([]float32, 0, nverts*3),
		Tris:  make([]int, 0, ntris*3),
	}
	for i := range meshes {
		src := &meshes[i]
		base := g.VertCount()
		for _, v := range src.Mesh.Vertices() {
			w := common.TransformCoord(src.Transform, v)
			g.Verts = append(g.Verts, w[0], w[1], w[2])
		}
		idx := src.Mesh.Indices()
		for f := 0; f+2 < len(idx); f += 3 {
			g.Tris = append(g.Tris, base+int(idx[f]), base+int(idx[f+2]), base+int(idx[f+1]))
		}
	}
	for i := range terrain {
		appendTerrain(g, &terrain[i])
	}
	return g
}

func appendTerrain(g *Geometry, t *TerrainBlock) {
	ls := t.Landscape
	base := g.VertCount()
	for j := 0; j < t.Depth; j++ {
		for i := 0; i < t.Width; i++ {
			h := float32(t.Heights[j*t.Width+i])
			g.Verts = append(g.Verts,
				ls.Offset[0]+float32(t.OffsetX+i)*ls.Scale[0],
				ls.Offset[1]+h*ls.Scale[1],
				ls.Offset[2]+float32(t.OffsetZ+j)*ls.Scale[2])
		}
	}
	for j := 0; j < t.Depth-1; j++ {
		for i := 0; i < t.Width-1; i++ {
			a := base + j*t.Width + i
			b := a + t.Width
			c := b + 1
			d := a + 1
			g.Tris = append(g.Tris, a, b, c, a, c, d)
		}
	}
}
