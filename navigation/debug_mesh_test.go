package navigation

import (
	"image/color"
	"testing"

	"github.com/gorustyt/gonavtile/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	technique      string
	mesh           *DebugMesh
	interior, wire color.Color
}

type recordingDriver struct {
	calls []drawCall
}

func (d *recordingDriver) DrawMesh(technique string, mesh *DebugMesh, interior, wire color.Color) {
	d.calls = append(d.calls, drawCall{technique, mesh, interior, wire})
}

func TestDebugMesh(t *testing.T) {
	tile := buildFlatTile(t, nil)
	pmesh := tile.PolyMesh()
	rm := NewResourceManager("scene")

	m := tile.DebugMesh(rm)
	require.NotNil(t, m)
	assert.Same(t, rm, m.Manager())
	require.Len(t, m.Vertices, pmesh.NVerts)

	want := 0
	for i := 0; i < pmesh.NPolys; i++ {
		want += polyVertCount(pmesh.Poly(i)[:pmesh.Nvp]) - 2
	}
	assert.Equal(t, want, m.TriangleCount())
	for _, idx := range m.Indices {
		assert.Less(t, int(idx), pmesh.NVerts)
	}

	v := common.GetVert3(pmesh.Verts, 0)
	assert.InDelta(t, pmesh.Bmin[0]+float32(v[0])*pmesh.Cs, m.Vertices[0][0], 1e-4)
	assert.InDelta(t, pmesh.Bmin[1]+float32(v[1]+1)*pmesh.Ch, m.Vertices[0][1], 1e-4)
	assert.InDelta(t, pmesh.Bmin[2]+float32(v[2])*pmesh.Cs, m.Vertices[0][2], 1e-4)

	assert.Same(t, m, tile.DebugMesh(rm), "cached for the same manager")

	other := NewResourceManager("scene")
	m2 := tile.DebugMesh(other)
	require.NotNil(t, m2)
	assert.NotSame(t, m, m2, "rebuilt for another manager")
	assert.Same(t, other, m2.Manager())
	assert.Equal(t, m.Indices, m2.Indices)
}

func TestDebugMeshEmpty(t *testing.T) {
	tile := NewTile(nil, 0, 0, 0)
	assert.Nil(t, tile.DebugMesh(NewResourceManager("scene")))

	built := buildFlatTile(t, nil)
	assert.Nil(t, built.DebugMesh(nil))
}

func TestDebugDraw(t *testing.T) {
	tile := buildFlatTile(t, nil)
	rm := NewResourceManager("scene")
	driver := &recordingDriver{}

	tile.DebugDraw(driver, rm)
	require.Len(t, driver.calls, 1)
	call := driver.calls[0]
	assert.Equal(t, DebugTechnique, call.technique)
	assert.Same(t, tile.DebugMesh(rm), call.mesh)
	assert.Equal(t, color.Color(color.NRGBA{R: 178, G: 51, B: 25, A: 102}), call.interior)
	assert.Equal(t, color.Color(color.NRGBA{A: 255}), call.wire)

	NewTile(nil, 1, 0, 0).DebugDraw(driver, rm)
	assert.Len(t, driver.calls, 1, "nothing to draw for an unbuilt tile")

	tile.DebugDraw(nil, rm)
}
