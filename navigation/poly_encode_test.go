package navigation

import (
	"testing"

	"github.com/gorustyt/gonavtile/recast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const null = recast.RC_MESH_NULL_IDX

func samplePolyMesh() *recast.RcPolyMesh {
	return &recast.RcPolyMesh{
		Verts: []int{
			0, 5, 0,
			0, 5, 8,
			8, 5, 8,
			8, 5, 0,
			12, 6, 4,
		},
		Polys: []int{
			0, 1, 2, 3, null, null, null, null, 1, null, null, null,
			3, 2, 4, null, null, null, 0, null, null, null, null, null,
			null, null, null, null, null, null, null, null, null, null, null, null,
		},
		Regs:       []int{1, 1, 0},
		Areas:      []uint8{uint8(RegionGround), uint8(RegionWater), 0},
		Flags:      []uint16{PolyFlagWalk, PolyFlagSwim, 0},
		NVerts:     5,
		NPolys:     2,
		MaxPolys:   3,
		Nvp:        6,
		Bmin:       [3]float32{-2, -1, -2},
		Bmax:       [3]float32{18, 1, 18},
		Cs:         0.5,
		Ch:         0.2,
		BorderSize: 4,
	}
}

func TestPolyMeshEncoding(t *testing.T) {
	in := samplePolyMesh()
	data := EncodePolyMesh(in)
	require.Len(t, data, polyMeshHeaderSize+5*3*2+2*6*2*2+2*(2+1+2))

	out, err := DecodePolyMesh(data)
	require.NoError(t, err)
	assert.Equal(t, in.NVerts, out.NVerts)
	assert.Equal(t, in.NPolys, out.NPolys)
	assert.Equal(t, in.MaxPolys, out.MaxPolys)
	assert.Equal(t, in.Nvp, out.Nvp)
	assert.Equal(t, in.Bmin, out.Bmin)
	assert.Equal(t, in.Bmax, out.Bmax)
	assert.Equal(t, in.Cs, out.Cs)
	assert.Equal(t, in.Ch, out.Ch)
	assert.Equal(t, in.BorderSize, out.BorderSize)
	assert.Equal(t, in.Verts, out.Verts)
	assert.Equal(t, in.Polys, out.Polys, "unused polygons decode as null")
	assert.Equal(t, in.Regs, out.Regs)
	assert.Equal(t, in.Areas, out.Areas)
	assert.Equal(t, in.Flags, out.Flags)
}

func TestPolyMeshEncodingEmpty(t *testing.T) {
	assert.Nil(t, EncodePolyMesh(nil))

	out, err := DecodePolyMesh(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecodePolyMeshCorrupt(t *testing.T) {
	data := EncodePolyMesh(samplePolyMesh())

	_, err := DecodePolyMesh(data[:20])
	assert.ErrorIs(t, err, ErrCorruptPolyData, "short header")

	_, err = DecodePolyMesh(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrCorruptPolyData, "truncated body")

	bad := append([]byte(nil), data...)
	bad[12] = 9 // nvp
	_, err = DecodePolyMesh(bad)
	assert.ErrorIs(t, err, ErrCorruptPolyData, "nvp out of range")

	bad = append([]byte(nil), data...)
	bad[8] = 1 // maxpolys below npolys
	_, err = DecodePolyMesh(bad)
	assert.ErrorIs(t, err, ErrCorruptPolyData, "maxpolys below npolys")
}

func TestCheckVertexCount(t *testing.T) {
	assert.NoError(t, checkVertexCount(&recast.RcPolyMesh{NVerts: 0xfffe}))
	err := checkVertexCount(&recast.RcPolyMesh{NVerts: 70000})
	assert.ErrorIs(t, err, ErrTooManyVertices)
	assert.Contains(t, err.Error(), "70000")
}
