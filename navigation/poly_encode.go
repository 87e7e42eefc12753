package navigation

import (
	"fmt"

	"github.com/gorustyt/gonavtile/common/rw"
	"github.com/gorustyt/gonavtile/detour"
	"github.com/gorustyt/gonavtile/recast"
)

const polyMeshHeaderSize = 52

// EncodePolyMesh packs the editable polygon mesh little-endian:
//
//	header  nverts, npolys, maxpolys, nvp (i32), bmin, bmax (3 x f32), cs, ch (f32), borderSize (i32)
//	verts   u16 [nverts*3]
//	polys   u16 [npolys*nvp*2]
//	regs    u16 [npolys]
//	areas   u8  [npolys]
//	flags   u16 [npolys]
//
// A nil mesh encodes to nil.
func EncodePolyMesh(pmesh *recast.RcPolyMesh) []byte {
	if pmesh == nil {
		return nil
	}
	w := rw.NewWriter()
	w.WriteInt32(pmesh.NVerts)
	w.WriteInt32(pmesh.NPolys)
	w.WriteInt32(pmesh.MaxPolys)
	w.WriteInt32(pmesh.Nvp)
	w.WriteFloat32s(pmesh.Bmin[:])
	w.WriteFloat32s(pmesh.Bmax[:])
	w.WriteFloat32(pmesh.Cs)
	w.WriteFloat32(pmesh.Ch)
	w.WriteInt32(pmesh.BorderSize)

	w.WriteInt16s(pmesh.Verts[:pmesh.NVerts*3])
	w.WriteInt16s(pmesh.Polys[:pmesh.NPolys*pmesh.Nvp*2])
	w.WriteInt16s(pmesh.Regs[:pmesh.NPolys])
	w.WriteInt8s(pmesh.Areas[:pmesh.NPolys])
	w.WriteInt16s(pmesh.Flags[:pmesh.NPolys])
	return w.GetWriteBytes()
}

// DecodePolyMesh restores a mesh written by EncodePolyMesh. Empty input
// decodes to a nil mesh.
func DecodePolyMesh(data []byte) (*recast.RcPolyMesh, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < polyMeshHeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrCorruptPolyData, len(data))
	}
	r := rw.NewReader(data)
	pmesh := &recast.RcPolyMesh{
		NVerts:   int(r.ReadInt32()),
		NPolys:   int(r.ReadInt32()),
		MaxPolys: int(r.ReadInt32()),
		Nvp:      int(r.ReadInt32()),
	}
	r.ReadFloat32s(pmesh.Bmin[:])
	r.ReadFloat32s(pmesh.Bmax[:])
	pmesh.Cs = r.ReadFloat32()
	pmesh.Ch = r.ReadFloat32()
	pmesh.BorderSize = int(r.ReadInt32())

	if pmesh.NVerts < 0 || pmesh.NVerts > 0xffff || pmesh.NPolys < 0 ||
		pmesh.MaxPolys < pmesh.NPolys || pmesh.MaxPolys > 1<<22 || pmesh.Nvp < 3 || pmesh.Nvp > detour.DT_VERTS_PER_POLYGON {
		return nil, fmt.Errorf("%w: nverts=%d npolys=%d maxpolys=%d nvp=%d",
			ErrCorruptPolyData, pmesh.NVerts, pmesh.NPolys, pmesh.MaxPolys, pmesh.Nvp)
	}
	need := pmesh.NVerts*3*2 + pmesh.NPolys*pmesh.Nvp*2*2 + pmesh.NPolys*(2+1+2)
	if r.Size() < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrCorruptPolyData, need, r.Size())
	}

	verts := make([]uint16, pmesh.NVerts*3)
	r.ReadUInt16s(verts)
	pmesh.Verts = widen(verts, pmesh.NVerts*3)

	polys := make([]uint16, pmesh.NPolys*pmesh.Nvp*2)
	r.ReadUInt16s(polys)
	pmesh.Polys = widen(polys, pmesh.MaxPolys*pmesh.Nvp*2)
	for i := len(polys); i < len(pmesh.Polys); i++ {
		pmesh.Polys[i] = recast.RC_MESH_NULL_IDX
	}

	regs := make([]uint16, pmesh.NPolys)
	r.ReadUInt16s(regs)
	pmesh.Regs = widen(regs, pmesh.MaxPolys)

	pmesh.Areas = make([]uint8, pmesh.MaxPolys)
	r.ReadUInt8s(pmesh.Areas[:pmesh.NPolys])
	pmesh.Flags = make([]uint16, pmesh.MaxPolys)
	r.ReadUInt16s(pmesh.Flags[:pmesh.NPolys])

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptPolyData, err)
	}
	return pmesh, nil
}

func widen(src []uint16, n int) []int {
	dst := make([]int, n)
	for i, v := range src {
		dst[i] = int(v)
	}
	return dst
}
