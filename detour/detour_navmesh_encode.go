package detour

import (
	"fmt"

	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/common/rw"
)

// NavMeshData is one packed navigation tile: the header followed by every
// section a DtNavMesh needs to register the tile.
type NavMeshData struct {
	Header      *DtMeshHeader
	NavVerts    []float32
	NavPolys    []DtPoly
	Links       []DtLink // Ignore links; just leave enough space for them. They'll be created on load.
	NavDMeshes  []DtPolyDetail
	NavDVerts   []float32
	NavDTris    []uint8
	NavBvtree   []DtBVNode
	OffMeshCons []DtOffMeshConnection
}

func alignPad(n int) int {
	return common.Align4(n) - n
}

// Size returns the length of the encoded tile.
func (d *NavMeshData) Size() int {
	h := d.Header
	size := common.Align4(headerSize)
	size += common.Align4(4 * 3 * int(h.VertCount))
	size += common.Align4(polySize * int(h.PolyCount))
	size += common.Align4(linkSize * int(h.MaxLinkCount))
	size += common.Align4(polyDetailSize * int(h.DetailMeshCount))
	size += common.Align4(4 * 3 * int(h.DetailVertCount))
	size += common.Align4(4 * int(h.DetailTriCount))
	size += common.Align4(bvNodeSize * int(h.BvNodeCount))
	size += common.Align4(offMeshConnSize * int(h.OffMeshConCount))
	return size
}

// ToBin encodes the tile little-endian, every section padded to four bytes.
// Links are written as empty slots, they are rebuilt when the tile is added.
func (d *NavMeshData) ToBin() []byte {
	w := rw.NewWriter()
	d.Header.ToBin(w)
	w.PadZero(alignPad(headerSize))

	w.WriteFloat32s(d.NavVerts)
	for i := range d.NavPolys {
		d.NavPolys[i].ToBin(w)
	}

	var empty DtLink
	for i := 0; i < int(d.Header.MaxLinkCount); i++ {
		empty.ToBin(w)
	}

	for i := range d.NavDMeshes {
		d.NavDMeshes[i].ToBin(w)
	}
	w.WriteFloat32s(d.NavDVerts)
	w.WriteInt8s(d.NavDTris)
	w.PadZero(alignPad(len(d.NavDTris)))

	for i := range d.NavBvtree {
		d.NavBvtree[i].ToBin(w)
	}
	for i := range d.OffMeshCons {
		d.OffMeshCons[i].ToBin(w)
	}
	return w.GetWriteBytes()
}

// FromBin decodes a tile produced by ToBin. The magic and version are
// checked before any section is read.
func FromBin(data []byte) (*NavMeshData, error) {
	r := rw.NewReader(data)
	header := &DtMeshHeader{}
	header.FromBin(r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("detour: tile header: %w", err)
	}
	if header.Magic != DT_NAVMESH_MAGIC {
		return nil, ErrWrongMagic
	}
	if header.Version != DT_NAVMESH_VERSION {
		return nil, ErrWrongVersion
	}
	if header.PolyCount < 0 || header.VertCount < 0 || header.MaxLinkCount < 0 ||
		header.DetailMeshCount < 0 || header.DetailVertCount < 0 || header.DetailTriCount < 0 ||
		header.BvNodeCount < 0 || header.OffMeshConCount < 0 {
		return nil, fmt.Errorf("detour: negative section count: %w", ErrInvalidParam)
	}

	d := &NavMeshData{Header: header}
	if len(data) < d.Size() {
		return nil, fmt.Errorf("detour: tile needs %d bytes, have %d: %w", d.Size(), len(data), ErrTruncated)
	}
	r.Skip(alignPad(headerSize))

	d.NavVerts = make([]float32, 3*header.VertCount)
	r.ReadFloat32s(d.NavVerts)

	d.NavPolys = make([]DtPoly, header.PolyCount)
	for i := range d.NavPolys {
		d.NavPolys[i].FromBin(r)
	}

	d.Links = make([]DtLink, header.MaxLinkCount)
	for i := range d.Links {
		d.Links[i].FromBin(r)
	}

	d.NavDMeshes = make([]DtPolyDetail, header.DetailMeshCount)
	for i := range d.NavDMeshes {
		d.NavDMeshes[i].FromBin(r)
	}

	d.NavDVerts = make([]float32, 3*header.DetailVertCount)
	r.ReadFloat32s(d.NavDVerts)

	d.NavDTris = make([]uint8, 4*header.DetailTriCount)
	r.ReadUInt8s(d.NavDTris)
	r.Skip(alignPad(len(d.NavDTris)))

	d.NavBvtree = make([]DtBVNode, header.BvNodeCount)
	for i := range d.NavBvtree {
		d.NavBvtree[i].FromBin(r)
	}

	d.OffMeshCons = make([]DtOffMeshConnection, header.OffMeshConCount)
	for i := range d.OffMeshCons {
		d.OffMeshCons[i].FromBin(r)
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("detour: tile body: %w", err)
	}
	return d, nil
}
