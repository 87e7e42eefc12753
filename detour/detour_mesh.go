package detour

import (
	"github.com/gorustyt/gonavtile/common/rw"
)

const (
	/// The maximum number of vertices per navigation polygon.
	/// @ingroup detour
	DT_VERTS_PER_POLYGON = 6
	DT_NULL_LINK         = 0xffffffff

	/// A flag that indicates that an entity links to an external entity.
	/// (E.g. A polygon edge is a portal that links to another polygon.)
	DT_EXT_LINK = 0x8000
	/// A flag that indicates that an off-mesh connection can be traversed in both directions. (Is bidirectional.)
	DT_OFFMESH_CON_BIDIR = 1

	/// A magic number used to detect compatibility of navigation tile data.
	DT_NAVMESH_MAGIC = 'D'<<24 | 'N'<<16 | 'A'<<8 | 'V'

	/// A version number used to detect compatibility of navigation tile data.
	DT_NAVMESH_VERSION = 7

	/// The maximum number of user defined area ids.
	/// @ingroup detour
	DT_MAX_AREAS = 64

	/// An value which indicates an invalid index within a mesh.
	MESH_NULL_IDX = 0xffff
)

const (
	/// Flags representing the type of a navigation mesh polygon.
	/// The polygon is a standard convex polygon that is part of the surface of the mesh.
	DT_POLYTYPE_GROUND = 0
	/// The polygon is an off-mesh connection consisting of two vertices.
	DT_POLYTYPE_OFFMESH_CONNECTION = 1
)

const (
	DT_DETAIL_EDGE_BOUNDARY = 0x01 ///< Detail triangle edge is part of the poly boundary
)

const (
	/// Tile flags used for various functions and fields.
	/// For an example, see DtNavMesh::AddTile().

	/// The navigation mesh owns the tile memory and is responsible for freeing it.
	DT_TILE_FREE_DATA = 0x01
)

// Binary sizes of the packed tile structures.
const (
	headerSize       = 100
	polySize         = 32
	linkSize         = 12
	polyDetailSize   = 12
	bvNodeSize       = 16
	offMeshConnSize  = 36
	minSaltBits      = 10
	maxNeighbourList = 32
)

// / A handle to a polygon within a navigation mesh tile.
// / Salt, tile index and polygon index are packed into 32 bits.
type DtPolyRef uint32

// / A handle to a tile within a navigation mesh.
type DtTileRef uint32

// InvalidTileRef marks a tile that was never registered with a DtNavMesh.
const InvalidTileRef DtTileRef = 0xFFFFFFFF

// / Defines a polygon within a DtMeshTile object.
// / @ingroup detour
type DtPoly struct {
	/// Index to first link in linked list. (Or #DT_NULL_LINK if there is no link.)
	FirstLink uint32

	/// The indices of the polygon's vertices.
	/// The actual vertices are located in DtMeshTile::verts.
	Verts [DT_VERTS_PER_POLYGON]uint16

	/// Packed data representing neighbor polygons references and flags for each edge.
	Neis [DT_VERTS_PER_POLYGON]uint16

	/// The user defined polygon flags.
	Flags uint16

	/// The number of vertices in the polygon.
	VertCount uint8

	/// The bit packed area id and polygon type.
	/// @note Use the structure's set and get methods to access this value.
	AreaAndtype uint8
}

func (p *DtPoly) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(p.FirstLink)
	w.WriteInt16s(p.Verts[:])
	w.WriteInt16s(p.Neis[:])
	w.WriteInt16(p.Flags)
	w.WriteInt8(p.VertCount)
	w.WriteInt8(p.AreaAndtype)
}

func (p *DtPoly) FromBin(r *rw.ReaderWriter) {
	p.FirstLink = r.ReadUInt32()
	r.ReadUInt16s(p.Verts[:])
	r.ReadUInt16s(p.Neis[:])
	p.Flags = r.ReadUInt16()
	p.VertCount = r.ReadUInt8()
	p.AreaAndtype = r.ReadUInt8()
}

// / Sets the user defined area id. [Limit: < #DT_MAX_AREAS]
func (p *DtPoly) SetArea(a uint8) { p.AreaAndtype = (p.AreaAndtype & 0xc0) | (a & 0x3f) }

// / Sets the polygon type. (See: #dtPolyTypes.)
func (p *DtPoly) SetType(t uint8) { p.AreaAndtype = (p.AreaAndtype & 0x3f) | (t << 6) }

// / Gets the user defined area id.
func (p *DtPoly) GetArea() uint8 { return p.AreaAndtype & 0x3f }

// / Gets the polygon type. (See: #dtPolyTypes)
func (p *DtPoly) GetType() uint8 { return p.AreaAndtype >> 6 }

// / Defines the location of detail sub-mesh data within a DtMeshTile.
type DtPolyDetail struct {
	VertBase  uint32 ///< The offset of the vertices in the DtMeshTile::detailVerts array.
	TriBase   uint32 ///< The offset of the triangles in the DtMeshTile::detailTris array.
	VertCount uint8  ///< The number of vertices in the sub-mesh.
	TriCount  uint8  ///< The number of triangles in the sub-mesh.
}

func (d *DtPolyDetail) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(d.VertBase)
	w.WriteInt32(d.TriBase)
	w.WriteInt8(d.VertCount)
	w.WriteInt8(d.TriCount)
	w.PadZero(2)
}

func (d *DtPolyDetail) FromBin(r *rw.ReaderWriter) {
	d.VertBase = r.ReadUInt32()
	d.TriBase = r.ReadUInt32()
	d.VertCount = r.ReadUInt8()
	d.TriCount = r.ReadUInt8()
	r.Skip(2)
}

// Defines a link between polygons.
// / @note This structure is rarely if ever used by the end user.
// / @see DtMeshTile
type DtLink struct {
	Ref  DtPolyRef ///< Neighbour reference. (The neighbor that is linked to.)
	Next uint32    ///< Index of the next link.
	Edge uint8     ///< Index of the polygon edge that owns this link.
	Side uint8     ///< If a boundary link, defines on which side the link is.
	Bmin uint8     ///< If a boundary link, defines the minimum sub-edge area.
	Bmax uint8     ///< If a boundary link, defines the maximum sub-edge area.
}

func (l *DtLink) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(uint32(l.Ref))
	w.WriteInt32(l.Next)
	w.WriteInt8(l.Edge)
	w.WriteInt8(l.Side)
	w.WriteInt8(l.Bmin)
	w.WriteInt8(l.Bmax)
}

func (l *DtLink) FromBin(r *rw.ReaderWriter) {
	l.Ref = DtPolyRef(r.ReadUInt32())
	l.Next = r.ReadUInt32()
	l.Edge = r.ReadUInt8()
	l.Side = r.ReadUInt8()
	l.Bmin = r.ReadUInt8()
	l.Bmax = r.ReadUInt8()
}

// / Bounding volume node.
// / @note This structure is rarely if ever used by the end user.
// / @see DtMeshTile
type DtBVNode struct {
	Bmin [3]uint16 ///< Minimum bounds of the node's AABB. [(x, y, z)]
	Bmax [3]uint16 ///< Maximum bounds of the node's AABB. [(x, y, z)]
	I    int32     ///< The node's index. (Negative for escape sequence.)
}

func (n *DtBVNode) ToBin(w *rw.ReaderWriter) {
	w.WriteInt16s(n.Bmin[:])
	w.WriteInt16s(n.Bmax[:])
	w.WriteInt32(n.I)
}

func (n *DtBVNode) FromBin(r *rw.ReaderWriter) {
	r.ReadUInt16s(n.Bmin[:])
	r.ReadUInt16s(n.Bmax[:])
	n.I = r.ReadInt32()
}

// / Defines an navigation mesh off-mesh connection within a DtMeshTile object.
// / An off-mesh connection is a user defined traversable connection made up to two vertices.
type DtOffMeshConnection struct {
	/// The endpoints of the connection. [(ax, ay, az, bx, by, bz)]
	Pos [6]float32

	/// The radius of the endpoints. [Limit: >= 0]
	Rad float32

	/// The polygon reference of the connection within the tile.
	Poly uint16

	/// Link flags.
	/// @note These are not the connection's user defined flags. Those are assigned via the
	/// connection's DtPoly definition. These are link flags used for internal purposes.
	Flags uint8

	/// End point side.
	Side uint8

	/// The id of the offmesh connection. (User assigned when the navigation mesh is built.)
	UserId uint32
}

func (c *DtOffMeshConnection) ToBin(w *rw.ReaderWriter) {
	w.WriteFloat32s(c.Pos[:])
	w.WriteFloat32(c.Rad)
	w.WriteInt16(c.Poly)
	w.WriteInt8(c.Flags)
	w.WriteInt8(c.Side)
	w.WriteInt32(c.UserId)
}

func (c *DtOffMeshConnection) FromBin(r *rw.ReaderWriter) {
	r.ReadFloat32s(c.Pos[:])
	c.Rad = r.ReadFloat32()
	c.Poly = r.ReadUInt16()
	c.Flags = r.ReadUInt8()
	c.Side = r.ReadUInt8()
	c.UserId = r.ReadUInt32()
}

// / Provides high level information related to a DtMeshTile object.
// / @ingroup detour
type DtMeshHeader struct {
	Magic           int32  ///< Tile magic number. (Used to identify the data format.)
	Version         int32  ///< Tile data format version number.
	X               int32  ///< The x-position of the tile within the DtNavMesh tile grid. (x, y, layer)
	Y               int32  ///< The y-position of the tile within the DtNavMesh tile grid. (x, y, layer)
	Layer           int32  ///< The layer of the tile within the DtNavMesh tile grid. (x, y, layer)
	UserId          uint32 ///< The user defined id of the tile.
	PolyCount       int32  ///< The number of polygons in the tile.
	VertCount       int32  ///< The number of vertices in the tile.
	MaxLinkCount    int32  ///< The number of allocated links.
	DetailMeshCount int32  ///< The number of sub-meshes in the detail mesh.

	/// The number of unique vertices in the detail mesh. (In addition to the polygon vertices.)
	DetailVertCount int32

	DetailTriCount  int32      ///< The number of triangles in the detail mesh.
	BvNodeCount     int32      ///< The number of bounding volume nodes. (Zero if bounding volumes are disabled.)
	OffMeshConCount int32      ///< The number of off-mesh connections.
	OffMeshBase     int32      ///< The index of the first polygon which is an off-mesh connection.
	WalkableHeight  float32    ///< The height of the agents using the tile.
	WalkableRadius  float32    ///< The radius of the agents using the tile.
	WalkableClimb   float32    ///< The maximum climb height of the agents using the tile.
	Bmin            [3]float32 ///< The minimum bounds of the tile's AABB. [(x, y, z)]
	Bmax            [3]float32 ///< The maximum bounds of the tile's AABB. [(x, y, z)]

	/// The bounding volume quantization factor.
	BvQuantFactor float32
}

func (h *DtMeshHeader) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(h.Magic)
	w.WriteInt32(h.Version)
	w.WriteInt32(h.X)
	w.WriteInt32(h.Y)
	w.WriteInt32(h.Layer)
	w.WriteInt32(h.UserId)
	w.WriteInt32(h.PolyCount)
	w.WriteInt32(h.VertCount)
	w.WriteInt32(h.MaxLinkCount)
	w.WriteInt32(h.DetailMeshCount)
	w.WriteInt32(h.DetailVertCount)
	w.WriteInt32(h.DetailTriCount)
	w.WriteInt32(h.BvNodeCount)
	w.WriteInt32(h.OffMeshConCount)
	w.WriteInt32(h.OffMeshBase)
	w.WriteFloat32(h.WalkableHeight)
	w.WriteFloat32(h.WalkableRadius)
	w.WriteFloat32(h.WalkableClimb)
	w.WriteFloat32s(h.Bmin[:])
	w.WriteFloat32s(h.Bmax[:])
	w.WriteFloat32(h.BvQuantFactor)
}

func (h *DtMeshHeader) FromBin(r *rw.ReaderWriter) {
	h.Magic = r.ReadInt32()
	h.Version = r.ReadInt32()
	h.X = r.ReadInt32()
	h.Y = r.ReadInt32()
	h.Layer = r.ReadInt32()
	h.UserId = r.ReadUInt32()
	h.PolyCount = r.ReadInt32()
	h.VertCount = r.ReadInt32()
	h.MaxLinkCount = r.ReadInt32()
	h.DetailMeshCount = r.ReadInt32()
	h.DetailVertCount = r.ReadInt32()
	h.DetailTriCount = r.ReadInt32()
	h.BvNodeCount = r.ReadInt32()
	h.OffMeshConCount = r.ReadInt32()
	h.OffMeshBase = r.ReadInt32()
	h.WalkableHeight = r.ReadFloat32()
	h.WalkableRadius = r.ReadFloat32()
	h.WalkableClimb = r.ReadFloat32()
	r.ReadFloat32s(h.Bmin[:])
	r.ReadFloat32s(h.Bmax[:])
	h.BvQuantFactor = r.ReadFloat32()
}

// / Defines a navigation mesh tile.
// / @ingroup detour
type DtMeshTile struct {
	salt uint32 ///< Counter describing modifications to the tile.

	linksFreeList uint32         ///< Index to the next free link.
	Header        *DtMeshHeader  ///< The tile header.
	Polys         []DtPoly       ///< The tile polygons. [Size: DtMeshHeader::polyCount]
	Verts         []float32      ///< The tile vertices. [(x, y, z) * DtMeshHeader::vertCount]
	Links         []DtLink       ///< The tile links. [Size: DtMeshHeader::maxLinkCount]
	DetailMeshes  []DtPolyDetail ///< The tile's detail sub-meshes. [Size: DtMeshHeader::detailMeshCount]

	/// The detail mesh's unique vertices. [(x, y, z) * DtMeshHeader::detailVertCount]
	DetailVerts []float32

	/// The detail mesh's triangles. [(vertA, vertB, vertC, triFlags) * DtMeshHeader::detailTriCount].
	DetailTris []uint8

	/// The tile bounding volume nodes. [Size: DtMeshHeader::bvNodeCount]
	/// (Will be null if bounding volumes are disabled.)
	BvTree []DtBVNode

	OffMeshCons []DtOffMeshConnection ///< The tile off-mesh connections. [Size: DtMeshHeader::offMeshConCount]
	Flags       int                   ///< Tile flags. (See: #dtTileFlags)
	Next        *DtMeshTile           ///< The next free tile, or the next tile in the spatial grid.
	Data        *NavMeshData
}

// / Configuration parameters used to define multi-tile navigation meshes.
// / The values are used to allocate space during the initialization of a navigation mesh.
// / @see DtNavMesh::Init()
// / @ingroup detour
type NavMeshParams struct {
	Orig       [3]float32 ///< The world space origin of the navigation mesh's tile space. [(x, y, z)]
	TileWidth  float32    ///< The width of each tile. (Along the x-axis.)
	TileHeight float32    ///< The height of each tile. (Along the z-axis.)
	MaxTiles   int        ///< The maximum number of tiles the navigation mesh can contain.
	MaxPolys   int        ///< The maximum number of polygons each tile can contain.
}

func (p *NavMeshParams) FromBin(r *rw.ReaderWriter) {
	r.ReadFloat32s(p.Orig[:])
	p.TileWidth = r.ReadFloat32()
	p.TileHeight = r.ReadFloat32()
	p.MaxTiles = int(r.ReadInt32())
	p.MaxPolys = int(r.ReadInt32())
}

func (p *NavMeshParams) ToBin(w *rw.ReaderWriter) {
	w.WriteFloat32s(p.Orig[:])
	w.WriteFloat32(p.TileWidth)
	w.WriteFloat32(p.TileHeight)
	w.WriteInt32(p.MaxTiles)
	w.WriteInt32(p.MaxPolys)
}
