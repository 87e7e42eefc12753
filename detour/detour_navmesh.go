package detour

import (
	"math"

	"github.com/gorustyt/gonavtile/common"
)

// / A navigation mesh based on tiles of convex polygons.
// / @ingroup detour
type DtNavMesh struct {
	params                NavMeshParams ///< Current initialization params.
	orig                  [3]float32    ///< Origin of the tile (0,0)
	tileWidth, tileHeight float32       ///< Dimensions of each tile.
	maxTiles              int           ///< Max number of tiles.
	tileLutSize           int           ///< Tile hash lookup size (must be pot).
	tileLutMask           int           ///< Tile hash lookup mask.
	posLookup             []*DtMeshTile ///< Tile hash lookup.
	nextFree              *DtMeshTile   ///< Freelist of tiles.
	tiles                 []DtMeshTile  ///< List of tiles.
	saltBits              uint32        ///< Number of salt bits in the tile ID.
	tileBits              uint32        ///< Number of tile bits in the tile ID.
	polyBits              uint32        ///< Number of poly bits in the tile ID.
	tileCount             int
}

// / Initializes the navigation mesh for tiled use.
// /  @param[in]	params		Initialization parameters.
func NewDtNavMesh(params *NavMeshParams) (*DtNavMesh, error) {
	if params.MaxTiles <= 0 || params.MaxPolys <= 0 {
		return nil, ErrInvalidParam
	}
	mesh := &DtNavMesh{
		params:     *params,
		orig:       params.Orig,
		tileWidth:  params.TileWidth,
		tileHeight: params.TileHeight,
		maxTiles:   params.MaxTiles,
	}

	// Init tiles
	mesh.tileLutSize = int(common.NextPow2(uint32(params.MaxTiles / 4)))
	if mesh.tileLutSize == 0 {
		mesh.tileLutSize = 1
	}
	mesh.tileLutMask = mesh.tileLutSize - 1

	mesh.tiles = make([]DtMeshTile, mesh.maxTiles)
	mesh.posLookup = make([]*DtMeshTile, mesh.tileLutSize)
	for i := mesh.maxTiles - 1; i >= 0; i-- {
		mesh.tiles[i].salt = 1
		mesh.tiles[i].Next = mesh.nextFree
		mesh.nextFree = &mesh.tiles[i]
	}

	// Init ID generator values.
	mesh.tileBits = common.Ilog2(common.NextPow2(uint32(params.MaxTiles)))
	mesh.polyBits = common.Ilog2(common.NextPow2(uint32(params.MaxPolys)))
	// Only allow 31 salt bits, since the salt mask is calculated using 32bit uint and it will overflow.
	if mesh.tileBits+mesh.polyBits > 32-minSaltBits {
		return nil, ErrInvalidParam
	}
	mesh.saltBits = min(31, 32-mesh.tileBits-mesh.polyBits)
	return mesh, nil
}

// / The navigation mesh initialization params.
func (mesh *DtNavMesh) GetParams() *NavMeshParams {
	return &mesh.params
}

// TileCount returns the number of tiles currently registered.
func (mesh *DtNavMesh) TileCount() int {
	return mesh.tileCount
}

// / Encodes a standard polygon reference.
func (mesh *DtNavMesh) EncodePolyId(salt, it, ip uint32) DtPolyRef {
	return DtPolyRef((salt << (mesh.polyBits + mesh.tileBits)) | (it << mesh.polyBits) | ip)
}

// / Decodes a standard polygon reference.
func (mesh *DtNavMesh) DecodePolyId(ref DtPolyRef) (salt, it, ip uint32) {
	saltMask := uint32(1)<<mesh.saltBits - 1
	tileMask := uint32(1)<<mesh.tileBits - 1
	polyMask := uint32(1)<<mesh.polyBits - 1
	salt = (uint32(ref) >> (mesh.polyBits + mesh.tileBits)) & saltMask
	it = (uint32(ref) >> mesh.polyBits) & tileMask
	ip = uint32(ref) & polyMask
	return
}

// / Extracts a tile's salt value from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdSalt(ref DtPolyRef) uint32 {
	saltMask := uint32(1)<<mesh.saltBits - 1
	return (uint32(ref) >> (mesh.polyBits + mesh.tileBits)) & saltMask
}

// / Extracts the tile's index from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdTile(ref DtPolyRef) uint32 {
	tileMask := uint32(1)<<mesh.tileBits - 1
	return (uint32(ref) >> mesh.polyBits) & tileMask
}

// / Extracts the polygon's index (within its tile) from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdPoly(ref DtPolyRef) uint32 {
	polyMask := uint32(1)<<mesh.polyBits - 1
	return uint32(ref) & polyMask
}

// / Calculates the tile grid location for the specified world position.
func (mesh *DtNavMesh) CalcTileLoc(pos []float32) (tx, ty int) {
	tx = int(math.Floor(float64((pos[0] - mesh.orig[0]) / mesh.tileWidth)))
	ty = int(math.Floor(float64((pos[2] - mesh.orig[2]) / mesh.tileHeight)))
	return
}

func (mesh *DtNavMesh) getTileIndex(tile *DtMeshTile) uint32 {
	for i := range mesh.tiles {
		if &mesh.tiles[i] == tile {
			return uint32(i)
		}
	}
	return 0
}

// / Gets the tile reference for the specified tile.
func (mesh *DtNavMesh) GetTileRef(tile *DtMeshTile) DtTileRef {
	if tile == nil {
		return 0
	}
	return DtTileRef(mesh.EncodePolyId(tile.salt, mesh.getTileIndex(tile), 0))
}

// / Gets the polygon reference for the tile's base polygon.
func (mesh *DtNavMesh) GetPolyRefBase(tile *DtMeshTile) DtPolyRef {
	if tile == nil {
		return 0
	}
	return mesh.EncodePolyId(tile.salt, mesh.getTileIndex(tile), 0)
}

// / Gets the tile for the specified tile reference, or nil when the reference is stale.
func (mesh *DtNavMesh) GetTileByRef(ref DtTileRef) *DtMeshTile {
	if ref == 0 {
		return nil
	}
	tileIndex := mesh.DecodePolyIdTile(DtPolyRef(ref))
	tileSalt := mesh.DecodePolyIdSalt(DtPolyRef(ref))
	if int(tileIndex) >= mesh.maxTiles {
		return nil
	}
	tile := &mesh.tiles[tileIndex]
	if tile.salt != tileSalt || tile.Header == nil {
		return nil
	}
	return tile
}

// / Gets the tile at the specified grid location.
func (mesh *DtNavMesh) GetTileAt(x, y, layer int) *DtMeshTile {
	// Find tile based on hash.
	h := computeTileHash(x, y, mesh.tileLutMask)
	for tile := mesh.posLookup[h]; tile != nil; tile = tile.Next {
		if tile.Header != nil &&
			int(tile.Header.X) == x &&
			int(tile.Header.Y) == y &&
			int(tile.Header.Layer) == layer {
			return tile
		}
	}
	return nil
}

// / Gets the tile reference for the tile at specified grid location.
func (mesh *DtNavMesh) GetTileRefAt(x, y, layer int) DtTileRef {
	return mesh.GetTileRef(mesh.GetTileAt(x, y, layer))
}

// / Gets all tile layers at the specified grid location.
func (mesh *DtNavMesh) GetTilesAt(x, y int, maxTiles int) []*DtMeshTile {
	var tiles []*DtMeshTile
	// Find tile based on hash.
	h := computeTileHash(x, y, mesh.tileLutMask)
	for tile := mesh.posLookup[h]; tile != nil; tile = tile.Next {
		if tile.Header != nil && int(tile.Header.X) == x && int(tile.Header.Y) == y {
			if len(tiles) < maxTiles {
				tiles = append(tiles, tile)
			}
		}
	}
	return tiles
}

func (mesh *DtNavMesh) getNeighbourTilesAt(x, y, side, maxTiles int) []*DtMeshTile {
	nx, ny := x, y
	switch side {
	case 0:
		nx++
	case 1:
		nx++
		ny++
	case 2:
		ny++
	case 3:
		nx--
		ny++
	case 4:
		nx--
	case 5:
		nx--
		ny--
	case 6:
		ny--
	case 7:
		nx++
		ny--
	}
	return mesh.GetTilesAt(nx, ny, maxTiles)
}

// / Checks the validity of a polygon reference.
func (mesh *DtNavMesh) IsValidPolyRef(ref DtPolyRef) bool {
	if ref == 0 {
		return false
	}
	salt, it, ip := mesh.DecodePolyId(ref)
	if int(it) >= mesh.maxTiles {
		return false
	}
	tile := &mesh.tiles[it]
	if tile.salt != salt || tile.Header == nil {
		return false
	}
	return int32(ip) < tile.Header.PolyCount
}

// / Gets the tile and polygon for the specified polygon reference.
func (mesh *DtNavMesh) GetTileAndPolyByRef(ref DtPolyRef) (*DtMeshTile, *DtPoly, error) {
	if !mesh.IsValidPolyRef(ref) {
		return nil, nil, ErrInvalidParam
	}
	_, it, ip := mesh.DecodePolyId(ref)
	tile := &mesh.tiles[it]
	return tile, &tile.Polys[ip], nil
}

// / Sets the user defined flags for the specified polygon.
func (mesh *DtNavMesh) SetPolyFlags(ref DtPolyRef, flags uint16) error {
	_, poly, err := mesh.GetTileAndPolyByRef(ref)
	if err != nil {
		return err
	}
	poly.Flags = flags
	return nil
}

// / Gets the user defined flags for the specified polygon.
func (mesh *DtNavMesh) GetPolyFlags(ref DtPolyRef) (uint16, error) {
	_, poly, err := mesh.GetTileAndPolyByRef(ref)
	if err != nil {
		return 0, err
	}
	return poly.Flags, nil
}

// / Sets the user defined area for the specified polygon.
func (mesh *DtNavMesh) SetPolyArea(ref DtPolyRef, area uint8) error {
	_, poly, err := mesh.GetTileAndPolyByRef(ref)
	if err != nil {
		return err
	}
	poly.SetArea(area)
	return nil
}

// / Gets the user defined area for the specified polygon.
func (mesh *DtNavMesh) GetPolyArea(ref DtPolyRef) (uint8, error) {
	_, poly, err := mesh.GetTileAndPolyByRef(ref)
	if err != nil {
		return 0, err
	}
	return poly.GetArea(), nil
}

// / @par
// /
// / The add operation will fail if the data is in the wrong format, the allocated tile
// / space is full, or there is a tile already at the specified reference.
// /
// / The lastRef parameter is used to restore a tile with the same tile
// / reference it had previously used.  In this case the #DtPolyRef's for the
// / tile will be restored to the same values they were before the tile was
// / removed.
// /
// / The nav mesh assumes exclusive access to the data passed and will make
// / changes to the dynamic portion of the data. For that reason the data
// / should not be reused in other nav meshes until the tile has been successfully
// / removed from this nav mesh.
// /
// / @see DtCreateNavMeshData, #RemoveTile
func (mesh *DtNavMesh) AddTile(data *NavMeshData, flags int, lastRef DtTileRef) (DtTileRef, error) {
	if data == nil || data.Header == nil {
		return 0, ErrInvalidParam
	}
	// Make sure the data is in right format.
	header := data.Header
	if header.Magic != DT_NAVMESH_MAGIC {
		return 0, ErrWrongMagic
	}
	if header.Version != DT_NAVMESH_VERSION {
		return 0, ErrWrongVersion
	}

	// Do not allow adding more polygons than specified in the NavMesh's maxPolys constraint.
	// Otherwise, the poly ID cannot be represented with the given number of bits.
	if mesh.polyBits < common.Ilog2(common.NextPow2(uint32(header.PolyCount))) {
		return 0, ErrTooManyPolygons
	}

	// Make sure the location is free.
	if mesh.GetTileAt(int(header.X), int(header.Y), int(header.Layer)) != nil {
		return 0, ErrAlreadyOccupied
	}

	var tile *DtMeshTile
	if lastRef == 0 {
		if mesh.nextFree != nil {
			tile = mesh.nextFree
			mesh.nextFree = tile.Next
			tile.Next = nil
		}
	} else {
		// Try to relocate the tile to specific index with same salt.
		tileIndex := mesh.DecodePolyIdTile(DtPolyRef(lastRef))
		if int(tileIndex) >= mesh.maxTiles {
			return 0, ErrOutOfMemory
		}
		// Try to find the specific tile id from the free list.
		target := &mesh.tiles[tileIndex]
		var prev *DtMeshTile
		tile = mesh.nextFree
		for tile != nil && tile != target {
			prev = tile
			tile = tile.Next
		}
		// Could not find the correct location.
		if tile != target {
			return 0, ErrOutOfMemory
		}
		// Remove from freelist
		if prev == nil {
			mesh.nextFree = tile.Next
		} else {
			prev.Next = tile.Next
		}
		// Restore salt.
		tile.salt = mesh.DecodePolyIdSalt(DtPolyRef(lastRef))
	}

	// Make sure we could allocate a tile.
	if tile == nil {
		return 0, ErrOutOfMemory
	}

	// Insert tile into the position lut.
	h := computeTileHash(int(header.X), int(header.Y), mesh.tileLutMask)
	tile.Next = mesh.posLookup[h]
	mesh.posLookup[h] = tile

	// Patch header pointers.
	tile.Verts = data.NavVerts
	tile.Polys = data.NavPolys
	if len(data.Links) < int(header.MaxLinkCount) {
		data.Links = make([]DtLink, header.MaxLinkCount)
	}
	tile.Links = data.Links
	tile.DetailMeshes = data.NavDMeshes
	tile.DetailVerts = data.NavDVerts
	tile.DetailTris = data.NavDTris
	tile.BvTree = data.NavBvtree
	tile.OffMeshCons = data.OffMeshCons

	// If there are no items in the bvtree, reset the tree pointer.
	if header.BvNodeCount == 0 {
		tile.BvTree = nil
	}

	// Build links freelist
	tile.linksFreeList = DT_NULL_LINK
	if header.MaxLinkCount > 0 {
		tile.linksFreeList = 0
		tile.Links[header.MaxLinkCount-1].Next = DT_NULL_LINK
		for i := 0; i < int(header.MaxLinkCount)-1; i++ {
			tile.Links[i].Next = uint32(i + 1)
		}
	}

	// Init tile.
	tile.Header = header
	tile.Data = data
	tile.Flags = flags
	mesh.tileCount++

	mesh.connectIntLinks(tile)

	// Base off-mesh connections to their starting polygons and connect connections inside the tile.
	mesh.baseOffMeshLinks(tile)
	mesh.connectExtOffMeshLinks(tile, tile, -1)

	// Create connections with neighbour tiles.
	x, y := int(header.X), int(header.Y)

	// Connect with layers in current tile.
	for _, nei := range mesh.GetTilesAt(x, y, maxNeighbourList) {
		if nei == tile {
			continue
		}
		mesh.connectExtLinks(tile, nei, -1)
		mesh.connectExtLinks(nei, tile, -1)
		mesh.connectExtOffMeshLinks(tile, nei, -1)
		mesh.connectExtOffMeshLinks(nei, tile, -1)
	}

	// Connect with neighbour tiles.
	for i := 0; i < 8; i++ {
		for _, nei := range mesh.getNeighbourTilesAt(x, y, i, maxNeighbourList) {
			mesh.connectExtLinks(tile, nei, i)
			mesh.connectExtLinks(nei, tile, dtOppositeTile(i))
			mesh.connectExtOffMeshLinks(tile, nei, i)
			mesh.connectExtOffMeshLinks(nei, tile, dtOppositeTile(i))
		}
	}

	return mesh.GetTileRef(tile), nil
}

// / @par
// /
// / This function returns the data for the tile so that, if desired,
// / it can be added back to the navigation mesh at a later point.
// / Nil data is returned when the mesh owned the tile (#DT_TILE_FREE_DATA).
// /
// / @see #AddTile
func (mesh *DtNavMesh) RemoveTile(ref DtTileRef) (*NavMeshData, error) {
	if ref == 0 {
		return nil, ErrInvalidParam
	}
	tileIndex := mesh.DecodePolyIdTile(DtPolyRef(ref))
	tileSalt := mesh.DecodePolyIdSalt(DtPolyRef(ref))
	if int(tileIndex) >= mesh.maxTiles {
		return nil, ErrInvalidParam
	}
	tile := &mesh.tiles[tileIndex]
	if tile.salt != tileSalt || tile.Header == nil {
		return nil, ErrInvalidParam
	}

	// Remove tile from hash lookup.
	x, y := int(tile.Header.X), int(tile.Header.Y)
	h := computeTileHash(x, y, mesh.tileLutMask)
	var prev *DtMeshTile
	for cur := mesh.posLookup[h]; cur != nil; cur = cur.Next {
		if cur == tile {
			if prev != nil {
				prev.Next = cur.Next
			} else {
				mesh.posLookup[h] = cur.Next
			}
			break
		}
		prev = cur
	}

	// Remove connections to neighbour tiles.
	// Disconnect from other layers in current tile.
	for _, nei := range mesh.GetTilesAt(x, y, maxNeighbourList) {
		if nei == tile {
			continue
		}
		mesh.unconnectLinks(nei, tile)
	}

	// Disconnect from neighbour tiles.
	for i := 0; i < 8; i++ {
		for _, nei := range mesh.getNeighbourTilesAt(x, y, i, maxNeighbourList) {
			mesh.unconnectLinks(nei, tile)
		}
	}

	var data *NavMeshData
	if tile.Flags&DT_TILE_FREE_DATA == 0 {
		data = tile.Data
	}

	// Reset tile.
	salt := tile.salt
	*tile = DtMeshTile{}

	// Update salt, salt should never be zero.
	tile.salt = (salt + 1) & (uint32(1)<<mesh.saltBits - 1)
	if tile.salt == 0 {
		tile.salt++
	}

	// Add to free list.
	tile.Next = mesh.nextFree
	mesh.nextFree = tile
	mesh.tileCount--

	return data, nil
}

func allocLink(tile *DtMeshTile) uint32 {
	if tile.linksFreeList == DT_NULL_LINK {
		return DT_NULL_LINK
	}
	link := tile.linksFreeList
	tile.linksFreeList = tile.Links[link].Next
	return link
}

func freeLink(tile *DtMeshTile, link uint32) {
	tile.Links[link].Next = tile.linksFreeList
	tile.linksFreeList = link
}

func (mesh *DtNavMesh) connectIntLinks(tile *DtMeshTile) {
	base := mesh.GetPolyRefBase(tile)

	for i := range tile.Polys {
		poly := &tile.Polys[i]
		poly.FirstLink = DT_NULL_LINK

		if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}

		// Build edge links backwards so that the links will be
		// in the linked list from lowest index to highest.
		for j := int(poly.VertCount) - 1; j >= 0; j-- {
			// Skip hard and non-internal edges.
			if poly.Neis[j] == 0 || (poly.Neis[j]&DT_EXT_LINK) != 0 {
				continue
			}

			idx := allocLink(tile)
			if idx != DT_NULL_LINK {
				link := &tile.Links[idx]
				link.Ref = base | DtPolyRef(poly.Neis[j]-1)
				link.Edge = uint8(j)
				link.Side = 0xff
				link.Bmin = 0
				link.Bmax = 0
				// Add to linked list.
				link.Next = poly.FirstLink
				poly.FirstLink = idx
			}
		}
	}
}

func (mesh *DtNavMesh) unconnectLinks(tile, target *DtMeshTile) {
	targetNum := mesh.DecodePolyIdTile(DtPolyRef(mesh.GetTileRef(target)))

	for i := range tile.Polys {
		poly := &tile.Polys[i]
		j := poly.FirstLink
		pj := uint32(DT_NULL_LINK)
		for j != DT_NULL_LINK {
			if mesh.DecodePolyIdTile(tile.Links[j].Ref) == targetNum {
				// Remove link.
				nj := tile.Links[j].Next
				if pj == DT_NULL_LINK {
					poly.FirstLink = nj
				} else {
					tile.Links[pj].Next = nj
				}
				freeLink(tile, j)
				j = nj
			} else {
				// Advance
				pj = j
				j = tile.Links[j].Next
			}
		}
	}
}

func getSlabCoord(va []float32, side int) float32 {
	if side == 0 || side == 4 {
		return va[0]
	} else if side == 2 || side == 6 {
		return va[2]
	}
	return 0
}

func calcSlabEndPoints(va, vb []float32, side int) (bmin, bmax [2]float32) {
	if side == 0 || side == 4 {
		if va[2] < vb[2] {
			bmin = [2]float32{va[2], va[1]}
			bmax = [2]float32{vb[2], vb[1]}
		} else {
			bmin = [2]float32{vb[2], vb[1]}
			bmax = [2]float32{va[2], va[1]}
		}
	} else if side == 2 || side == 6 {
		if va[0] < vb[0] {
			bmin = [2]float32{va[0], va[1]}
			bmax = [2]float32{vb[0], vb[1]}
		} else {
			bmin = [2]float32{vb[0], vb[1]}
			bmax = [2]float32{va[0], va[1]}
		}
	}
	return
}

func overlapSlabs(amin, amax, bmin, bmax [2]float32, px, py float32) bool {
	// Check for horizontal overlap.
	// The segment is shrunken a little so that slabs which touch
	// at end points are not connected.
	minx := max(amin[0]+px, bmin[0]+px)
	maxx := min(amax[0]-px, bmax[0]-px)
	if minx > maxx {
		return false
	}

	// Check vertical overlap.
	ad := (amax[1] - amin[1]) / (amax[0] - amin[0])
	ak := amin[1] - ad*amin[0]
	bd := (bmax[1] - bmin[1]) / (bmax[0] - bmin[0])
	bk := bmin[1] - bd*bmin[0]
	aminy := ad*minx + ak
	amaxy := ad*maxx + ak
	bminy := bd*minx + bk
	bmaxy := bd*maxx + bk
	dmin := bminy - aminy
	dmax := bmaxy - amaxy

	// Crossing segments always overlap.
	if dmin*dmax < 0 {
		return true
	}

	// Check for overlap at endpoints.
	thr := common.Sqr(py * 2)
	return dmin*dmin <= thr || dmax*dmax <= thr
}

type connectingPoly struct {
	ref        DtPolyRef
	tmin, tmax float32
}

func (mesh *DtNavMesh) findConnectingPolys(va, vb []float32, tile *DtMeshTile, side int, maxcon int) []connectingPoly {
	if tile == nil {
		return nil
	}

	amin, amax := calcSlabEndPoints(va, vb, side)
	apos := getSlabCoord(va, side)

	// Remove links pointing to 'side' and compact the links array.
	m := uint16(DT_EXT_LINK | side)
	base := mesh.GetPolyRefBase(tile)

	var cons []connectingPoly
	for i := range tile.Polys {
		poly := &tile.Polys[i]
		nv := int(poly.VertCount)
		for j := 0; j < nv; j++ {
			// Skip edges which do not point to the right side.
			if poly.Neis[j] != m {
				continue
			}

			vc := common.GetVert3(tile.Verts, poly.Verts[j])
			vd := common.GetVert3(tile.Verts, poly.Verts[(j+1)%nv])
			bpos := getSlabCoord(vc, side)

			// Segments are not close enough.
			if common.Abs(apos-bpos) > 0.01 {
				continue
			}

			// Check if the segments touch.
			bmin, bmax := calcSlabEndPoints(vc, vd, side)
			if !overlapSlabs(amin, amax, bmin, bmax, 0.01, tile.Header.WalkableClimb) {
				continue
			}

			// Add return value.
			if len(cons) < maxcon {
				cons = append(cons, connectingPoly{
					ref:  base | DtPolyRef(i),
					tmin: max(amin[0], bmin[0]),
					tmax: min(amax[0], bmax[0]),
				})
			}
			break
		}
	}
	return cons
}

func (mesh *DtNavMesh) connectExtLinks(tile, target *DtMeshTile, side int) {
	// Connect border links.
	for i := range tile.Polys {
		poly := &tile.Polys[i]

		nv := int(poly.VertCount)
		for j := 0; j < nv; j++ {
			// Skip non-portal edges.
			if (poly.Neis[j] & DT_EXT_LINK) == 0 {
				continue
			}

			dir := int(poly.Neis[j] & 0xff)
			if side != -1 && dir != side {
				continue
			}

			// Create new links
			va := common.GetVert3(tile.Verts, poly.Verts[j])
			vb := common.GetVert3(tile.Verts, poly.Verts[(j+1)%nv])
			for _, nei := range mesh.findConnectingPolys(va, vb, target, dtOppositeTile(dir), 4) {
				idx := allocLink(tile)
				if idx == DT_NULL_LINK {
					continue
				}
				link := &tile.Links[idx]
				link.Ref = nei.ref
				link.Edge = uint8(j)
				link.Side = uint8(dir)
				link.Next = poly.FirstLink
				poly.FirstLink = idx

				// Compress portal limits to a byte value.
				axis := 0
				if dir == 0 || dir == 4 {
					axis = 2
				}
				tmin := (nei.tmin - va[axis]) / (vb[axis] - va[axis])
				tmax := (nei.tmax - va[axis]) / (vb[axis] - va[axis])
				if tmin > tmax {
					tmin, tmax = tmax, tmin
				}
				link.Bmin = uint8(math.Round(float64(common.Clamp(tmin, 0, 1) * 255)))
				link.Bmax = uint8(math.Round(float64(common.Clamp(tmax, 0, 1) * 255)))
			}
		}
	}
}

func (mesh *DtNavMesh) connectExtOffMeshLinks(tile, target *DtMeshTile, side int) {
	// Connect off-mesh links.
	// We are interested on links which land from target tile to this tile.
	oppositeSide := uint8(0xff)
	if side != -1 {
		oppositeSide = uint8(dtOppositeTile(side))
	}
	linkSide := uint8(0xff)
	if side != -1 {
		linkSide = uint8(side)
	}

	for i := range target.OffMeshCons {
		targetCon := &target.OffMeshCons[i]
		if targetCon.Side != oppositeSide {
			continue
		}

		targetPoly := &target.Polys[targetCon.Poly]
		// Skip off-mesh connections which start location could not be connected at all.
		if targetPoly.FirstLink == DT_NULL_LINK {
			continue
		}

		halfExtents := [3]float32{targetCon.Rad, target.Header.WalkableClimb, targetCon.Rad}

		// Find polygon to connect to.
		p := targetCon.Pos[3:6]
		ref, nearestPt := mesh.findNearestPolyInTile(tile, p, halfExtents[:])
		if ref == 0 {
			continue
		}
		// findNearestPoly may return too optimistic results, further check to make sure.
		if common.Sqr(nearestPt[0]-p[0])+common.Sqr(nearestPt[2]-p[2]) > common.Sqr(targetCon.Rad) {
			continue
		}
		// Make sure the location is on current mesh.
		copy(common.GetVert3(target.Verts, targetPoly.Verts[1]), nearestPt[:])

		// Link off-mesh connection to target poly.
		idx := allocLink(target)
		if idx != DT_NULL_LINK {
			link := &target.Links[idx]
			link.Ref = ref
			link.Edge = 1
			link.Side = oppositeSide
			link.Bmin = 0
			link.Bmax = 0
			// Add to linked list.
			link.Next = targetPoly.FirstLink
			targetPoly.FirstLink = idx
		}

		// Link target poly to off-mesh connection.
		if targetCon.Flags&DT_OFFMESH_CON_BIDIR != 0 {
			tidx := allocLink(tile)
			if tidx != DT_NULL_LINK {
				landPoly := &tile.Polys[mesh.DecodePolyIdPoly(ref)]
				link := &tile.Links[tidx]
				link.Ref = mesh.GetPolyRefBase(target) | DtPolyRef(targetCon.Poly)
				link.Edge = 0xff
				link.Side = linkSide
				link.Bmin = 0
				link.Bmax = 0
				// Add to linked list.
				link.Next = landPoly.FirstLink
				landPoly.FirstLink = tidx
			}
		}
	}
}

func (mesh *DtNavMesh) baseOffMeshLinks(tile *DtMeshTile) {
	base := mesh.GetPolyRefBase(tile)

	// Base off-mesh connection start points.
	for i := range tile.OffMeshCons {
		con := &tile.OffMeshCons[i]
		poly := &tile.Polys[con.Poly]

		halfExtents := [3]float32{con.Rad, tile.Header.WalkableClimb, con.Rad}

		// Find polygon to connect to.
		p := con.Pos[0:3] // First vertex
		ref, nearestPt := mesh.findNearestPolyInTile(tile, p, halfExtents[:])
		if ref == 0 {
			continue
		}
		// findNearestPoly may return too optimistic results, further check to make sure.
		if common.Sqr(nearestPt[0]-p[0])+common.Sqr(nearestPt[2]-p[2]) > common.Sqr(con.Rad) {
			continue
		}
		// Make sure the location is on current mesh.
		copy(common.GetVert3(tile.Verts, poly.Verts[0]), nearestPt[:])

		// Link off-mesh connection to target poly.
		idx := allocLink(tile)
		if idx != DT_NULL_LINK {
			link := &tile.Links[idx]
			link.Ref = ref
			link.Edge = 0
			link.Side = 0xff
			link.Bmin = 0
			link.Bmax = 0
			// Add to linked list.
			link.Next = poly.FirstLink
			poly.FirstLink = idx
		}

		// Start end-point is always connect back to off-mesh connection.
		tidx := allocLink(tile)
		if tidx != DT_NULL_LINK {
			landPoly := &tile.Polys[mesh.DecodePolyIdPoly(ref)]
			link := &tile.Links[tidx]
			link.Ref = base | DtPolyRef(con.Poly)
			link.Edge = 0xff
			link.Side = 0xff
			link.Bmin = 0
			link.Bmax = 0
			// Add to linked list.
			link.Next = landPoly.FirstLink
			landPoly.FirstLink = tidx
		}
	}
}
