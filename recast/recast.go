package recast

import (
	"math"

	"github.com/gorustyt/gonavtile/common"
	"go.uber.org/zap"
)

// / Specifies a configuration to use when performing Recast builds.
// / @ingroup recast
type RcConfig struct {
	/// The width of the field along the x-axis. [Limit: >= 0] [Units: vx]
	Width int

	/// The height of the field along the z-axis. [Limit: >= 0] [Units: vx]
	Height int

	/// The width/height size of tile's on the xz-plane. [Limit: >= 0] [Units: vx]
	TileSize int

	/// The size of the non-navigable border around the heightfield. [Limit: >=0] [Units: vx]
	BorderSize int

	/// The xz-plane cell size to use for fields. [Limit: > 0] [Units: wu]
	Cs float32

	/// The y-axis cell size to use for fields. [Limit: > 0] [Units: wu]
	Ch float32

	/// The minimum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmin [3]float32

	/// The maximum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmax [3]float32

	/// The maximum slope that is considered walkable. [Limits: 0 <= value < 90] [Units: Degrees]
	WalkableSlopeAngle float32

	/// Minimum floor to 'ceiling' height that will still allow the floor area to
	/// be considered walkable. [Limit: >= 3] [Units: vx]
	WalkableHeight int

	/// Maximum ledge height that is considered to still be traversable. [Limit: >=0] [Units: vx]
	WalkableClimb int

	/// The distance to erode/shrink the walkable area of the heightfield away from
	/// obstructions.  [Limit: >=0] [Units: vx]
	WalkableRadius int

	/// The maximum allowed length for contour edges along the border of the mesh. [Limit: >=0] [Units: vx]
	MaxEdgeLen int

	/// The maximum distance a simplified contour's border edges should deviate
	/// the original raw contour. [Limit: >=0] [Units: vx]
	MaxSimplificationError float32

	/// The minimum number of cells allowed to form isolated island areas. [Limit: >=0] [Units: vx]
	MinRegionArea int

	/// Any regions with a span count smaller than this value will, if possible,
	/// be merged with larger regions. [Limit: >=0] [Units: vx]
	MergeRegionArea int

	/// The maximum number of vertices allowed for polygons generated during the
	/// contour to polygon conversion process. [Limit: >= 3]
	MaxVertsPerPoly int

	/// Sets the sampling distance to use when generating the detail mesh.
	/// (For height detail only.) [Limits: 0 or >= 0.9] [Units: wu]
	DetailSampleDist float32

	/// The maximum distance the detail mesh surface should deviate from heightfield
	/// data. (For height detail only.) [Limit: >=0] [Units: wu]
	DetailSampleMaxError float32
}

const (
	/// The number of spans allocated per span spool.
	RC_SPANS_PER_POOL = 2048
	/// Defines the number of bits allocated to RcSpan::smin and RcSpan::smax.
	RC_SPAN_HEIGHT_BITS = 13
	/// Defines the maximum value for RcSpan::smin and RcSpan::smax.
	RC_SPAN_MAX_HEIGHT = (1 << RC_SPAN_HEIGHT_BITS) - 1

	/// Represents the null area.
	/// When a data element is given this value it is considered to no longer be
	/// assigned to a usable area.  (E.g. It is un-walkable.)
	RC_NULL_AREA = 0
	/// The default area id used to indicate a walkable polygon.
	/// This is also the maximum allowed area id, and the only non-null area id
	/// recognized by some steps in the build process.
	RC_WALKABLE_AREA = 63

	/// The value returned by #RcGetCon if the specified direction is not connected
	/// to another span. (Has no neighbor.)
	RC_NOT_CONNECTED = 0x3f

	/// Heightfield border flag.
	/// If a heightfield region ID has this bit set, then the region is a border
	/// region and its spans are considered un-walkable.
	RC_BORDER_REG = 0x8000

	/// Polygon touches multiple regions.
	/// If a polygon has this region ID it was merged with or created
	/// from polygons of different regions during the polymesh
	/// build step that removes redundant border vertices.
	RC_MULTIPLE_REGS = 0

	/// Border vertex flag.
	/// If a region ID has this bit set, then the associated element lies on
	/// a tile border. If a contour vertex's region ID has this bit set, the
	/// vertex will later be removed in order to match the segments and vertices
	/// at tile boundaries.
	RC_BORDER_VERTEX = 0x10000

	/// Area border flag.
	/// If a region ID has this bit set, then the associated element lies on
	/// the border of an area.
	RC_AREA_BORDER = 0x20000

	/// Applied to the region id field of contour vertices in order to extract the region id.
	RC_CONTOUR_REG_MASK = 0xffff

	/// An value which indicates an invalid index within a mesh.
	RC_MESH_NULL_IDX = 0xffff

	// Tessellate solid (impassable) edges during contour simplification.
	RC_CONTOUR_TESS_WALL_EDGES = 0x01
	// Tessellate edges between areas during contour simplification.
	RC_CONTOUR_TESS_AREA_EDGES = 0x02

	maxHeight = 0xffff
)

// / Represents a span in a heightfield.
type RcSpan struct {
	Smin int     ///< The lower limit of the span. [Limit: < #smax]
	Smax int     ///< The upper limit of the span. [Limit: <= #RC_SPAN_MAX_HEIGHT]
	Area uint8   ///< The area id assigned to the span.
	Next *RcSpan ///< The next span higher up in column.
}

// / A memory pool used for quick allocation of spans within a heightfield.
type rcSpanPool struct {
	next  *rcSpanPool               ///< The next span pool.
	items [RC_SPANS_PER_POOL]RcSpan ///< Array of spans in the pool.
}

// / A dynamic heightfield representing obstructed space.
// / @ingroup recast
type RcHeightfield struct {
	Width    int         ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height   int         ///< The height of the heightfield. (Along the z-axis in cell units.)
	Bmin     [3]float32  ///< The minimum bounds in world space. [(x, y, z)]
	Bmax     [3]float32  ///< The maximum bounds in world space. [(x, y, z)]
	Cs       float32     ///< The size of each cell. (On the xz-plane.)
	Ch       float32     ///< The height of each cell. (The minimum increment along the y-axis.)
	Spans    []*RcSpan   ///< Heightfield of spans (width*height).
	pools    *rcSpanPool ///< Linked list of span pools.
	freelist *RcSpan     ///< The next free span.
}

// / Provides information on the content of a cell column in a compact heightfield.
type RcCompactCell struct {
	Index int ///< Index to the first span in the column.
	Count int ///< Number of spans in the column.
}

// / Represents a span of unobstructed space within a compact heightfield.
type RcCompactSpan struct {
	Y   int    ///< The lower extent of the span. (Measured from the heightfield's base.)
	Reg int    ///< The id of the region the span belongs to. (Or zero if not in a region.)
	Con uint32 ///< Packed neighbor connection data.
	H   int    ///< The height of the span.  (Measured from #y.)
}

// / A compact, static heightfield representing unobstructed space.
// / @ingroup recast
type RcCompactHeightfield struct {
	Width          int             ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height         int             ///< The height of the heightfield. (Along the z-axis in cell units.)
	SpanCount      int             ///< The number of spans in the heightfield.
	WalkableHeight int             ///< The walkable height used during the build of the field.
	WalkableClimb  int             ///< The walkable climb used during the build of the field.
	BorderSize     int             ///< The AABB border size used during the build of the field.
	MaxDistance    int             ///< The maximum distance value of any span within the field.
	MaxRegions     int             ///< The maximum region id of any span within the field.
	Bmin           [3]float32      ///< The minimum bounds in world space. [(x, y, z)]
	Bmax           [3]float32      ///< The maximum bounds in world space. [(x, y, z)]
	Cs             float32         ///< The size of each cell. (On the xz-plane.)
	Ch             float32         ///< The height of each cell. (The minimum increment along the y-axis.)
	Cells          []RcCompactCell ///< Array of cells. [Size: #width*#height]
	Spans          []RcCompactSpan ///< Array of spans. [Size: #spanCount]
	Dist           []uint16        ///< Array containing border distance data. [Size: #spanCount]
	Areas          []uint8         ///< Array containing area id data. [Size: #spanCount]
}

// / Sets the neighbor connection data for the specified direction.
// /  @param[in]		span			The span to update.
// /  @param[in]		direction		The direction to set. [Limits: 0 <= value < 4]
// /  @param[in]		neighborIndex	The index of the neighbor span.
func RcSetCon(span *RcCompactSpan, direction int, neighborIndex int) {
	shift := uint32(direction * 6)
	con := span.Con
	span.Con = (con &^ (0x3f << shift)) | ((uint32(neighborIndex) & 0x3f) << shift)
}

// / Gets neighbor connection data for the specified direction.
// /  @param[in]		span		The span to check.
// /  @param[in]		direction	The direction to check. [Limits: 0 <= value < 4]
// /  @return The neighbor connection data for the specified direction,
// /  	or #RC_NOT_CONNECTED if there is no connection.
func RcGetCon(span *RcCompactSpan, direction int) int {
	shift := uint32(direction * 6)
	return int((span.Con >> shift) & 0x3f)
}

// / Calculates the bounding box of an array of vertices.
// /  @param[in]		verts		An array of vertices. [(x, y, z) * @p nv]
// /  @param[in]		numVerts	The number of vertices in the @p verts array.
// /  @param[out]	minBounds	The minimum bounds of the AABB. [(x, y, z)] [Units: wu]
// /  @param[out]	maxBounds	The maximum bounds of the AABB. [(x, y, z)] [Units: wu]
func RcCalcBounds(verts []float32, numVerts int, minBounds, maxBounds []float32) {
	if numVerts == 0 {
		return
	}
	copy(minBounds, verts[:3])
	copy(maxBounds, verts[:3])
	for i := 1; i < numVerts; i++ {
		v := common.GetVert3(verts, i)
		common.Vmin(minBounds, v)
		common.Vmax(maxBounds, v)
	}
}

// / Calculates the grid size based on the bounding box and grid cell size.
func RcCalcGridSize(minBounds, maxBounds []float32, cellSize float32) (sizeX, sizeZ int) {
	sizeX = int((maxBounds[0]-minBounds[0])/cellSize + 0.5)
	sizeZ = int((maxBounds[2]-minBounds[2])/cellSize + 0.5)
	return
}

// / Initializes a new heightfield.
// /  @param[in]		sizeX		The width of the field along the x-axis. [Limit: >= 0] [Units: vx]
// /  @param[in]		sizeZ		The height of the field along the z-axis. [Limit: >= 0] [Units: vx]
// /  @param[in]		minBounds	The minimum bounds of the field's AABB. [(x, y, z)] [Units: wu]
// /  @param[in]		maxBounds	The maximum bounds of the field's AABB. [(x, y, z)] [Units: wu]
// /  @param[in]		cellSize	The xz-plane cell size to use for the field. [Limit: > 0] [Units: wu]
// /  @param[in]		cellHeight	The y-axis cell size to use for field. [Limit: > 0] [Units: wu]
func RcCreateHeightfield(ctx *RcContext, sizeX, sizeZ int,
	minBounds, maxBounds []float32,
	cellSize, cellHeight float32) (*RcHeightfield, error) {
	if sizeX <= 0 || sizeZ <= 0 || cellSize <= 0 || cellHeight <= 0 {
		ctx.Log(RC_LOG_ERROR, "rcCreateHeightfield: invalid heightfield size",
			zap.Int("sizeX", sizeX), zap.Int("sizeZ", sizeZ))
		return nil, ErrInvalidParam
	}
	heightfield := &RcHeightfield{}
	heightfield.Width = sizeX
	heightfield.Height = sizeZ
	copy(heightfield.Bmin[:], minBounds)
	copy(heightfield.Bmax[:], maxBounds)
	heightfield.Cs = cellSize
	heightfield.Ch = cellHeight
	heightfield.Spans = make([]*RcSpan, heightfield.Width*heightfield.Height)
	return heightfield, nil
}

func calcTriNormal(v0, v1, v2 []float32, faceNormal []float32) {
	var e0, e1 [3]float32
	common.Vsub(e0[:], v1, v0)
	common.Vsub(e1[:], v2, v0)
	common.Vcross(faceNormal, e0[:], e1[:])
	common.Vnormalize(faceNormal)
}

// / Sets the area id of all triangles with a slope below the specified value
// / to #RC_WALKABLE_AREA.
// /
// / Only sets the area id's for the walkable triangles.  Does not alter the
// / area id's for un-walkable triangles.
// /
// / A triangle is walkable when the y component of its unit normal is at least
// / cos(walkableSlopeAngle), so flat ground stays walkable at a zero slope limit.
func RcMarkWalkableTriangles(ctx *RcContext, walkableSlopeAngle float32,
	verts []float32, tris []int, numTris int, triAreaIDs []uint8) {
	walkableThr := float32(math.Cos(float64(walkableSlopeAngle) / 180.0 * math.Pi))

	var norm [3]float32
	for i := 0; i < numTris; i++ {
		tri := common.GetVert3(tris, i)
		calcTriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]), norm[:])
		// Check if the face is walkable.
		if norm[1] >= walkableThr {
			triAreaIDs[i] = RC_WALKABLE_AREA
		}
	}
}

// / Returns the number of spans contained in the specified heightfield.
func RcGetHeightFieldSpanCount(heightfield *RcHeightfield) int {
	numCols := heightfield.Width * heightfield.Height
	spanCount := 0
	for columnIndex := 0; columnIndex < numCols; columnIndex++ {
		for span := heightfield.Spans[columnIndex]; span != nil; span = span.Next {
			if span.Area != RC_NULL_AREA {
				spanCount++
			}
		}
	}
	return spanCount
}

// / Builds a compact heightfield representing open space, from a heightfield representing solid space.
// /
// / This is just the beginning of the process of fully building a compact heightfield.
// / Various filters may be applied, then the distance field and regions built.
// / E.g: #RcBuildDistanceField and #RcBuildRegions
// /
// /  @param[in]		walkableHeight		Minimum floor to 'ceiling' height that will still allow the floor area
// /  									to be considered walkable. [Limit: >= 3] [Units: vx]
// /  @param[in]		walkableClimb		Maximum ledge height that is considered to still be traversable.
// /  									[Limit: >=0] [Units: vx]
// /  @param[in]		heightfield			The heightfield to be compacted.
func RcBuildCompactHeightfield(ctx *RcContext, walkableHeight, walkableClimb int,
	heightfield *RcHeightfield) *RcCompactHeightfield {
	ctx.StartTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)
	defer ctx.StopTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)

	xSize := heightfield.Width
	zSize := heightfield.Height
	spanCount := RcGetHeightFieldSpanCount(heightfield)

	// Fill in header.
	chf := &RcCompactHeightfield{}
	chf.Width = xSize
	chf.Height = zSize
	chf.SpanCount = spanCount
	chf.WalkableHeight = walkableHeight
	chf.WalkableClimb = walkableClimb
	chf.MaxRegions = 0
	chf.Bmin = heightfield.Bmin
	chf.Bmax = heightfield.Bmax
	chf.Bmax[1] += float32(walkableHeight) * heightfield.Ch
	chf.Cs = heightfield.Cs
	chf.Ch = heightfield.Ch
	chf.Cells = make([]RcCompactCell, xSize*zSize)
	chf.Spans = make([]RcCompactSpan, spanCount)
	chf.Areas = make([]uint8, spanCount)

	// Fill in cells and spans.
	currentCellIndex := 0
	numColumns := xSize * zSize
	for columnIndex := 0; columnIndex < numColumns; columnIndex++ {
		span := heightfield.Spans[columnIndex]

		// If there are no spans at this cell, just leave the data to index=0, count=0.
		if span == nil {
			continue
		}

		cell := &chf.Cells[columnIndex]
		cell.Index = currentCellIndex
		cell.Count = 0

		for ; span != nil; span = span.Next {
			if span.Area != RC_NULL_AREA {
				bot := span.Smax
				top := maxHeight
				if span.Next != nil {
					top = span.Next.Smin
				}
				chf.Spans[currentCellIndex].Y = common.Clamp(bot, 0, 0xffff)
				chf.Spans[currentCellIndex].H = common.Clamp(top-bot, 0, 0xff)
				chf.Areas[currentCellIndex] = span.Area
				currentCellIndex++
				cell.Count++
			}
		}
	}

	// Find neighbour connections.
	const maxLayers = RC_NOT_CONNECTED - 1
	maxLayerIndex := 0
	zStride := xSize
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for i, ni := cell.Index, cell.Index+cell.Count; i < ni; i++ {
				span := &chf.Spans[i]

				for dir := 0; dir < 4; dir++ {
					RcSetCon(span, dir, RC_NOT_CONNECTED)
					neighborX := x + common.GetDirOffsetX(dir)
					neighborZ := z + common.GetDirOffsetY(dir)
					// First check that the neighbour cell is in bounds.
					if neighborX < 0 || neighborZ < 0 || neighborX >= xSize || neighborZ >= zSize {
						continue
					}

					// Iterate over all neighbour spans and check if any of the is
					// accessible from current cell.
					neighborCell := chf.Cells[neighborX+neighborZ*zStride]
					for k, nk := neighborCell.Index, neighborCell.Index+neighborCell.Count; k < nk; k++ {
						neighborSpan := &chf.Spans[k]
						bot := max(span.Y, neighborSpan.Y)
						top := min(span.Y+span.H, neighborSpan.Y+neighborSpan.H)

						// Check that the gap between the spans is walkable,
						// and that the climb height between the gaps is not too high.
						if (top-bot) >= walkableHeight && common.Abs(neighborSpan.Y-span.Y) <= walkableClimb {
							// Mark direction as walkable.
							layerIndex := k - neighborCell.Index
							if layerIndex < 0 || layerIndex > maxLayers {
								maxLayerIndex = max(maxLayerIndex, layerIndex)
								continue
							}
							RcSetCon(span, dir, layerIndex)
							break
						}
					}
				}
			}
		}
	}

	if maxLayerIndex > maxLayers {
		ctx.Log(RC_LOG_WARNING, "rcBuildCompactHeightfield: Heightfield has too many layers",
			zap.Int("layers", maxLayerIndex), zap.Int("max", maxLayers))
	}

	return chf
}
