package recast

import (
	"slices"

	"go.uber.org/zap"
)

func calculateDistanceField(chf *RcCompactHeightfield, src []int) (maxDist int) {
	w := chf.Width
	h := chf.Height

	// Init distance and points.
	for i := 0; i < chf.SpanCount; i++ {
		src[i] = 0xffff
	}

	// Mark boundary cells.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				area := chf.Areas[i]

				nc := 0
				for dir := 0; dir < 4; dir++ {
					if RcGetCon(s, dir) == RC_NOT_CONNECTED {
						continue
					}
					_, _, ai := chf.neighbourIndex(x, y, s, dir)
					if area == chf.Areas[ai] {
						nc++
					}
				}
				if nc != 4 {
					src[i] = 0
				}
			}
		}
	}

	relax := func(x, y, i int, s *RcCompactSpan, dir, diagDir int) {
		if RcGetCon(s, dir) == RC_NOT_CONNECTED {
			return
		}
		ax, ay, ai := chf.neighbourIndex(x, y, s, dir)
		if src[ai]+2 < src[i] {
			src[i] = src[ai] + 2
		}
		as := &chf.Spans[ai]
		if RcGetCon(as, diagDir) == RC_NOT_CONNECTED {
			return
		}
		_, _, aai := chf.neighbourIndex(ax, ay, as, diagDir)
		if src[aai]+3 < src[i] {
			src[i] = src[aai] + 3
		}
	}

	// Pass 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				// (-1,0) (-1,-1)
				relax(x, y, i, s, 0, 3)
				// (0,-1) (1,-1)
				relax(x, y, i, s, 3, 2)
			}
		}
	}

	// Pass 2
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				// (1,0) (1,1)
				relax(x, y, i, s, 2, 1)
				// (0,1) (-1,1)
				relax(x, y, i, s, 1, 0)
			}
		}
	}

	for i := 0; i < chf.SpanCount; i++ {
		maxDist = max(src[i], maxDist)
	}
	return maxDist
}

func boxBlur(chf *RcCompactHeightfield, thr int, src, dst []int) []int {
	w := chf.Width
	h := chf.Height

	thr *= 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				cd := src[i]
				if cd <= thr {
					dst[i] = cd
					continue
				}

				d := cd
				for dir := 0; dir < 4; dir++ {
					if RcGetCon(s, dir) == RC_NOT_CONNECTED {
						d += cd * 2
						continue
					}
					ax, ay, ai := chf.neighbourIndex(x, y, s, dir)
					d += src[ai]

					as := &chf.Spans[ai]
					dir2 := (dir + 1) & 0x3
					if RcGetCon(as, dir2) != RC_NOT_CONNECTED {
						_, _, ai2 := chf.neighbourIndex(ax, ay, as, dir2)
						d += src[ai2]
					} else {
						d += cd
					}
				}
				dst[i] = (d + 5) / 9
			}
		}
	}
	return dst
}

// / Builds the distance field for the specified compact heightfield.
// /
// / This is usually the second to the last step in creating a fully built
// / compact heightfield.  This step is required before regions are built
// / using #RcBuildRegions.
// /
// / After this step, the distance data is available via the RcCompactHeightfield::MaxDistance
// / and RcCompactHeightfield::Dist fields.
func RcBuildDistanceField(ctx *RcContext, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD)
	defer ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD)

	src := make([]int, chf.SpanCount)
	dst := make([]int, chf.SpanCount)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)
	chf.MaxDistance = calculateDistanceField(chf, src)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)
	src = boxBlur(chf, 1, src, dst)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)

	// Store distance.
	chf.Dist = make([]uint16, chf.SpanCount)
	for i, d := range src {
		chf.Dist[i] = uint16(min(d, 0xffff))
	}
}

func paintRectRegion(minx, maxx, miny, maxy, regId int, chf *RcCompactHeightfield, srcReg []int) {
	w := chf.Width
	for y := miny; y < maxy; y++ {
		for x := minx; x < maxx; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if chf.Areas[i] != RC_NULL_AREA {
					srcReg[i] = regId
				}
			}
		}
	}
}

type levelStackEntry struct {
	x     int
	y     int
	index int
}

func floodRegion(x, y, i int, level, r int,
	chf *RcCompactHeightfield, srcReg, srcDist []int, stack *[]levelStackEntry) bool {
	area := chf.Areas[i]

	// Flood fill mark region.
	*stack = append((*stack)[:0], levelStackEntry{x, y, i})
	srcReg[i] = r
	srcDist[i] = 0

	lev := 0
	if level >= 2 {
		lev = level - 2
	}
	count := 0

	for len(*stack) > 0 {
		back := (*stack)[len(*stack)-1]
		*stack = (*stack)[:len(*stack)-1]
		cx, cy, ci := back.x, back.y, back.index

		cs := &chf.Spans[ci]

		// Check if any of the neighbours already have a valid region set.
		ar := 0
		for dir := 0; dir < 4; dir++ {
			// 8 connected
			if RcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax, ay, ai := chf.neighbourIndex(cx, cy, cs, dir)
			if chf.Areas[ai] != area {
				continue
			}
			nr := srcReg[ai]
			if nr&RC_BORDER_REG != 0 {
				// Do not take borders into account.
				continue
			}
			if nr != 0 && nr != r {
				ar = nr
				break
			}

			as := &chf.Spans[ai]
			dir2 := (dir + 1) & 0x3
			if RcGetCon(as, dir2) != RC_NOT_CONNECTED {
				_, _, ai2 := chf.neighbourIndex(ax, ay, as, dir2)
				if chf.Areas[ai2] != area {
					continue
				}
				nr2 := srcReg[ai2]
				if nr2 != 0 && nr2 != r {
					ar = nr2
					break
				}
			}
		}
		if ar != 0 {
			srcReg[ci] = 0
			continue
		}

		count++

		// Expand neighbours.
		for dir := 0; dir < 4; dir++ {
			if RcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax, ay, ai := chf.neighbourIndex(cx, cy, cs, dir)
			if chf.Areas[ai] != area {
				continue
			}
			if int(chf.Dist[ai]) >= lev && srcReg[ai] == 0 {
				srcReg[ai] = r
				srcDist[ai] = 0
				*stack = append(*stack, levelStackEntry{ax, ay, ai})
			}
		}
	}

	return count > 0
}

// Struct to keep track of entries in the region table that have been changed.
type dirtyEntry struct {
	index     int
	region    int
	distance2 int
}

func expandRegions(maxIter, level int, chf *RcCompactHeightfield,
	srcReg, srcDist []int, stack *[]levelStackEntry, fillStack bool) {
	w := chf.Width
	h := chf.Height

	if fillStack {
		// Find cells revealed by the raised level.
		*stack = (*stack)[:0]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := chf.Cells[x+y*w]
				for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
					if int(chf.Dist[i]) >= level && srcReg[i] == 0 && chf.Areas[i] != RC_NULL_AREA {
						*stack = append(*stack, levelStackEntry{x, y, i})
					}
				}
			}
		}
	} else {
		// use cells in the input stack
		// mark all cells which already have a region
		for j := range *stack {
			if i := (*stack)[j].index; i >= 0 && srcReg[i] != 0 {
				(*stack)[j].index = -1
			}
		}
	}

	var dirtyEntries []dirtyEntry
	iter := 0
	for len(*stack) > 0 {
		failed := 0
		dirtyEntries = dirtyEntries[:0]

		for j := range *stack {
			entry := &(*stack)[j]
			x, y, i := entry.x, entry.y, entry.index
			if i < 0 {
				failed++
				continue
			}

			r := srcReg[i]
			d2 := 0xffff
			area := chf.Areas[i]
			s := &chf.Spans[i]
			for dir := 0; dir < 4; dir++ {
				if RcGetCon(s, dir) == RC_NOT_CONNECTED {
					continue
				}
				_, _, ai := chf.neighbourIndex(x, y, s, dir)
				if chf.Areas[ai] != area {
					continue
				}
				if srcReg[ai] > 0 && (srcReg[ai]&RC_BORDER_REG) == 0 {
					if srcDist[ai]+2 < d2 {
						r = srcReg[ai]
						d2 = srcDist[ai] + 2
					}
				}
			}
			if r != 0 {
				entry.index = -1 // mark as used
				dirtyEntries = append(dirtyEntries, dirtyEntry{i, r, d2})
			} else {
				failed++
			}
		}

		// Copy entries that differ between src and dst to keep them in sync.
		for _, e := range dirtyEntries {
			srcReg[e.index] = e.region
			srcDist[e.index] = e.distance2
		}

		if failed == len(*stack) {
			break
		}

		if level > 0 {
			iter++
			if iter >= maxIter {
				break
			}
		}
	}
}

// loglevelsPerStack is the number of distance levels per stack expressed as a bit shift.
func sortCellsByLevel(startLevel int, chf *RcCompactHeightfield, srcReg []int,
	stacks [][]levelStackEntry, loglevelsPerStack int) {
	w := chf.Width
	h := chf.Height
	startLevel = startLevel >> loglevelsPerStack

	for j := range stacks {
		stacks[j] = stacks[j][:0]
	}

	// put all cells in the level range into the appropriate stacks
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if chf.Areas[i] == RC_NULL_AREA || srcReg[i] != 0 {
					continue
				}

				level := int(chf.Dist[i]) >> loglevelsPerStack
				sId := startLevel - level
				if sId >= len(stacks) {
					continue
				}
				if sId < 0 {
					sId = 0
				}
				stacks[sId] = append(stacks[sId], levelStackEntry{x, y, i})
			}
		}
	}
}

func appendStacks(srcStack []levelStackEntry, dstStack *[]levelStackEntry, srcReg []int) {
	for _, e := range srcStack {
		if e.index < 0 || srcReg[e.index] != 0 {
			continue
		}
		*dstStack = append(*dstStack, e)
	}
}

type rcRegion struct {
	spanCount   int // Number of spans belonging to this region
	id          int // ID of the region
	areaType    uint8
	remap       bool
	visited     bool
	overlap     bool
	connections []int
	floors      []int
}

func removeAdjacentNeighbours(reg *rcRegion) {
	// Remove adjacent duplicates.
	for i := 0; i < len(reg.connections) && len(reg.connections) > 1; {
		ni := (i + 1) % len(reg.connections)
		if reg.connections[i] == reg.connections[ni] {
			reg.connections = slices.Delete(reg.connections, i, i+1)
		} else {
			i++
		}
	}
}

func replaceNeighbour(reg *rcRegion, oldId, newId int) {
	neiChanged := false
	for i := range reg.connections {
		if reg.connections[i] == oldId {
			reg.connections[i] = newId
			neiChanged = true
		}
	}
	for i := range reg.floors {
		if reg.floors[i] == oldId {
			reg.floors[i] = newId
		}
	}
	if neiChanged {
		removeAdjacentNeighbours(reg)
	}
}

func canMergeWithRegion(rega, regb *rcRegion) bool {
	if rega.areaType != regb.areaType {
		return false
	}
	n := 0
	for _, c := range rega.connections {
		if c == regb.id {
			n++
		}
	}
	if n > 1 {
		return false
	}
	return !slices.Contains(rega.floors, regb.id)
}

func addUniqueFloorRegion(reg *rcRegion, n int) {
	if slices.Contains(reg.floors, n) {
		return
	}
	reg.floors = append(reg.floors, n)
}

func mergeRegions(rega, regb *rcRegion) bool {
	aid := rega.id
	bid := regb.id

	// Duplicate current neighbourhood.
	acon := slices.Clone(rega.connections)
	bcon := regb.connections

	// Find insertion point on A.
	insa := slices.Index(acon, bid)
	if insa == -1 {
		return false
	}

	// Find insertion point on B.
	insb := slices.Index(bcon, aid)
	if insb == -1 {
		return false
	}

	// Merge neighbours.
	rega.connections = rega.connections[:0]
	for i, ni := 0, len(acon); i < ni-1; i++ {
		rega.connections = append(rega.connections, acon[(insa+1+i)%ni])
	}
	for i, ni := 0, len(bcon); i < ni-1; i++ {
		rega.connections = append(rega.connections, bcon[(insb+1+i)%ni])
	}

	removeAdjacentNeighbours(rega)

	for _, f := range regb.floors {
		addUniqueFloorRegion(rega, f)
	}
	rega.spanCount += regb.spanCount
	regb.spanCount = 0
	regb.connections = nil

	return true
}

func isRegionConnectedToBorder(reg *rcRegion) bool {
	// Region is connected to border if
	// one of the neighbours is null id.
	return slices.Contains(reg.connections, 0)
}

func isSolidEdge(chf *RcCompactHeightfield, srcReg []int, x, y, i, dir int) bool {
	s := &chf.Spans[i]
	r := 0
	if RcGetCon(s, dir) != RC_NOT_CONNECTED {
		_, _, ai := chf.neighbourIndex(x, y, s, dir)
		r = srcReg[ai]
	}
	return r != srcReg[i]
}

func walkContourRegions(x, y, i, dir int, chf *RcCompactHeightfield, srcReg []int) []int {
	startDir := dir
	starti := i

	ss := &chf.Spans[i]
	curReg := 0
	if RcGetCon(ss, dir) != RC_NOT_CONNECTED {
		_, _, ai := chf.neighbourIndex(x, y, ss, dir)
		curReg = srcReg[ai]
	}
	cont := []int{curReg}

	for iter := 1; iter < 40000; iter++ {
		s := &chf.Spans[i]

		if isSolidEdge(chf, srcReg, x, y, i, dir) {
			// Choose the edge corner
			r := 0
			if RcGetCon(s, dir) != RC_NOT_CONNECTED {
				_, _, ai := chf.neighbourIndex(x, y, s, dir)
				r = srcReg[ai]
			}
			if r != curReg {
				curReg = r
				cont = append(cont, curReg)
			}
			dir = (dir + 1) & 0x3 // Rotate CW
		} else {
			if RcGetCon(s, dir) == RC_NOT_CONNECTED {
				// Should not happen.
				return cont
			}
			x, y, i = chf.neighbourIndex(x, y, s, dir)
			dir = (dir + 3) & 0x3 // Rotate CCW
		}

		if starti == i && startDir == dir {
			break
		}
	}

	// Remove adjacent duplicates.
	if len(cont) > 1 {
		for j := 0; j < len(cont); {
			nj := (j + 1) % len(cont)
			if cont[j] == cont[nj] {
				cont = slices.Delete(cont, j, j+1)
			} else {
				j++
			}
		}
	}
	return cont
}

func mergeAndFilterRegions(minRegionArea, mergeRegionSize int,
	maxRegionId int, chf *RcCompactHeightfield, srcReg []int) (regionCount int, overlaps []int) {
	w := chf.Width
	h := chf.Height

	nreg := maxRegionId + 1
	regions := make([]rcRegion, nreg)
	// Construct regions
	for i := range regions {
		regions[i].id = i
	}

	// Find edge of a region and find connections around the contour.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				r := srcReg[i]
				if r == 0 || r >= nreg {
					continue
				}

				reg := &regions[r]
				reg.spanCount++

				// Update floors.
				for j := c.Index; j < ni; j++ {
					if i == j {
						continue
					}
					floorId := srcReg[j]
					if floorId == 0 || floorId >= nreg {
						continue
					}
					if floorId == r {
						reg.overlap = true
					}
					addUniqueFloorRegion(reg, floorId)
				}

				// Have found contour
				if len(reg.connections) > 0 {
					continue
				}

				reg.areaType = chf.Areas[i]

				// Check if this cell is next to a border.
				ndir := -1
				for dir := 0; dir < 4; dir++ {
					if isSolidEdge(chf, srcReg, x, y, i, dir) {
						ndir = dir
						break
					}
				}

				if ndir != -1 {
					// The cell is at border.
					// Walk around the contour to find all the neighbours.
					reg.connections = walkContourRegions(x, y, i, ndir, chf, srcReg)
				}
			}
		}
	}

	// Remove too small regions.
	var stack, trace []int
	for i := 0; i < nreg; i++ {
		reg := &regions[i]
		if reg.id == 0 || (reg.id&RC_BORDER_REG) != 0 {
			continue
		}
		if reg.spanCount == 0 {
			continue
		}
		if reg.visited {
			continue
		}

		// Count the total size of all the connected regions.
		// Also keep track of the regions connects to a tile border.
		connectsToBorder := false
		spanCount := 0
		stack = stack[:0]
		trace = trace[:0]

		reg.visited = true
		stack = append(stack, i)

		for len(stack) > 0 {
			// Pop
			ri := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			creg := &regions[ri]
			spanCount += creg.spanCount
			trace = append(trace, ri)

			for _, con := range creg.connections {
				if con&RC_BORDER_REG != 0 {
					connectsToBorder = true
					continue
				}
				neireg := &regions[con]
				if neireg.visited {
					continue
				}
				if neireg.id == 0 || (neireg.id&RC_BORDER_REG) != 0 {
					continue
				}
				// Visit
				stack = append(stack, neireg.id)
				neireg.visited = true
			}
		}

		// If the accumulated regions size is too small, remove it.
		// Do not remove areas which connect to tile borders
		// as their size cannot be estimated correctly and removing them
		// can potentially remove necessary areas.
		if spanCount < minRegionArea && !connectsToBorder {
			// Kill all visited regions.
			for _, t := range trace {
				regions[t].spanCount = 0
				regions[t].id = 0
			}
		}
	}

	// Merge too small regions to neighbour regions.
	for {
		mergeCount := 0
		for i := 0; i < nreg; i++ {
			reg := &regions[i]
			if reg.id == 0 || (reg.id&RC_BORDER_REG) != 0 {
				continue
			}
			if reg.overlap {
				continue
			}
			if reg.spanCount == 0 {
				continue
			}

			// Check to see if the region should be merged.
			if reg.spanCount > mergeRegionSize && isRegionConnectedToBorder(reg) {
				continue
			}

			// Small region with more than 1 connection.
			// Or region which is not connected to a border at all.
			// Find smallest neighbour region that connects to this one.
			smallest := 0xfffffff
			mergeId := reg.id
			for _, con := range reg.connections {
				if con&RC_BORDER_REG != 0 {
					continue
				}
				mreg := &regions[con]
				if mreg.id == 0 || (mreg.id&RC_BORDER_REG) != 0 || mreg.overlap {
					continue
				}
				if mreg.spanCount < smallest &&
					canMergeWithRegion(reg, mreg) &&
					canMergeWithRegion(mreg, reg) {
					smallest = mreg.spanCount
					mergeId = mreg.id
				}
			}

			// Found new id.
			if mergeId != reg.id {
				oldId := reg.id
				target := &regions[mergeId]

				// Merge neighbours.
				if mergeRegions(target, reg) {
					// Fixup regions pointing to current region.
					for j := 0; j < nreg; j++ {
						if regions[j].id == 0 || (regions[j].id&RC_BORDER_REG) != 0 {
							continue
						}
						// If another region was already merged into current region
						// change the nid of the previous region too.
						if regions[j].id == oldId {
							regions[j].id = mergeId
						}
						// Replace the current region with the new one if the
						// current regions is neighbour.
						replaceNeighbour(&regions[j], oldId, mergeId)
					}
					mergeCount++
				}
			}
		}
		if mergeCount == 0 {
			break
		}
	}

	// Compress region Ids.
	for i := range regions {
		regions[i].remap = regions[i].id != 0 && (regions[i].id&RC_BORDER_REG) == 0
	}

	regIdGen := 0
	for i := 0; i < nreg; i++ {
		if !regions[i].remap {
			continue
		}
		oldId := regions[i].id
		regIdGen++
		for j := i; j < nreg; j++ {
			if regions[j].id == oldId {
				regions[j].id = regIdGen
				regions[j].remap = false
			}
		}
	}

	// Remap regions.
	for i := 0; i < chf.SpanCount; i++ {
		if (srcReg[i] & RC_BORDER_REG) == 0 {
			srcReg[i] = regions[srcReg[i]].id
		}
	}

	// Return regions that we found to be overlapping.
	for i := range regions {
		if regions[i].overlap {
			overlaps = append(overlaps, regions[i].id)
		}
	}
	return regIdGen, overlaps
}

// / Builds region data for the heightfield using watershed partitioning.
// /
// / Non-null regions will consist of connected, non-overlapping walkable spans that form a single contour.
// / Contours will form simple polygons.
// /
// / If multiple regions form an area that is smaller than @p minRegionArea, then all spans will be
// / re-assigned to the zero (null) region.
// /
// / Watershed partitioning can result in smaller than necessary regions, especially in diagonal corridors.
// / @p mergeRegionArea helps reduce unnecessarily small regions.
// /
// / The distance field must be created using #RcBuildDistanceField before attempting to build regions.
// /
// /  @param[in,out]	chf				A populated compact heightfield.
// /  @param[in]		borderSize		The size of the non-navigable border around the heightfield.
// /  									[Limit: >=0] [Units: vx]
// /  @param[in]		minRegionArea	The minimum number of cells allowed to form isolated island areas.
// /  									[Limit: >=0] [Units: vx].
// /  @param[in]		mergeRegionArea		Any regions with a span count smaller than this value will, if possible,
// /  								be merged with larger regions. [Limit: >=0] [Units: vx]
func RcBuildRegions(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) error {
	ctx.StartTimer(RC_TIMER_BUILD_REGIONS)
	defer ctx.StopTimer(RC_TIMER_BUILD_REGIONS)

	w := chf.Width
	h := chf.Height

	const logNbStacks = 3
	const nbStacks = 1 << logNbStacks
	lvlStacks := make([][]levelStackEntry, nbStacks)
	for i := range lvlStacks {
		lvlStacks[i] = make([]levelStackEntry, 0, 256)
	}
	stack := make([]levelStackEntry, 0, 256)

	srcReg := make([]int, chf.SpanCount)
	srcDist := make([]int, chf.SpanCount)

	regionId := 1
	level := (chf.MaxDistance + 1) &^ 1

	// expandIters defines how much the watershed "overflows" and simplifies the regions.
	const expandIters = 8

	if borderSize > 0 {
		// Make sure border will not overflow.
		bw := min(w, borderSize)
		bh := min(h, borderSize)

		// Paint regions
		paintRectRegion(0, bw, 0, h, regionId|RC_BORDER_REG, chf, srcReg)
		regionId++
		paintRectRegion(w-bw, w, 0, h, regionId|RC_BORDER_REG, chf, srcReg)
		regionId++
		paintRectRegion(0, w, 0, bh, regionId|RC_BORDER_REG, chf, srcReg)
		regionId++
		paintRectRegion(0, w, h-bh, h, regionId|RC_BORDER_REG, chf, srcReg)
		regionId++
	}

	chf.BorderSize = borderSize

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)
	sId := -1
	for level > 0 {
		if level >= 2 {
			level -= 2
		} else {
			level = 0
		}
		sId = (sId + 1) & (nbStacks - 1)

		if sId == 0 {
			sortCellsByLevel(level, chf, srcReg, lvlStacks, 1)
		} else {
			// copy left overs from last level
			appendStacks(lvlStacks[sId-1], &lvlStacks[sId], srcReg)
		}

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_EXPAND)
		// Expand current regions until no empty connected cells found.
		expandRegions(expandIters, level, chf, srcReg, srcDist, &lvlStacks[sId], false)
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_EXPAND)

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
		// Mark new regions with IDs.
		for _, current := range lvlStacks[sId] {
			i := current.index
			if i >= 0 && srcReg[i] == 0 {
				if floodRegion(current.x, current.y, i, level, regionId, chf, srcReg, srcDist, &stack) {
					if regionId == 0xFFFF {
						ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
						ctx.StopTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)
						ctx.Log(RC_LOG_ERROR, "rcBuildRegions: Region ID overflow")
						return ErrTooManyRegions
					}
					regionId++
				}
			}
		}
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
	}

	// Expand current regions until no empty connected cells found.
	expandRegions(expandIters*8, 0, chf, srcReg, srcDist, &stack, true)
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge regions and filter out small regions.
	var overlaps []int
	chf.MaxRegions, overlaps = mergeAndFilterRegions(minRegionArea, mergeRegionArea, regionId, chf, srcReg)

	// If overlapping regions were found during merging, split those regions.
	if len(overlaps) > 0 {
		ctx.Log(RC_LOG_ERROR, "rcBuildRegions: overlapping regions", zap.Int("count", len(overlaps)))
	}
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Write the result out.
	for i := 0; i < chf.SpanCount; i++ {
		chf.Spans[i].Reg = srcReg[i]
	}
	return nil
}
