package navigation

import (
	"cmp"
	"slices"
)

type chunkyTriMeshNode struct {
	bmin [2]float32
	bmax [2]float32
	i    int // first triangle of a leaf, negative escape offset otherwise
	n    int
}

// chunkyTriMesh is a 2D AABB tree over the xz bounds of a triangle soup. Each
// leaf holds at most trisPerChunk triangles, copied contiguously into tris.
type chunkyTriMesh struct {
	nodes           []chunkyTriMeshNode
	tris            []int
	maxTrisPerChunk int
}

type boundsItem struct {
	bmin [2]float32
	bmax [2]float32
	i    int
}

func calcItemExtends(items []boundsItem) (bmin, bmax [2]float32) {
	bmin = items[0].bmin
	bmax = items[0].bmax
	for _, it := range items[1:] {
		bmin[0] = min(bmin[0], it.bmin[0])
		bmin[1] = min(bmin[1], it.bmin[1])
		bmax[0] = max(bmax[0], it.bmax[0])
		bmax[1] = max(bmax[1], it.bmax[1])
	}
	return
}

func (cm *chunkyTriMesh) subdivide(items []boundsItem, trisPerChunk int, inTris []int) {
	icur := len(cm.nodes)
	cm.nodes = append(cm.nodes, chunkyTriMeshNode{})
	bmin, bmax := calcItemExtends(items)

	if len(items) <= trisPerChunk {
		// Leaf
		node := chunkyTriMeshNode{bmin: bmin, bmax: bmax, i: len(cm.tris) / 3, n: len(items)}
		for _, it := range items {
			cm.tris = append(cm.tris, inTris[it.i*3:it.i*3+3]...)
		}
		cm.nodes[icur] = node
		return
	}

	// Split
	axis := 0
	if bmax[1]-bmin[1] > bmax[0]-bmin[0] {
		axis = 1
	}
	slices.SortStableFunc(items, func(a, b boundsItem) int {
		return cmp.Compare(a.bmin[axis], b.bmin[axis])
	})
	isplit := len(items) / 2
	cm.subdivide(items[:isplit], trisPerChunk, inTris)
	cm.subdivide(items[isplit:], trisPerChunk, inTris)

	// Negative index means escape.
	cm.nodes[icur] = chunkyTriMeshNode{bmin: bmin, bmax: bmax, i: -(len(cm.nodes) - icur)}
}

func newChunkyTriMesh(verts []float32, tris []int, ntris, trisPerChunk int) *chunkyTriMesh {
	nchunks := (ntris + trisPerChunk - 1) / trisPerChunk
	cm := &chunkyTriMesh{
		nodes: make([]chunkyTriMeshNode, 0, nchunks*4),
		tris:  make([]int, 0, ntris*3),
	}
	if ntris == 0 {
		return cm
	}

	items := make([]boundsItem, ntris)
	for i := range items {
		t := tris[i*3 : i*3+3]
		it := &items[i]
		it.i = i
		// Calc triangle XZ bounds.
		it.bmin = [2]float32{verts[t[0]*3], verts[t[0]*3+2]}
		it.bmax = it.bmin
		for _, vi := range t[1:] {
			x, z := verts[vi*3], verts[vi*3+2]
			it.bmin[0] = min(it.bmin[0], x)
			it.bmin[1] = min(it.bmin[1], z)
			it.bmax[0] = max(it.bmax[0], x)
			it.bmax[1] = max(it.bmax[1], z)
		}
	}
	cm.subdivide(items, trisPerChunk, tris)

	for _, node := range cm.nodes {
		if node.i >= 0 {
			cm.maxTrisPerChunk = max(cm.maxTrisPerChunk, node.n)
		}
	}
	return cm
}

func checkOverlapRect(amin, amax, bmin, bmax [2]float32) bool {
	return amin[0] <= bmax[0] && amax[0] >= bmin[0] &&
		amin[1] <= bmax[1] && amax[1] >= bmin[1]
}

// chunksOverlappingRect returns the leaf node indices whose bounds overlap
// the xz rectangle.
func (cm *chunkyTriMesh) chunksOverlappingRect(bmin, bmax [2]float32) []int {
	var ids []int
	for i := 0; i < len(cm.nodes); {
		node := &cm.nodes[i]
		overlap := checkOverlapRect(bmin, bmax, node.bmin, node.bmax)
		isLeafNode := node.i >= 0
		if isLeafNode && overlap {
			ids = append(ids, i)
		}
		if overlap || isLeafNode {
			i++
		} else {
			i += -node.i
		}
	}
	return ids
}

// trianglesInRect gathers the triangles of every chunk overlapping the
// rectangle, in chunk order.
func (cm *chunkyTriMesh) trianglesInRect(bmin, bmax [2]float32) []int {
	var out []int
	for _, id := range cm.chunksOverlappingRect(bmin, bmax) {
		node := &cm.nodes[id]
		out = append(out, cm.tris[node.i*3:(node.i+node.n)*3]...)
	}
	return out
}
