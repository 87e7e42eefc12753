package debug_utils

import (
	"bufio"
	"fmt"
	"io"

	"github.com/gorustyt/gonavtile/recast"
)

// DumpPolyMeshToObj writes the polygon mesh as a Wavefront OBJ, every polygon
// fanned into triangles.
func DumpPolyMeshToObj(pmesh *recast.RcPolyMesh, w io.Writer) error {
	if pmesh == nil {
		return fmt.Errorf("debug_utils: no polygon mesh")
	}
	bw := bufio.NewWriter(w)
	nvp := pmesh.Nvp
	cs := pmesh.Cs
	ch := pmesh.Ch
	orig := pmesh.Bmin

	fmt.Fprint(bw, "# Recast Navmesh\no NavMesh\n\n")
	for i := 0; i < pmesh.NVerts; i++ {
		v := pmesh.Verts[i*3:]
		x := orig[0] + float32(v[0])*cs
		y := orig[1] + float32(v[1]+1)*ch + 0.1
		z := orig[2] + float32(v[2])*cs
		fmt.Fprintf(bw, "v %f %f %f\n", x, y, z)
	}
	fmt.Fprintln(bw)

	for i := 0; i < pmesh.NPolys; i++ {
		p := pmesh.Poly(i)
		for j := 2; j < nvp; j++ {
			if p[j] == recast.RC_MESH_NULL_IDX {
				break
			}
			fmt.Fprintf(bw, "f %d %d %d\n", p[0]+1, p[j-1]+1, p[j]+1)
		}
	}
	return bw.Flush()
}

// DumpPolyMeshDetailToObj writes the detail triangles as a Wavefront OBJ.
func DumpPolyMeshDetailToObj(dmesh *recast.RcPolyMeshDetail, w io.Writer) error {
	if dmesh == nil {
		return fmt.Errorf("debug_utils: no detail mesh")
	}
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "# Recast Navmesh\no NavMesh\n\n")
	for i := 0; i < dmesh.NVerts; i++ {
		v := dmesh.Verts[i*3:]
		fmt.Fprintf(bw, "v %f %f %f\n", v[0], v[1], v[2])
	}
	fmt.Fprintln(bw)

	for i := 0; i < dmesh.NMeshes; i++ {
		m := dmesh.Meshes[i*4:]
		bverts := m[0]
		btris := m[2]
		ntris := m[3]
		tris := dmesh.Tris[btris*4:]
		for j := 0; j < ntris; j++ {
			fmt.Fprintf(bw, "f %d %d %d\n",
				bverts+int(tris[j*4+0])+1,
				bverts+int(tris[j*4+1])+1,
				bverts+int(tris[j*4+2])+1)
		}
	}
	return bw.Flush()
}
