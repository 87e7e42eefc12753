package common

import "github.com/go-gl/mathgl/mgl32"

type Vec3 = mgl32.Vec3
type Mat4 = mgl32.Mat4

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
type IIndex interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint | ~uint8 | ~uint16 | ~uint32
}

func GetVert3[T IT, T1 IIndex](verts []T, index T1) []T {
	return verts[index*3 : index*3+3]
}

// TransformCoord transforms v by m as a point (w = 1) and projects the result back to w = 1.
func TransformCoord(m Mat4, v Vec3) Vec3 {
	r := m.Mul4x1(v.Vec4(1))
	if r[3] != 0 && r[3] != 1 {
		return r.Vec3().Mul(1 / r[3])
	}
	return r.Vec3()
}

// TransformBounds returns the axis aligned box enclosing the eight transformed corners of bmin/bmax.
func TransformBounds(m Mat4, bmin, bmax Vec3) (Vec3, Vec3) {
	var omin, omax Vec3
	for i := 0; i < 8; i++ {
		c := Vec3{bmin[0], bmin[1], bmin[2]}
		if i&1 != 0 {
			c[0] = bmax[0]
		}
		if i&2 != 0 {
			c[1] = bmax[1]
		}
		if i&4 != 0 {
			c[2] = bmax[2]
		}
		p := TransformCoord(m, c)
		if i == 0 {
			omin, omax = p, p
			continue
		}
		Vmin(omin[:], p[:])
		Vmax(omax[:], p[:])
	}
	return omin, omax
}

func GetVert4[T IT, T1 IIndex](verts []T, index T1) []T {
	return verts[index*4 : index*4+4]
}
