package common

import (
	"cmp"
	"math"
)

// / Returns the square of the value.
// / @param[in]		a	The value.
// / @return The square of the value.
func Sqr[T IT](a T) T {
	return a * a
}

// / Returns the absolute value.
// / @param[in]		a	The value.
// / @return The absolute value of the specified value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Clamps the value to the specified range.
// / @param[in]		value			The value to clamp.
// / @param[in]		minInclusive	The minimum permitted return value.
// / @param[in]		maxInclusive	The maximum permitted return value.
// / @return The value, clamped to the specified range.
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

func Sqrt[T float64 | float32](x T) T {
	return T(math.Sqrt(float64(x)))
}

// / Performs a vector addition. (@p v1 + @p v2)
// / @param[out]		dest	The result vector. [(x, y, z)]
// / @param[in]		v1		The base vector. [(x, y, z)]
// / @param[in]		v2		The vector to add to @p v1. [(x, y, z)]
func Vadd[T float64 | float32](res []T, v1, v2 []T) {
	res[0] = v1[0] + v2[0]
	res[1] = v1[1] + v2[1]
	res[2] = v1[2] + v2[2]
}

// / Performs a vector subtraction. (@p v1 - @p v2)
// / @param[out]		dest	The result vector. [(x, y, z)]
// / @param[in]		v1		The base vector. [(x, y, z)]
// / @param[in]		v2		The vector to subtract from @p v1. [(x, y, z)]
func Vsub[T float64 | float32](res, v1, v2 []T) {
	res[0] = v1[0] - v2[0]
	res[1] = v1[1] - v2[1]
	res[2] = v1[2] - v2[2]
}

// / Selects the minimum value of each element from the specified vectors.
// / @param[in,out]	mn	A vector.  (Will be updated with the result.) [(x, y, z)]
// / @param[in]		v	A vector. [(x, y, z)]
func Vmin[T float64 | float32](mn, v []T) {
	mn[0] = min(mn[0], v[0])
	mn[1] = min(mn[1], v[1])
	mn[2] = min(mn[2], v[2])
}

// / Selects the maximum value of each element from the specified vectors.
// / @param[in,out]	mx	A vector.  (Will be updated with the result.) [(x, y, z)]
// / @param[in]		v	A vector. [(x, y, z)]
func Vmax[T float64 | float32](mx, v []T) {
	mx[0] = max(mx[0], v[0])
	mx[1] = max(mx[1], v[1])
	mx[2] = max(mx[2], v[2])
}

// / Derives the cross product of two vectors. (@p v1 x @p v2)
func Vcross[T float64 | float32](res []T, v1, v2 []T) {
	res[0] = v1[1]*v2[2] - v1[2]*v2[1]
	res[1] = v1[2]*v2[0] - v1[0]*v2[2]
	res[2] = v1[0]*v2[1] - v1[1]*v2[0]
}

// / Derives the dot product of two vectors. (@p v1 . @p v2)
func Vdot[T float64 | float32](v1, v2 []T) T {
	return v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]
}

// / Normalizes the vector.
// / @param[in,out]	v	The vector to normalize. [(x, y, z)]
//
// Components are divided by the length so axis aligned vectors stay exact.
func Vnormalize[T float64 | float32](v []T) {
	d := Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if d == 0 {
		return
	}
	v[0] /= d
	v[1] /= d
	v[2] /= d
}

// / Returns the distance between two points.
func Vdist[T float64 | float32](v1, v2 []T) T {
	return Sqrt(VdistSqr(v1, v2))
}

// / Returns the square of the distance between two points.
func VdistSqr[T float64 | float32](v1, v2 []T) T {
	dx := v2[0] - v1[0]
	dy := v2[1] - v1[1]
	dz := v2[2] - v1[2]
	return dx*dx + dy*dy + dz*dz
}

// / Derives the square of the distance between the specified points on the xz-plane.
func Vdist2DSqr[T float64 | float32](v1, v2 []T) T {
	dx := v2[0] - v1[0]
	dz := v2[2] - v1[2]
	return dx*dx + dz*dz
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float32) bool {
	return !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v))
}

// / Determines if two axis-aligned bounding boxes overlap.
func OverlapBounds(amin, amax, bmin, bmax []float32) bool {
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		return false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		return false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		return false
	}
	return true
}

// / Gets the direction for the specified offset. One of x and y should be 0.
// / @param[in]		offsetX		The x offset. [Limits: -1 <= value <= 1]
// / @param[in]		offsetZ		The z offset. [Limits: -1 <= value <= 1]
// / @return The direction that represents the offset.
func GetDirForOffset(offsetX, offsetZ int) int {
	dirs := [5]int{3, 0, -1, 2, 1}
	return dirs[((offsetZ+1)<<1)+offsetX]
}

// / Gets the standard width (x-axis) offset for the specified direction.
// / @param[in]		direction		The direction. [Limits: 0 <= value < 4]
// / @return The width offset to apply to the current cell position to move in the direction.
func GetDirOffsetX(direction int) int {
	offset := [4]int{-1, 0, 1, 0}
	return offset[direction&0x03]
}

// / Gets the standard height (z-axis) offset for the specified direction.
// / @param[in]		direction		The direction. [Limits: 0 <= value < 4]
// / @return The height offset to apply to the current cell position to move in the direction.
func GetDirOffsetY(direction int) int {
	offset := [4]int{0, 1, 0, -1}
	return offset[direction&0x03]
}

func NextPow2(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}

func Ilog2(v uint32) uint32 {
	b := func(ok bool) uint32 {
		if ok {
			return 1
		}
		return 0
	}
	r := b(v > 0xffff) << 4
	v >>= r
	shift := b(v > 0xff) << 3
	v >>= shift
	r |= shift
	shift = b(v > 0xf) << 2
	v >>= shift
	r |= shift
	shift = b(v > 0x3) << 1
	v >>= shift
	r |= shift
	r |= v >> 1
	return r
}

// Align4 rounds x up to the next multiple of four.
func Align4(x int) int {
	return (x + 3) &^ 3
}
