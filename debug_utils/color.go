package debug_utils

import "image/color"

// Colorb is a non premultiplied RGBA color. It implements color.Color so it
// can be handed to any navigation.RenderDriver.
type Colorb [4]uint8

func (c Colorb) R() uint8 {
	return c[0]
}

func (c Colorb) G() uint8 {
	return c[1]
}

func (c Colorb) B() uint8 {
	return c[2]
}

func (c Colorb) A() uint8 {
	return c[3]
}

func (c Colorb) Int() uint32 {
	return uint32(c.R()) | (uint32(c.G()) << 8) | (uint32(c.B()) << 16) | (uint32(c.A()) << 24)
}

func (c *Colorb) FromInt(col uint32) {
	c[0] = uint8(col & 0xff)
	c[1] = uint8((col >> 8) & 0xff)
	c[2] = uint8((col >> 16) & 0xff)
	c[3] = uint8((col >> 24) & 0xff)
}

func (c Colorb) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}.RGBA()
}

// ToColorb converts any color, un-premultiplying alpha.
func ToColorb(c color.Color) Colorb {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Colorb{n.R, n.G, n.B, n.A}
}

func DuRGBA[T int | int32 | uint8](r, g, b, a T) Colorb {
	return Colorb{uint8(r), uint8(g), uint8(b), uint8(a)}
}

func DuRGBAf(fr, fg, fb, fa float32) Colorb {
	r := int(fr * 255.0)
	g := int(fg * 255.0)
	b := int(fb * 255.0)
	a := int(fa * 255.0)
	return DuRGBA(r, g, b, a)
}

func Bit(a, b int) int {
	return (a & (1 << b)) >> b
}

// DuIntToCol spreads the low six bits of i over the three channels.
func DuIntToCol(i, a int) Colorb {
	r := Bit(i, 1) + Bit(i, 3)*2 + 1
	g := Bit(i, 2) + Bit(i, 4)*2 + 1
	b := Bit(i, 0) + Bit(i, 5)*2 + 1
	return DuRGBA(r*63, g*63, b*63, a)
}

// AreaToCol returns the color polygons of area are drawn with.
func AreaToCol(area uint8) Colorb {
	if area == 0 {
		// Treat zero area type as default.
		return DuRGBA(0, 192, 255, 255)
	}
	return DuIntToCol(int(area), 255)
}

func duMultCol(col Colorb, d uint8) Colorb {
	r := int(col.R())
	g := int(col.G())
	b := int(col.B())
	a := int(col.A())
	di := int(d)
	return DuRGBA(r*di>>8, g*di>>8, b*di>>8, a)
}

func DuDarkenCol(col Colorb) (res Colorb) {
	i := col.Int()
	res.FromInt(((i >> 1) & 0x007f7f7f) | (i & 0xff000000))
	return res
}

func DuLerpCol(ca, cb Colorb, u uint8) Colorb {
	lerp := func(a, b uint8) int {
		return (int(a)*(255-int(u)) + int(b)*int(u)) / 255
	}
	return DuRGBA(lerp(ca.R(), cb.R()), lerp(ca.G(), cb.G()), lerp(ca.B(), cb.B()), lerp(ca.A(), cb.A()))
}

func DuTransCol(c Colorb, a uint8) Colorb {
	return Colorb{c.R(), c.G(), c.B(), a}
}
