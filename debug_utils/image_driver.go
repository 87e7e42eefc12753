package debug_utils

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/navigation"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/vector"
)

// ImageDriver renders debug geometry seen from above into an RGBA image:
// world x grows to the right and world z grows down. It implements
// navigation.RenderDriver and PolyCanvas.
type ImageDriver struct {
	img    *image.RGBA
	origin [2]float32 // world xz at pixel (0, 0)
	scale  float32    // pixels per world unit
	raster *vector.Rasterizer

	// WireWidth is the wire line width in pixels.
	WireWidth float32
}

// NewImageDriver covers the xz extent of bounds at pixelsPerUnit, filled
// with background.
func NewImageDriver(bounds navigation.Bounds, pixelsPerUnit float32, background color.Color) *ImageDriver {
	if pixelsPerUnit <= 0 {
		pixelsPerUnit = 1
	}
	w := int(math.Ceil(float64((bounds.Max[0]-bounds.Min[0])*pixelsPerUnit))) + 1
	h := int(math.Ceil(float64((bounds.Max[2]-bounds.Min[2])*pixelsPerUnit))) + 1
	w, h = max(w, 1), max(h, 1)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return &ImageDriver{
		img:       img,
		origin:    [2]float32{bounds.Min[0], bounds.Min[2]},
		scale:     pixelsPerUnit,
		raster:    vector.NewRasterizer(w, h),
		WireWidth: 1,
	}
}

func (d *ImageDriver) Image() *image.RGBA { return d.img }

// Project returns the pixel position of a world point.
func (d *ImageDriver) Project(v common.Vec3) (x, y float32) {
	return (v[0] - d.origin[0]) * d.scale, (v[2] - d.origin[1]) * d.scale
}

func (d *ImageDriver) fill(col color.Color) {
	d.raster.DrawOp = draw.Over
	d.raster.Draw(d.img, d.img.Bounds(), image.NewUniform(col), image.Point{})
	b := d.img.Bounds()
	d.raster.Reset(b.Dx(), b.Dy())
}

// FillPolygon fills the convex or concave polygon pts.
func (d *ImageDriver) FillPolygon(pts []common.Vec3, col Colorb) {
	if len(pts) < 3 {
		return
	}
	x, y := d.Project(pts[0])
	d.raster.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = d.Project(p)
		d.raster.LineTo(x, y)
	}
	d.raster.ClosePath()
	d.fill(col)
}

// Line draws a segment width pixels wide.
func (d *ImageDriver) Line(a, b common.Vec3, width float32, col Colorb) {
	d.line(a, b, width, col)
}

func (d *ImageDriver) line(a, b common.Vec3, width float32, col color.Color) {
	ax, ay := d.Project(a)
	bx, by := d.Project(b)
	dx, dy := bx-ax, by-ay
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	// Half width normal.
	nx, ny := -dy/l*width*0.5, dx/l*width*0.5
	d.raster.MoveTo(ax+nx, ay+ny)
	d.raster.LineTo(bx+nx, by+ny)
	d.raster.LineTo(bx-nx, by-ny)
	d.raster.LineTo(ax-nx, ay-ny)
	d.raster.ClosePath()
	d.fill(col)
}

// DrawMesh fills every triangle with interior and outlines it with wire.
// Every technique is drawn the same way.
func (d *ImageDriver) DrawMesh(technique string, mesh *navigation.DebugMesh, interior, wire color.Color) {
	if mesh == nil {
		return
	}
	verts, idx := mesh.Vertices, mesh.Indices
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := verts[idx[i]], verts[idx[i+1]], verts[idx[i+2]]
		ax, ay := d.Project(a)
		bx, by := d.Project(b)
		cx, cy := d.Project(c)
		d.raster.MoveTo(ax, ay)
		d.raster.LineTo(bx, by)
		d.raster.LineTo(cx, cy)
		d.raster.ClosePath()
		d.fill(interior)
	}
	if wire == nil || d.WireWidth <= 0 {
		return
	}
	for i := 0; i+2 < len(idx); i += 3 {
		for k := 0; k < 3; k++ {
			d.line(verts[idx[i+k]], verts[idx[i+(k+1)%3]], d.WireWidth, wire)
		}
	}
}

// Encode writes the image as "png", "bmp" or "tiff".
func (d *ImageDriver) Encode(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, d.img)
	case "bmp":
		return bmp.Encode(w, d.img)
	case "tif", "tiff":
		return tiff.Encode(w, d.img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("debug_utils: unsupported image format %q", format)
}

// Save writes the image to path, picking the format from its extension.
func (d *ImageDriver) Save(path string) (err error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return d.Encode(f, format)
}
