// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// coverageThreshold is the minimum mask coverage for a pixel to be painted
// when anti-aliasing is off.
const coverageThreshold = 0x80

// ImageSurface is a CPU-based surface that renders to an *image.RGBA.
//
// Segments are rasterized with golang.org/x/image/vector into a coverage
// mask covering only the segment's bounding box. Without anti-aliasing
// every pixel whose coverage reaches 50% is set to the exact stroke color,
// so stroke pixels always compare equal to the stroke color.
//
// Example:
//
//	s := surface.NewImageSurface(800, 600)
//	defer s.Close()
//
//	s.Clear(color.White)
//	s.StrokeSegment(surface.Segment{From: surface.Pt(10, 10), To: surface.Pt(200, 10)},
//	    surface.StrokeStyle{Color: color.Black, Width: 5})
//
//	img := s.Snapshot()
type ImageSurface struct {
	width  int
	height int
	img    *image.RGBA

	antialias bool

	// closed tracks if Close has been called
	closed bool
}

// NewImageSurface creates a new CPU-based surface with the given dimensions.
func NewImageSurface(width, height int) *ImageSurface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	return &ImageSurface{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewImageSurfaceWithOptions creates a surface honoring Antialias and
// BackgroundColor from opts.
func NewImageSurfaceWithOptions(opts Options) *ImageSurface {
	s := NewImageSurface(opts.Width, opts.Height)
	s.antialias = opts.Antialias
	if opts.BackgroundColor != nil {
		s.Clear(opts.BackgroundColor)
	}
	return s
}

// NewImageSurfaceFromImage creates a surface backed by an existing image.
// The surface will render into the provided image directly.
func NewImageSurfaceFromImage(img *image.RGBA) *ImageSurface {
	bounds := img.Bounds()
	if bounds.Min != (image.Point{}) {
		// Re-anchor at the origin so pixel coordinates match surface coordinates.
		dup := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		xdraw.Draw(dup, dup.Bounds(), img, bounds.Min, xdraw.Src)
		img = dup
	}

	return &ImageSurface{
		width:  bounds.Dx(),
		height: bounds.Dy(),
		img:    img,
	}
}

// Width returns the surface width.
func (s *ImageSurface) Width() int {
	return s.width
}

// Height returns the surface height.
func (s *ImageSurface) Height() int {
	return s.height
}

// SetAntialias toggles anti-aliased stroke edges.
func (s *ImageSurface) SetAntialias(on bool) {
	s.antialias = on
}

// Clear fills the entire surface with the given color.
func (s *ImageSurface) Clear(c color.Color) {
	if s.closed {
		return
	}
	xdraw.Draw(s.img, s.img.Bounds(), &image.Uniform{C: s.resolveColor(c)}, image.Point{}, xdraw.Src)
}

// StrokeSegment renders one segment as a capsule: a rectangle of the
// stroke width with semicircular ends.
func (s *ImageSurface) StrokeSegment(seg Segment, style StrokeStyle) {
	if s.closed || style.Width <= 0 {
		return
	}

	outline := capsule(seg, float32(style.Width)/2)
	full := outline.bounds()
	r := full.Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}

	mask := s.coverage(outline, full)
	off := r.Min.Sub(full.Min)
	c := s.resolveColor(style.Color)

	if s.antialias {
		xdraw.DrawMask(s.img, r, &image.Uniform{C: c}, image.Point{}, mask, off, xdraw.Over)
		return
	}

	for y := 0; y < r.Dy(); y++ {
		mi := (off.Y+y)*mask.Stride + off.X
		row := mask.Pix[mi : mi+r.Dx()]
		for x, a := range row {
			if a < coverageThreshold {
				continue
			}
			i := s.img.PixOffset(r.Min.X+x, r.Min.Y+y)
			s.img.Pix[i+0] = c.R
			s.img.Pix[i+1] = c.G
			s.img.Pix[i+2] = c.B
			s.img.Pix[i+3] = c.A
		}
	}
}

// coverage rasterizes outline into an alpha mask the size of r.
// Mask pixel (0, 0) corresponds to surface pixel r.Min.
func (s *ImageSurface) coverage(outline polygon, r image.Rectangle) *image.Alpha {
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	ox, oy := float32(r.Min.X), float32(r.Min.Y)

	z.MoveTo(outline[0].x-ox, outline[0].y-oy)
	for _, p := range outline[1:] {
		z.LineTo(p.x-ox, p.y-oy)
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// ReadPixels returns a copy of the pixel buffer.
func (s *ImageSurface) ReadPixels() []uint8 {
	if s.closed {
		return nil
	}
	pix := make([]uint8, s.width*s.height*4)
	rowLen := s.width * 4
	for y := 0; y < s.height; y++ {
		copy(pix[y*rowLen:(y+1)*rowLen], s.img.Pix[y*s.img.Stride:])
	}
	return pix
}

// WritePixels replaces the pixel buffer with pix.
func (s *ImageSurface) WritePixels(pix []uint8) error {
	if s.closed {
		return ErrClosed
	}
	if len(pix) != s.width*s.height*4 {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(pix), s.width*s.height*4)
	}
	rowLen := s.width * 4
	for y := 0; y < s.height; y++ {
		copy(s.img.Pix[y*s.img.Stride:y*s.img.Stride+rowLen], pix[y*rowLen:])
	}
	return nil
}

// DrawImage composites img over the surface with its top-left corner at at.
func (s *ImageSurface) DrawImage(img image.Image, at image.Point) {
	if s.closed || img == nil {
		return
	}
	b := img.Bounds()
	dst := image.Rectangle{Min: at, Max: at.Add(b.Size())}
	xdraw.Draw(s.img, dst, img, b.Min, xdraw.Over)
}

// Flush ensures all pending operations are complete.
// For ImageSurface, this is a no-op.
func (s *ImageSurface) Flush() error {
	return nil
}

// Snapshot returns a copy of the current surface contents.
func (s *ImageSurface) Snapshot() *image.RGBA {
	if s.closed {
		return nil
	}

	result := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	copy(result.Pix, s.ReadPixels())
	return result
}

// Restore copies a snapshot back into the surface.
func (s *ImageSurface) Restore(img *image.RGBA) error {
	if s.closed {
		return ErrClosed
	}
	if img == nil || img.Bounds().Dx() != s.width || img.Bounds().Dy() != s.height {
		return ErrSizeMismatch
	}
	xdraw.Draw(s.img, s.img.Bounds(), img, img.Bounds().Min, xdraw.Src)
	return nil
}

// Resize discards the contents and reallocates the buffer.
func (s *ImageSurface) Resize(width, height int) error {
	if s.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("surface: invalid size %dx%d", width, height)
	}
	s.width = width
	s.height = height
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Close releases resources associated with the surface.
func (s *ImageSurface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.img = nil
	return nil
}

// Image returns the underlying image.RGBA.
// This is a direct reference, not a copy.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// Capabilities returns the surface capabilities.
func (s *ImageSurface) Capabilities() Capabilities {
	return Capabilities{
		SupportsResize:    true,
		SupportsAntialias: true,
	}
}

// resolveColor converts c to a premultiplied color.RGBA, defaulting to black.
func (s *ImageSurface) resolveColor(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{0, 0, 0, 255}
	}
	return color.RGBAModel.Convert(c).(color.RGBA)
}

// vec2 is a float32 point in rasterizer space.
type vec2 struct {
	x, y float32
}

// polygon is a closed outline.
type polygon []vec2

// bounds returns the integer pixel rectangle covering p.
func (p polygon) bounds() image.Rectangle {
	minX, minY := p[0].x, p[0].y
	maxX, maxY := minX, minY
	for _, v := range p[1:] {
		minX = math32.Min(minX, v.x)
		minY = math32.Min(minY, v.y)
		maxX = math32.Max(maxX, v.x)
		maxY = math32.Max(maxY, v.y)
	}
	return image.Rect(
		int(math32.Floor(minX)), int(math32.Floor(minY)),
		int(math32.Ceil(maxX)), int(math32.Ceil(maxY)),
	)
}

// capsule builds the outline of seg widened by radius r with round ends.
// Pixel (x, y) covers [x, x+1)×[y, y+1), so segment endpoints are shifted
// by half a pixel to land on pixel centers.
func capsule(seg Segment, r float32) polygon {
	x0, y0 := float32(seg.From.X)+0.5, float32(seg.From.Y)+0.5
	x1, y1 := float32(seg.To.X)+0.5, float32(seg.To.Y)+0.5

	dx, dy := x1-x0, y1-y0
	length := math32.Hypot(dx, dy)
	if length == 0 {
		dx, dy, length = 1, 0, 1
	}

	// Angle of the left normal (-dy, dx). Sweeping half a turn from it
	// around the start point passes behind the segment, around the end
	// point in front of it.
	a := math32.Atan2(dx/length, -dy/length)
	steps := arcSteps(r)

	out := make(polygon, 0, 2*(steps+1))
	for i := 0; i <= steps; i++ {
		t := a + math32.Pi*float32(i)/float32(steps)
		out = append(out, vec2{x0 + r*math32.Cos(t), y0 + r*math32.Sin(t)})
	}
	for i := 0; i <= steps; i++ {
		t := a + math32.Pi + math32.Pi*float32(i)/float32(steps)
		out = append(out, vec2{x1 + r*math32.Cos(t), y1 + r*math32.Sin(t)})
	}
	return out
}

// arcSteps picks the number of segments per half circle for radius r.
func arcSteps(r float32) int {
	n := int(math32.Ceil(r * 2))
	if n < 4 {
		return 4
	}
	if n > 64 {
		return 64
	}
	return n
}

// Verify ImageSurface implements the surface interfaces.
var (
	_ Surface          = (*ImageSurface)(nil)
	_ ResizableSurface = (*ImageSurface)(nil)
	_ CapableSurface   = (*ImageSurface)(nil)
)
