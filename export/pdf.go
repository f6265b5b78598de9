// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package export renders canvas contents into document formats.
//
// PDF embeds the raster exactly as it is on the canvas. StrokesPDF redraws
// the logged strokes as vector lines, which scales cleanly but cannot show
// flood fills or imported images.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/gogpu/freehand"
	"github.com/gogpu/freehand/internal/codec"
)

// ErrEmptyImage is returned when there is nothing to export.
var ErrEmptyImage = errors.New("export: empty image")

const creator = "freehand"

// Option configures a PDF export.
type Option func(*options)

type options struct {
	title string
	scale float64
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithScale sets the page size in points per canvas pixel. Default: 1.
func WithScale(pointsPerPixel float64) Option {
	return func(o *options) {
		if pointsPerPixel > 0 {
			o.scale = pointsPerPixel
		}
	}
}

func newDocument(width, height int, opts []Option) (*gofpdf.Fpdf, float64) {
	o := options{scale: 1}
	for _, opt := range opts {
		opt(&o)
	}

	// Custom sizes are taken as given only in portrait; "L" would swap them.
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(width) * o.scale, Ht: float64(height) * o.scale},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(creator, true)
	if o.title != "" {
		pdf.SetTitle(o.title, true)
	}
	pdf.AddPage()
	return pdf, o.scale
}

// PDF writes img as a one-page PDF whose page matches the image size.
func PDF(w io.Writer, img image.Image, opts ...Option) error {
	if img == nil || img.Bounds().Empty() {
		return ErrEmptyImage
	}
	b := img.Bounds()
	data, err := codec.PNG(img)
	if err != nil {
		return err
	}

	pdf, scale := newDocument(b.Dx(), b.Dy(), opts)
	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("canvas", imgOpts, bytes.NewReader(data))
	pdf.ImageOptions("canvas", 0, 0, float64(b.Dx())*scale, float64(b.Dy())*scale, false, imgOpts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write PDF: %w", err)
	}
	return nil
}

// CanvasPDF writes the current contents of c as a one-page PDF.
func CanvasPDF(w io.Writer, c *freehand.Canvas, opts ...Option) error {
	img := c.Image()
	if img == nil {
		return freehand.ErrClosed
	}
	return PDF(w, img, opts...)
}

// StrokesPDF writes the strokes among entries as vector lines on a
// width×height page, each segment in the color and width it was drawn
// with. Fill operations are skipped.
func StrokesPDF(w io.Writer, width, height int, entries []freehand.HistoryEntry, opts ...Option) error {
	if width <= 0 || height <= 0 {
		return ErrEmptyImage
	}
	pdf, scale := newDocument(width, height, opts)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	for _, e := range entries {
		s, ok := e.(*freehand.Stroke)
		if !ok {
			continue
		}
		for i, cur := range s.Samples {
			fromX, fromY := cur.X-1, cur.Y
			if cur.Moving && i > 0 {
				fromX, fromY = s.Samples[i-1].X, s.Samples[i-1].Y
			}
			pdf.SetDrawColor(int(cur.StrokeColor[0]), int(cur.StrokeColor[1]), int(cur.StrokeColor[2]))
			pdf.SetLineWidth(cur.LineWidth * scale)
			pdf.Line(
				(float64(fromX)+0.5)*scale, (float64(fromY)+0.5)*scale,
				(float64(cur.X)+0.5)*scale, (float64(cur.Y)+0.5)*scale,
			)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write PDF: %w", err)
	}
	return nil
}
