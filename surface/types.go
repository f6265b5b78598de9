// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image/color"
)

// StrokeStyle defines how to stroke a segment.
// Caps and joins are always round.
type StrokeStyle struct {
	// Color is the stroke color.
	Color color.Color

	// Width is the line width in pixels.
	Width float64
}

// DefaultStrokeStyle returns a StrokeStyle with default values.
// Uses black color and 5px width.
func DefaultStrokeStyle() StrokeStyle {
	return StrokeStyle{
		Color: color.Black,
		Width: 5,
	}
}

// WithColor returns a copy with the specified color.
func (s StrokeStyle) WithColor(c color.Color) StrokeStyle {
	s.Color = c
	return s
}

// WithWidth returns a copy with the specified width.
func (s StrokeStyle) WithWidth(w float64) StrokeStyle {
	s.Width = w
	return s
}

// Point represents a 2D point with float64 coordinates.
//
// Integer coordinates address pixel centers: the point (3, 4) is the
// center of the pixel in column 3, row 4.
type Point struct {
	X, Y float64
}

// Pt creates a Point from x, y coordinates.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Segment is a straight line from From to To.
// A zero-length segment renders as a dot of the stroke width.
type Segment struct {
	From, To Point
}

// Options configures surface creation.
type Options struct {
	// Width is the surface width in pixels.
	Width int

	// Height is the surface height in pixels.
	Height int

	// Antialias enables anti-aliased stroke edges.
	// Default: false. Hard edges keep stroke pixels exactly the stroke
	// color, which tolerance-free flood fill relies on.
	Antialias bool

	// BackgroundColor is the initial background color.
	// Default: transparent
	BackgroundColor color.Color

	// Custom options for specific backends.
	Custom map[string]any
}

// DefaultOptions returns Options with default values.
func DefaultOptions(width, height int) Options {
	return Options{
		Width:  width,
		Height: height,
	}
}
