// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"image"
	"image/color"
)

// Surface is the raster target a drawing canvas renders into.
//
// A Surface owns a width×height RGBA pixel buffer. The canvas engine uses
// it for three things: rendering stroke segments, reading and writing the
// whole buffer at once (flood fill), and capturing/restoring full-buffer
// snapshots (undo/redo).
//
// Surfaces are NOT thread-safe. Each surface should be used from a single
// goroutine, or external synchronization must be used.
//
// Example usage:
//
//	s := surface.NewImageSurface(800, 600)
//	defer s.Close()
//
//	s.Clear(color.White)
//	s.StrokeSegment(surface.Segment{From: surface.Pt(9, 10), To: surface.Pt(10, 10)},
//	    surface.StrokeStyle{Color: color.Black, Width: 5})
//	snap := s.Snapshot()
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Clear fills the entire surface with the given color.
	Clear(c color.Color)

	// StrokeSegment renders one straight line segment using the style's
	// width and color. Joins and caps are round.
	StrokeSegment(seg Segment, style StrokeStyle)

	// ReadPixels returns a copy of the pixel buffer in RGBA order,
	// 4 bytes per pixel, rows top to bottom.
	ReadPixels() []uint8

	// WritePixels replaces the whole pixel buffer in one operation.
	// len(pix) must equal Width()*Height()*4.
	WritePixels(pix []uint8) error

	// DrawImage composites img over the surface with its origin at the
	// given point. Parts outside the surface are clipped.
	DrawImage(img image.Image, at image.Point)

	// Snapshot returns the current surface contents as an RGBA image.
	// The returned image is a copy; modifications to it do not affect the surface.
	Snapshot() *image.RGBA

	// Restore replaces the surface contents with a snapshot taken earlier.
	// The snapshot bounds must match the surface dimensions.
	Restore(img *image.RGBA) error

	// Flush ensures all pending drawing operations are complete.
	// For CPU surfaces, this is a no-op.
	Flush() error

	// Close releases all resources associated with the surface.
	// After Close, the surface must not be used.
	// Close is idempotent; multiple calls are safe.
	Close() error
}

// ResizableSurface is an optional interface for surfaces that support resizing.
type ResizableSurface interface {
	Surface

	// Resize changes the surface dimensions.
	// Existing content is discarded.
	Resize(width, height int) error
}

// Capabilities describes the optional features a surface supports.
type Capabilities struct {
	// SupportsResize indicates Resize is available.
	SupportsResize bool

	// SupportsAntialias indicates anti-aliased stroke rendering is available.
	SupportsAntialias bool

	// MaxWidth is the maximum supported width (0 = unlimited).
	MaxWidth int

	// MaxHeight is the maximum supported height (0 = unlimited).
	MaxHeight int
}

// CapableSurface is an optional interface for querying surface capabilities.
type CapableSurface interface {
	Surface

	// Capabilities returns the surface's capabilities.
	Capabilities() Capabilities
}

// Errors.
var (
	// ErrSizeMismatch is returned when a pixel buffer or snapshot does not
	// match the surface dimensions.
	ErrSizeMismatch = errors.New("surface: size mismatch")

	// ErrClosed is returned by operations on a closed surface.
	ErrClosed = errors.New("surface: closed")
)
