// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the raster target abstraction for freehand canvases.
//
// Surface decouples the drawing engine from the pixel store it draws into.
// The engine needs only a handful of capabilities from it:
//
//   - render a stroke segment (round caps and joins)
//   - read and write the whole RGBA buffer in one operation
//   - capture and restore full-buffer snapshots
//   - composite a decoded image at the origin
//
// # Surface Types
//
//   - ImageSurface: CPU-based rendering into an *image.RGBA using
//     golang.org/x/image/vector for segment coverage
//
// # Registry and Directory
//
// Backends register a factory under a name and priority:
//
//	surface.Register("recording", 20, func(opts surface.Options) (surface.Surface, error) {
//	    return newRecordingSurface(opts.Width, opts.Height), nil
//	})
//
// A Directory maps surface IDs to surfaces. Hosts that own their render
// targets attach them; otherwise Open creates one with the best backend:
//
//	s, err := surface.DefaultDirectory.Open("sketch", 800, 600)
//
// # Usage
//
//	s := surface.NewImageSurface(800, 600)
//	defer s.Close()
//
//	s.Clear(color.White)
//	s.StrokeSegment(surface.Segment{From: surface.Pt(100, 100), To: surface.Pt(300, 100)},
//	    surface.StrokeStyle{Color: color.Black, Width: 5})
//
//	snap := s.Snapshot()
//	// ... draw more ...
//	_ = s.Restore(snap)
package surface
