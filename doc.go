// Package freehand is a freehand drawing engine for raster canvases.
//
// # Overview
//
// A Canvas turns pointer input into round-capped strokes on a surface,
// flood-fills regions with a bucket tool, and keeps a bounded stack of
// full-buffer snapshots for undo and redo. Every stroke and fill is also
// recorded in an input log with the style it was drawn with, so the
// drawing can be replayed onto a fresh background.
//
// # Quick Start
//
//	import "github.com/gogpu/freehand"
//
//	c, err := freehand.New("sketch", 800, 600,
//	    freehand.WithStrokeColor(200, 0, 0),
//	    freehand.WithLineWidth(3))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	c.PenDown(100, 100)
//	c.PenMove(300, 120)
//	c.PenUp()
//
//	png, err := c.ExportSnapshot()
//
// # Surfaces
//
// The canvas draws through the [surface.Surface] interface. By default the
// surface is looked up by ID in [surface.DefaultDirectory] and created
// with the highest-priority registered backend when absent; the built-in
// backend is a CPU [surface.ImageSurface]. Hosts that own their render
// target pass it with [WithSurface].
//
// # Pointer Input
//
// PenDown, PenMove and PenUp drive a stroke. PenLeave suspends a stroke in
// progress; the next PenMove after the pen returns starts a new stroke
// instead of drawing across the gap, and DocumentRelease finishes the
// suspended one. TouchStart, TouchMove and TouchEnd do the same for touch
// input, following only the first touch point.
//
// With the bucket tool enabled, PenDown flood-fills instead of drawing.
// The fill matches pixels within a percentage tolerance of the seed color.
// On a canvas with nothing drawn or imported, the first fill repaints the
// whole surface.
//
// # History
//
// Each finished stroke, fill, clear, and import captures a snapshot.
// Undo and Redo move between snapshots; any new edit drops the redo
// stack. The snapshot stack holds at most WithMaxSnapshots entries.
//
// # Events
//
// Listeners registered with On or Subscribe receive redraw, fill,
// pointerdown, pointerup, pointerenter, and pointerleave events. They run
// synchronously after the canvas lock is released and may call back into
// the canvas.
//
// # Logging
//
// freehand is silent by default. See [SetLogger].
package freehand
