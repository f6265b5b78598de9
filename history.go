package freehand

import "image"

// history is a pair of bounded snapshot stacks.
//
// The top of snapshots is the current state of the surface. Both stacks
// keep only their newest max entries.
type history struct {
	max       int
	snapshots []*image.RGBA
	redoStack []*image.RGBA
}

func newHistory(limit int) *history {
	if limit < 1 {
		limit = DefaultMaxSnapshots
	}
	return &history{max: limit}
}

// capture pushes img as the new current state.
func (h *history) capture(img *image.RGBA) {
	if img == nil {
		return
	}
	h.snapshots = keepNewest(append(h.snapshots, img), h.max)
}

// peekUndo returns the state undo would move to, leaving the stacks as they are.
func (h *history) peekUndo() (*image.RGBA, bool) {
	n := len(h.snapshots)
	if n < 2 {
		return nil, false
	}
	return h.snapshots[n-2], true
}

// peekRedo returns the state redo would move to, leaving the stacks as they are.
func (h *history) peekRedo() (*image.RGBA, bool) {
	n := len(h.redoStack)
	if n == 0 {
		return nil, false
	}
	return h.redoStack[n-1], true
}

// undo moves the current state onto the redo stack and returns the state
// before it. It reports false when there is no earlier state.
func (h *history) undo() (*image.RGBA, bool) {
	n := len(h.snapshots)
	if n < 2 {
		return nil, false
	}
	top := h.snapshots[n-1]
	h.snapshots[n-1] = nil
	h.snapshots = h.snapshots[:n-1]
	h.redoStack = keepNewest(append(h.redoStack, top), h.max)
	return h.snapshots[n-2], true
}

// redo re-establishes the most recently undone state and returns it.
func (h *history) redo() (*image.RGBA, bool) {
	n := len(h.redoStack)
	if n == 0 {
		return nil, false
	}
	img := h.redoStack[n-1]
	h.redoStack[n-1] = nil
	h.redoStack = h.redoStack[:n-1]
	h.snapshots = keepNewest(append(h.snapshots, img), h.max)
	return img, true
}

func (h *history) clearRedo() {
	clear(h.redoStack)
	h.redoStack = h.redoStack[:0]
}

func (h *history) current() *image.RGBA {
	if len(h.snapshots) == 0 {
		return nil
	}
	return h.snapshots[len(h.snapshots)-1]
}

// keepNewest drops the oldest entries of s beyond max, in place.
func keepNewest(s []*image.RGBA, limit int) []*image.RGBA {
	extra := len(s) - limit
	if extra <= 0 {
		return s
	}
	copy(s, s[extra:])
	clear(s[limit:])
	return s[:limit]
}
