package freehand

import (
	"github.com/google/uuid"

	"github.com/gogpu/freehand/surface"
)

// HistoryEntry is one item of the canvas input log: a *Stroke or a
// *FillOperation. IsBucketOperation tells them apart.
type HistoryEntry interface {
	EntryID() string
	IsBucketOperation() bool
	entry()
}

// Sample is one recorded pointer position together with the style that
// was active when it was recorded.
type Sample struct {
	X, Y int

	// Moving is false for the pen-down sample that opens a stroke and
	// true for every later sample of the same stroke.
	Moving bool

	LineWidth   float64
	StrokeColor Color
}

// Stroke is the samples of one pen-down to pen-up gesture.
type Stroke struct {
	ID      string
	Samples []Sample
}

// EntryID returns the stroke's unique ID.
func (s *Stroke) EntryID() string { return s.ID }

// IsBucketOperation reports false.
func (s *Stroke) IsBucketOperation() bool { return false }

func (s *Stroke) entry() {}

// FillOperation records one flood fill.
type FillOperation struct {
	ID        string
	X, Y      int
	Color     Color
	Tolerance float64

	// Bootstrap is set when the fill repainted a canvas that had never
	// been drawn on, instead of running the scanline walk.
	Bootstrap bool

	Result FillResult
}

// EntryID returns the fill's unique ID.
func (f *FillOperation) EntryID() string { return f.ID }

// IsBucketOperation reports true.
func (f *FillOperation) IsBucketOperation() bool { return true }

func (f *FillOperation) entry() {}

// recorder accumulates strokes and fills into an ordered log.
type recorder struct {
	entries []HistoryEntry
	open    *Stroke
}

// begin opens a stroke with a single pen-down sample.
func (r *recorder) begin(x, y int, width float64, c Color) *Stroke {
	s := &Stroke{
		ID:      uuid.NewString(),
		Samples: []Sample{{X: x, Y: y, LineWidth: width, StrokeColor: c}},
	}
	r.open = s
	r.entries = append(r.entries, s)
	return s
}

// extend appends a moving sample to the open stroke. It reports false,
// doing nothing, when no stroke is open.
func (r *recorder) extend(x, y int, width float64, c Color) bool {
	if r.open == nil {
		return false
	}
	r.open.Samples = append(r.open.Samples, Sample{
		X: x, Y: y, Moving: true, LineWidth: width, StrokeColor: c,
	})
	return true
}

// finish closes the open stroke and returns it, or nil.
func (r *recorder) finish() *Stroke {
	s := r.open
	r.open = nil
	return s
}

func (r *recorder) record(e HistoryEntry) {
	r.entries = append(r.entries, e)
}

func (r *recorder) reset() {
	r.entries = nil
	r.open = nil
}

// renderLatest draws the newest segment of s.
func renderLatest(dst surface.Surface, s *Stroke) {
	if s == nil || len(s.Samples) == 0 {
		return
	}
	renderSample(dst, s.Samples, len(s.Samples)-1)
}

// renderStroke draws every segment of s.
func renderStroke(dst surface.Surface, s *Stroke) {
	for i := range s.Samples {
		renderSample(dst, s.Samples, i)
	}
}

// renderSample draws the segment ending at samples[i] with that sample's
// style. The pen-down sample is drawn from one pixel to its left so a
// single click leaves a visible dot.
func renderSample(dst surface.Surface, samples []Sample, i int) {
	cur := samples[i]
	to := surface.Pt(float64(cur.X), float64(cur.Y))
	from := surface.Pt(float64(cur.X-1), float64(cur.Y))
	if cur.Moving && i > 0 {
		prev := samples[i-1]
		from = surface.Pt(float64(prev.X), float64(prev.Y))
	}
	dst.StrokeSegment(surface.Segment{From: from, To: to}, surface.StrokeStyle{
		Color: cur.StrokeColor,
		Width: cur.LineWidth,
	})
}
