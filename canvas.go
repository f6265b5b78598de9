package freehand

import (
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/freehand/internal/codec"
	"github.com/gogpu/freehand/surface"
)

// State is the pen state of a Canvas.
type State int

// Canvas states.
const (
	// Idle: no stroke in progress.
	Idle State = iota
	// DrawingStroke: the pen is down and samples extend the open stroke.
	DrawingStroke
	// FillPending: a bucket fill triggered by pen-down is running.
	FillPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case DrawingStroke:
		return "DrawingStroke"
	case FillPending:
		return "FillPending"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cursor values reported by Canvas.Cursor.
const (
	CursorCrosshair = "crosshair"
	CursorAuto      = "auto"
)

// Canvas is a freehand drawing surface with flood fill and snapshot
// undo/redo.
//
// Input methods (PenDown, PenMove, TouchStart, ...) take pixel coordinates
// and are ignored while drawing mode is off. Every completed stroke or fill
// captures a full-surface snapshot; Undo and Redo move between them.
//
// Canvas is safe for concurrent use. Listeners are invoked after the
// internal lock is released, in registration order.
type Canvas struct {
	mu sync.Mutex

	id            string
	width, height int
	surf          surface.Surface
	dir           *surface.Directory

	background    Color
	strokeColor   Color
	lineWidth     float64
	fillColor     Color
	fillTolerance float64
	showWarnings  bool

	rec  recorder
	hist *history

	state       State
	drawingMode bool
	bucketTool  bool
	left        bool
	touch       touchTracker
	imported    bool
	closed      bool

	redrawCount  int
	redrawStride int

	listeners listenerTable
	pending   []Event
}

// New creates a canvas drawing into the surface registered under surfaceID.
//
// The surface is looked up in the configured directory (see WithDirectory),
// created through the backend registry when absent, and resized to
// width×height when it differs. A surface another canvas holds is never
// resized; asking for a different size fails with surface.ErrSizeMismatch.
// The surface is then painted with the
// background color and the first snapshot is captured.
func New(surfaceID string, width, height int, opts ...Option) (*Canvas, error) {
	if surfaceID == "" {
		return nil, &ConfigError{Param: "surfaceID"}
	}
	if width <= 0 {
		return nil, &ConfigError{Param: "width"}
	}
	if height <= 0 {
		return nil, &ConfigError{Param: "height"}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dir := cfg.directory
	if cfg.surface != nil {
		if err := dir.Attach(surfaceID, cfg.surface); err != nil {
			return nil, fmt.Errorf("freehand: attach surface: %w", err)
		}
	}
	surf, err := dir.Acquire(surfaceID, width, height)
	if err != nil {
		return nil, fmt.Errorf("freehand: open surface: %w", err)
	}

	c := &Canvas{
		id:           surfaceID,
		width:        width,
		height:       height,
		surf:         surf,
		dir:          dir,
		background:   cfg.background,
		strokeColor:  cfg.strokeColor,
		lineWidth:    cfg.lineWidth,
		fillColor:    cfg.strokeColor,
		showWarnings: cfg.showWarnings,
		hist:         newHistory(cfg.maxSnapshots),
		drawingMode:  !cfg.disabled,
		redrawStride: cfg.redrawStride,
	}
	for _, p := range cfg.problems {
		c.warn("invalid option", "err", p)
	}

	surf.Clear(c.background)
	c.capture()

	Logger().Debug("freehand: canvas created",
		"surface", surfaceID, "width", width, "height", height, "maxSnapshots", cfg.maxSnapshots)
	return c, nil
}

// ID returns the surface ID the canvas draws into.
func (c *Canvas) ID() string { return c.id }

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// unlock releases the lock and delivers the events queued while it was held.
func (c *Canvas) unlock() {
	events := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, ev := range events {
		c.listeners.dispatch(ev)
	}
}

func (c *Canvas) emit(ev Event) {
	c.pending = append(c.pending, ev)
}

// redraw queues a redraw notification, honoring the stride.
func (c *Canvas) redraw() {
	if c.redrawStride <= 0 || c.redrawCount%c.redrawStride == 0 {
		c.emit(EventRedraw)
	}
	c.redrawCount++
	if err := c.surf.Flush(); err != nil {
		Logger().Debug("freehand: flush failed", "surface", c.id, "err", err)
	}
}

func (c *Canvas) warn(msg string, args ...any) {
	if c.showWarnings {
		Logger().Warn("freehand: "+msg, append([]any{"surface", c.id}, args...)...)
	}
}

func (c *Canvas) capture() {
	c.hist.capture(c.surf.Snapshot())
	Logger().Debug("freehand: snapshot captured", "surface", c.id, "depth", len(c.hist.snapshots))
}

// inputEnabled reports whether pen and touch input is accepted.
func (c *Canvas) inputEnabled() bool {
	return !c.closed && c.drawingMode
}

// PenDown starts a stroke at (x, y), or runs a bucket fill there when the
// bucket tool is enabled.
func (c *Canvas) PenDown(x, y int) {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() {
		return
	}
	c.penDown(x, y)
}

func (c *Canvas) penDown(x, y int) {
	if c.rec.open != nil {
		c.finalize()
	}
	if c.bucketTool {
		c.state = FillPending
		c.fill(x, y, c.fillColor, c.fillTolerance)
		c.state = Idle
		return
	}
	s := c.rec.begin(x, y, c.lineWidth, c.strokeColor)
	c.state = DrawingStroke
	c.emit(EventPointerDown)
	c.drawSegment(s)
}

// drawSegment renders the newest segment of s and announces it.
func (c *Canvas) drawSegment(s *Stroke) {
	renderLatest(c.surf, s)
	c.hist.clearRedo()
	c.redraw()
}

// PenMove extends the stroke in progress to (x, y).
//
// If the pen left the surface mid-stroke, the suspended stroke is
// finalized and a new one starts at (x, y), so no line is drawn across
// the gap.
func (c *Canvas) PenMove(x, y int) {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() {
		return
	}
	c.penMove(x, y)
}

func (c *Canvas) penMove(x, y int) {
	if c.left {
		c.finalize()
		c.penDown(x, y)
		return
	}
	if c.state != DrawingStroke {
		return
	}
	if c.rec.extend(x, y, c.lineWidth, c.strokeColor) {
		c.drawSegment(c.rec.open)
	}
}

// PenUp finishes the stroke in progress.
func (c *Canvas) PenUp() {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() {
		return
	}
	c.finalize()
	c.emit(EventPointerUp)
}

// finalize closes the open stroke, if any, and captures a snapshot.
func (c *Canvas) finalize() {
	c.left = false
	c.state = Idle
	if c.rec.finish() == nil {
		return
	}
	c.capture()
}

// PenLeave reports that the pen left the surface. A stroke in progress is
// suspended, not finished.
func (c *Canvas) PenLeave() {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() {
		return
	}
	if c.state == DrawingStroke {
		c.left = true
	}
	c.state = Idle
	c.emit(EventPointerLeave)
}

// PenEnter reports that the pen entered the surface.
func (c *Canvas) PenEnter() {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() {
		return
	}
	c.emit(EventPointerEnter)
}

// DocumentRelease reports that the pen was released outside the surface.
// A suspended stroke is finalized.
func (c *Canvas) DocumentRelease() {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() || !c.left {
		return
	}
	c.finalize()
}

// Fill flood-fills the region connected to (x, y) with col.
//
// Pixels match the seed color when ColorsEqual holds at the given tolerance,
// which is clamped to [0, 100]. Filling with the color already at the seed,
// or at a seed outside the surface, does nothing. On a canvas that has
// never been drawn on and has no imported image the whole surface is
// repainted instead.
func (c *Canvas) Fill(x, y int, col Color, tolerance float64) FillResult {
	c.mu.Lock()
	defer c.unlock()
	if c.closed {
		return FillResult{}
	}
	return c.fill(x, y, col, ClampTolerance(tolerance))
}

func (c *Canvas) fill(x, y int, col Color, tolerance float64) FillResult {
	col[3] = 255
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return FillResult{}
	}

	pix := c.surf.ReadPixels()
	if len(pix) != c.width*c.height*4 {
		c.warn("surface buffer does not match the canvas size", "bytes", len(pix))
		return FillResult{}
	}
	if ColorsEqual(pixelAt(pix, c.width, x, y), col, tolerance) {
		return FillResult{}
	}

	op := &FillOperation{ID: uuid.NewString(), X: x, Y: y, Color: col, Tolerance: tolerance}
	if len(c.rec.entries) == 0 && !c.imported {
		c.surf.Clear(col)
		op.Bootstrap = true
		op.Result = FillResult{Filled: true, Pixels: c.width * c.height}
	} else {
		op.Result = floodFill(pix, c.width, c.height, x, y, col, tolerance)
		if err := c.surf.WritePixels(pix); err != nil {
			Logger().Error("freehand: write fill result", "surface", c.id, "err", err)
			return FillResult{}
		}
	}
	if op.Result.Capped {
		Logger().Debug("freehand: fill capped", "surface", c.id, "x", x, "y", y, "spans", op.Result.Spans)
	}

	c.rec.record(op)
	c.capture()
	c.hist.clearRedo()
	c.redraw()
	c.emit(EventFill)
	return op.Result
}

// SetStrokeColor sets the color of subsequent strokes. Invalid input
// selects black.
func (c *Canvas) SetStrokeColor(values ...int) {
	col := c.normalize(values)
	c.mu.Lock()
	defer c.unlock()
	c.strokeColor = col
}

// SetFillColor sets the bucket tool color. Invalid input selects black.
func (c *Canvas) SetFillColor(values ...int) {
	col := c.normalize(values)
	c.mu.Lock()
	defer c.unlock()
	c.fillColor = col
}

// SetFillTolerance sets the bucket tool tolerance percentage. Values
// that are not positive are ignored; values above 100 are clamped.
func (c *Canvas) SetFillTolerance(t float64) {
	if t <= 0 {
		return
	}
	c.mu.Lock()
	defer c.unlock()
	c.fillTolerance = ClampTolerance(t)
}

// SetDrawingColor sets both the stroke and the bucket tool color.
func (c *Canvas) SetDrawingColor(values ...int) {
	col := c.normalize(values)
	c.mu.Lock()
	defer c.unlock()
	c.strokeColor = col
	c.fillColor = col
}

func (c *Canvas) normalize(values []int) Color {
	col, err := NormalizeColor(values...)
	if err != nil {
		c.warn("invalid color, using black", "values", values, "err", err)
	}
	return col
}

// StrokeColor returns the color of subsequent strokes.
func (c *Canvas) StrokeColor() Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strokeColor
}

// FillColor returns the bucket tool color and tolerance.
func (c *Canvas) FillColor() (Color, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fillColor, c.fillTolerance
}

// SetLineWidth sets the width of subsequent strokes in pixels.
// Non-positive widths are ignored.
func (c *Canvas) SetLineWidth(px float64) {
	if px <= 0 {
		return
	}
	c.mu.Lock()
	defer c.unlock()
	c.lineWidth = px
}

// LineWidth returns the width of subsequent strokes.
func (c *Canvas) LineWidth() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lineWidth
}

// SetBackground changes the background color and repaints the whole
// surface with it.
func (c *Canvas) SetBackground(values ...int) {
	col := c.normalize(values)
	c.mu.Lock()
	defer c.unlock()
	if c.closed {
		return
	}
	c.background = col
	c.surf.Clear(col)
	c.capture()
	c.hist.clearRedo()
	c.redraw()
}

// SetRedrawStride makes only every nth redraw notification fire and
// restarts the count. Zero fires every redraw.
func (c *Canvas) SetRedrawStride(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	defer c.unlock()
	c.redrawStride = n
	c.redrawCount = 0
}

// ToggleBucketTool switches between stroke and bucket mode and reports
// whether the bucket tool is now enabled.
func (c *Canvas) ToggleBucketTool() bool {
	c.mu.Lock()
	defer c.unlock()
	c.bucketTool = !c.bucketTool
	return c.bucketTool
}

// BucketTool reports whether pen-down fills instead of drawing.
func (c *Canvas) BucketTool() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bucketTool
}

// ToggleDrawingMode switches drawing mode and reports the new mode.
func (c *Canvas) ToggleDrawingMode() bool {
	c.mu.Lock()
	defer c.unlock()
	c.setDrawingMode(!c.drawingMode)
	return c.drawingMode
}

// EnableDrawingMode starts accepting pen and touch input.
func (c *Canvas) EnableDrawingMode() {
	c.mu.Lock()
	defer c.unlock()
	c.setDrawingMode(true)
}

// DisableDrawingMode stops accepting pen and touch input. A stroke in
// progress is finalized.
func (c *Canvas) DisableDrawingMode() {
	c.mu.Lock()
	defer c.unlock()
	c.setDrawingMode(false)
}

func (c *Canvas) setDrawingMode(on bool) {
	if !on && c.rec.open != nil {
		c.finalize()
	}
	if !on {
		c.touch.release()
	}
	c.drawingMode = on
}

// DrawingMode reports whether pen and touch input is accepted.
func (c *Canvas) DrawingMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawingMode
}

// Cursor returns the cursor a host should show over the surface.
func (c *Canvas) Cursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drawingMode {
		return CursorCrosshair
	}
	return CursorAuto
}

// State returns the pen state.
func (c *Canvas) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Clear repaints the surface with the background color and empties the
// input log. The cleared surface becomes a new undo step.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.unlock()
	if c.closed {
		return
	}
	c.rec.reset()
	c.left = false
	c.state = Idle
	c.touch.release()
	c.imported = false
	c.surf.Clear(c.background)
	c.capture()
	c.hist.clearRedo()
	c.redraw()
}

// Undo restores the snapshot before the current one.
// It returns ErrNoUndo, leaving the surface unchanged, at the start of
// the history.
func (c *Canvas) Undo() error {
	c.mu.Lock()
	defer c.unlock()
	if c.closed {
		return ErrClosed
	}
	img, ok := c.hist.peekUndo()
	if !ok {
		c.warn("there are no more undos left")
		return ErrNoUndo
	}
	if err := c.restore(img); err != nil {
		return err
	}
	c.hist.undo()
	return nil
}

// Redo re-applies the most recently undone snapshot.
// It returns ErrNoRedo when nothing has been undone since the last edit.
func (c *Canvas) Redo() error {
	c.mu.Lock()
	defer c.unlock()
	if c.closed {
		return ErrClosed
	}
	img, ok := c.hist.peekRedo()
	if !ok {
		c.warn("there are no more redo left")
		return ErrNoRedo
	}
	if err := c.restore(img); err != nil {
		return err
	}
	c.hist.redo()
	return nil
}

func (c *Canvas) restore(img *image.RGBA) error {
	if err := c.surf.Restore(img); err != nil {
		return fmt.Errorf("freehand: restore snapshot: %w", err)
	}
	c.redraw()
	return nil
}

// HistoryLen returns the number of snapshots on the undo stack,
// including the current one.
func (c *Canvas) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hist.snapshots)
}

// RedoLen returns the number of snapshots available to Redo.
func (c *Canvas) RedoLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hist.redoStack)
}

// Entries returns a copy of the input log since construction or the last
// Clear. Undo and Redo do not change the log.
func (c *Canvas) Entries() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]HistoryEntry, len(c.rec.entries))
	for i, e := range c.rec.entries {
		switch e := e.(type) {
		case *Stroke:
			dup := *e
			dup.Samples = append([]Sample(nil), e.Samples...)
			out[i] = &dup
		case *FillOperation:
			dup := *e
			out[i] = &dup
		}
	}
	return out
}

// Replay repaints the background and re-renders every logged stroke and
// fill with its recorded style, then captures the result as a new undo
// step. Imported images are not part of the log and are not replayed.
func (c *Canvas) Replay() error {
	c.mu.Lock()
	defer c.unlock()
	if c.closed {
		return ErrClosed
	}

	c.surf.Clear(c.background)
	for _, e := range c.rec.entries {
		switch e := e.(type) {
		case *Stroke:
			renderStroke(c.surf, e)
		case *FillOperation:
			if e.Bootstrap {
				c.surf.Clear(e.Color)
				continue
			}
			pix := c.surf.ReadPixels()
			floodFill(pix, c.width, c.height, e.X, e.Y, e.Color, e.Tolerance)
			if err := c.surf.WritePixels(pix); err != nil {
				return fmt.Errorf("freehand: replay fill %s: %w", e.ID, err)
			}
		}
	}
	c.capture()
	c.hist.clearRedo()
	c.redraw()
	return nil
}

// ExportSnapshot encodes the current surface as PNG.
func (c *Canvas) ExportSnapshot() ([]byte, error) {
	img := c.Image()
	if img == nil {
		return nil, ErrClosed
	}
	return codec.PNG(img)
}

// ExportDataURL returns the current surface as a PNG data URL.
func (c *Canvas) ExportDataURL() (string, error) {
	data, err := c.ExportSnapshot()
	if err != nil {
		return "", err
	}
	return codec.DataURL(codec.MIMEPNG, data), nil
}

// ImportSnapshot decodes data (raw image bytes or a data URL) in the
// background and composites it over the surface at the origin.
//
// Images declaring more than MaxImportScale times the canvas area fail
// with ErrImportTooLarge before their pixels are decoded.
//
// onComplete, if non-nil, is called from the decoding goroutine once the
// image has been applied or the import failed. The surface must not be
// assumed to show the image before then.
func (c *Canvas) ImportSnapshot(data []byte, onComplete func(error)) {
	go func() {
		img, format, err := codec.DecodeLimit(data, MaxImportScale*c.width*c.height)
		if err == nil {
			err = c.applyImport(img, format)
		}
		if err != nil {
			Logger().Debug("freehand: import failed", "surface", c.id, "err", err)
		}
		if onComplete != nil {
			onComplete(err)
		}
	}()
}

func (c *Canvas) applyImport(img image.Image, format string) error {
	c.mu.Lock()
	defer c.unlock()
	if c.closed {
		return ErrClosed
	}
	c.surf.DrawImage(img, image.Point{})
	c.imported = true
	c.capture()
	c.hist.clearRedo()
	c.redraw()
	Logger().Debug("freehand: image imported", "surface", c.id, "format", format, "bounds", img.Bounds())
	return nil
}

// Pixel returns the color of the pixel at (x, y) and whether (x, y) lies
// inside the surface.
func (c *Canvas) Pixel(x, y int) (Color, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || x < 0 || y < 0 || x >= c.width || y >= c.height {
		return Color{}, false
	}
	if im, ok := c.surf.(interface{ Image() *image.RGBA }); ok {
		if img := im.Image(); img != nil && image.Pt(x, y).In(img.Rect) {
			i := img.PixOffset(x, y)
			return Color{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}, true
		}
		return Color{}, false
	}
	pix := c.surf.ReadPixels()
	if len(pix) != c.width*c.height*4 {
		return Color{}, false
	}
	return pixelAt(pix, c.width, x, y), true
}

// Image returns a copy of the current surface contents, or nil once the
// canvas is closed.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.surf.Snapshot()
}

// On subscribes fn to the event with the given name. Unknown names are
// rejected with ErrUnknownEvent.
func (c *Canvas) On(name string, fn Listener) error {
	ev, err := ParseEvent(name)
	if err != nil {
		c.mu.Lock()
		c.warn("this event is not allowed", "event", name)
		c.mu.Unlock()
		return err
	}
	c.listeners.add(ev, fn)
	return nil
}

// Subscribe adds fn as a listener for ev.
func (c *Canvas) Subscribe(ev Event, fn Listener) {
	c.listeners.add(ev, fn)
}

// Close stops the canvas. Further operations are no-ops, and pending
// imports complete with ErrClosed. The canvas releases its hold on the
// surface; a surface the directory created is closed once no other
// canvas holds it, and a surface supplied by the host is left open.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.rec.open = nil
	c.hist = newHistory(c.hist.max)
	if err := c.dir.Release(c.id, c.surf); err != nil {
		return fmt.Errorf("freehand: release surface %q: %w", c.id, err)
	}
	return nil
}
