package freehand

// touchTracker remembers the touch point that drives drawing.
type touchTracker struct {
	id     int
	active bool
}

// claim makes id the driving touch unless another touch already is.
func (t *touchTracker) claim(id int) bool {
	if t.active && t.id != id {
		return false
	}
	t.id, t.active = id, true
	return true
}

// owns reports whether id is the driving touch.
func (t *touchTracker) owns(id int) bool {
	return t.active && t.id == id
}

func (t *touchTracker) release() {
	t.active = false
}

// TouchStart begins drawing with touch point id at (x, y). While another
// touch point is driving the canvas, id is ignored.
func (c *Canvas) TouchStart(id, x, y int) {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() || !c.touch.claim(id) {
		return
	}
	c.penDown(x, y)
}

// TouchMove extends the stroke of the driving touch point.
func (c *Canvas) TouchMove(id, x, y int) {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() || !c.touch.owns(id) {
		return
	}
	c.penMove(x, y)
}

// TouchEnd finishes the stroke of the driving touch point.
func (c *Canvas) TouchEnd(id int) {
	c.mu.Lock()
	defer c.unlock()
	if !c.inputEnabled() || !c.touch.owns(id) {
		return
	}
	c.touch.release()
	c.finalize()
	c.emit(EventPointerUp)
}
