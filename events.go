package freehand

import (
	"fmt"
	"sync"
)

// Event identifies a canvas notification.
type Event int

// Canvas events.
const (
	// EventRedraw fires after a stroke segment or fill changed the surface,
	// subject to the redraw stride.
	EventRedraw Event = iota
	// EventFill fires after a flood fill completed.
	EventFill
	// EventPointerDown fires when a stroke begins.
	EventPointerDown
	// EventPointerUp fires when the pen or the active touch is lifted.
	EventPointerUp
	// EventPointerEnter fires when the pen enters the surface.
	EventPointerEnter
	// EventPointerLeave fires when the pen leaves the surface.
	EventPointerLeave
)

var eventNames = [...]string{
	EventRedraw:       "redraw",
	EventFill:         "fill",
	EventPointerDown:  "pointerdown",
	EventPointerUp:    "pointerup",
	EventPointerEnter: "pointerenter",
	EventPointerLeave: "pointerleave",
}

// String returns the event name as accepted by ParseEvent.
func (e Event) String() string {
	if e >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ParseEvent maps an event name to its Event.
func ParseEvent(name string) (Event, error) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Events returns every event the canvas emits, in declaration order.
func Events() []Event {
	evs := make([]Event, len(eventNames))
	for i := range evs {
		evs[i] = Event(i)
	}
	return evs
}

// Listener receives canvas events. Listeners run on the goroutine that
// triggered the event, after the canvas has released its lock, so they may
// call back into the canvas.
type Listener func(Event)

// listenerTable maps events to listeners in registration order.
type listenerTable struct {
	mu    sync.RWMutex
	table map[Event][]Listener
}

func (t *listenerTable) add(ev Event, fn Listener) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.table == nil {
		t.table = make(map[Event][]Listener)
	}
	t.table[ev] = append(t.table[ev], fn)
}

func (t *listenerTable) dispatch(ev Event) {
	t.mu.RLock()
	fns := t.table[ev]
	t.mu.RUnlock()

	// add only ever appends, so fns is a stable prefix.
	for _, fn := range fns {
		fn(ev)
	}
}

func (t *listenerTable) count(ev Event) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.table[ev])
}
