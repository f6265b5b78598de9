package freehand

import (
	"errors"

	"github.com/gogpu/freehand/internal/codec"
)

var (
	// ErrUnknownEvent is returned when subscribing to an event name that
	// the canvas does not emit.
	ErrUnknownEvent = errors.New("freehand: unknown event")

	// ErrNoUndo reports that the history holds no earlier snapshot.
	// It is informational; the canvas is unchanged.
	ErrNoUndo = errors.New("freehand: no more undos left")

	// ErrNoRedo reports that nothing has been undone since the last edit.
	ErrNoRedo = errors.New("freehand: no more redo left")

	// ErrClosed is returned by operations on a closed canvas.
	ErrClosed = errors.New("freehand: canvas closed")

	// ErrImportTooLarge is reported by ImportSnapshot when the image
	// declares more than MaxImportScale times the canvas area.
	ErrImportTooLarge = codec.ErrTooLarge
)

// MaxImportScale bounds imported images to this multiple of the canvas
// area in pixels.
const MaxImportScale = 4

// ConfigError reports a missing or invalid constructor parameter.
type ConfigError struct {
	Param string
}

func (e *ConfigError) Error() string {
	return "freehand: " + e.Param + " is required"
}
