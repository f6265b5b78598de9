package freehand

import "github.com/gogpu/freehand/surface"

// Default configuration values.
const (
	DefaultLineWidth    = 5
	DefaultMaxSnapshots = 10
)

// Option configures a Canvas during creation.
// Use functional options to customize Canvas behavior.
//
// Example:
//
//	// Defaults: white background, 5px black strokes, 10 snapshots
//	c, err := freehand.New("sketch", 800, 600)
//
//	// Custom style and a deeper history
//	c, err := freehand.New("sketch", 800, 600,
//	    freehand.WithStrokeColor(200, 30, 30),
//	    freehand.WithLineWidth(3),
//	    freehand.WithMaxSnapshots(50),
//	)
type Option func(*config)

// config holds optional configuration for Canvas creation.
type config struct {
	background   Color
	lineWidth    float64
	strokeColor  Color
	disabled     bool
	showWarnings bool
	maxSnapshots int
	redrawStride int
	directory    *surface.Directory
	surface      surface.Surface

	// problems collects recoverable option errors. They are reported once
	// all options are applied, when showWarnings is known.
	problems []error
}

// defaultConfig returns the default canvas configuration.
func defaultConfig() config {
	return config{
		background:   White,
		lineWidth:    DefaultLineWidth,
		strokeColor:  Black,
		maxSnapshots: DefaultMaxSnapshots,
		directory:    surface.DefaultDirectory,
	}
}

func (c *config) color(dst *Color, values []int) {
	col, err := NormalizeColor(values...)
	if err != nil {
		c.problems = append(c.problems, err)
	}
	*dst = col
}

// WithBackgroundColor sets the color the surface is painted with at
// construction and on Clear. Default: white.
func WithBackgroundColor(values ...int) Option {
	return func(c *config) {
		c.color(&c.background, values)
	}
}

// WithLineWidth sets the initial stroke width in pixels. Default: 5.
// Non-positive widths are ignored.
func WithLineWidth(px float64) Option {
	return func(c *config) {
		if px > 0 {
			c.lineWidth = px
		}
	}
}

// WithStrokeColor sets the initial stroke color, which also seeds the
// bucket tool color. Default: black.
func WithStrokeColor(values ...int) Option {
	return func(c *config) {
		c.color(&c.strokeColor, values)
	}
}

// WithDisabled starts the canvas with drawing mode off, so input methods
// are ignored until EnableDrawingMode is called.
func WithDisabled(disabled bool) Option {
	return func(c *config) {
		c.disabled = disabled
	}
}

// WithShowWarnings enables warning log lines for recoverable problems
// such as invalid colors, unknown events and exhausted history.
func WithShowWarnings(show bool) Option {
	return func(c *config) {
		c.showWarnings = show
	}
}

// WithMaxSnapshots bounds the undo and redo stacks. Default: 10.
// Values below 1 are ignored.
func WithMaxSnapshots(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.maxSnapshots = n
		}
	}
}

// WithRedrawStride makes only every nth redraw notification fire.
// Zero (the default) fires every redraw.
func WithRedrawStride(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.redrawStride = n
		}
	}
}

// WithDirectory selects the surface directory the canvas resolves its
// surface ID in. Default: surface.DefaultDirectory.
func WithDirectory(d *surface.Directory) Option {
	return func(c *config) {
		if d != nil {
			c.directory = d
		}
	}
}

// WithSurface attaches s under the canvas surface ID before it is resolved,
// so the canvas draws into a surface owned by the caller. The surface is
// resized to the canvas dimensions if it differs and supports resizing.
//
// Example:
//
//	s := surface.NewImageSurface(800, 600)
//	c, err := freehand.New("sketch", 800, 600, freehand.WithSurface(s))
func WithSurface(s surface.Surface) Option {
	return func(c *config) {
		c.surface = s
	}
}
