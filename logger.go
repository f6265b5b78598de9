package freehand

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record and reports every level as disabled.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var silent = slog.New(discard{})

// current holds the logger shared by every canvas, the server and the
// daemon.
var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(silent)
}

// SetLogger routes freehand's diagnostics to l. Canvases, sessions and
// freehandd all read the logger at the point of logging, so a change
// takes effect immediately, including for canvases created earlier.
// A nil l silences output again.
//
// What gets logged at each level:
//   - [slog.LevelDebug]: fill spans, snapshot depth, dropped websocket
//     messages, failed imports
//   - [slog.LevelInfo]: server start and stop, client connects, mDNS
//     advertisement
//   - [slog.LevelWarn]: rejected input such as an invalid color or an
//     exhausted undo stack, only for canvases built with [WithShowWarnings]
//
// To see everything on stderr:
//
//	freehand.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger set by SetLogger, or a silent one.
func Logger() *slog.Logger {
	return current.Load()
}
