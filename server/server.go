// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package server exposes freehand canvases over HTTP.
//
// Each canvas is a session keyed by its surface ID and created on first
// use. Pointer input arrives over a websocket as JSON messages; canvas
// events are pushed back on the same connection. Snapshots, history and
// clearing are plain HTTP endpoints:
//
//	GET  /canvas/{id}/ws            websocket input and events
//	GET  /canvas/{id}/snapshot.png  PNG of the current buffer
//	GET  /canvas/{id}/snapshot.pdf  one-page PDF of the current buffer
//	PUT  /canvas/{id}/snapshot      import an encoded image
//	POST /canvas/{id}/undo
//	POST /canvas/{id}/redo
//	POST /canvas/{id}/clear
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/freehand"
	"github.com/gogpu/freehand/surface"
)

// Config holds the server address and the defaults applied to new canvases.
type Config struct {
	Addr string

	Width, Height int
	Background    []int
	StrokeColor   []int
	LineWidth     float64
	MaxSnapshots  int
	RedrawStride  int
	ShowWarnings  bool

	// MaxImportBytes limits the body of snapshot imports.
	MaxImportBytes int64

	// Directory resolves surface IDs. A private directory is used when nil.
	Directory *surface.Directory
}

// DefaultConfig returns the configuration used for zero fields.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		Width:          800,
		Height:         600,
		Background:     []int{255, 255, 255},
		StrokeColor:    []int{0, 0, 0},
		LineWidth:      freehand.DefaultLineWidth,
		MaxSnapshots:   freehand.DefaultMaxSnapshots,
		MaxImportBytes: 16 << 20,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if len(c.Background) == 0 {
		c.Background = def.Background
	}
	if len(c.StrokeColor) == 0 {
		c.StrokeColor = def.StrokeColor
	}
	if c.LineWidth <= 0 {
		c.LineWidth = def.LineWidth
	}
	if c.MaxSnapshots <= 0 {
		c.MaxSnapshots = def.MaxSnapshots
	}
	if c.MaxImportBytes <= 0 {
		c.MaxImportBytes = def.MaxImportBytes
	}
	if c.Directory == nil {
		c.Directory = surface.NewDirectory(nil)
	}
	return c
}

func (c Config) canvasOptions() []freehand.Option {
	return []freehand.Option{
		freehand.WithBackgroundColor(c.Background...),
		freehand.WithStrokeColor(c.StrokeColor...),
		freehand.WithLineWidth(c.LineWidth),
		freehand.WithMaxSnapshots(c.MaxSnapshots),
		freehand.WithRedrawStride(c.RedrawStride),
		freehand.WithShowWarnings(c.ShowWarnings),
		freehand.WithDirectory(c.Directory),
	}
}

// Server serves canvas sessions.
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool

	// handlers counts running websocket handlers. http.Server.Shutdown
	// does not wait for hijacked connections; Close does.
	handlers sync.WaitGroup
}

// New creates a server. Zero fields of cfg take their DefaultConfig values.
func New(cfg Config) *Server {
	s := &Server{
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*session),
		mux:      http.NewServeMux(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /canvas/{id}/ws", s.handleWS)
	s.mux.HandleFunc("GET /canvas/{id}/snapshot.png", s.handlePNG)
	s.mux.HandleFunc("GET /canvas/{id}/snapshot.pdf", s.handlePDF)
	s.mux.HandleFunc("PUT /canvas/{id}/snapshot", s.handleImport)
	s.mux.HandleFunc("POST /canvas/{id}/undo", s.handleUndo)
	s.mux.HandleFunc("POST /canvas/{id}/redo", s.handleRedo)
	s.mux.HandleFunc("POST /canvas/{id}/clear", s.handleClear)
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Canvas returns the canvas for id, creating it if needed.
func (s *Server) Canvas(id string) (*freehand.Canvas, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.canvas, nil
}

func (s *Server) session(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionLocked(id)
}

// enter resolves the session for a websocket handler and counts the
// handler as running. The caller must call s.handlers.Done.
func (s *Server) enter(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(id)
	if err != nil {
		return nil, err
	}
	s.handlers.Add(1)
	return sess, nil
}

func (s *Server) sessionLocked(id string) (*session, error) {
	if s.closed {
		return nil, freehand.ErrClosed
	}
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	c, err := freehand.New(id, s.cfg.Width, s.cfg.Height, s.cfg.canvasOptions()...)
	if err != nil {
		return nil, err
	}
	sess := newSession(c)
	s.sessions[id] = sess
	freehand.Logger().Info("freehand: session opened", "surface", id,
		"width", s.cfg.Width, "height", s.cfg.Height)
	return sess, nil
}

// Sessions returns the number of open canvases.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close disconnects websocket clients, closes every session canvas and
// waits for the websocket handlers to return. Later requests fail.
func (s *Server) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.closed = true
	s.mu.Unlock()

	var errs []error
	for id, sess := range sessions {
		if err := sess.close(); err != nil {
			errs = append(errs, fmt.Errorf("server: close %q: %w", id, err))
		}
	}
	s.handlers.Wait()
	return errors.Join(errs...)
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully and closes all sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	hs := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		freehand.Logger().Info("freehand: listening", "addr", s.cfg.Addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := hs.Shutdown(shutdownCtx)
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	if serr := <-errCh; !errors.Is(serr, http.ErrServerClosed) && err == nil {
		err = serr
	}
	freehand.Logger().Info("freehand: server stopped", "addr", s.cfg.Addr)
	return err
}
