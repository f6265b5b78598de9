// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gogpu/freehand"
	"github.com/gogpu/freehand/export"
)

// canvasFor resolves the {id} path value, writing an error response on failure.
func (s *Server) canvasFor(w http.ResponseWriter, r *http.Request) (*freehand.Canvas, bool) {
	id := r.PathValue("id")
	c, err := s.Canvas(id)
	if err != nil {
		httpError(w, err)
		return nil, false
	}
	return c, true
}

func httpError(w http.ResponseWriter, err error) {
	var cfgErr *freehand.ConfigError
	var maxErr *http.MaxBytesError
	code := http.StatusInternalServerError
	switch {
	case errors.As(err, &cfgErr):
		code = http.StatusBadRequest
	case errors.As(err, &maxErr):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, freehand.ErrNoUndo), errors.Is(err, freehand.ErrNoRedo):
		code = http.StatusConflict
	case errors.Is(err, freehand.ErrClosed):
		code = http.StatusGone
	}
	if code == http.StatusInternalServerError {
		freehand.Logger().Error("freehand: request failed", "err", err)
	}
	http.Error(w, err.Error(), code)
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	c, ok := s.canvasFor(w, r)
	if !ok {
		return
	}
	data, err := c.ExportSnapshot()
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	c, ok := s.canvasFor(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.CanvasPDF(&buf, c, export.WithTitle(c.ID())); err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	c, ok := s.canvasFor(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxImportBytes))
	if err != nil {
		httpError(w, err)
		return
	}

	done := make(chan error, 1)
	c.ImportSnapshot(data, func(err error) { done <- err })
	select {
	case err := <-done:
		if errors.Is(err, freehand.ErrImportTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case <-r.Context().Done():
	}
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	c, ok := s.canvasFor(w, r)
	if !ok {
		return
	}
	if err := c.Undo(); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	c, ok := s.canvasFor(w, r)
	if !ok {
		return
	}
	if err := c.Redo(); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	c, ok := s.canvasFor(w, r)
	if !ok {
		return
	}
	c.Clear()
	w.WriteHeader(http.StatusNoContent)
}
