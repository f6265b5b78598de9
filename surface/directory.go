// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyID is returned when a surface is looked up with an empty ID.
var ErrEmptyID = errors.New("surface: empty surface id")

// ErrInUse is returned by Attach when a different surface under the same
// ID is still held.
var ErrInUse = errors.New("surface: surface in use")

// Directory maps surface IDs to live surfaces.
//
// A host that owns its own render targets attaches them under an ID; a
// canvas constructed with that ID then draws into the attached surface.
// When no surface is attached under the ID, Acquire creates one through the
// directory's registry and remembers it.
//
// Acquire and Release count holders per ID. A held surface is never
// resized, and a surface the directory created is closed and forgotten
// when its last holder releases it. Attached surfaces belong to the host
// and stay open.
type Directory struct {
	mu       sync.Mutex
	surfaces map[string]*dirEntry
	registry *Registry
}

type dirEntry struct {
	surface Surface
	refs    int
	created bool
}

// DefaultDirectory is the process-wide directory backed by the global registry.
var DefaultDirectory = NewDirectory(nil)

// NewDirectory creates an empty directory. A nil registry selects the
// global registry.
func NewDirectory(r *Registry) *Directory {
	if r == nil {
		r = globalRegistry
	}
	return &Directory{
		surfaces: make(map[string]*dirEntry),
		registry: r,
	}
}

// Attach registers the host-owned surface s under id, replacing any
// previous surface that nobody holds. Attaching the surface already held
// under id is a no-op.
func (d *Directory) Attach(id string, s Surface) error {
	if id == "" {
		return ErrEmptyID
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.surfaces[id]; ok && e.refs > 0 {
		if e.surface == s {
			return nil
		}
		return fmt.Errorf("%w: %q has %d holders", ErrInUse, id, e.refs)
	}
	d.surfaces[id] = &dirEntry{surface: s}
	return nil
}

// Detach forgets the surface registered under id and returns it.
// The surface is not closed.
func (d *Directory) Detach(id string) (Surface, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.surfaces[id]
	if !ok {
		return nil, false
	}
	delete(d.surfaces, id)
	return e.surface, true
}

// Lookup returns the surface registered under id.
func (d *Directory) Lookup(id string) (Surface, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.surfaces[id]
	if !ok {
		return nil, false
	}
	return e.surface, true
}

// Open returns the surface registered under id, sized width×height,
// without taking a hold on it.
//
// An unheld surface of a different size is resized when it implements
// ResizableSurface; otherwise, or when the surface is held, Open fails
// with ErrSizeMismatch. A missing surface is created with the best
// registered backend.
func (d *Directory) Open(id string, width, height int) (Surface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.open(id, width, height)
	if err != nil {
		return nil, err
	}
	return e.surface, nil
}

// Acquire is Open plus a hold on the surface. Every successful Acquire
// must be paired with a Release.
func (d *Directory) Acquire(id string, width, height int) (Surface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.open(id, width, height)
	if err != nil {
		return nil, err
	}
	e.refs++
	return e.surface, nil
}

func (d *Directory) open(id string, width, height int) (*dirEntry, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if e, ok := d.surfaces[id]; ok {
		s := e.surface
		if s.Width() == width && s.Height() == height {
			return e, nil
		}
		if e.refs > 0 {
			return nil, fmt.Errorf("%w: surface %q is %dx%d and held by %d, want %dx%d",
				ErrSizeMismatch, id, s.Width(), s.Height(), e.refs, width, height)
		}
		rs, ok := s.(ResizableSurface)
		if !ok {
			return nil, fmt.Errorf("%w: surface %q is %dx%d, want %dx%d",
				ErrSizeMismatch, id, s.Width(), s.Height(), width, height)
		}
		if err := rs.Resize(width, height); err != nil {
			return nil, fmt.Errorf("surface: resize %q: %w", id, err)
		}
		return e, nil
	}

	s, err := d.registry.NewSurface(DefaultOptions(width, height))
	if err != nil {
		return nil, fmt.Errorf("surface: create %q: %w", id, err)
	}
	e := &dirEntry{surface: s, created: true}
	d.surfaces[id] = e
	return e, nil
}

// Release drops a hold on s taken with Acquire under id. When the last
// hold on a surface the directory created is dropped, the surface is
// removed and closed. Releasing a surface no longer registered under id
// does nothing.
func (d *Directory) Release(id string, s Surface) error {
	d.mu.Lock()
	e, ok := d.surfaces[id]
	if !ok || e.surface != s || e.refs == 0 {
		d.mu.Unlock()
		return nil
	}
	e.refs--
	if e.refs > 0 || !e.created {
		d.mu.Unlock()
		return nil
	}
	delete(d.surfaces, id)
	d.mu.Unlock()

	if err := s.Close(); err != nil {
		return fmt.Errorf("surface: close %q: %w", id, err)
	}
	return nil
}

// Holders returns the number of outstanding holds on the surface under id.
func (d *Directory) Holders(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.surfaces[id]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of surfaces in the directory.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.surfaces)
}
