// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"sort"
	"sync"
)

// Factory creates a new Surface with the given options.
// Implementations should validate options and return descriptive errors.
type Factory func(opts Options) (Surface, error)

// Backend describes a registered surface implementation.
type Backend struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	Priority int

	// Factory creates surface instances.
	Factory Factory
}

// Registry manages the surface backends a Directory can create surfaces
// with. The built-in "image" backend (ImageSurface) is registered in the
// global registry at init.
//
// Example registration:
//
//	surface.Register("recording", 20, func(opts surface.Options) (surface.Surface, error) {
//	    return newRecordingSurface(opts.Width, opts.Height), nil
//	})
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// globalRegistry is the default registry.
var globalRegistry = NewRegistry()

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and NewSurface.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend to the global registry.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, factory Factory) {
	globalRegistry.Register(name, priority, factory)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// Backends returns all registered backend names sorted by priority (highest first).
func Backends() []string {
	return globalRegistry.Names()
}

// NewSurface creates a surface using the best registered backend.
func NewSurface(opts Options) (Surface, error) {
	return globalRegistry.NewSurface(opts)
}

// Register adds a backend to this registry.
func (r *Registry) Register(name string, priority int, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = Backend{Name: name, Priority: priority, Factory: factory}
}

// Unregister removes a backend from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends, name)
}

// Get returns a registered backend by name.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Names returns backend names sorted by priority (highest first).
// Backends with equal priority are ordered by name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backends := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	sort.Slice(backends, func(i, j int) bool {
		if backends[i].Priority != backends[j].Priority {
			return backends[i].Priority > backends[j].Priority
		}
		return backends[i].Name < backends[j].Name
	})

	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name
	}
	return names
}

// NewSurface tries each backend in priority order and returns the first
// surface created successfully.
func (r *Registry) NewSurface(opts Options) (Surface, error) {
	names := r.Names()
	if len(names) == 0 {
		return nil, ErrNoBackendAvailable
	}

	var errs []error
	for _, name := range names {
		s, err := r.NewSurfaceByName(name, opts)
		if err == nil {
			return s, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// NewSurfaceByName creates a surface using a specific backend.
func (r *Registry) NewSurfaceByName(name string, opts Options) (Surface, error) {
	b, ok := r.Get(name)
	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	return b.Factory(opts)
}

// ErrNoBackendAvailable is returned when no surface backends are registered.
var ErrNoBackendAvailable = errors.New("surface: no backend available")

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// init registers the built-in ImageSurface backend.
func init() {
	Register("image", 10, func(opts Options) (Surface, error) {
		return NewImageSurfaceWithOptions(opts), nil
	})
}
