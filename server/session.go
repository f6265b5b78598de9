// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"sync"

	"github.com/gogpu/freehand"
)

// session is one canvas and the websocket clients watching it.
type session struct {
	canvas *freehand.Canvas

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func newSession(c *freehand.Canvas) *session {
	s := &session{
		canvas:  c,
		clients: make(map[*client]struct{}),
	}
	for _, ev := range freehand.Events() {
		c.Subscribe(ev, s.broadcast)
	}
	return s
}

// add registers cl. It reports false once the session is closed.
func (s *session) add(cl *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[cl] = struct{}{}
	return true
}

// remove detaches cl and shuts it down.
func (s *session) remove(cl *client) {
	s.mu.Lock()
	delete(s.clients, cl)
	s.mu.Unlock()
	cl.shutdown()
}

func (s *session) broadcast(ev freehand.Event) {
	msg := outbound{Type: "event", Event: ev.String()}
	s.mu.Lock()
	defer s.mu.Unlock()
	for cl := range s.clients {
		cl.push(msg)
	}
}

func (s *session) close() error {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.closed = true
	s.mu.Unlock()
	for cl := range clients {
		cl.shutdown()
	}
	return s.canvas.Close()
}
