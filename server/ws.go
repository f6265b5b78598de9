// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/freehand"
)

const (
	writeWait = 10 * time.Second
	sendQueue = 64
)

// inbound is a pointer or command message from a websocket client.
type inbound struct {
	Type      string  `json:"type"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	ID        int     `json:"id"`
	Color     []int   `json:"color,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

// outbound is pushed to websocket clients: canvas events, command
// results and errors.
type outbound struct {
	Type   string `json:"type"`
	Event  string `json:"event,omitempty"`
	Error  string `json:"error,omitempty"`
	Filled *bool  `json:"filled,omitempty"`
	Pixels int    `json:"pixels,omitempty"`
	Bucket *bool  `json:"bucket,omitempty"`
}

// errUnknownMessage is reported to clients sending an unsupported type.
var errUnknownMessage = errors.New("server: unknown message type")

type client struct {
	conn *websocket.Conn
	send chan outbound

	mu     sync.Mutex
	closed bool
}

// push queues msg without blocking; a client that cannot keep up loses
// messages rather than stalling the canvas. Messages to a shut down
// client are dropped.
func (cl *client) push(msg outbound) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return
	}
	select {
	case cl.send <- msg:
	default:
		freehand.Logger().Debug("freehand: dropped websocket message",
			"remote", cl.conn.RemoteAddr().String(), "type", msg.Type)
	}
}

// shutdown closes the send queue once. The write loop then sends a close
// frame and bounds the read loop with a deadline.
func (cl *client) shutdown() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if !cl.closed {
		cl.closed = true
		close(cl.send)
	}
}

func (cl *client) isClosed() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.closed
}

func (cl *client) writeLoop(done chan<- struct{}) {
	defer close(done)
	for msg := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(msg); err != nil {
			freehand.Logger().Debug("freehand: websocket write failed", "err", err)
			return
		}
	}
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = cl.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = cl.conn.SetReadDeadline(time.Now().Add(writeWait))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.enter(id)
	if err != nil {
		httpError(w, err)
		return
	}
	defer s.handlers.Done()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		freehand.Logger().Debug("freehand: websocket upgrade failed", "surface", id, "err", err)
		return
	}
	defer conn.Close()

	cl := &client{conn: conn, send: make(chan outbound, sendQueue)}
	done := make(chan struct{})
	if !sess.add(cl) {
		cl.shutdown()
	}
	go cl.writeLoop(done)
	freehand.Logger().Info("freehand: client connected", "surface", id, "remote", conn.RemoteAddr().String())

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				freehand.Logger().Debug("freehand: websocket read ended", "surface", id, "err", err)
			}
			break
		}
		if cl.isClosed() {
			break
		}
		if reply, ok := apply(sess.canvas, msg); ok {
			cl.push(reply)
		}
	}

	sess.remove(cl)
	<-done
	freehand.Logger().Info("freehand: client disconnected", "surface", id, "remote", conn.RemoteAddr().String())
}

// apply runs one client message against c. It returns a direct reply for
// commands that have a result; canvas events reach the client through the
// session broadcast.
func apply(c *freehand.Canvas, m inbound) (outbound, bool) {
	switch m.Type {
	case "pendown":
		c.PenDown(m.X, m.Y)
	case "penmove":
		c.PenMove(m.X, m.Y)
	case "penup":
		c.PenUp()
	case "penleave":
		c.PenLeave()
	case "penenter":
		c.PenEnter()
	case "release":
		c.DocumentRelease()
	case "touchstart":
		c.TouchStart(m.ID, m.X, m.Y)
	case "touchmove":
		c.TouchMove(m.ID, m.X, m.Y)
	case "touchend":
		c.TouchEnd(m.ID)
	case "fill":
		col, tol := c.FillColor()
		if len(m.Color) > 0 {
			var err error
			if col, err = freehand.NormalizeColor(m.Color...); err != nil {
				return errorReply(err), true
			}
		}
		if m.Tolerance > 0 {
			tol = m.Tolerance
		}
		res := c.Fill(m.X, m.Y, col, tol)
		return outbound{Type: "fill", Filled: &res.Filled, Pixels: res.Pixels}, true
	case "color":
		if _, err := freehand.NormalizeColor(m.Color...); err != nil {
			return errorReply(err), true
		}
		c.SetDrawingColor(m.Color...)
		if m.Tolerance > 0 {
			c.SetFillTolerance(m.Tolerance)
		}
	case "width":
		c.SetLineWidth(m.Width)
	case "bucket":
		on := c.ToggleBucketTool()
		return outbound{Type: "bucket", Bucket: &on}, true
	case "undo":
		if err := c.Undo(); err != nil {
			return errorReply(err), true
		}
	case "redo":
		if err := c.Redo(); err != nil {
			return errorReply(err), true
		}
	case "clear":
		c.Clear()
	default:
		return errorReply(fmt.Errorf("%w: %q", errUnknownMessage, m.Type)), true
	}
	return outbound{}, false
}

func errorReply(err error) outbound {
	return outbound{Type: "error", Error: err.Error()}
}
