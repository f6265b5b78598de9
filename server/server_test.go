// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/freehand"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg.Width == 0 {
		cfg.Width, cfg.Height = 100, 80
	}
	s := New(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/canvas/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) = %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg inbound) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON(%+v) = %v", msg, err)
	}
}

// readUntil reads messages until match accepts one, returning everything read.
func readUntil(t *testing.T, conn *websocket.Conn, match func(outbound) bool) []outbound {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var got []outbound
	for {
		var msg outbound
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() = %v after %+v", err, got)
		}
		got = append(got, msg)
		if match(msg) {
			return got
		}
	}
}

func isEvent(name string) func(outbound) bool {
	return func(m outbound) bool { return m.Type == "event" && m.Event == name }
}

func isType(typ string) func(outbound) bool {
	return func(m outbound) bool { return m.Type == typ }
}

func do(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s = %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebsocketDrawsAndServesPNG(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn := dial(t, ts, "board")

	send(t, conn, inbound{Type: "pendown", X: 10, Y: 40})
	send(t, conn, inbound{Type: "penmove", X: 60, Y: 40})
	send(t, conn, inbound{Type: "penup"})

	msgs := readUntil(t, conn, isEvent("pointerup"))
	var events []string
	for _, m := range msgs {
		events = append(events, m.Event)
	}
	want := "pointerdown redraw redraw pointerup"
	if got := strings.Join(events, " "); got != want {
		t.Errorf("events = %q, want %q", got, want)
	}

	resp := do(t, http.MethodGet, ts.URL+"/canvas/board/snapshot.png", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("bounds = %v, want 100x80", b)
	}
	if c := freehand.ColorOf(img.At(35, 40)); c != freehand.Black {
		t.Errorf("stroke pixel = %v, want black", c)
	}
	if c := freehand.ColorOf(img.At(90, 10)); c != freehand.White {
		t.Errorf("background pixel = %v, want white", c)
	}
}

func TestWebsocketCommands(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn := dial(t, ts, "cmds")

	send(t, conn, inbound{Type: "undo"})
	msgs := readUntil(t, conn, isType("error"))
	if got := msgs[len(msgs)-1].Error; got != freehand.ErrNoUndo.Error() {
		t.Errorf("undo error = %q, want %q", got, freehand.ErrNoUndo)
	}

	send(t, conn, inbound{Type: "scribble"})
	msgs = readUntil(t, conn, isType("error"))
	if got := msgs[len(msgs)-1].Error; !strings.Contains(got, "unknown message type") {
		t.Errorf("error = %q, want unknown message type", got)
	}

	send(t, conn, inbound{Type: "color", Color: []int{300, 0, 0}})
	msgs = readUntil(t, conn, isType("error"))
	if got := msgs[len(msgs)-1].Error; got != freehand.ErrInvalidColor.Error() {
		t.Errorf("color error = %q, want %q", got, freehand.ErrInvalidColor)
	}

	send(t, conn, inbound{Type: "bucket"})
	msgs = readUntil(t, conn, isType("bucket"))
	if b := msgs[len(msgs)-1].Bucket; b == nil || !*b {
		t.Errorf("bucket reply = %v, want true", b)
	}
}

func TestWebsocketFill(t *testing.T) {
	s, ts := newTestServer(t, Config{})
	conn := dial(t, ts, "fill")

	send(t, conn, inbound{Type: "fill", X: 5, Y: 5, Color: []int{255, 0, 0}})
	msgs := readUntil(t, conn, isType("fill"))
	if len(msgs) != 3 || msgs[0].Event != "redraw" || msgs[1].Event != "fill" {
		t.Errorf("messages = %+v, want redraw and fill events before the reply", msgs)
	}
	reply := msgs[len(msgs)-1]
	if reply.Filled == nil || !*reply.Filled || reply.Pixels != 100*80 {
		t.Errorf("fill reply = %+v, want bootstrap of the whole surface", reply)
	}

	c, err := s.Canvas("fill")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Pixel(99, 79); got != freehand.Red {
		t.Errorf("corner = %v, want red", got)
	}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	a := dial(t, ts, "shared")
	b := dial(t, ts, "shared")

	// A reply proves b's handler is registered before a emits anything.
	send(t, b, inbound{Type: "undo"})
	readUntil(t, b, isType("error"))

	send(t, a, inbound{Type: "penenter"})
	readUntil(t, a, isEvent("pointerenter"))
	readUntil(t, b, isEvent("pointerenter"))
}

func TestHistoryEndpoints(t *testing.T) {
	s, ts := newTestServer(t, Config{})
	base := ts.URL + "/canvas/hist"

	if resp := do(t, http.MethodPost, base+"/undo", nil); resp.StatusCode != http.StatusConflict {
		t.Errorf("undo on fresh canvas = %d, want 409", resp.StatusCode)
	}

	c, err := s.Canvas("hist")
	if err != nil {
		t.Fatal(err)
	}
	c.PenDown(10, 10)
	c.PenMove(50, 10)
	c.PenUp()

	steps := []struct {
		path string
		want int
	}{
		{"/undo", http.StatusNoContent},
		{"/redo", http.StatusNoContent},
		{"/redo", http.StatusConflict},
		{"/clear", http.StatusNoContent},
	}
	for _, st := range steps {
		if resp := do(t, http.MethodPost, base+st.path, nil); resp.StatusCode != st.want {
			t.Errorf("POST %s = %d, want %d", st.path, resp.StatusCode, st.want)
		}
	}
	if n := len(c.Entries()); n != 0 {
		t.Errorf("entries after clear = %d, want 0", n)
	}

	if resp := do(t, http.MethodGet, base+"/undo", nil); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /undo = %d, want 405", resp.StatusCode)
	}
}

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImportEndpoint(t *testing.T) {
	s, ts := newTestServer(t, Config{})
	url := ts.URL + "/canvas/imp/snapshot"

	data := encodePNG(t, 20, 20, color.RGBA{0, 0, 255, 255})
	if resp := do(t, http.MethodPut, url, bytes.NewReader(data)); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT snapshot = %d, want 204", resp.StatusCode)
	}
	c, _ := s.Canvas("imp")
	if got, _ := c.Pixel(5, 5); got != freehand.Blue {
		t.Errorf("imported pixel = %v, want blue", got)
	}
	if got, _ := c.Pixel(50, 50); got != freehand.White {
		t.Errorf("pixel outside import = %v, want white", got)
	}

	if resp := do(t, http.MethodPut, url, strings.NewReader("not an image")); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("PUT garbage = %d, want 422", resp.StatusCode)
	}
}

func TestImportTooLarge(t *testing.T) {
	_, ts := newTestServer(t, Config{MaxImportBytes: 16})
	data := encodePNG(t, 20, 20, color.RGBA{0, 0, 255, 255})
	resp := do(t, http.MethodPut, ts.URL+"/canvas/big/snapshot", bytes.NewReader(data))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("PUT oversized = %d, want 413", resp.StatusCode)
	}

	_, ts = newTestServer(t, Config{})
	data = encodePNG(t, 400, 400, color.RGBA{0, 0, 255, 255})
	resp = do(t, http.MethodPut, ts.URL+"/canvas/big/snapshot", bytes.NewReader(data))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("PUT 400x400 onto 100x80 = %d, want 413", resp.StatusCode)
	}
}

func TestPDFEndpoint(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	resp := do(t, http.MethodGet, ts.URL+"/canvas/doc/snapshot.pdf", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Errorf("body does not start with a PDF header: %.16q", body)
	}
}

func TestSessions(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	a, err := s.Canvas("a")
	if err != nil {
		t.Fatal(err)
	}
	again, _ := s.Canvas("a")
	if a != again {
		t.Error("Canvas should return the existing session")
	}
	if a.Width() != 100 || a.Height() != 80 {
		t.Errorf("size = %dx%d, want 100x80", a.Width(), a.Height())
	}
	if n := s.Sessions(); n != 1 {
		t.Errorf("Sessions() = %d, want 1", n)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if _, err := s.Canvas("b"); !errors.Is(err, freehand.ErrClosed) {
		t.Errorf("Canvas after Close = %v, want ErrClosed", err)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/canvas/a/snapshot.png", nil); resp.StatusCode != http.StatusGone {
		t.Errorf("GET after Close = %d, want 410", resp.StatusCode)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Width: -1}.withDefaults()
	def := DefaultConfig()
	if cfg.Addr != def.Addr || cfg.Width != def.Width || cfg.Height != def.Height {
		t.Errorf("withDefaults() = %+v", cfg)
	}
	if cfg.LineWidth != freehand.DefaultLineWidth || cfg.MaxSnapshots != freehand.DefaultMaxSnapshots {
		t.Errorf("stroke defaults = %v, %d", cfg.LineWidth, cfg.MaxSnapshots)
	}
	if cfg.Directory == nil {
		t.Error("withDefaults() should create a private directory")
	}
}

func TestListenAndServeStops(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

func TestNewService(t *testing.T) {
	ips := []net.IP{net.IPv4(127, 0, 0, 1)}
	svc, err := newService("studio", 8080, "freehand.local.", ips)
	if err != nil {
		t.Fatalf("newService() = %v", err)
	}
	if svc.Instance != "studio" || svc.Service != ServiceType || svc.Port != 8080 {
		t.Errorf("service = %s %s %d", svc.Instance, svc.Service, svc.Port)
	}

	if _, err := newService("studio", 0, "freehand.local.", ips); err == nil {
		t.Error("newService with port 0 should fail")
	}
}

// lockedBuffer collects http.Server error log output across goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCloseWhileClientSending(t *testing.T) {
	s := New(Config{Width: 100, Height: 80})
	var errLog lockedBuffer
	ts := httptest.NewUnstartedServer(s.Handler())
	ts.Config.ErrorLog = log.New(&errLog, "", 0)
	ts.Start()
	t.Cleanup(ts.Close)

	conn := dial(t, ts, "busy")
	send(t, conn, inbound{Type: "undo"})
	readUntil(t, conn, isType("error"))

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for i := 0; ; i++ {
			msg := inbound{Type: "penmove", X: i % 100, Y: i % 80}
			if i%10 == 0 {
				msg = inbound{Type: "undo"}
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	_ = conn.Close()
	<-writerDone

	select {
	case err := <-closed:
		if err != nil {
			t.Errorf("Close() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return while a client was sending")
	}
	if out := errLog.String(); strings.Contains(out, "panic") {
		t.Errorf("server logged a panic:\n%s", out)
	}
	if _, err := s.Canvas("busy"); !errors.Is(err, freehand.ErrClosed) {
		t.Errorf("Canvas after Close = %v, want ErrClosed", err)
	}
}
