package ioeffect

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ua/internal/array"
)

// DevPreviewBackend wraps another backend and adds a live image preview:
// ImShow pushes a PNG-encoded frame to every connected browser tab over
// a websocket instead of (or in addition to) whatever the wrapped
// backend does for Show. Every other method forwards unchanged.
type DevPreviewBackend struct {
	Backend

	addr     string
	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewDevPreviewBackend builds (but does not start; see Start) a local
// HTTP server serving a one-page viewer at `/` and a websocket endpoint
// at `/ws` that receives pushed frames. addr is a "host:port" listen
// address; an empty host binds to localhost.
func NewDevPreviewBackend(wrapped Backend, addr string) *DevPreviewBackend {
	d := &DevPreviewBackend{
		Backend:  wrapped,
		addr:     addr,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.serveViewer)
	mux.HandleFunc("/ws", d.serveWS)
	d.server = &http.Server{Addr: addr, Handler: mux}
	return d
}

func (d *DevPreviewBackend) Start() error {
	addr := d.addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	if host, port, err := net.SplitHostPort(addr); err == nil && host == "" {
		addr = net.JoinHostPort("127.0.0.1", port)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	d.addr = ln.Addr().String()
	go d.server.Serve(ln)
	return nil
}

// Addr returns the bound listen address after Start, for printing a
// browsable URL.
func (d *DevPreviewBackend) Addr() string { return d.addr }

func (d *DevPreviewBackend) Stop(ctx context.Context) error {
	return d.server.Shutdown(ctx)
}

func (d *DevPreviewBackend) serveViewer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, devPreviewPage)
}

func (d *DevPreviewBackend) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.clients[conn] = struct{}{}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.clients, conn)
		d.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ImShow pushes a PNG frame to every connected client and also
// delegates to the wrapped backend, so a headless run of the same
// program still produces its usual side effect.
func (d *DevPreviewBackend) ImShow(v array.Value) error {
	png, err := encodePNG(v)
	if err != nil {
		return err
	}
	d.broadcast(png)
	return d.Backend.ImShow(v)
}

func (d *DevPreviewBackend) broadcast(frame []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.clients {
		conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			conn.Close()
			delete(d.clients, conn)
		}
	}
}

const devPreviewPage = `<!doctype html>
<html><body style="margin:0;background:#111;display:flex;align-items:center;justify-content:center;height:100vh">
<img id="frame" style="max-width:100%;max-height:100%"/>
<script>
const img = document.getElementById("frame");
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.binaryType = "blob";
ws.onmessage = (ev) => { img.src = URL.createObjectURL(ev.data); };
</script>
</body></html>`
