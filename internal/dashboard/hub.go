package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// sendBuffer is the number of snapshots queued per client before it is dropped.
	sendBuffer = 8
)

// client is one websocket connection with its own writer goroutine.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes dashboard snapshots to connected browsers.
// Broadcast never waits on a client: slow readers are dropped once their queue is full.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub accepting websocket upgrades from allowedOrigins.
// A "*" entry accepts any origin; requests without an Origin header are always accepted.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[*client]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// ServeWS upgrades the request and keeps the client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	websocketClients.Set(float64(count))
	slog.Debug("websocket client connected", "remote", r.RemoteAddr, "clients", count)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// readLoop discards client messages and unregisters the client once the connection fails.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on the connection. It exits when the send
// queue is closed or a write fails.
func (h *Hub) writeLoop(c *client) {
	defer func() { _ = c.conn.Close() }()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Debug("websocket write failed", "error", err)
			h.remove(c)
			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.unregister(c)
	count := len(h.clients)
	h.mu.Unlock()
	websocketClients.Set(float64(count))
}

// unregister closes the client's queue once. Callers hold h.mu.
func (h *Hub) unregister(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues the snapshot for every client. A client whose queue is
// full is disconnected.
func (h *Hub) Broadcast(snapshot Snapshot) {
	msg, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode dashboard snapshot", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Debug("dropping slow websocket client", "remote", c.conn.RemoteAddr().String())
			websocketDropped.Inc()
			h.unregister(c)
			// Abort a write that may be stuck on the stalled peer.
			_ = c.conn.Close()
		}
	}
	websocketClients.Set(float64(len(h.clients)))
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.unregister(c)
	}
	websocketClients.Set(0)
}
