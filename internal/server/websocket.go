package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cnstln/chirp/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Per-client event buffer; a client that falls further behind than
	// this is disconnected rather than allowed to stall the hub
	clientBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The status server is bound to loopback by default; origin checks
	// add nothing for a localhost diagnostic surface
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventHub fans discovery events out to connected WebSocket clients.
type eventHub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	conn   *websocket.Conn
	events chan Event
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*hubClient]struct{})}
}

// publish delivers an event to every connected client. Slow clients are
// dropped; the manager's receive path must never block on a status
// observer.
func (h *eventHub) publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.events <- event:
		default:
			delete(h.clients, client)
			close(client.events)
		}
	}
}

// handleWebSocket upgrades the connection and streams events until the
// client disconnects or the hub closes.
func (h *eventHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	client := &hubClient{
		conn:   conn,
		events: make(chan Event, clientBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	logging.Debug("Status event client connected", zap.String("remote_addr", r.RemoteAddr))

	// Drain and discard client frames so pings and close frames are
	// processed; the stream is one-way
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(client)
				return
			}
		}
	}()

	for event := range client.events {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			logging.Debug("Status event client write failed",
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			h.drop(client)
			break
		}
	}
	conn.Close()
}

// drop removes a client; safe to call more than once.
func (h *eventHub) drop(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.events)
	}
}

// closeAll disconnects every client and refuses new ones.
func (h *eventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.events)
	}
}
