package daemon

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"mediabox/internal/api"
	"mediabox/internal/logging"
	"mediabox/internal/queue"
)

// Hub fans queue lifecycle events out to connected websocket clients.
// Slow clients are dropped rather than allowed to stall the broadcaster.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logging.WithComponent(logger, "events"),
		upgrader: websocket.Upgrader{
			// The API binds to loopback only, so origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", logging.Int("clients", count))

	// Drain inbound frames so pings and close messages are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(conn)
}

// Publish sends a queue event to every connected client. It satisfies
// workflow.EventFunc.
func (h *Hub) Publish(event string, item *queue.Item) {
	payload := api.Event{Type: event}
	if item != nil {
		dto := api.FromQueueItem(item)
		payload.Item = &dto
	}
	h.broadcast(payload)
}

// PublishProgress pushes a throttled progress sample for the running item.
func (h *Hub) PublishProgress(itemID int64, percent float64, stage string, speed float64) {
	h.broadcast(api.Event{
		Type: "item_progress",
		Progress: &api.ProgressSample{
			ItemID:  itemID,
			Percent: percent,
			Stage:   stage,
			Speed:   speed,
		},
	})
}

func (h *Hub) broadcast(payload api.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(payload); err != nil {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects future registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
