package gateway

import (
	"log/slog"
	"sync"
)

// Hub fans out events to every subscribed companion client.
type Hub struct {
	logger *slog.Logger
	mu     sync.RWMutex
	conns  map[*clientConn]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger.With("component", "gateway"),
		conns:  map[*clientConn]struct{}{},
	}
}

// Publish delivers an event to all connected clients without blocking
// the caller.
func (h *Hub) Publish(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.conns {
		conn.enqueue(event)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) register(conn *clientConn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client subscribed", "clients", h.ClientCount())
}

func (h *Hub) unregister(conn *clientConn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	h.logger.Info("client unsubscribed", "clients", h.ClientCount())
}

// Shutdown closes every connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]*clientConn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = map[*clientConn]struct{}{}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
}
