// Package websocket pushes a change feed of successful API writes to
// connected WebSocket clients.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message announces a created, updated or deleted object.
type Message struct {
	Type        string `json:"type"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	ID          int64  `json:"id,omitempty"`
	ResourceURI string `json:"resource_uri,omitempty"`
}

// NewMessage creates a Message whose Type is "<resource>_<action>".
func NewMessage(resource, action string, id int64, uri string) Message {
	return Message{
		Type:        resource + "_" + action,
		Resource:    resource,
		Action:      action,
		ID:          id,
		ResourceURI: uri,
	}
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Unregistering
// twice is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast queues msg for every client subscribed to its resource.
// Clients with a full buffer miss it.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal change", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		if !c.Wants(msg.Resource) {
			continue
		}
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("change dropped for slow clients", "type", msg.Type, "clients", dropped)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
