package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	Broadcast(message interface{})
	ClientCount() int
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	// Registered clients
	clients map[*Client]bool

	// Guards clients and the closing of client send queues
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients: make(map[*Client]bool),
	}
}

// RegisterClient adds a client to the live set
func (h *hub) RegisterClient(client *Client) {
	h.mu.Lock()
	if h.clients[client] {
		h.mu.Unlock()
		return
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("client", client.ID()).Int("clients", count).Msg("WebSocket client connected")
}

// UnregisterClient removes a client and closes its send queue. Removing a
// client that is already gone is a no-op.
func (h *hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("client", client.ID()).Int("clients", count).Msg("WebSocket client disconnected")
}

// Broadcast sends message to every registered client. A client whose queue
// cannot take the message is dropped once the sweep is over; the others are
// unaffected.
func (h *hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode broadcast message")
		return
	}

	var failed []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !client.enqueue(data) {
			failed = append(failed, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range failed {
		log.Warn().Str("client", client.ID()).Msg("WebSocket send queue full, dropping client")
		h.UnregisterClient(client)
	}
}

// ClientCount returns the number of live clients
func (h *hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// has reports whether client is in the live set
func (h *hub) has(client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[client]
}
