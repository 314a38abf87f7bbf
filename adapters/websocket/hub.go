package websocket

import (
	"sync"

	"github.com/pauline-si/ai-eng-tech-eval/utils/log"
)

// Hub tracks connected clients. More than one client may share a
// session (two tabs of the same browser). The clients map is read by
// the broker forwarders while the hub loop mutates it, hence the lock.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub.
func (h *Hub) Run() {
	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.WithCtx(client.ctx).Debug("New client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
			}
			h.mu.Unlock()
			if ok {
				client.Close()
				log.WithCtx(client.ctx).Debug("Client unregistered")
			}
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToSession delivers a message to every client of a session.
func (h *Hub) SendToSession(sessionID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.sessionID == sessionID && !client.IsClosed() {
			client.SendMessage(message)
		}
	}
}

// SessionConnected checks whether any client of the session is online.
func (h *Hub) SessionConnected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.sessionID == sessionID && !client.IsClosed() {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
