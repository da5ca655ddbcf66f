// Package ws accepts bridge connections over websocket and feeds their events
// to the dispatcher.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"command-bot/backend/internal/bot"
	"command-bot/backend/pkg/logger"
)

// Frame types
const (
	TypeEvent = "event"
	TypeReply = "reply"
	TypeError = "error"
	TypePing  = "ping"
	TypePong  = "pong"
)

// Message is a websocket frame
type Message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Handler processes bridge events
type Handler interface {
	Handle(ctx context.Context, ev bot.Event) ([]bot.Reply, error)
}

// Hub tracks connected bridges
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	handler    Handler
	log        *logger.Logger
	mu         sync.RWMutex
}

// NewHub creates a hub dispatching to handler
func NewHub(handler Handler, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		handler:    handler,
		log:        log.WithComponent("ws-hub"),
	}
}

// Run serves registrations until ctx is done, then closes every connection
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Info("Bridge connected", "client_id", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Info("Bridge disconnected", "client_id", client.ID)
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				_ = client.Conn.Close()
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ActiveConnections returns the ids of connected bridges
func (h *Hub) ActiveConnections() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for client := range h.clients {
		ids = append(ids, client.ID)
	}
	return ids
}
