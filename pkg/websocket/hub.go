package websocket

import (
	"context"
	"sync"

	"nardeboun-backend/models"
	"nardeboun-backend/pkg/logger"

	"go.uber.org/zap"
)

// Client is one subscriber of the content change feed
type Client struct {
	ID string
	// GradeID limits delivery to one grade; nil receives everything
	GradeID *int64
	Send    chan []byte
	Hub     *Hub
	Conn    *Connection
}

func (c *Client) wants(gradeID *int64) bool {
	return c.GradeID == nil || gradeID == nil || *c.GradeID == *gradeID
}

// Hub fans content changes out to connected clients
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *BroadcastMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// BroadcastMessage is the envelope written to clients
type BroadcastMessage struct {
	GradeID *int64      `json:"-"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("websocket client registered", zap.String("client_id", client.ID), zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			logger.Debug("websocket client unregistered", zap.String("client_id", client.ID))

		case message := <-h.broadcast:
			data := message.ToJSON()
			delivered := 0

			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(message.GradeID) {
					continue
				}
				select {
				case client.Send <- data:
					delivered++
				default:
					// slow consumer
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
			logger.Debug("websocket broadcast", zap.String("type", message.Type), zap.Int("clients", delivered))
		}
	}
}

// Register adds a client; false once the hub has stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; a no-op once the hub has stopped
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues a content_changed event; it never blocks the caller
func (h *Hub) Publish(change models.ContentChange) {
	msg := &BroadcastMessage{
		GradeID: change.GradeID,
		Type:    MessageTypeContentChanged,
		Payload: change,
	}
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("websocket broadcast queue full, dropping event", zap.String("table", change.Table))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
