package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"command-bot/backend/internal/bot"
	"command-bot/backend/pkg/logger"
	"command-bot/backend/pkg/middleware"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024

	// Time allowed to handle one event
	handleTimeout = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// bridges are authenticated by token, not origin
		return true
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Client is one bridge connection
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
	log  *logger.Logger
}

// ReadPump reads frames and handles events one at a time, so replies follow
// the order of the bridge stream
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.LogError(err, "Unexpected websocket close")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("malformed frame")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case TypeEvent:
		c.handleEvent(msg.Content)
	case TypePing:
		c.send(TypePong, nil)
	default:
		c.log.Warn("Unknown frame type", "type", msg.Type)
		c.sendError("unknown frame type: " + msg.Type)
	}
}

func (c *Client) handleEvent(raw json.RawMessage) {
	var ev bot.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.sendError("malformed event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	replies, err := c.Hub.handler.Handle(ctx, ev)
	if err != nil {
		c.log.Warn("Rejected event", "error", err.Error(), "chat_id", ev.ChatID)
		c.sendError(err.Error())
		return
	}
	for _, r := range replies {
		c.send(TypeReply, r)
	}
}

func (c *Client) send(messageType string, content any) {
	msg := Message{Type: messageType}
	if content != nil {
		raw, err := json.Marshal(content)
		if err != nil {
			c.log.LogError(err, "Failed to marshal frame", "type", messageType)
			return
		}
		msg.Content = raw
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.log.LogError(err, "Failed to marshal frame", "type", messageType)
		return
	}

	select {
	case c.Send <- data:
	default:
		c.log.Warn("Dropping frame for slow bridge", "type", messageType)
	}
}

func (c *Client) sendError(text string) {
	c.send(TypeError, map[string]string{"message": text})
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an authenticated request into a bridge connection
func ServeWs(hub *Hub, c *gin.Context) {
	clientID := uuid.NewString()
	if claims, ok := middleware.ClaimsFromContext(c); ok {
		clientID = claims.ClientID + "-" + clientID[:8]
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.LogError(err, "Error upgrading connection")
		return
	}

	client := &Client{
		ID:   clientID,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
		log:  &logger.Logger{Logger: hub.log.With("client_id", clientID)},
	}
	if !hub.add(client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
