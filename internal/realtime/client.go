package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024
)

// Message is the wire format pushed to dashboard clients.
type Message struct {
	Type      string      `json:"type"`
	Topic     string      `json:"topic,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// clientCommand is what a connected client may send upstream. The
// dashboard is read-mostly, commands only adjust subscriptions.
type clientCommand struct {
	Action string   `json:"action"` // "subscribe" or "unsubscribe"
	Topics []string `json:"topics"`
}

// Client is a single websocket connection managed by the Hub.
type Client struct {
	ID     string
	Conn   *websocket.Conn
	Send   chan *Message
	Hub    *Hub
	topics []string
	mu     sync.RWMutex
}

func NewClient(id string, conn *websocket.Conn, hub *Hub, topics []string) *Client {
	return &Client{
		ID:     id,
		Conn:   conn,
		Send:   make(chan *Message, 256),
		Hub:    hub,
		topics: topics,
	}
}

// Topics returns the client's current topic subscriptions.
func (c *Client) Topics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.topics))
	copy(out, c.topics)
	return out
}

// SendMessage queues a message without blocking the hub. Slow
// consumers get disconnected rather than stalling the fan-out.
func (c *Client) SendMessage(msg *Message) {
	select {
	case c.Send <- msg:
	default:
		logger.Warn("realtime client send buffer full, dropping connection",
			zap.String("client_id", c.ID))
		go func() { c.Hub.Unregister <- c }()
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in a per-connection goroutine and exits when the peer
// disconnects.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd clientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("realtime read error", zap.String("client_id", c.ID), zap.Error(err))
			}
			break
		}
		c.handleCommand(&cmd)
	}
}

func (c *Client) handleCommand(cmd *clientCommand) {
	switch cmd.Action {
	case "subscribe":
		c.mu.Lock()
		for _, topic := range cmd.Topics {
			if !containsTopic(c.topics, topic) {
				c.topics = append(c.topics, topic)
			}
		}
		c.mu.Unlock()
		// Re-register so the hub picks up the new subscriptions.
		c.Hub.Register <- c
	case "unsubscribe":
		c.mu.Lock()
		kept := c.topics[:0]
		for _, topic := range c.topics {
			if !containsTopic(cmd.Topics, topic) {
				kept = append(kept, topic)
			}
		}
		c.topics = kept
		c.mu.Unlock()
		c.Hub.Register <- c
	default:
		logger.Debug("realtime ignoring unknown client action",
			zap.String("client_id", c.ID), zap.String("action", cmd.Action))
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// A ticker keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				logger.Warn("realtime write error", zap.String("client_id", c.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func containsTopic(topics []string, topic string) bool {
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}
