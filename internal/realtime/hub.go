package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/pkg/logger"
)

// Hub maintains the set of connected dashboard clients and fans
// lifecycle events out to them.
type Hub struct {
	// Registered clients by connection ID
	clients map[string]*Client

	// Clients grouped by topic subscription
	topics map[string]map[string]*Client

	// Topic set each client was registered under. Subscriptions only
	// change through re-registration, so this is the authoritative set
	// even while the client mutates its own list.
	subscriptions map[string][]string

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Broadcast events to clients
	Broadcast chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage addresses an event to a set of clients.
type BroadcastMessage struct {
	Topic   string   // empty means all clients
	Message *Message // event to send
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		topics:        make(map[string]map[string]*Client),
		subscriptions: make(map[string][]string),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		Broadcast:     make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop. It blocks until the process exits,
// so callers run it in its own goroutine.
func (h *Hub) Run() {
	logger.Info("realtime hub started")
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case broadcast := <-h.Broadcast:
			h.broadcastMessage(broadcast)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A reconnect with the same ID replaces the stale connection. The
	// same client re-registering just refreshes its subscriptions.
	if existing, ok := h.clients[client.ID]; ok {
		if existing != client {
			close(existing.Send)
		}
		h.removeFromTopicsLocked(client.ID)
	}

	topics := client.Topics()
	h.clients[client.ID] = client
	h.subscriptions[client.ID] = topics
	for _, topic := range topics {
		if h.topics[topic] == nil {
			h.topics[topic] = make(map[string]*Client)
		}
		h.topics[topic][client.ID] = client
	}
	logger.Debug("realtime client registered", zap.String("client_id", client.ID))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.ID]; ok && current == client {
		delete(h.clients, client.ID)
		h.removeFromTopicsLocked(client.ID)
		close(client.Send)
		logger.Debug("realtime client unregistered", zap.String("client_id", client.ID))
	}
}

func (h *Hub) removeFromTopicsLocked(clientID string) {
	for _, topic := range h.subscriptions[clientID] {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, clientID)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	delete(h.subscriptions, clientID)
}

func (h *Hub) broadcastMessage(broadcast *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		// Clients without explicit subscriptions get the firehose.
		if broadcast.Topic == "" || len(h.subscriptions[client.ID]) == 0 {
			client.SendMessage(broadcast.Message)
			continue
		}
		if subs, ok := h.topics[broadcast.Topic]; ok {
			if _, subscribed := subs[client.ID]; subscribed {
				client.SendMessage(broadcast.Message)
			}
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
