package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string, hub *Hub, topics ...string) *Client {
	return &Client{
		ID:     id,
		Send:   make(chan *Message, 8),
		Hub:    hub,
		topics: topics,
	}
}

func drain(t *testing.T, c *Client) []*Message {
	t.Helper()
	var got []*Message
	for {
		select {
		case msg := <-c.Send:
			got = append(got, msg)
		case <-time.After(20 * time.Millisecond):
			return got
		}
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := NewHub()
	a := newTestClient("a", hub)
	b := newTestClient("b", hub)
	hub.registerClient(a)
	hub.registerClient(b)

	hub.broadcastMessage(&BroadcastMessage{
		Message: &Message{Type: "retrieval.ready"},
	})

	require.Len(t, drain(t, a), 1)
	require.Len(t, drain(t, b), 1)
}

func TestHub_TopicFiltering(t *testing.T) {
	hub := NewHub()
	retrievalOnly := newTestClient("r", hub, "retrieval")
	vehicleOnly := newTestClient("v", hub, "vehicle")
	firehose := newTestClient("f", hub)
	hub.registerClient(retrievalOnly)
	hub.registerClient(vehicleOnly)
	hub.registerClient(firehose)

	hub.broadcastMessage(&BroadcastMessage{
		Topic:   "retrieval",
		Message: &Message{Type: "retrieval.requested", Topic: "retrieval"},
	})

	assert.Len(t, drain(t, retrievalOnly), 1)
	assert.Empty(t, drain(t, vehicleOnly))

	// Clients with no subscriptions receive everything.
	assert.Len(t, drain(t, firehose), 1)
}

func TestHub_ReconnectReplacesStaleClient(t *testing.T) {
	hub := NewHub()
	stale := newTestClient("dash-1", hub, "retrieval")
	fresh := newTestClient("dash-1", hub, "retrieval")
	hub.registerClient(stale)
	hub.registerClient(fresh)

	// The stale client's channel is closed on replacement.
	_, open := <-stale.Send
	assert.False(t, open)
	assert.Equal(t, 1, hub.ClientCount())

	hub.broadcastMessage(&BroadcastMessage{
		Topic:   "retrieval",
		Message: &Message{Type: "retrieval.assigned"},
	})
	assert.Len(t, drain(t, fresh), 1)
}

func TestHub_UnregisterIgnoresReplacedClient(t *testing.T) {
	hub := NewHub()
	stale := newTestClient("dash-1", hub)
	fresh := newTestClient("dash-1", hub)
	hub.registerClient(stale)
	hub.registerClient(fresh)

	// The stale connection's ReadPump exits and unregisters, which
	// must not evict the replacement.
	hub.unregisterClient(stale)
	assert.Equal(t, 1, hub.ClientCount())

	hub.unregisterClient(fresh)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_SubscriptionUpdateOnReregister(t *testing.T) {
	hub := NewHub()
	c := newTestClient("c", hub, "vehicle")
	hub.registerClient(c)

	c.mu.Lock()
	c.topics = []string{"retrieval"}
	c.mu.Unlock()
	hub.registerClient(c)

	hub.broadcastMessage(&BroadcastMessage{
		Topic:   "vehicle",
		Message: &Message{Type: "vehicle.checkedin"},
	})
	assert.Empty(t, drain(t, c))

	hub.broadcastMessage(&BroadcastMessage{
		Topic:   "retrieval",
		Message: &Message{Type: "retrieval.requested"},
	})
	assert.Len(t, drain(t, c), 1)
}

func TestTopicForEvent(t *testing.T) {
	assert.Equal(t, "retrieval", topicForEvent("retrieval.requested"))
	assert.Equal(t, "vehicle", topicForEvent("vehicle.checkedin"))
	assert.Equal(t, "heartbeat", topicForEvent("heartbeat"))
}
