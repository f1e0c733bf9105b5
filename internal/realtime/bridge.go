package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valetkeys/valet-backend/pkg/eventbus"
)

// Bridge forwards bus events to connected websocket clients. A nil bus
// leaves the hub serving connections with nothing to push, which is
// fine for single-process deployments that broadcast directly.
func Bridge(ctx context.Context, bus *eventbus.Bus, hub *Hub) error {
	if bus == nil {
		return nil
	}
	return bus.SubscribeAll(ctx, "valet.>", "realtime", func(_ context.Context, event *eventbus.Event) error {
		var data interface{}
		if len(event.Data) > 0 {
			if err := json.Unmarshal(event.Data, &data); err != nil {
				data = string(event.Data)
			}
		}
		hub.Broadcast <- &BroadcastMessage{
			Topic: topicForEvent(event.Type),
			Message: &Message{
				Type:      event.Type,
				Topic:     topicForEvent(event.Type),
				Timestamp: event.Timestamp,
				Data:      data,
			},
		}
		return nil
	})
}

// topicForEvent maps an event type like "retrieval.requested" to the
// dashboard topic "retrieval".
func topicForEvent(eventType string) string {
	if i := strings.Index(eventType, "."); i > 0 {
		return eventType[:i]
	}
	return eventType
}
