// Package events fans selection changes out to subscribers such as the
// websocket stream.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	"adisglobe/pkg/model"
)

// Message types.
const (
	TypeSelection = "selection"
	TypeDismiss   = "dismiss"
)

const subscriberBuffer = 16

// Message is one selection event.
type Message struct {
	Type      string           `json:"type"`
	ID        string           `json:"id,omitempty"`
	Feature   *geojson.Feature `json:"feature,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// SelectionMessage wraps a selection.
func SelectionMessage(sel model.Selection) Message {
	return Message{
		Type:      TypeSelection,
		ID:        sel.ID,
		Feature:   sel.Feature(),
		Timestamp: sel.CreatedAt,
	}
}

// DismissMessage announces that the selection was cleared.
func DismissMessage() Message {
	return Message{Type: TypeDismiss, Timestamp: time.Now()}
}

// Hub broadcasts messages to subscribers without ever blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan Message
	dropped uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan Message)}
}

// Subscribe registers id and returns its message channel. An existing
// subscription with the same id is closed first.
func (h *Hub) Subscribe(id string) <-chan Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[id]; ok {
		close(ch)
	}
	ch := make(chan Message, subscriberBuffer)
	h.clients[id] = ch
	slog.Debug("Selection subscriber added", "id", id, "total", len(h.clients))
	return ch
}

// Unsubscribe removes id and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[id]; ok {
		close(ch)
		delete(h.clients, id)
		slog.Debug("Selection subscriber removed", "id", id, "remaining", len(h.clients))
	}
}

// Publish delivers msg to every subscriber. Subscribers with a full buffer
// miss the message.
func (h *Hub) Publish(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.dropped++
			slog.Warn("Selection subscriber lagging, message dropped", "id", id, "type", msg.Type)
		}
	}
}

// PublishSelection is Publish(SelectionMessage(sel)).
func (h *Hub) PublishSelection(sel model.Selection) { h.Publish(SelectionMessage(sel)) }

// PublishDismiss is Publish(DismissMessage()).
func (h *Hub) PublishDismiss() { h.Publish(DismissMessage()) }

// Clients returns the number of subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many deliveries were skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Close unsubscribes everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
}
