package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillhive/backend/internal/models"
)

// NotificationEvent is pushed to connected clients when a notification
// is delivered for them.
type NotificationEvent struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}

type eventClient struct {
	userID uint
	ch     chan NotificationEvent
}

// EventHub fans notification events out to SSE subscribers. Events are
// addressed: a subscriber only receives events for its own user.
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]eventClient
}

var (
	eventHub     *EventHub
	eventHubOnce sync.Once
)

// GetEventHub returns the process-wide hub.
func GetEventHub() *EventHub {
	eventHubOnce.Do(func() {
		eventHub = &EventHub{clients: make(map[string]eventClient)}
	})
	return eventHub
}

// Subscribe registers a listener for the given user and returns its
// client ID and event channel.
func (h *EventHub) Subscribe(userID uint) (string, <-chan NotificationEvent) {
	id := uuid.NewString()
	ch := make(chan NotificationEvent, 16)

	h.mu.Lock()
	h.clients[id] = eventClient{userID: userID, ch: ch}
	h.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *EventHub) Unsubscribe(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		close(client.ch)
	}
}

// Publish delivers an event to all subscribers of its target user.
// Slow clients are skipped rather than blocking delivery.
func (h *EventHub) Publish(event NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.userID != event.UserID {
			continue
		}
		select {
		case client.ch <- event:
		default:
		}
	}
}

// ClientCount reports how many subscribers are connected.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func notificationEvent(n *models.Notification) NotificationEvent {
	return NotificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}
