// Package events provides a typed publish-subscribe event bus. It is the
// concrete Notifier: all outbound zone events fan out through it to SSE and
// websocket subscribers.
package events

import (
	"sync"

	"github.com/audiozone/zonecast/internal/models"
)

const subBufferSize = 16

// EventType identifies the kind of outbound event.
type EventType string

const (
	EventZoneState      EventType = "zone_state"
	EventQueueUpdated   EventType = "queue_updated"
	EventRoomFavorites  EventType = "room_favorites_changed"
	EventRecentlyPlayed EventType = "recently_played_changed"
	EventRescan         EventType = "rescan"
	EventAudioSync      EventType = "audio_sync"
)

// Event is one outbound notification.
type Event struct {
	Type    EventType         `json:"type"`
	ZoneID  int               `json:"zone_id,omitempty"`
	State   *models.ZoneState `json:"state,omitempty"`
	Payload any               `json:"payload,omitempty"`
}

// Bus is a non-blocking publish-subscribe event bus.
// Subscribers that are slow to consume events will have events dropped rather
// than blocking publishers.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan Event
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]chan Event),
	}
}

// Subscribe creates a new subscription with the given ID.
// Call Unsubscribe when done to clean up.
func (b *Bus) Subscribe(id string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subBufferSize)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends an event to all subscribers.
// If a subscriber's channel is full, the event is dropped (non-blocking).
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Drop if subscriber is slow
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// NotifyZoneStateChanged broadcasts a committed zone state record.
func (b *Bus) NotifyZoneStateChanged(zoneID int, st models.ZoneState) {
	b.Publish(Event{Type: EventZoneState, ZoneID: zoneID, State: &st})
}

// NotifyQueueUpdated broadcasts a queue size change for a zone.
func (b *Bus) NotifyQueueUpdated(zoneID, size int) {
	b.Publish(Event{Type: EventQueueUpdated, ZoneID: zoneID, Payload: map[string]int{"size": size}})
}

// NotifyRoomFavoritesChanged broadcasts a favorites change for a zone.
func (b *Bus) NotifyRoomFavoritesChanged(zoneID int) {
	b.Publish(Event{Type: EventRoomFavorites, ZoneID: zoneID})
}

// NotifyRecentlyPlayedChanged broadcasts a recents history change.
func (b *Bus) NotifyRecentlyPlayedChanged() {
	b.Publish(Event{Type: EventRecentlyPlayed})
}

// NotifyRescan asks clients to re-fetch library content.
func (b *Bus) NotifyRescan() {
	b.Publish(Event{Type: EventRescan})
}

// NotifyAudioSyncEvent broadcasts group-sync payloads.
func (b *Bus) NotifyAudioSyncEvent(payload []any) {
	b.Publish(Event{Type: EventAudioSync, Payload: payload})
}
