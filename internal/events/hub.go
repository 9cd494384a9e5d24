package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	TypeSessionStarted   = "session_started"
	TypeSetCompleted     = "set_completed"
	TypeRestStarted      = "rest_started"
	TypeRestTick         = "rest_tick"
	TypeRestFinished     = "rest_finished"
	TypeBridgeStarted    = "bridge_started"
	TypeBridgeTick       = "bridge_tick"
	TypeBridgeFinalized  = "bridge_finalized"
	TypeSessionCompleted = "session_completed"
	TypeSessionAborted   = "session_aborted"
	TypeStateChanged     = "state_changed"
	TypeCatalogChanged   = "catalog_changed"
)

const defaultBuffer = 64

type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// Hub fans events out to subscribers. Publishing never blocks, a
// subscriber that falls behind misses events.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	closed      bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: map[string]chan Event{},
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters
// it and closes its channel.
func (h *Hub) Subscribe(buffer int) (string, <-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	id := uuid.NewString()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return id, ch, func() {}
	}
	h.subscribers[id] = ch
	h.mu.Unlock()

	log.Debugf("events subscriber %s added", id)

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			h.unsubscribe(id)
		})
	}
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subscribers[id]
	if !ok {
		return
	}
	delete(h.subscribers, id)
	close(ch)
	log.Debugf("events subscriber %s removed", id)
}

func (h *Hub) Publish(eventType string, data any) {
	event := Event{
		Type: eventType,
		At:   time.Now(),
		Data: data,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			log.Tracef("events subscriber %s is full, %s dropped", id, eventType)
		}
	}
}

func (h *Hub) SubscribersCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close closes every subscriber channel. Later subscriptions get a closed
// channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}
