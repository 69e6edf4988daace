// Package hub manages WebSocket subscribers of run transcripts.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Subscriber represents a single WebSocket connection watching a run.
type Subscriber struct {
	ID    string
	RunID string
	Conn  *websocket.Conn
	Send  chan []byte
	mu    sync.Mutex
}

// WriteMessage writes a frame to the connection with proper locking.
func (s *Subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (s *Subscriber) SetWriteDeadline(t time.Time) error {
	return s.Conn.SetWriteDeadline(t)
}

// Close closes the connection.
func (s *Subscriber) Close() error {
	return s.Conn.Close()
}

// Event is a transcript event pushed to subscribers of a run.
type Event struct {
	Type    string `json:"type"`
	RunID   string `json:"run_id"`
	Phase   string `json:"phase,omitempty"`
	Source  string `json:"source,omitempty"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Event type values.
const (
	EventMessage = "message"
	EventStatus  = "status"
)

type runEvent struct {
	runID string
	data  []byte
}

// Hub fans run events out to WebSocket subscribers.
type Hub struct {
	subscribers map[string]*Subscriber
	runs        map[string]map[string]bool

	register   chan *Subscriber
	unregister chan *Subscriber
	events     chan runEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		runs:        make(map[string]map[string]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		events:      make(chan runEvent, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub.ID] = sub
			if h.runs[sub.RunID] == nil {
				h.runs[sub.RunID] = make(map[string]bool)
			}
			h.runs[sub.RunID][sub.ID] = true
			h.mu.Unlock()
			log.Debug().Str("subscriber_id", sub.ID).Str("run_id", sub.RunID).Msg("subscriber registered")

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub.ID]; ok {
				delete(h.subscribers, sub.ID)
				if h.runs[sub.RunID] != nil {
					delete(h.runs[sub.RunID], sub.ID)
					if len(h.runs[sub.RunID]) == 0 {
						delete(h.runs, sub.RunID)
					}
				}
				close(sub.Send)
			}
			h.mu.Unlock()
			log.Debug().Str("subscriber_id", sub.ID).Msg("subscriber unregistered")

		case ev := <-h.events:
			h.mu.RLock()
			for subID := range h.runs[ev.runID] {
				sub, exists := h.subscribers[subID]
				if !exists {
					continue
				}
				select {
				case sub.Send <- ev.data:
				default:
					// Buffer full, drop the subscriber.
					log.Warn().Str("subscriber_id", subID).Msg("subscriber buffer full, closing")
					go h.Unregister(sub)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewSubscriber creates a subscriber for a run. The caller must Register it.
func (h *Hub) NewSubscriber(ws *websocket.Conn, runID string) *Subscriber {
	return &Subscriber{
		ID:    uuid.NewString(),
		RunID: runID,
		Conn:  ws,
		Send:  make(chan []byte, 256),
	}
}

// Register registers a subscriber with the hub.
func (h *Hub) Register(sub *Subscriber) {
	h.register <- sub
}

// Unregister unregisters a subscriber from the hub.
func (h *Hub) Unregister(sub *Subscriber) {
	h.unregister <- sub
}

// Publish sends an event to all subscribers of its run.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal run event")
		return
	}
	h.events <- runEvent{runID: ev.RunID, data: data}
}

// SubscriberCount returns the number of active subscribers for a run.
func (h *Hub) SubscriberCount(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs[runID])
}
