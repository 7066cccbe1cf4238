// Package events pushes live generation activity to dashboard clients
// over WebSocket.
//
// DESIGN: One hub, many subscribers. Broadcast never blocks the request
// path: each subscriber has a buffered channel and a dedicated writer
// goroutine; a subscriber that cannot keep up has its oldest events
// dropped rather than stalling the producer.
package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/oselz/hookboard/internal/monitoring"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

type subscriber struct {
	events chan []byte
}

// Hub fans generation events out to connected WebSocket clients.
type Hub struct {
	logger *monitoring.Logger

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

// NewHub creates an empty hub.
func NewHub(logger *monitoring.Logger) *Hub {
	return &Hub{
		logger:      logger,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Broadcast sends an event to every connected client. Events are JSON
// encoded once, not per subscriber.
func (h *Hub) Broadcast(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to encode broadcast event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.events <- data:
		default:
			// Slow subscriber: drop the oldest queued event to make room.
			select {
			case <-sub.events:
			default:
			}
			select {
			case sub.events <- data:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) add(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subscribers[sub] = struct{}{}
	return true
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, sub)
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subscribers {
		close(sub.events)
		delete(h.subscribers, sub)
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams events until
// the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The dashboard is a local tool; the server only binds loopback.
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := &subscriber{events: make(chan []byte, subscriberBuffer)}
	if !h.add(sub) {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer h.remove(sub)

	h.logger.Debug().Int("subscribers", h.SubscriberCount()).Msg("Events client connected")

	ctx := r.Context()

	// Reader goroutine: the client sends nothing meaningful, but reads
	// must be drained to observe close frames.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case data, ok := <-sub.events:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
