package events

import (
	"sync"

	"shieldpool/internal/metrics"
)

// Subscription types understood by the WebSocket hub.
const (
	SubCommitments = "commitments"
	SubNullifiers  = "nullifiers"
	SubAssets      = "assets"
	SubRoots       = "roots"
	SubRelays      = "relays"
)

// PoolEventHub fans pool events out to connected WebSocket clients. Each
// client carries its own subscription set; a client with no subscriptions
// receives nothing.
type PoolEventHub struct {
	mu      sync.RWMutex
	clients map[string]*hubClient
}

type hubClient struct {
	send chan interface{}
	subs map[string]bool
}

var (
	hub     *PoolEventHub
	hubOnce sync.Once
)

// GetPoolEventHub returns the shared hub.
func GetPoolEventHub() *PoolEventHub {
	hubOnce.Do(func() {
		hub = &PoolEventHub{clients: make(map[string]*hubClient)}
	})
	return hub
}

// Register adds a client and returns its outbound channel. Messages for slow
// clients are dropped rather than blocking the publisher.
func (h *PoolEventHub) Register(clientID string) chan interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	send := make(chan interface{}, 256)
	h.clients[clientID] = &hubClient{send: send, subs: make(map[string]bool)}
	metrics.WebSocketConnections.Inc()
	return send
}

// Unregister removes a client and closes its channel.
func (h *PoolEventHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.send)
		delete(h.clients, clientID)
		metrics.WebSocketConnections.Dec()
	}
}

// Subscribe adds an event type to a client's subscription set.
func (h *PoolEventHub) Subscribe(clientID, subType string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	c.subs[subType] = true
	return true
}

// Unsubscribe removes an event type from a client's subscription set.
func (h *PoolEventHub) Unsubscribe(clientID, subType string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	delete(c.subs, subType)
	return true
}

// Broadcast delivers a payload to every client subscribed to subType.
func (h *PoolEventHub) Broadcast(subType string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := map[string]interface{}{
		"type": subType,
		"data": payload,
	}
	for _, c := range h.clients {
		if !c.subs[subType] {
			continue
		}
		select {
		case c.send <- msg:
			metrics.WebSocketPushes.WithLabelValues(subType).Inc()
		default:
			// slow client, drop
		}
	}
}
