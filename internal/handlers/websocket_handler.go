package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"shieldpool/internal/events"
)

// WebSocketHandler streams pool events (new commitments, spent nullifiers,
// asset state changes, root updates) to subscribed clients.
type WebSocketHandler struct {
	hub      *events.PoolEventHub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{
		hub: events.GetPoolEventHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SubscriptionMessage represents a client subscription request
type SubscriptionMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Type   string `json:"type"`   // "commitments", "nullifiers", "assets", "roots"
}

// HandleWebSocket upgrades the connection and runs the read/write loops. All
// writes go through the single write loop to avoid concurrent writes on the
// connection.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	clientID := uuid.New().String()
	send := h.hub.Register(clientID)
	defer h.hub.Unregister(clientID)

	log.Printf("📡 WebSocket client connected: %s", clientID)

	conn.WriteJSON(map[string]interface{}{
		"type":      "connected",
		"client_id": clientID,
		"timestamp": time.Now(),
	})

	pongChan := make(chan struct{}, 8)
	readDone := make(chan struct{})

	go func() {
		defer close(readDone)

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("⚠️ WebSocket read error for client %s: %v", clientID, err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var msg SubscriptionMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}

			switch msg.Action {
			case "subscribe":
				if h.hub.Subscribe(clientID, msg.Type) {
					log.Printf("✅ Client %s subscribed to %s", clientID, msg.Type)
				}
			case "unsubscribe":
				h.hub.Unsubscribe(clientID, msg.Type)
			case "ping":
				select {
				case pongChan <- struct{}{}:
				default:
				}
			}
		}
	}()

	pingTicker := time.NewTicker(54 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case message, ok := <-send:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(message); err != nil {
				log.Printf("❌ WebSocket write error for client %s: %v", clientID, err)
				return
			}
		case <-pongChan:
			conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if err := conn.WriteJSON(map[string]interface{}{"type": "pong", "timestamp": time.Now()}); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}
