// Package main provides the WebSocket hub for real-time sync events.
package main

import (
	"encoding/json"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jchang/syncdesk/internal/logging"
	"github.com/jchang/syncdesk/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local daemon: only same-host clients.
		return true
	},
}

// Event types pushed to clients.
const (
	EventSyncStarted      = "sync.started"
	EventSyncFinished     = "sync.finished"
	EventActionCompleted  = "action.completed"
	EventActionFailed     = "action.failed"
	EventConflictDetected = "sync.conflict_detected"
)

// Envelope wraps all WebSocket messages.
type Envelope struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// Client is one WebSocket connection.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub maintains active connections and broadcasts sync events. It implements
// the engine's EventHandler so engine progress reaches connected clients.
type Hub struct {
	mu      stdsync.RWMutex
	clients map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Broadcast sends an event to all connected clients. Slow clients are
// dropped rather than allowed to back-pressure the engine.
func (h *Hub) Broadcast(eventType string, data map[string]interface{}) {
	envelope := Envelope{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		logging.Warn("Failed to marshal event", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// OnSyncStarted implements sync.EventHandler.
func (h *Hub) OnSyncStarted() {
	h.Broadcast(EventSyncStarted, map[string]interface{}{"status": "started"})
}

// OnActionCompleted implements sync.EventHandler.
func (h *Hub) OnActionCompleted(action *models.Action) {
	h.Broadcast(EventActionCompleted, map[string]interface{}{
		"action_id":   action.ID,
		"action_type": action.Type,
		"entity_id":   action.EntityID,
	})
}

// OnActionFailed implements sync.EventHandler.
func (h *Hub) OnActionFailed(action *models.Action, terminal bool, cause error) {
	h.Broadcast(EventActionFailed, map[string]interface{}{
		"action_id":   action.ID,
		"entity_id":   action.EntityID,
		"terminal":    terminal,
		"retry_count": action.RetryCount,
		"error":       cause.Error(),
	})
}

// OnConflict implements sync.EventHandler.
func (h *Hub) OnConflict(documentID string) {
	h.Broadcast(EventConflictDetected, map[string]interface{}{
		"document_id": documentID,
	})
}

// OnSyncFinished implements sync.EventHandler.
func (h *Hub) OnSyncFinished(stats models.SyncStats) {
	h.Broadcast(EventSyncFinished, map[string]interface{}{
		"pending_actions":  stats.PendingActions,
		"successful_syncs": stats.SuccessfulSyncs,
		"failed_syncs":     stats.FailedSyncs,
	})
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump discards inbound messages and detects disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pumps broadcast messages to the connection with keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleWebSocket upgrades the connection and registers it with the hub.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan []byte, 256),
			hub:  hub,
		}
		hub.register(client)

		go client.writePump()
		go client.readPump()
	}
}
