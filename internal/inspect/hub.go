package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType represents the type of a stream message.
type MessageType string

const (
	MessageHello    MessageType = "hello"
	MessageDelivery MessageType = "delivery"
	MessageTxn      MessageType = "txn"
)

// Message is sent to watch clients via WebSocket.
type Message struct {
	Type     MessageType `json:"type"`
	ClientID string      `json:"clientId,omitempty"`
	Delivery *Delivery   `json:"delivery,omitempty"`
	Txn      *TxnResult  `json:"txn,omitempty"`
}

const writeTimeout = 5 * time.Second

// Hub manages WebSocket connections of watch clients.
type Hub struct {
	clients  map[*websocket.Conn]string
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a new hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]string),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request and keeps the connection until the
// client disconnects. Each client is greeted with its ID.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("inspect: websocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	hello, _ := json.Marshal(Message{Type: MessageHello, ClientID: id})

	h.mu.Lock()
	// Registered and greeted under the lock so a broadcast cannot reach
	// the client before the greeting.
	h.clients[conn] = id
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteMessage(websocket.TextMessage, hello)
	h.mu.Unlock()
	if err != nil {
		h.remove(conn)
		return
	}
	h.logger.Debug("inspect: watch client connected", "client", id)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
	h.logger.Debug("inspect: watch client disconnected", "client", id)
}

// PublishDelivery sends a delivery to all clients.
func (h *Hub) PublishDelivery(d Delivery) {
	h.broadcast(Message{Type: MessageDelivery, Delivery: &d})
}

// PublishTxn sends a transaction result to all clients.
func (h *Hub) PublishTxn(res TxnResult) {
	h.broadcast(Message{Type: MessageTxn, Txn: &res})
}

// broadcast sends a message to all connected clients, dropping clients
// whose write fails.
func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("inspect: cannot encode message", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client, id := range h.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("inspect: dropping watch client", "client", id, "error", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}
