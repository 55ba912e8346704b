package inspect

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/incremental/pkg/journal"
)

// MessageType is the type of a message streamed to inspector clients.
type MessageType string

const (
	MessageHello MessageType = "hello"
	MessagePass  MessageType = "pass"
)

// Message is sent to inspector clients via WebSocket.
type Message struct {
	Type    MessageType    `json:"type"`
	Session string         `json:"session"`
	Entry   *journal.Entry `json:"entry,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub streams journal entries to WebSocket clients.
type Hub struct {
	session  string
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewHub creates a hub for the given session.
func NewHub(session string) *Hub {
	return &Hub{
		session: session,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until the
// client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}

	hello, _ := json.Marshal(Message{Type: MessageHello, Session: h.session})
	if err := c.write(hello); err != nil {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
}

// Publish sends an entry to all clients.
func (h *Hub) Publish(e journal.Entry) {
	h.broadcast(Message{Type: MessagePass, Session: h.session, Entry: &e})
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
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
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}
