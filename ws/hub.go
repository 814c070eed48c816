package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sundayekpa25-ai/projectsandtasks/logging"
)

const writeWait = 10 * time.Second

// Client wraps one chat connection. gorilla/websocket allows a single
// concurrent writer per connection, and both the broadcast path and the ping
// loop write, so every write goes through the client's mutex.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// WriteJSON sends one JSON message under the write deadline.
func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// Ping sends a control ping under the write deadline.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *Client) Close() error { return c.conn.Close() }

// Hub tracks chat clients grouped into per-project rooms. Messages are
// ephemeral; nothing here is persisted.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

// Join registers a client with a project room.
func (h *Hub) Join(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

// Leave removes a client from its room, dropping empty rooms.
func (h *Hub) Leave(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the number of clients in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends a JSON message to every client in the room. Failed clients
// are dropped from the room and closed.
func (h *Hub) Broadcast(room string, message interface{}) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteJSON(message); err != nil {
			logging.Logger.Warnf("Event ID: WS_BROADCAST_FAILED, Description: Failed to deliver chat message in room %s: %v", room, err)
			h.Leave(room, client)
			client.Close()
		}
	}
}
