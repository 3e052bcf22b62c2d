package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub tracks connected clients and groups them into per-user rooms so one
// user with several tabs or devices receives every event once per connection.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
	done       chan struct{}
	log        *logger.Logger
}

type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.rooms = make(map[string]map[*Client]bool)
			h.mutex.Unlock()
			return
		}
	}
}

// Register hands a client to the hub. It reports false once the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = true
	room := userRoom(client.UserID)
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	h.mutex.Unlock()

	h.log.WithUserID(client.UserID).Debug("WebSocket client registered")

	h.sendToClient(client, Message{
		Type:      "welcome",
		Timestamp: time.Now().Unix(),
		Data:      map[string]string{"message": "Connected successfully"},
	})
}

// removeClient is safe to call more than once for the same client.
func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	room := userRoom(client.UserID)
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}

	h.log.WithUserID(client.UserID).Debug("WebSocket client unregistered")
}

// SendToUser delivers message to every connection of the user and returns
// how many connections accepted it. Connections whose buffers are full are
// dropped.
func (h *Hub) SendToUser(userID primitive.ObjectID, message Message) int {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode websocket message")
		return 0
	}

	var delivered int
	var slow []*Client

	h.mutex.RLock()
	for client := range h.rooms[userRoom(userID)] {
		select {
		case client.send <- data:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.removeClient(client)
	}

	return delivered
}

func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	h.mutex.RLock()
	_, ok := h.clients[client]
	if ok {
		select {
		case client.send <- data:
			ok = false
		default:
		}
	}
	h.mutex.RUnlock()

	// ok is still true only when the buffer was full.
	if ok {
		h.removeClient(client)
	}
}

// IsConnected reports whether the user has at least one live connection.
func (h *Hub) IsConnected(userID primitive.ObjectID) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[userRoom(userID)]) > 0
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func userRoom(userID primitive.ObjectID) string {
	return "user_" + userID.Hex()
}
