package events

import (
	"sync"

	"go.uber.org/zap"
)

// Hub tracks active client connections and routes events to them. It
// implements Publisher. Each connection belongs to exactly one user; a user
// may hold several connections (multiple tabs).
type Hub struct {
	register   chan *Client
	unregister chan *Client

	log *zap.SugaredLogger

	mu      sync.RWMutex
	clients map[*Client]bool
	users   map[uint64]map[*Client]bool
}

// NewHub creates a hub. Call Run in a goroutine before registering clients.
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
		clients:    make(map[*Client]bool),
		users:      make(map[uint64]map[*Client]bool),
	}
}

// Run processes register/unregister requests until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.users[client.userID] == nil {
				h.users[client.userID] = make(map[*Client]bool)
			}
			h.users[client.userID][client] = true
			h.mu.Unlock()
			h.log.Debugw("client connected", "user_id", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
			h.log.Debugw("client disconnected", "user_id", client.userID)
		}
	}
}

// PublishToUser sends the event to every connection of one user.
func (h *Hub) PublishToUser(userID uint64, event Event) {
	payload, err := marshal(event)
	if err != nil {
		h.log.Errorw("failed to marshal event", "event", event.Event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.users[userID] {
		h.sendLocked(client, payload)
	}
}

// Broadcast sends the event to all connected clients.
func (h *Hub) Broadcast(event Event) {
	payload, err := marshal(event)
	if err != nil {
		h.log.Errorw("failed to marshal event", "event", event.Event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.sendLocked(client, payload)
	}
}

// sendLocked queues the payload for one client, dropping the client if its
// send buffer is full. Callers must hold h.mu.
func (h *Hub) sendLocked(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.removeLocked(client)
	}
}

// removeLocked drops a client from all indexes. Callers must hold h.mu.
func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if conns, ok := h.users[client.userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.users, client.userID)
		}
	}
	close(client.send)
}

// ConnectionCount returns the number of active connections for a user.
func (h *Hub) ConnectionCount(userID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
