package ws

import (
	"context"
	"encoding/json"
	"sync"

	"chat-relay/internal/bus"
	"chat-relay/internal/presence"
)

// Hub owns the connection state: the set of live clients, the room
// subscriptions and the presence registry. Handlers run on each
// connection's read pump, so every map here is guarded.
type Hub struct {
	Presence *presence.Registry
	bus      bus.Bus

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
}

func NewHub(registry *presence.Registry, eventBus bus.Bus) *Hub {
	return &Hub{
		Presence: registry,
		bus:      eventBus,
		clients:  make(map[*Client]bool),
		rooms:    make(map[string]map[*Client]bool),
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

// removeClient drops the client from every room and from the client
// set. Presence removal happens in the relay, bound to the connection.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for _, roomID := range c.joinedRooms() {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	c.closeSend()
}

// JoinRoom subscribes the connection to a room channel. Subscription is
// explicit; it is not derived from the stored member list.
func (h *Hub) JoinRoom(c *Client, roomID string) {
	if roomID == "" {
		return
	}
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	h.mu.Unlock()
	c.joinedRoom(roomID)
}

// BroadcastRoom fans an event out to every connection subscribed to the
// room, including the sender's.
func (h *Hub) BroadcastRoom(roomID, event string, payload any) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.Send(event, payload)
	}
}

// NotifyUser delivers an event to the user's registered connection, if
// any. Implements the call service's Notifier.
func (h *Hub) NotifyUser(userID, event string, payload any) {
	if conn := h.Presence.Lookup(userID); conn != nil {
		conn.Send(event, payload)
	}
}

// PublishGlobal puts an event on the bus for delivery to every
// connected client subscribed to the bus channel.
func (h *Hub) PublishGlobal(ctx context.Context, event string, payload any) error {
	frame, err := json.Marshal(OutEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	return h.bus.Publish(ctx, frame)
}

// RunBusFanout forwards bus traffic to every connected client until the
// context is cancelled. Run it once, from main.
func (h *Hub) RunBusFanout(ctx context.Context) {
	for frame := range h.bus.Subscribe(ctx) {
		h.mu.RLock()
		targets := make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
		h.mu.RUnlock()

		for _, c := range targets {
			c.enqueue("bus frame", frame)
		}
	}
}
