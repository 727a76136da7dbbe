package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 64 * 1024           // Media rides as references, but SDP offers get bulky.
)

// Client is a middleman between one websocket connection and the relay.
type Client struct {
	relay *Relay
	conn  *websocket.Conn

	// Buffered channel of outbound frames. Written to from many
	// goroutines, so enqueue and closeSend share the client mutex;
	// nothing sends on a closed channel.
	send chan []byte

	// authSubject is the verified token subject from the upgrade
	// request, used only when ownership enforcement is on.
	authSubject string

	mu     sync.Mutex
	userID string // set by register-user
	closed bool
	rooms  map[string]bool
}

func newClient(relay *Relay, conn *websocket.Conn) *Client {
	return &Client{
		relay: relay,
		conn:  conn,
		send:  make(chan []byte, 256),
		rooms: make(map[string]bool),
	}
}

// Send queues an event for delivery. A client whose buffer is full is
// considered dead and gets dropped by the write pump shortly after.
// Safe to call after disconnect; frames for a closed client are dropped.
func (c *Client) Send(event string, payload any) {
	frame, err := json.Marshal(OutEnvelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("❌ marshal %s: %v", event, err)
		return
	}
	c.enqueue(event, frame)
}

func (c *Client) enqueue(event string, frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		log.Printf("⚠️ dropping %s: client %q send buffer full", event, c.userID)
	}
}

// closeSend shuts the outbound channel exactly once. Must be the only
// place the channel is closed; it holds the same mutex enqueue does.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) setUser(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

func (c *Client) user() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) joinedRoom(roomID string) {
	c.mu.Lock()
	c.rooms[roomID] = true
	c.mu.Unlock()
}

func (c *Client) joinedRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	return ids
}

// readPump pumps events from the websocket connection into the relay.
// Events from one connection are dispatched in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.relay.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("⚠️ unreadable frame from %q: %v", c.user(), err)
			continue
		}
		c.relay.dispatch(c, env)
	}
}

// writePump pumps frames from the send channel out to the websocket
// connection and keeps the heartbeat alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
