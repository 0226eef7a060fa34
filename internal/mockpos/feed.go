package mockpos

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FeedEvent is one change notification pushed to connected clients.
type FeedEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Feed broadcasts change events to every connected websocket client. Clients
// only listen; inbound messages are used to detect disconnects.
type Feed struct {
	mu      sync.Mutex
	clients map[*feedClient]bool
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{clients: make(map[*feedClient]bool)}
}

// Broadcast queues an event for every connected client. A client whose
// buffer is full gets dropped.
func (f *Feed) Broadcast(eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: feed payload encode: %v", err)
		return
	}
	message, err := json.Marshal(FeedEvent{Type: eventType, Payload: raw})
	if err != nil {
		log.Printf("ERROR: feed event encode: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		select {
		case c.send <- message:
		default:
			close(c.send)
			delete(f.clients, c)
		}
	}
}

// ServeWS upgrades the request and registers the client on the feed.
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR: websocket upgrade: %v", err)
		return
	}
	c := &feedClient{conn: conn, send: make(chan []byte, 64)}
	f.mu.Lock()
	f.clients[c] = true
	f.mu.Unlock()

	go c.writePump()
	go c.readPump(f)
}

func (f *Feed) drop(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clients[c] {
		delete(f.clients, c)
		close(c.send)
	}
}

func (c *feedClient) readPump(f *Feed) {
	defer func() {
		f.drop(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
