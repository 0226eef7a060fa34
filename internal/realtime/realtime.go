// Package realtime keeps the local caches honest while other stations mutate
// shared state. It listens on the backend's websocket feed and marks the
// affected order or bill stale; the next read goes back to the server.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gapjyk-pos/waiter/internal/cache"
	"github.com/gorilla/websocket"
)

const (
	pongWait       = 60 * time.Second
	maxMessageSize = 4096

	// Reconnect backoff bounds.
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Event is one message on the feed. Payload carries the entity reference.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type entityRef struct {
	OrderID string `json:"order_id"`
	BillID  string `json:"bill_id"`
}

// Listener invalidates cached entities when the feed reports a change made
// elsewhere (kitchen station, another waiter, the cashier).
type Listener struct {
	url    string
	token  string
	orders *cache.Cache
	bills  *cache.Cache
	dialer *websocket.Dialer
}

// New creates a listener for the given feed URL. The token rides along as a
// query parameter, matching the backend's websocket auth.
func New(url, token string, orders, bills *cache.Cache) *Listener {
	return &Listener{
		url:    url,
		token:  token,
		orders: orders,
		bills:  bills,
		dialer: websocket.DefaultDialer,
	}
}

// Run connects and processes events until ctx is cancelled, reconnecting
// with backoff on connection loss.
func (l *Listener) Run(ctx context.Context) {
	var delay time.Duration
	for {
		start := time.Now()
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			log.Printf("ERROR: realtime connection: %v", err)
		}
		delay = retryDelay(delay, time.Since(start))
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// retryDelay is how long to wait before redialing. Failures back off
// exponentially; a connection that stayed up past one pongWait restarts the
// schedule so a healthy feed reconnects quickly after a single drop.
func retryDelay(previous, connectedFor time.Duration) time.Duration {
	if connectedFor >= pongWait {
		return minBackoff
	}
	next := previous * 2
	if next < minBackoff {
		next = minBackoff
	}
	if next > maxBackoff {
		next = maxBackoff
	}
	return next
}

func (l *Listener) listen(ctx context.Context) error {
	url := l.url
	if l.token != "" {
		url += "?token=" + l.token
	}
	conn, _, err := l.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Drop the read on cancellation so the loop below unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return err
			}
			return nil
		}
		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("ERROR: realtime event decode: %v", err)
			continue
		}
		l.handle(ev)
	}
}

// handle marks the referenced entity stale. Unknown event types are ignored
// so the feed can grow without breaking older clients.
func (l *Listener) handle(ev Event) {
	var ref entityRef
	if err := json.Unmarshal(ev.Payload, &ref); err != nil {
		log.Printf("ERROR: realtime payload decode for %s: %v", ev.Type, err)
		return
	}
	switch ev.Type {
	case "order.updated", "order.items_updated":
		if ref.OrderID != "" {
			l.orders.Invalidate(ref.OrderID)
		}
	case "bill.updated", "payment.created":
		if ref.BillID != "" {
			l.bills.Invalidate(ref.BillID)
		}
		if ref.OrderID != "" {
			l.orders.Invalidate(ref.OrderID)
		}
	}
}
