package ws

import (
	"encoding/json"
	"sync"
	"time"

	"opschecklist/internal/feed"
	"opschecklist/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Client streams feed events for one subscription over a websocket. The
// connection owns the subscription: when the socket closes, the
// subscription is closed with it, which is what keeps unmounted views from
// leaking feed handles.
type Client struct {
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte

	sub       *feed.Subscription
	closeOnce sync.Once
}

func NewClient(userID int64, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// Attach hands the client its feed subscription. Must be called before Run.
func (c *Client) Attach(sub *feed.Subscription) {
	c.sub = sub
}

// Push queues a feed event for delivery. Called from the subscription's
// dispatch goroutine; a slow socket gets events dropped, not the feed
// stalled.
func (c *Client) Push(ev feed.Event) {
	msg, err := json.Marshal(Envelope{Type: MsgChange, Collection: ev.Collection, Event: ev})
	if err != nil {
		return
	}
	select {
	case c.Send <- msg:
	default:
		logger.Warn("ws send buffer full, dropping event", "user", c.UserID)
	}
}

// Run starts the write pump and blocks on the read pump until disconnect.
func (c *Client) Run(collection string) {
	go c.writePump()

	ready, _ := json.Marshal(Envelope{Type: MsgReady, Collection: collection})
	select {
	case c.Send <- ready:
	case <-time.After(500 * time.Millisecond):
		logger.Warn("ws: timeout queuing ready", "user", c.UserID)
	}

	c.readPump()
}

// readPump consumes (and ignores) client messages; its job is to detect
// disconnects and keep the pong deadline fresh.
func (c *Client) readPump() {
	defer c.close()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.sub != nil {
			c.sub.Close()
		}
		_ = c.Conn.Close()
	})
}
