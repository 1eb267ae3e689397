package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// Dashboard viewers only ever send control frames; the limits below are sized
// for a receive-only peer that must answer pings.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 4 * 1024

	// sendQueue is how many events or frames a viewer may lag behind
	// before the hub gives up on it.
	sendQueue = 16
)

// Client is one dashboard viewer subscribed to a hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient subscribes conn to h. It returns nil when h has already stopped,
// in which case the caller should just let the connection close.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	c := &Client{hub: h, conn: conn, send: make(chan Message, sendQueue)}
	select {
	case h.register <- c:
		return c
	case <-h.done:
		return nil
	}
}

// Run pumps queued messages out to the viewer and blocks until the
// connection drops. Call it from the websocket handler.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
	c.conn.Close()
}

// readPump discards inbound data. Reading is still needed to see pongs and
// notice a viewer closing the tab.
func (c *Client) readPump() {
	defer c.leave()

	c.conn.SetReadLimit(maxInboundSize)
	extend := func() { c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	extend()
	c.conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump owns all writes on the connection.
func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		var (
			op   int
			data []byte
		)
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Dropped by the hub or the session ended
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			op, data = msg.wsType(), msg.Data
		case <-ping.C:
			op = websocket.PingMessage
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(op, data); err != nil {
			return
		}
	}
}
