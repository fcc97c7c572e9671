// Package websocket adapts gorilla/websocket connections to relay sessions.
package websocket

import (
	"encoding/json"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/relay"
	"chat-relay/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

// Client pumps frames between one websocket connection and the hub. It is
// the relay.Sender for its session: the hub pushes events into the buffered
// send channel and the write pump drains it.
type Client struct {
	hub     *relay.Hub
	conn    *websocket.Conn
	session *relay.Session
	send    chan []byte
	closed  bool // touched only by the hub goroutine, like send's closing
}

func NewClient(hub *relay.Hub, conn *websocket.Conn, identity models.Identity, sendBuffer int) (*Client, error) {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	session, err := relay.NewSession(identity, client)
	if err != nil {
		return nil, err
	}
	client.session = session
	return client, nil
}

func (c *Client) Session() *relay.Session {
	return c.session
}

// Send queues one event without blocking. A false return means the buffer
// is full and the hub should give up on this connection. Send and Close are
// only ever called from the hub goroutine.
func (c *Client) Send(ev models.ServerEvent) bool {
	if c.closed {
		return false
	}
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Error marshaling %s event: %v", ev.Type, err)
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump decodes inbound frames and dispatches them to the hub. The
// deferred unregister is the disconnect trigger: it runs no matter how the
// read loop ends.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c.session)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			break
		}

		var ev models.ClientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Debug("Malformed frame from session %s: %v", c.session.ID(), err)
			ev = models.ClientEvent{} // empty type, hub reports it as malformed
		}
		c.hub.Dispatch(c.session, ev)
	}
}

// WritePump drains the send channel to the connection and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
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
