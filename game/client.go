package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vonjunge/skribbl-clone/shared/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 25 * time.Second
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

// Client wraps one websocket connection. Its id is the connection identity
// the router binds to a (room, player) pair. Inbound messages pass a
// per-connection rate limiter sized to tolerate live drawing traffic while
// shedding floods.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	router  *Router

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(conn *websocket.Conn, router *Router) *Client {
	return &Client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		limiter: rate.NewLimiter(rate.Limit(100), 200),
		router:  router,
		closed:  make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// ReadPump decodes inbound envelopes and hands them to the router until the
// connection drops, then reports the disconnect.
func (c *Client) ReadPump() {
	defer func() {
		c.router.HandleDisconnect(c)
		c.Close()
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
			return
		}

		if !c.limiter.Allow() {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Debugf("client %s: dropping malformed message: %v", c.id, err)
			continue
		}
		c.router.Dispatch(c, env)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// Send marshals one envelope onto the outbound queue. A client that cannot
// keep up has its message dropped rather than blocking the room.
func (c *Client) Send(msgType MessageType, payload any) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			logger.Criticalf("client %s: marshal %s: %v", c.id, msgType, err)
			return
		}
	}
	frame, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		logger.Criticalf("client %s: marshal envelope %s: %v", c.id, msgType, err)
		return
	}

	select {
	case c.send <- frame:
	default:
		logger.Warningf("client %s: send queue full, dropping %s", c.id, msgType)
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
