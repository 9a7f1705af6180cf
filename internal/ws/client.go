package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxFrameSize   = 64 << 10
	sendBufferSize = 64
)

// Conn is the view of a live connection handed to event handlers.
type Conn interface {
	Subscriber
	ID() string
	Session() *Session
}

// Client wraps one websocket connection with its outbound queue and
// session state. Outbound frames flow through a buffered channel
// drained by the write pump, so a slow reader only loses its own
// frames.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	closer  sync.Once
	session Session
}

// NewClient wraps an upgraded websocket connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// ID is the transport connection identifier.
func (c *Client) ID() string { return c.id }

// Session returns the connection's mutable session state.
func (c *Client) Session() *Session { return &c.session }

// Deliver queues a frame for the write pump without blocking. Frames
// for a connection whose buffer is full are dropped.
func (c *Client) Deliver(frame []byte) {
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		zap.S().Debugw("dropping frame for slow client", "conn_id", c.id)
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.closer.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump serializes all writes to the connection: queued frames plus
// keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
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
