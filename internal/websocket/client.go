package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is a Conn backed by a WebSocket.
type Client struct {
	id        string
	accountID string
	hub       *Hub
	conn      *ws.Conn
	send      chan []byte

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewClient creates a Client for an authenticated account with a fresh
// connection id.
func NewClient(hub *Hub, conn *ws.Conn, accountID string) *Client {
	return &Client{
		id:        uuid.NewString(),
		accountID: accountID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
}

func (c *Client) ID() string        { return c.id }
func (c *Client) AccountID() string { return c.accountID }

// Send enqueues msg for the write pump. A full buffer means the peer is not
// keeping up and is reported as an error.
func (c *Client) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump, which then closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

// Run sends the hello frame, registers the client, and pumps until either
// side goes away. It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	greeting, _ := json.Marshal(hello{Action: "hello", ConnectionID: c.id})
	c.send <- greeting

	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(ctx, msg); err != nil {
				c.conn.CloseNow()
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				c.conn.CloseNow()
				return
			}
		case <-c.done:
			// Dropped by the hub, usually for falling behind.
			c.conn.Close(ws.StatusTryAgainLater, "dropped")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
