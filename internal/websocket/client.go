package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one feed subscriber. A nil resource set receives every change.
type Client struct {
	hub       *Hub
	conn      *ws.Conn
	send      chan []byte
	resources map[string]struct{}
}

// NewClient creates a client that receives changes to the given
// resources, or to all of them when none are named.
func NewClient(hub *Hub, conn *ws.Conn, resources ...string) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	if len(resources) > 0 {
		c.resources = make(map[string]struct{}, len(resources))
		for _, r := range resources {
			c.resources[r] = struct{}{}
		}
	}
	return c
}

// Wants reports whether the client subscribed to resource.
func (c *Client) Wants(resource string) bool {
	if c.resources == nil {
		return true
	}
	_, ok := c.resources[resource]
	return ok
}

// Run registers the client and streams changes until the peer goes away
// or ctx ends.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	// The feed is one-way; CloseRead discards client frames and cancels
	// ctx once the peer closes.
	ctx = c.conn.CloseRead(ctx)
	c.stream(ctx)
}

func (c *Client) stream(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusGoingAway, "feed closed")
				return
			}
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
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
