package hubclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"LiveEdge/internal/domain/models"
	applogger "LiveEdge/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client maintains a persistent hub connection with flat-delay reconnect.
// Sends are FIFO and at-most-once: envelopes written while disconnected are
// dropped silently.
type Client struct {
	url            string
	reconnectDelay time.Duration
	logger         *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a hub client for the given websocket URL.
func New(url string, reconnectDelay time.Duration, logger *applogger.Logger) *Client {
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	return &Client{
		url:            url,
		reconnectDelay: reconnectDelay,
		logger:         logger,
	}
}

// Connected reports whether a live connection exists.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Publish sends an envelope if connected, dropping it otherwise.
func (c *Client) Publish(env models.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		return nil
	}
	if err := c.conn.WriteJSON(env); err != nil {
		c.connected = false
		return err
	}
	return nil
}

// PublishPayload wraps payload in an envelope of the given kind and sends it.
func (c *Client) PublishPayload(kind string, payload interface{}) error {
	env, err := models.NewEnvelope(kind, payload)
	if err != nil {
		return err
	}
	return c.Publish(env)
}

// Run connects and keeps reading envelopes onto the returned channel until
// ctx is done, reconnecting after the configured delay on any failure.
// Malformed frames are skipped.
func (c *Client) Run(ctx context.Context) <-chan models.Envelope {
	out := make(chan models.Envelope, 256)

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := c.connect(ctx); err != nil {
				c.logger.Warn("hubclient: connect failed", applogger.Error(err))
				if !sleep(ctx, c.reconnectDelay) {
					return
				}
				continue
			}
			c.readLoop(ctx, out)
			c.disconnect()
			if !sleep(ctx, c.reconnectDelay) {
				return
			}
		}
	}()

	return out
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("hubclient: connected", applogger.String("url", c.url))
	return nil
}

func (c *Client) disconnect() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.mu.Unlock()
}

func (c *Client) readLoop(ctx context.Context, out chan<- models.Envelope) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	// Unblock ReadMessage on shutdown.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("hubclient: read failed", applogger.Error(err))
			}
			return
		}
		var env models.Envelope
		if err := json.Unmarshal(b, &env); err != nil || env.Type == "" {
			continue
		}
		select {
		case out <- env:
		case <-ctx.Done():
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
