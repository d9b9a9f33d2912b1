package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"LiveEdge/internal/domain/models"
	applogger "LiveEdge/pkg/logger"
	"LiveEdge/pkg/metrics"

	"github.com/gorilla/websocket"
)

// Options configures the Hub.
type Options struct {
	// SendBuffer is the per-connection outbound queue size.
	SendBuffer int
	// InsightLogPath is the append-only audit file for insight envelopes.
	InsightLogPath string
}

// Hub relays every received envelope to all connected clients, the sender
// included, in receipt order. A single loop goroutine owns the client set.
type Hub struct {
	opts     Options
	logger   *applogger.Logger
	recorder *metrics.Recorder
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}

	insightLog *os.File
}

type client struct {
	conn *websocket.Conn
	out  chan []byte
}

// New creates a Hub. The insight log is opened lazily on first append.
func New(opts Options, logger *applogger.Logger, recorder *metrics.Recorder) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	return &Hub{
		opts:       opts,
		logger:     logger,
		recorder:   recorder,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run drives the broadcast loop until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			if h.recorder != nil {
				h.recorder.SetConnectedClients(n)
			}
			h.logger.Info("hub: client connected", applogger.Int("clients", n))
		case c := <-h.unregister:
			h.drop(c, false)
		case msg := <-h.broadcast:
			h.fanout(msg)
		}
	}
}

// Publish injects an envelope into the broadcast stream. It is used by
// in-process producers that do not hold a websocket connection.
func (h *Hub) Publish(env models.Envelope) error {
	msg, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return context.Canceled
	}
}

func (h *Hub) fanout(msg []byte) {
	var env models.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.logger.Warn("hub: dropping malformed envelope", applogger.Error(err))
		return
	}
	if env.Type == "" {
		h.logger.Warn("hub: dropping envelope without type")
		return
	}

	if h.recorder != nil {
		h.recorder.RecordEnvelope(env.Type)
	}
	if env.IsInsight() {
		h.appendInsight(msg)
	}

	h.mu.RLock()
	stale := make([]*client, 0)
	for c := range h.clients {
		select {
		case c.out <- msg:
		default:
			// Slow consumer: never block the broadcaster.
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		if h.recorder != nil {
			h.recorder.RecordDroppedClient()
		}
		h.logger.Warn("hub: dropping slow client", applogger.Int("buffer", h.opts.SendBuffer))
		h.drop(c, true)
	}
}

func (h *Hub) drop(c *client, closeConn bool) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	close(c.out)
	if closeConn {
		c.conn.Close()
	}
	if h.recorder != nil {
		h.recorder.SetConnectedClients(n)
	}
	h.logger.Info("hub: client disconnected", applogger.Int("clients", n))
}

func (h *Hub) closeAll() {
	close(h.done)
	h.mu.Lock()
	for c := range h.clients {
		close(c.out)
		c.conn.Close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if h.insightLog != nil {
		h.insightLog.Close()
	}
}

// ServeWS upgrades an HTTP request to a hub connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("hub: upgrade failed", applogger.Error(err))
		return
	}

	c := &client{
		conn: conn,
		out:  make(chan []byte, h.opts.SendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case h.broadcast <- msg:
		case <-h.done:
			return
		}
	}
}

func (c *client) writePump() {
	for msg := range c.out {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	// out was closed: send a close frame so the peer can reconnect cleanly.
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

func (h *Hub) appendInsight(msg []byte) {
	if h.opts.InsightLogPath == "" {
		return
	}
	if h.insightLog == nil {
		f, err := os.OpenFile(h.opts.InsightLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			h.logger.Error("hub: open insight log", applogger.Error(err))
			return
		}
		h.insightLog = f
	}
	if _, err := h.insightLog.Write(append(msg, '\n')); err != nil {
		h.logger.Error("hub: append insight", applogger.Error(err))
	}
}
