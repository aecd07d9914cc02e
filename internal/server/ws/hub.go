// Package ws bridges the event bus to WebSocket clients so the dashboard can
// render detection passes as they happen.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

const (
	// writeWait bounds a single write to a client.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before it is dropped.
	pongWait = 60 * time.Second

	// pingPeriod must stay below pongWait so pings arrive in time.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; clients only ever send pongs and
	// the occasional close, so anything large is a misbehaving peer.
	maxMessageSize = 512

	// sendBufferSize is the per-client outgoing buffer. A client that falls
	// further behind than this starts losing events.
	sendBufferSize = 256

	// replayLimit caps how many historical events a fresh client receives.
	replayLimit = 50

	// replayTimeout bounds the history fetch during the handshake.
	replayTimeout = 2 * time.Second
)

// upgrader configures the WebSocket handshake. The dashboard is a public
// read-only surface, so all origins are accepted.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// client is one connected dashboard.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans detection events out to every connected WebSocket client. It
// subscribes to the event bus once and rebroadcasts each payload; clients
// that cannot keep up are skipped, never waited on.
type Hub struct {
	bus     domain.EventBus
	channel string
	history domain.EventHistory // optional, backfills fresh clients
	logger  *slog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	mu        sync.RWMutex
	clients   map[*client]bool
	startedAt time.Time
}

// NewHub creates a hub reading events from channel on the given bus.
func NewHub(bus domain.EventBus, channel string, logger *slog.Logger) *Hub {
	return &Hub{
		bus:        bus,
		channel:    channel,
		logger:     logger.With(slog.String("component", "ws_hub")),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[*client]bool),
		startedAt:  time.Now().UTC(),
	}
}

// WithHistory enables replay: a fresh client receives the most recent events
// right after the hello frame, so the dashboard does not open onto an empty
// feed between passes.
func (h *Hub) WithHistory(history domain.EventHistory) *Hub {
	h.history = history
	return h
}

// Run pumps bus events to clients until ctx is cancelled. Call it in its own
// goroutine before serving /ws.
func (h *Hub) Run(ctx context.Context) error {
	events, err := h.bus.Subscribe(ctx, h.channel)
	if err != nil {
		return err
	}
	h.logger.Info("event feed subscribed", slog.String("channel", h.channel))

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()

		case payload, ok := <-events:
			if !ok {
				h.closeAll()
				return nil
			}
			h.fanOut(payload)

		case payload := <-h.broadcast:
			h.fanOut(payload)

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", slog.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", slog.Int("clients", n))
		}
	}
}

// Broadcast queues a payload for every connected client, bypassing the bus.
// Used for frames that only matter to dashboards, like the hello envelope.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("broadcast queue full, dropping frame")
	}
}

// ClientCount reports how many dashboards are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping frame for slow client")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// HandleWS upgrades the request and attaches the client to the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.register <- c
	c.sendHello()
	if h.history != nil {
		c.sendRecent(r.Context())
	}

	go c.writePump()
	go c.readPump()
}

// sendHello pushes a greeting frame so a fresh dashboard can show liveness
// before the first detection event arrives.
func (c *client) sendHello() {
	uptime := int64(time.Since(c.hub.startedAt).Seconds())
	if uptime < 0 {
		uptime = 0
	}
	msg, err := json.Marshal(map[string]any{
		"type": "hello",
		"payload": map[string]any{
			"connected":      true,
			"uptime_seconds": uptime,
		},
	})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// sendRecent queues the bus history tail, oldest first. The backfill stops
// at the first frame that does not fit the send buffer.
func (c *client) sendRecent(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, replayTimeout)
	defer cancel()

	events, err := c.hub.history.RecentEvents(ctx, replayLimit)
	if err != nil {
		c.hub.logger.Warn("event replay failed", slog.String("error", err.Error()))
		return
	}
	for _, ev := range events {
		payload, err := ev.Marshal()
		if err != nil {
			continue
		}
		select {
		case c.send <- payload:
		default:
			return
		}
	}
}

// readPump drains inbound frames. Clients have nothing to say beyond control
// frames; the pump exists to run the pong handler and notice closed peers.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump ships queued frames and keepalive pings to the client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
