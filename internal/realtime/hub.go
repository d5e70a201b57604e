// Package realtime broadcasts table-level change events to WebSocket
// subscribers so clients can refetch instead of polling.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nest/backend/pkg/redis"
)

const (
	// changesChannel is the Redis pub/sub channel bridging events across
	// API instances.
	changesChannel = "nest:changes"

	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	clientBuffer   = 64
	broadcastQueue = 256
)

// Event is one committed mutation, addressed by table. ID may be "*" when
// a bulk write touched many rows.
type Event struct {
	Table  string    `json:"table"`
	Action string    `json:"action"` // INSERT | UPDATE | DELETE
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
}

// Client is one WebSocket subscriber. An optional table filter limits
// which events it receives.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	tables map[string]bool // nil means all tables
}

func (c *client) wants(table string) bool {
	return c.tables == nil || c.tables[table]
}

// Hub fans change events out to connected clients. With Redis available,
// events round-trip through pub/sub so every API instance sees mutations
// committed by the others; each client still receives exactly one event
// per mutation.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{} // closed when Run returns
	rdb        *redis.Client // nil in single-instance mode
	logger     *zap.Logger
	mu         sync.RWMutex

	upgrader websocket.Upgrader
}

// NewHub creates the hub. Pass a nil Redis client for single-instance
// local broadcast.
func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, broadcastQueue),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Publish sends one change event. With Redis, the event goes out on the
// shared channel only and comes back through the subscription, so it is
// never delivered twice to the same client.
func (h *Hub) Publish(table, action, id string) {
	ev := Event{Table: table, Action: action, ID: id, At: time.Now()}

	if h.rdb != nil {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.rdb.Publish(ctx, changesChannel, payload); err != nil {
			h.logger.Warn("publish change event failed", zap.Error(err))
		}
		return
	}

	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("change event dropped, broadcast queue full",
			zap.String("table", table))
	}
}

// Run drives the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeLoop(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client connected",
				zap.String("client_id", c.id), zap.Int("total", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) subscribeLoop(ctx context.Context) {
	sub := h.rdb.Subscribe(ctx, changesChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.logger.Warn("bad change event payload", zap.Error(err))
				continue
			}
			select {
			case h.broadcast <- ev:
			default:
			}
		}
	}
}

func (h *Hub) deliver(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.wants(ev.Table) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop the connection rather than block the hub.
			go func(c *client) { h.drop(c) }(c)
		}
	}
}

// drop hands a client to the unregister loop without blocking forever
// once the hub has shut down.
func (h *Hub) drop(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

// ClientCount reports connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and pumps events until the peer leaves.
// A "tables" query param (comma-separated) narrows the subscription.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	if raw := c.Query("tables"); raw != "" {
		cl.tables = make(map[string]bool)
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cl.tables[t] = true
			}
		}
	}

	select {
	case h.register <- cl:
	case <-h.done:
		conn.Close()
		return
	}
	go cl.writePump()
	go cl.readPump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	// Inbound messages are ignored; the socket is downstream-only.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
