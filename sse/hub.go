package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/statekit/logger"
)

const clientBuffer = 64

// Client is one connected event-stream subscriber.
type Client struct {
	id     string
	remote string
	events chan Event
	log    *logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRemoteAddr records the peer address for logs.
func WithRemoteAddr(addr string) ClientOption {
	return func(c *Client) { c.remote = addr }
}

// NewClient creates a client with a buffered event channel.
func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{id: id, events: make(chan Event, clientBuffer), log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) RemoteAddr() string { return c.remote }

// Events is closed when the hub drops the client.
func (c *Client) Events() <-chan Event { return c.events }

// Send never blocks. It reports false when the client is too slow to keep up.
func (c *Client) Send(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		c.log.Warn("client buffer full, dropping event", logger.Fields(
			"client_id", c.id,
			"event", ev.Name,
		))
		return false
	}
}

func (c *Client) close() { close(c.events) }

type message struct {
	pattern string
	ev      Event
}

// Hub fans events out to registered clients from a single goroutine.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *logger.Logger
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates a hub. Call Run in a goroutine before registering clients.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        log.WithComponent("sse"),
	}
}

// Run blocks until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case c := <-h.register:
			c.log = h.log
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", c.id, "total_clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.id]; ok && cur == c {
				delete(h.clients, c.id)
				c.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "total_clients", n))

		case m := <-h.broadcast:
			h.deliver(m)
		}
	}
}

// Stop closes every client and makes Run return. Safe to call repeatedly.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// Register reports false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastToPattern queues ev for delivery. It drops the event once the
// hub has stopped.
func (h *Hub) BroadcastToPattern(pattern string, ev Event) {
	select {
	case h.broadcast <- message{pattern: pattern, ev: ev}:
	case <-h.done:
	}
}

func (h *Hub) deliver(m message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for id, c := range h.clients {
		ok, err := filepath.Match(m.pattern, id)
		if err != nil {
			h.log.Error("bad broadcast pattern", logger.Fields("pattern", m.pattern, "error", err.Error()))
			return
		}
		if ok && c.Send(m.ev) {
			sent++
		}
	}
	h.log.Debug("broadcast", logger.Fields("pattern", m.pattern, "event", m.ev.Name, "delivered", sent))
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
