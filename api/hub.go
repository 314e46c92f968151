// Package api exposes the engine over HTTP and WebSocket using Fiber.
package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"moment/domain/event"
)

const writeTimeout = 2 * time.Second

// envelope is the wire frame for every event pushed to clients.
type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Client wraps a websocket connection with a write lock, since
// gorilla-style connections allow only one concurrent writer.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub is the concrete Broadcaster: a per-room set of attached
// connections. Publish is fire and forget; a slow or broken client
// never blocks the caller, and failed writes are only logged.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

func (h *Hub) Register(code string, conn *websocket.Conn) *Client {
	client := &Client{conn: conn}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[code]; !ok {
		h.rooms[code] = make(map[*Client]struct{})
	}
	h.rooms[code][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(code string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[code]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Publish sends the event to every client attached to the room. Writes
// happen off the caller's goroutine so a stalled connection cannot
// delay the scheduler or a request handler.
func (h *Hub) Publish(code string, evt event.DomainEvent) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[code]))
	for client := range h.rooms[code] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	frame := envelope{Event: evt.Name(), Payload: evt}
	for _, client := range clients {
		go func(c *Client) {
			if err := c.WriteJSON(frame); err != nil {
				h.log.Debug("Dropped event for slow client", "room", code, "event", evt.Name(), "err", err)
			}
		}(client)
	}
}
