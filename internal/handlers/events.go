package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joshrakosky/fmg-pick/internal/broadcast"
)

const eventWriteTimeout = 5 * time.Second

// eventClient wraps one tab's connection. Writes go through send, which
// serializes them: broadcasts arrive on whichever goroutine published, and
// gorilla allows at most one concurrent writer per connection.
type eventClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *eventClient) send(frame broadcast.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	return c.conn.WriteJSON(frame)
}

// EventsHandler bridges the broadcast channel to browser tabs: every open
// tab holds a websocket, and each change notification is relayed as one
// JSON frame. Tabs that miss frames reconcile through the /api/orders poll.
type EventsHandler struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*eventClient]bool

	detach func()
}

// NewEventsHandler subscribes to the channel. Call Close to detach.
func NewEventsHandler(channel broadcast.Channel) (*EventsHandler, error) {
	h := &EventsHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The default CheckOrigin rejects cross-origin dials; the CSRF
			// layer guards the mutations.
		},
		clients: make(map[*eventClient]bool),
	}

	detach, err := channel.Subscribe(h.relay)
	if err != nil {
		return nil, err
	}
	h.detach = detach
	return h, nil
}

// Close detaches from the channel and drops every client.
func (h *EventsHandler) Close() {
	if h.detach != nil {
		h.detach()
		h.detach = nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
	h.clients = make(map[*eventClient]bool)
}

// relay fans one change notification out to every connected tab. The inline
// payload is stripped: tabs re-fetch, the same way stores re-read the slot.
func (h *EventsHandler) relay(msg broadcast.Message) {
	frame := broadcast.Message{Type: msg.Type}

	h.mu.Lock()
	clients := make([]*eventClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(frame); err != nil {
			slog.Debug("Dropping events client", "error", err)
			h.remove(c)
		}
	}
}

func (h *EventsHandler) remove(c *eventClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.conn.Close()
}

// ServeHTTP upgrades the request and parks the connection until the tab
// goes away.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err, "ip", r.RemoteAddr)
		return
	}

	c := &eventClient{conn: conn}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	// Reader loop only detects close; tabs never send anything meaningful.
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
