package feed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dreamsnap-booth/internal/storage"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

const MsgPhotoNew = "photo.new"

// Message is what gallery screens receive over the websocket.
type Message struct {
	Type      string                `json:"type"`
	EventID   string                `json:"eventId"`
	Photo     *storage.GalleryPhoto `json:"photo,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// screen is one connected gallery display.
type screen struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	eventID string
}

// Hub tracks connected screens per event and pushes new photos to them.
// The client map is owned by Run.
type Hub struct {
	clients    map[string]map[*screen]bool
	broadcast  chan *Message
	register   chan *screen
	unregister chan *screen

	mu      sync.RWMutex
	counted map[string]int

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		clients:    make(map[string]map[*screen]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *screen),
		unregister: make(chan *screen),
		counted:    make(map[string]int),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for c := range clients {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*screen]bool)
			h.recount()
			return nil

		case c := <-h.register:
			if h.clients[c.eventID] == nil {
				h.clients[c.eventID] = make(map[*screen]bool)
			}
			h.clients[c.eventID][c] = true
			h.recount()

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			payload := mustMarshal(h.logger, msg)
			for c := range h.clients[msg.EventID] {
				select {
				case c.send <- payload:
				default:
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *screen) {
	clients, ok := h.clients[c.eventID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.eventID)
	}
	h.recount()
}

func (h *Hub) recount() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counted = make(map[string]int, len(h.clients))
	for id, clients := range h.clients {
		h.counted[id] = len(clients)
	}
}

// Clients reports how many screens are watching eventID.
func (h *Hub) Clients(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counted[eventID]
}

// PhotoAdded queues a photo.new push. It never blocks the caller.
func (h *Hub) PhotoAdded(p storage.GalleryPhoto) {
	msg := &Message{Type: MsgPhotoNew, EventID: p.EventID, Photo: &p, Timestamp: time.Now().UTC()}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("gallery broadcast queue full", "event_id", p.EventID)
	}
}

// Serve attaches conn to the hub and pumps until the screen disconnects.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, eventID string) {
	c := &screen{hub: h, conn: conn, send: make(chan []byte, sendBuffer), eventID: eventID}
	select {
	case h.register <- c:
	case <-ctx.Done():
		_ = conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

// readPump only watches for close and pong frames; screens never talk back.
func (c *screen) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-time.After(writeWait):
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Debug("gallery socket closed", "event_id", c.eventID, "err", err)
			}
			return
		}
	}
}

func (c *screen) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func mustMarshal(logger *slog.Logger, v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal", "err", err)
		return []byte("{}")
	}
	return b
}
