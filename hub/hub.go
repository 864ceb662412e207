// Package hub carries tileui frames and touches over websockets. Every
// connection is one user: it reports its position and touches, and receives
// the frames of the interfaces around it.
package hub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/phanxgames/tileui"
)

const writeWait = 5 * time.Second

// Message types.
const (
	TypeWelcome     = "welcome"
	TypePosition    = "position"
	TypeTouch       = "touch"
	TypeTouchResult = "touch_result"
	TypeFrame       = "frame"
)

// Envelope is the wire form of every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Welcome is sent once per connection.
type Welcome struct {
	User int    `json:"user"`
	Conn string `json:"conn"`
}

// Position reports where the user stands in the world.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Touch is one touch sent by a client.
type Touch struct {
	X     int               `json:"x"`
	Y     int               `json:"y"`
	State tileui.TouchState `json:"state"`
}

// TouchResult answers a Touch.
type TouchResult struct {
	Consumed bool              `json:"consumed"`
	State    tileui.TouchState `json:"state"`
}

// Frame carries the composed tiles of one region.
type Frame struct {
	Root     string        `json:"root"`
	Region   tileui.Rect   `json:"region"`
	Revision uint64        `json:"revision"`
	Tiles    []tileui.Tile `json:"tiles"`
}

type client struct {
	id   uuid.UUID
	user int
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (c *client) send(typ string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(Envelope{Type: typ, Payload: raw})
}

// Hub routes between websocket clients and a UI. It is the UI's Drawer.
type Hub struct {
	ui     *tileui.UI
	logger *slog.Logger

	mu       sync.Mutex
	clients  map[int]*client
	nextUser int
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// New creates a hub and installs it as ui's Drawer.
func New(ui *tileui.UI, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{ui: ui, logger: logger, clients: make(map[int]*client), nextUser: 1}
	ui.SetDrawer(h)
	return h
}

// DrawFrame sends f to user's connection, if any.
func (h *Hub) DrawFrame(user int, f tileui.Frame) {
	h.mu.Lock()
	c, ok := h.clients[user]
	h.mu.Unlock()
	if !ok {
		return
	}
	err := c.send(TypeFrame, Frame{Root: f.Root.Name, Region: f.Region, Revision: f.Revision, Tiles: f.Tiles})
	if err != nil {
		h.logger.Warn("hub: frame write failed", "user", user, "conn", c.id, "err", err)
		_ = c.conn.Close()
	}
}

// Users returns the connected user indices.
func (h *Hub) Users() []int {
	h.mu.Lock()
	out := make([]int, 0, len(h.clients))
	for u := range h.clients {
		out = append(out, u)
	}
	h.mu.Unlock()
	sort.Ints(out)
	return out
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[int]*client)
	h.mu.Unlock()
	for _, c := range clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) add(conn *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &client{id: uuid.New(), user: h.nextUser, conn: conn}
	h.nextUser++
	h.clients[c.user] = c
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c.user] == c {
		delete(h.clients, c.user)
	}
	h.mu.Unlock()
	h.ui.RemovePlayer(c.user)
}

// Handler upgrades requests to websocket connections and serves them until
// they close.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("hub: upgrade failed", "err", err)
			return
		}
		c := h.add(conn)
		h.logger.Info("hub: connected", "user", c.user, "conn", c.id)
		defer func() {
			h.remove(c)
			_ = conn.Close()
			h.logger.Info("hub: disconnected", "user", c.user, "conn", c.id)
		}()

		if err := c.send(TypeWelcome, Welcome{User: c.user, Conn: c.id.String()}); err != nil {
			return
		}
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				var ce *websocket.CloseError
				if !errors.As(err, &ce) {
					h.logger.Debug("hub: read failed", "user", c.user, "err", err)
				}
				return
			}
			if err := h.handle(c, payload); err != nil {
				h.logger.Warn("hub: bad message", "user", c.user, "err", err)
			}
		}
	}
}

func (h *Hub) handle(c *client, payload []byte) error {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	switch env.Type {
	case TypePosition:
		var p Position
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.ui.SetPlayerPosition(c.user, p.X, p.Y)
	case TypeTouch:
		var t Touch
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return err
		}
		consumed := h.ui.Touched(c.user, t.X, t.Y, t.State)
		return c.send(TypeTouchResult, TouchResult{Consumed: consumed, State: t.State})
	default:
		return errors.New("unknown message type " + env.Type)
	}
	return nil
}
