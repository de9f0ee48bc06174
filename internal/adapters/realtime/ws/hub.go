// Package ws implementa el Publisher de realtime sobre websockets.
// Cada cliente queda suscrito a su room de usuario y al de su rol; un
// socket lento no bloquea a nadie: si su buffer se llena, se lo desconecta.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"crm-backend/internal/domain/visibility"
	"crm-backend/internal/platform/logger"
	"crm-backend/internal/ports/realtime"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
	pongTimeout  = 60 * time.Second
	pingPeriod   = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// el backend no sirve el frontend; el origin se controla en el proxy
	CheckOrigin: func(*http.Request) bool { return true },
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	rooms []string
}

type Hub struct {
	mu      sync.Mutex
	rooms   map[string]map[*client]bool
	clients map[*client]bool
	log     logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop{}
	}
	return &Hub{
		rooms:   make(map[string]map[*client]bool),
		clients: make(map[*client]bool),
		log:     log,
	}
}

// Publish implementa realtime.Publisher. Room vacío = broadcast.
func (h *Hub) Publish(_ context.Context, ev realtime.Event) {
	payload, err := json.Marshal(struct {
		Event   string `json:"event"`
		Payload any    `json:"payload"`
	}{Event: ev.Name, Payload: ev.Payload})
	if err != nil {
		h.log.Warn("ws: marshal event", map[string]any{"event": ev.Name, "err": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := h.clients
	if ev.Room != "" {
		targets = h.rooms[ev.Room]
	}
	for c := range targets {
		select {
		case c.send <- payload:
		default:
			// buffer lleno: cliente fuera
			h.dropLocked(c)
		}
	}
}

// AuthFunc resuelve el actor de la conexión entrante (token en query o
// header, según cómo lo monte el router).
type AuthFunc func(r *http.Request) (visibility.Actor, error)

// Handler upgradea la conexión y la suscribe a los rooms del actor.
func (h *Hub) Handler(auth AuthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := auth(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		c := &client{
			conn: conn,
			send: make(chan []byte, sendBuffer),
			rooms: []string{
				realtime.UserRoom(actor.ID),
				realtime.RoleRoom(string(actor.Role)),
			},
		}
		h.register(c)

		go h.writePump(c)
		go h.readPump(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
	for _, room := range c.rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*client]bool)
		}
		h.rooms[room][c] = true
	}
}

// dropLocked saca al cliente de todos los rooms. Requiere h.mu tomado.
func (h *Hub) dropLocked(c *client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	for _, room := range c.rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump descarta lo que mande el cliente; solo existe para detectar el
// cierre y mantener vivos los pongs.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.drop(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
