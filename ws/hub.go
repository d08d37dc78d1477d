package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"hanamikoji-server/config"
	"hanamikoji-server/room"
)

// Hub owns the set of live connections and the room registry they address.
// It does not touch game.State itself — every room is its own single-writer
// goroutine; the hub only accepts connections and routes their frames.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Registry   *room.Registry
	Config     *config.Config
	Log        *slog.Logger

	upgrader websocket.Upgrader
}

// NewHub creates a new Hub bound to reg and cfg.
func NewHub(cfg *config.Config, reg *room.Registry, log *slog.Logger) *Hub {
	originAllowed := buildOriginCheck(cfg.CORSOrigins)
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Registry:   reg,
		Config:     cfg,
		Log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originAllowed,
		},
	}
}

func buildOriginCheck(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		return set[r.Header.Get("Origin")]
	}
}

// Run starts the hub's bookkeeping loop. Should be run as its own goroutine.
// When ctx is cancelled, Run stops accepting new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.Log.Info("hub shutdown signal received", "tag", "hub")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			h.Log.Info("client connected", "tag", "hub", "total", len(h.Clients))
		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				h.Log.Info("client disconnected", "tag", "hub", "total", len(h.Clients))
				client.detachFromRoom()
			}
		}
	}
}

// ServeWS upgrades the HTTP request to a WebSocket connection and wires up a
// Client around it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "tag", "hub", "err", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
