package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JonMunkholm/restroom-map/internal/core"
	"github.com/JonMunkholm/restroom-map/internal/logging"
)

const hubWriteWait = 2 * time.Second

// SnapshotEvent is pushed to websocket clients after every successful load.
type SnapshotEvent struct {
	Type       string         `json:"type"` // "snapshot.refreshed"
	SnapshotID string         `json:"snapshot_id"`
	LoadedAt   time.Time      `json:"loaded_at"`
	Stale      bool           `json:"stale"`
	Stats      core.LoadStats `json:"stats"`
}

// HubStats reports connected clients.
type HubStats struct {
	Clients int `json:"clients"`
}

// Hub fans snapshot events out to connected map pages.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates a hub. Browsers are accepted from any origin in
// allowedOrigins; an empty list only accepts same-host connections.
func NewHub(allowedOrigins []string) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] || allowed[origin] {
					return true
				}
				return origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

func (h *Hub) add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// BroadcastJSON writes v to every client, dropping clients whose write fails.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("hub: encode event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.clients {
		_ = ws.SetWriteDeadline(time.Now().Add(hubWriteWait))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}

// NotifySnapshot is registered with core.Service.OnSnapshot.
func (h *Hub) NotifySnapshot(snap *core.Snapshot) {
	h.BroadcastJSON(SnapshotEvent{
		Type:       "snapshot.refreshed",
		SnapshotID: snap.ID,
		LoadedAt:   snap.LoadedAt,
		Stale:      snap.Stale,
		Stats:      snap.Stats,
	})
}

// Stats returns the current client count.
func (h *Hub) Stats() HubStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HubStats{Clients: len(h.clients)}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.clients {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(hubWriteWait))
		_ = ws.Close()
		delete(h.clients, ws)
	}
}

// ServeHTTP upgrades the request and holds the connection until the client
// goes away. Incoming messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	// Welcome goes out before add so it never races a broadcast write.
	_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome","transport":"websocket"}`))

	h.add(ws)
	logger.Debug("websocket client connected", "clients", h.Stats().Clients)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(ws)
	logger.Debug("websocket client disconnected")
}
