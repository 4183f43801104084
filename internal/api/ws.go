package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 2 * time.Second,
	// The API is LAN-facing; cross-origin browser clients are expected.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 5 * time.Second

// wsEvents streams bus events over a websocket. Like the SSE feed, the
// client gets the current zone states first, then live events.
func (h *Handlers) wsEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("ws: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	id := uuid.New().String()
	ch := h.bus.Subscribe(id)
	defer h.bus.Unsubscribe(id)

	for _, zc := range h.registry.List() {
		if err := writeWS(conn, zoneView(zc)); err != nil {
			return
		}
	}

	// Drain client frames so pings/close are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeWS(conn, ev); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeWS(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}
