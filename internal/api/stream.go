package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"adisglobe/pkg/events"
	"adisglobe/pkg/model"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

// StreamHandler upgrades to a websocket and forwards hub messages as JSON.
type StreamHandler struct {
	hub      *events.Hub
	current  func() (model.Selection, bool)
	upgrader websocket.Upgrader
}

// NewStreamHandler streams hub messages. current, when set, supplies the
// selection sent to a client right after it connects.
func NewStreamHandler(hub *events.Hub, current func() (model.Selection, bool)) *StreamHandler {
	return &StreamHandler{
		hub:     hub,
		current: current,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Same-host UI and local tools only; no browser origin policy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Warn("Selection stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	msgs := h.hub.Subscribe(id)
	defer h.hub.Unsubscribe(id)
	slog.Info("Selection stream connected", "client", id, "remote", r.RemoteAddr)

	// The read side only handles control frames and notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if h.current != nil {
		if sel, ok := h.current(); ok {
			if err := writeMessage(conn, events.SelectionMessage(sel)); err != nil {
				return
			}
		}
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			slog.Info("Selection stream disconnected", "client", id)
			return
		case msg, ok := <-msgs:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeMessage(conn, msg); err != nil {
				slog.Warn("Selection stream write failed", "client", id, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, msg events.Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
