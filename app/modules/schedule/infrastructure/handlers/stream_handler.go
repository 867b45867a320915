package schedulehandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/polp-online/schedule-service/app/stream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler upgrades clients to a websocket and pushes subscriber
// count updates until they disconnect.
type StreamHandler struct {
	registry *stream.Registry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewStreamHandler creates the count stream handler over the given
// registry.
func NewStreamHandler(registry *stream.Registry, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// HandleCountStream attaches an observer for the lifetime of the
// connection. The observer is detached deterministically when the
// connection drops, so a dead client never leaves a stale registry
// entry behind.
func (h *StreamHandler) HandleCountStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	observer := h.registry.Attach()
	defer h.registry.Detach(observer)

	// The read pump only exists to notice the peer going away; clients
	// never send data on this stream.
	disconnected := make(chan struct{})
	go h.readPump(conn, disconnected)

	h.writePump(r, conn, observer, disconnected)
}

func (h *StreamHandler) readPump(conn *websocket.Conn, disconnected chan<- struct{}) {
	defer close(disconnected)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("count stream read error", slog.Any("error", err))
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(r *http.Request, conn *websocket.Conn, observer *stream.Observer, disconnected <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-disconnected:
			return
		case update := <-observer.Updates():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(update); err != nil {
				h.logger.Debug("count stream write failed",
					slog.String("observer_id", observer.ID().String()),
					slog.Any("error", err),
				)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
