package handlers

import (
	"net/http"
	"slices"

	"campusRankAPI/internal/realtime"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type LiveHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewLiveHandler accepts upgrades from the given origins. A "*" entry, or a
// request with no Origin header, is always allowed.
func NewLiveHandler(hub *realtime.Hub, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: zap.L().Named("live"),
	}
}

// GET /api/ws/leaderboard
func (h *LiveHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Attach(conn)
}
