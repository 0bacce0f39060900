package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/server/websocket"
	"github.com/minzf581/IPProxy-sub000/pkg/config"
)

type WebSocketHandler struct {
	hub      *websocket.WsHub
	upgrader gorillaws.Upgrader
	logger   zerolog.Logger
}

func NewWebSocketHandler(hub *websocket.WsHub, cfg config.WebSocketConfig, logger zerolog.Logger) *WebSocketHandler {
	upgrader := gorillaws.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
	}
	if !cfg.CheckOrigin {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return &WebSocketHandler{
		hub:      hub,
		upgrader: upgrader,
		logger:   logger,
	}
}

// HandleConnection upgrades a dashboard session and subscribes it to order
// status events for one user.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("WebSocket upgrade failed")
		return
	}

	client := &websocket.WsClient{UserID: userID, Conn: conn}
	h.hub.Register <- client

	// Drain reads so close frames are processed; the hub owns writes.
	go func() {
		defer func() {
			h.hub.Unregister <- client
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
