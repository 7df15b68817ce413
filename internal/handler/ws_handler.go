package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/relay"
)

// WSHandler upgrades HTTP connections into relay sessions.
type WSHandler struct {
	hub            *relay.Hub
	maxMessageSize int64
	logger         *zap.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new handler. Origins are already filtered by the
// CORS middleware, so the upgrader accepts everything that reached it.
func NewWSHandler(hub *relay.Hub, maxMessageSize int64, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		hub:            hub,
		maxMessageSize: maxMessageSize,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve godoc
// @Summary Open a realtime relay connection
// @Description Upgrade to websocket; clients then exchange join_conversation, send_message, typing and stop_typing frames
// @Tags Relay
// @Router /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	userID := ""
	if claims := claimsFromContext(c); claims != nil {
		userID = claims.UserID
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := h.hub.OpenSession(userID)
	conn := relay.NewConn(ws, h.hub, session, h.maxMessageSize, h.logger)

	go conn.WritePump()
	go conn.ReadPump()
}
