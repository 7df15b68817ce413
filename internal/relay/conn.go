package relay

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Conn binds a hub session to its websocket transport.
type Conn struct {
	ws             *websocket.Conn
	hub            *Hub
	session        *Session
	maxMessageSize int64
	logger         *zap.Logger
}

// NewConn wraps an upgraded websocket connection.
func NewConn(ws *websocket.Conn, hub *Hub, session *Session, maxMessageSize int64, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxMessageSize <= 0 {
		maxMessageSize = 4096
	}
	return &Conn{ws: ws, hub: hub, session: session, maxMessageSize: maxMessageSize, logger: logger}
}

// ReadPump consumes client frames until the connection drops, then removes
// the session from the hub.
func (c *Conn) ReadPump() {
	defer func() {
		c.hub.CloseSession(c.session)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(c.maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("relay read failed", zap.String("session_id", c.session.ID), zap.Error(err))
			}
			return
		}
		c.hub.HandleFrame(c.session, raw)
	}
}

// WritePump drains the session's send channel onto the socket and keeps the
// connection alive with pings.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.session.Send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
