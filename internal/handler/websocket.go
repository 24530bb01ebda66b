package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"ride_share/internal/ws"
	"ride_share/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the CORS layer in front
	},
}

type WebSocketHandler struct {
	hub *ws.Hub
	log logger.Logger
}

func NewWebSocketHandler(hub *ws.Hub, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		log: log,
	}
}

// Handle upgrades the connection and runs the pumps. Identity is bound
// later by the join-trip event, mirroring the client contract.
func (h *WebSocketHandler) Handle(c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := ws.NewConn(h.hub, sock, h.log)
	h.hub.Register(conn)

	go conn.WritePump()
	conn.ReadPump()
}
