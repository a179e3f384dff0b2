package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"coachlink/messaging/internal/server/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The relay is origin-agnostic; access control is the bearer token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket authenticates the bearer token and upgrades the connection
// into a hub client.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	participantID, _, ok := h.authenticate(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := hub.NewWebSocketClient(h.Hub, participantID, conn)
	h.Hub.RegisterCh <- client
	client.Run()
}
