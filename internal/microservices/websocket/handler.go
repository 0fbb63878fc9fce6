package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// clients are authenticated by token, not by origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades an authenticated request and registers the connection
// for the caller. The auth middleware must have set "userID" beforehand.
func WSHandler(registry *Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get("userID")
		userID, ok := raw.(int64)
		if !exists || !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: user ID not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			logger.Warn("websocket upgrade failed", zap.Int64("user_id", userID), zap.Error(err))
			return
		}

		client := NewClient(userID, conn, logger)
		if err := registry.Register(userID, client); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				deadline())
			_ = conn.Close()
			return
		}

		if hello, err := NewHelloMessage().ToJSON(); err == nil {
			_ = client.Send(hello)
		}

		go client.WritePump()
		go client.ReadPump(registry)
	}
}
