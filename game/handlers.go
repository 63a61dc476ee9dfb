package game

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vonjunge/skribbl-clone/shared/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Cross-origin policy is enforced by the CORS middleware in front of
	// the engine, not per-upgrade.
	CheckOrigin: func(*http.Request) bool { return true },
}

// RegisterRoutes mounts the health probe, the room lookup used by join
// screens, and the websocket endpoint every game session runs over.
func RegisterRoutes(engine *gin.Engine, registry *Registry, router *Router) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"rooms":     registry.Count(),
			"timestamp": time.Now().UnixMilli(),
		})
	})

	engine.GET("/room/:roomId", func(c *gin.Context) {
		roomID := c.Param("roomId")
		room, ok := registry.Room(roomID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"roomId":     room.ID(),
			"players":    room.PlayerCount(),
			"maxPlayers": MaxPlayers,
			"state":      room.State(),
		})
	})

	engine.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warningf("websocket upgrade failed: %v", err)
			return
		}

		client := NewClient(conn, router)
		logger.Debugf("client %s connected from %s", client.ID(), c.ClientIP())

		go client.WritePump()
		go client.ReadPump()
	})
}
