package manager

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /stats
func (m *GameManager) Stats(c *gin.Context) {
	queued, err := m.QueueSize(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"online": m.hub.OnlineCount(),
		"queued": queued,
		"rooms":  m.RoomCount(),
	})
}
