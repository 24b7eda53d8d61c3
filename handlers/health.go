package handlers

import (
	"net/http"
	"time"

	"musicbox/services"
	"musicbox/websocket"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	hub     websocket.Hub
	library services.Library
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(hub websocket.Hub, library services.Library) *HealthHandler {
	return &HealthHandler{
		hub:     hub,
		library: library,
	}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "musicbox",
		"version":   Version,
		"timestamp": time.Now().Unix(),
		"clients":   h.hub.ClientCount(),
	})
}

// APIStatus returns the status of the API
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Musicbox API is running",
		"music_dir": h.library.Root(),
	})
}
