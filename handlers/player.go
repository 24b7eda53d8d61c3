package handlers

import (
	"net/http"

	"musicbox/services"

	"github.com/gin-gonic/gin"
)

// PlayerHandler handles player state endpoints
type PlayerHandler struct {
	store services.PlayerStore
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(store services.PlayerStore) *PlayerHandler {
	return &PlayerHandler{
		store: store,
	}
}

// UpdateState stores the state posted by the playing browser and pushes it
// to every websocket client
func (h *PlayerHandler) UpdateState(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid player state",
			"details": err.Error(),
		})
		return
	}
	if raw == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "player state must be a JSON object",
		})
		return
	}

	c.JSON(http.StatusOK, h.store.Update(raw))
}

// GetState returns the last known player state
func (h *PlayerHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}
