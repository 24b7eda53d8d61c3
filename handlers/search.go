package handlers

import (
	"net/http"

	"musicbox/services"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles search endpoints
type SearchHandler struct {
	library services.Library
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(library services.Library) *SearchHandler {
	return &SearchHandler{
		library: library,
	}
}

// Search returns the songs whose title, artist or album match q
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameter 'q' is required",
		})
		return
	}

	results, err := h.library.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "search failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}
