package handlers

import (
	"net/http"

	"musicbox/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SettingsStore persists user settings; *config.Config implements it
type SettingsStore interface {
	SaveMusicDir(dir string) error
}

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	library services.Library
	store   SettingsStore
	onRoot  func(root string)
}

// NewSettingsHandler creates a new settings handler. onRoot, if set, is
// told about every new library root.
func NewSettingsHandler(library services.Library, store SettingsStore, onRoot func(root string)) *SettingsHandler {
	return &SettingsHandler{
		library: library,
		store:   store,
		onRoot:  onRoot,
	}
}

// Settings represents the user settings
type Settings struct {
	MusicDir string `json:"musicDir" binding:"required"`
}

// GetSettings returns the current settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, Settings{
		MusicDir: h.library.Root(),
	})
}

// UpdateSettings points the library at another directory and saves it
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var newSettings Settings
	if err := c.ShouldBindJSON(&newSettings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	root, err := services.ValidateLibraryRoot(newSettings.MusicDir)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid music directory",
			"details": err.Error(),
		})
		return
	}

	// the library only moves once the new root is on disk
	if err := h.store.SaveMusicDir(root); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save settings",
			"details": err.Error(),
		})
		return
	}

	if err := h.library.SetRoot(root); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid music directory",
			"details": err.Error(),
		})
		return
	}

	if h.onRoot != nil {
		h.onRoot(root)
	}
	log.Info().Str("music_dir", root).Msg("Music directory changed")

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": Settings{MusicDir: root},
	})
}
