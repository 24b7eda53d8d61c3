package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"musicbox/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// stubSettingsStore fails every save when err is set
type stubSettingsStore struct {
	saved []string
	err   error
}

func (s *stubSettingsStore) SaveMusicDir(dir string) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, dir)
	return nil
}

func postSettings(t *testing.T, h *SettingsHandler, dir string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/api/settings", h.UpdateSettings)

	body, _ := json.Marshal(Settings{MusicDir: dir})
	req := httptest.NewRequest(http.MethodPost, "/api/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUpdateSettings(t *testing.T) {
	oldRoot := t.TempDir()
	newRoot := t.TempDir()
	lib := services.NewLibrary(nil, oldRoot)
	store := &stubSettingsStore{}

	var announced []string
	h := NewSettingsHandler(lib, store, func(root string) {
		announced = append(announced, root)
	})

	w := postSettings(t, h, newRoot)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, newRoot, lib.Root())
	assert.Equal(t, []string{newRoot}, store.saved)
	assert.Equal(t, []string{newRoot}, announced)
}

func TestUpdateSettingsSaveFailureKeepsRoot(t *testing.T) {
	oldRoot := t.TempDir()
	lib := services.NewLibrary(nil, oldRoot)
	store := &stubSettingsStore{err: errors.New("disk full")}

	announced := false
	h := NewSettingsHandler(lib, store, func(string) { announced = true })

	w := postSettings(t, h, t.TempDir())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, oldRoot, lib.Root(), "root must not move when the save fails")
	assert.False(t, announced)
}

func TestUpdateSettingsInvalidDirNotSaved(t *testing.T) {
	oldRoot := t.TempDir()
	lib := services.NewLibrary(nil, oldRoot)
	store := &stubSettingsStore{}
	h := NewSettingsHandler(lib, store, nil)

	w := postSettings(t, h, filepath.Join(oldRoot, "missing"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, oldRoot, lib.Root())
	assert.Empty(t, store.saved)
}
