package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"musicbox/config"
	"musicbox/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// TestHelper runs a full server against a temporary music directory
type TestHelper struct {
	Server     *httptest.Server
	MusicDir   string
	ConfigPath string
	app        *server
}

// NewTestHelper creates a new test helper with a temporary test environment
func NewTestHelper(t *testing.T) *TestHelper {
	gin.SetMode(gin.TestMode)

	testDir := t.TempDir()
	musicDir := filepath.Join(testDir, "music")
	require.NoError(t, os.MkdirAll(musicDir, 0755))

	configPath := filepath.Join(testDir, "musicbox.toml")
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	cfg.MusicDir = musicDir
	cfg.CORSOrigins = []string{"http://localhost:5173"}

	app, err := newServer(cfg, services.NewFileService(2))
	require.NoError(t, err)

	return &TestHelper{
		Server:     httptest.NewServer(app.router()),
		MusicDir:   musicDir,
		ConfigPath: configPath,
		app:        app,
	}
}

// Cleanup cleans up test resources
func (h *TestHelper) Cleanup(t *testing.T) {
	if h.Server != nil {
		h.Server.Close()
	}
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}, headers ...string) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// GetJSON makes a GET request and unmarshals JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	return h.decode(t, h.MakeRequest(t, http.MethodGet, path, nil), target)
}

// PostJSON makes a POST request with JSON body and unmarshals JSON response
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	return h.decode(t, h.MakeRequest(t, http.MethodPost, path, requestBody), target)
}

func (h *TestHelper) decode(t *testing.T, resp *http.Response, target interface{}) *http.Response {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), "body: %s", body)
	}
	return resp
}

// ConnectWebSocket connects to the relay endpoint and waits until the hub
// counts the new client
func (h *TestHelper) ConnectWebSocket(t *testing.T) *websocket.Conn {
	before := h.app.hub.ClientCount()
	wsURL := "ws" + strings.TrimPrefix(h.Server.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return h.app.hub.ClientCount() > before
	}, 2*time.Second, 5*time.Millisecond)

	return conn
}

// ReadMessage reads one websocket message as a generic JSON object
func (h *TestHelper) ReadMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// CreateTestFile creates a file under the music directory
func (h *TestHelper) CreateTestFile(t *testing.T, relativePath string, content []byte) string {
	fullPath := filepath.Join(h.MusicDir, filepath.FromSlash(relativePath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, content, 0644))
	return fullPath
}
