package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no overriding variables
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{
		EnvMusicDir, EnvServerPort, EnvCORSOrigins, EnvLogLevel,
		EnvGinMode, EnvSerialPort, EnvBaudRate, EnvWSURL,
	} {
		// Setenv restores the old value on cleanup; godotenv treats an
		// empty variable as set, so remove it entirely
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "music"), cfg.MusicDir)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, "/dev/ttyACM0", cfg.Bridge.SerialPort)
	assert.Equal(t, 115200, cfg.Bridge.BaudRate)
	assert.Equal(t, "ws://localhost:8000/ws", cfg.Bridge.WSURL)
	assert.Equal(t, int64(10e6), cfg.Bridge.PollInterval().Nanoseconds())
	assert.Equal(t, DefaultPath, cfg.Path())
}

func TestLoadLayering(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
music_dir = "/srv/music"
port = 9000
log_level = "debug"

[bridge]
serial_port = "/dev/ttyUSB0"
baud_rate = 9600
`), 0644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WS_URL=ws://pi.local:9000/ws\n"), 0644))
	t.Setenv(EnvServerPort, "9100")
	t.Setenv(EnvCORSOrigins, "http://a.test, http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/music", cfg.MusicDir, "file beats defaults")
	assert.Equal(t, 9100, cfg.Port, "environment beats file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Bridge.SerialPort)
	assert.Equal(t, 9600, cfg.Bridge.BaudRate)
	assert.Equal(t, "ws://pi.local:9000/ws", cfg.Bridge.WSURL, ".env fills unset variables")
	assert.Equal(t, 10, cfg.Bridge.PollIntervalMS, "unset keys keep defaults")
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("port = = 1"), 0644))
	_, err := Load(bad)
	assert.Error(t, err)

	t.Setenv(EnvServerPort, "eighty")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvServerPort)

	t.Setenv(EnvServerPort, "70000")
	_, err = Load("")
	assert.ErrorContains(t, err, "invalid port")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "music"), expandHome("~/music"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}

func TestSaveMusicDirKeepsOtherKeys(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "musicbox.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 9000\nmusic_dir = \"/old\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.SaveMusicDir("/new/library"))
	assert.Equal(t, "/new/library", cfg.MusicDir)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/new/library", reloaded.MusicDir)
	assert.Equal(t, 9000, reloaded.Port)
}

func TestSaveMusicDirCreatesFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.SaveMusicDir("/lib"))

	data, err := os.ReadFile(DefaultPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "music_dir")
	assert.Contains(t, string(data), "/lib")
}
