package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when none is given
const DefaultPath = "musicbox.toml"

// Config holds every setting of the server and the bridge
type Config struct {
	MusicDir    string       `toml:"music_dir"`
	Port        int          `toml:"port"`
	CORSOrigins []string     `toml:"cors_origins"`
	LogLevel    string       `toml:"log_level"`
	GinMode     string       `toml:"gin_mode"`
	ScanWorkers int          `toml:"scan_workers"`
	Bridge      BridgeConfig `toml:"bridge"`

	path string
	mu   sync.Mutex
}

// BridgeConfig holds the serial bridge settings
type BridgeConfig struct {
	SerialPort     string `toml:"serial_port"`
	BaudRate       int    `toml:"baud_rate"`
	WSURL          string `toml:"ws_url"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// PollInterval returns the idle sleep of the device pump
func (b BridgeConfig) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMS) * time.Millisecond
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		MusicDir:    defaultMusicDir(),
		Port:        8000,
		CORSOrigins: []string{"http://localhost:5173"},
		LogLevel:    "info",
		GinMode:     "release",
		ScanWorkers: 4,
		Bridge: BridgeConfig{
			SerialPort:     "/dev/ttyACM0",
			BaudRate:       115200,
			WSURL:          "ws://localhost:8000/ws",
			PollIntervalMS: 10,
		},
	}
}

func defaultMusicDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "music")
	}
	return filepath.Join(homeDir, "music")
}

// Load builds the configuration from the defaults, the TOML file at path,
// a .env file in the working directory and the environment, later sources
// winning. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.MusicDir = expandHome(cfg.MusicDir)
	return cfg, cfg.Validate()
}

// Validate checks the values that would otherwise fail much later
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Bridge.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Bridge.BaudRate)
	}
	if c.Bridge.PollIntervalMS <= 0 {
		return fmt.Errorf("invalid poll interval %dms", c.Bridge.PollIntervalMS)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin mode %q", c.GinMode)
	}
	if c.ScanWorkers < 1 {
		c.ScanWorkers = 1
	}
	return nil
}

// Path returns the config file this configuration belongs to
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath
	}
	return c.path
}

// SaveMusicDir stores dir as the library root in the config file, keeping
// every other key of the file as it was
func (c *Config) SaveMusicDir(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := map[string]interface{}{}

	data, err := os.ReadFile(c.Path())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse config %s: %w", c.Path(), err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read config %s: %w", c.Path(), err)
	}

	doc["music_dir"] = dir

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(c.Path(), out, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", c.Path(), err)
	}

	c.MusicDir = dir
	return nil
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
