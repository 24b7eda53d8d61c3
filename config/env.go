package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file
const (
	EnvMusicDir    = "MUSIC_DIR"
	EnvServerPort  = "SERVER_PORT"
	EnvCORSOrigins = "CORS_ORIGINS"
	EnvLogLevel    = "LOG_LEVEL"
	EnvGinMode     = "GIN_MODE"
	EnvSerialPort  = "SERIAL_PORT"
	EnvBaudRate    = "BAUD_RATE"
	EnvWSURL       = "WS_URL"
)

// loadDotEnv reads .env into the environment without overriding variables
// that are already set
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvMusicDir); v != "" {
		cfg.MusicDir = v
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvGinMode); v != "" {
		cfg.GinMode = v
	}
	if v := os.Getenv(EnvSerialPort); v != "" {
		cfg.Bridge.SerialPort = v
	}
	if v := os.Getenv(EnvWSURL); v != "" {
		cfg.Bridge.WSURL = v
	}

	if err := envInt(EnvServerPort, &cfg.Port); err != nil {
		return err
	}
	return envInt(EnvBaudRate, &cfg.Bridge.BaudRate)
}

func envInt(name string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", name, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
