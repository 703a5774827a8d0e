// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	Host        string        // Interface to listen on
	Port        int           // Port for the HTTP and websocket server
	GinMode     string        // Mode for the Gin framework (release, debug, test)
	LogLevel    string        // debug, info, warn or error
	Tick        time.Duration // Delay between simulation steps
	MaxSteps    int           // Step limit per run
	ScenarioDir string        // Optional directory of TOML scenarios
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Host:     "0.0.0.0",
		Port:     8000,
		GinMode:  "release",
		LogLevel: "info",
		Tick:     200 * time.Millisecond,
		MaxSteps: 500,
	}
}

// Load reads the given .env files, then the environment. Missing files are
// skipped; with no files it tries ./.env.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, falling back to Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	var err error

	if v, ok := lookup("HOST"); ok {
		c.Host = v
	}
	if c.Port, err = intEnv(lookup, "PORT", c.Port); err != nil {
		return Config{}, err
	}
	if v, ok := lookup("GIN_MODE"); ok {
		c.GinMode = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return Config{}, err
	}
	tick, err := intEnv(lookup, "TICK_MS", int(c.Tick/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	c.Tick = time.Duration(tick) * time.Millisecond
	if c.MaxSteps, err = intEnv(lookup, "MAX_STEPS", c.MaxSteps); err != nil {
		return Config{}, err
	}
	if v, ok := lookup("SCENARIO_DIR"); ok {
		c.ScenarioDir = v
	}
	return c, nil
}

func intEnv(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("environment variable %s must not be negative", key)
	}
	return n, nil
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %s", level)
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(level string, w io.Writer) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}
