package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv(lookupMap(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, "0.0.0.0:8000", c.Addr())
}

func TestFromEnv(t *testing.T) {
	c, err := FromEnv(lookupMap(map[string]string{
		"HOST":         "127.0.0.1",
		"PORT":         "9000",
		"GIN_MODE":     "debug",
		"LOG_LEVEL":    "DEBUG",
		"TICK_MS":      "50",
		"MAX_STEPS":    "20",
		"SCENARIO_DIR": "scenarios",
	}))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Host:        "127.0.0.1",
		Port:        9000,
		GinMode:     "debug",
		LogLevel:    "DEBUG",
		Tick:        50 * time.Millisecond,
		MaxSteps:    20,
		ScenarioDir: "scenarios",
	}, c)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port", map[string]string{"PORT": "http"}, "PORT must be an integer"},
		{"tick", map[string]string{"TICK_MS": "-1"}, "TICK_MS must not be negative"},
		{"level", map[string]string{"LOG_LEVEL": "loud"}, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookupMap(tt.env))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GRIDSIM_TEST_VALUE=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GRIDSIM_TEST_VALUE") })

	_, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("GRIDSIM_TEST_VALUE"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "task", "task3")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "task=task3")

	_, err = NewLogger("verbose", &buf)
	assert.Error(t, err)
}
