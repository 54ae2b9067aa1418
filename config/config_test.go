package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
}

type mock struct {
	Name    string   `mapstructure:"name" validate:"required"`
	Number  float64  `mapstructure:"number"`
	Enabled bool     `mapstructure:"enabled"`
	Server  server   `mapstructure:"server"`
	Tags    []string `mapstructure:"tags"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestConfig tests the basic configuration loading
func TestConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "name: axis\nserver:\n  host: example.com\ntags: [a, b]\n")

	cfg := new(mock)
	c := New(cfg, WithFile(path), WithDefaults(map[string]any{
		"number":      1.23,
		"enabled":     true,
		"server.port": 80,
	}))

	require.NoError(t, c.Load())
	assert.Equal(t, "axis", cfg.Name)
	assert.Equal(t, 1.23, cfg.Number)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "example.com", cfg.Server.Host)
	assert.Equal(t, 80, cfg.Server.Port)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
}

func TestJSONConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "axis.json", `{"name": "json", "server": {"port": 8080}}`)

	cfg := new(mock)
	require.NoError(t, New(cfg, WithFile(path)).Load())
	assert.Equal(t, "json", cfg.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
}

// TestEnvOverride tests that viper's AutomaticEnv works
func TestEnvOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "name: axis\nserver:\n  host: localhost\n  port: 80\n")

	t.Setenv("AXIS_SERVER_HOST", "example.com")
	t.Setenv("AXIS_SERVER_PORT", "9090")

	cfg := new(mock)
	require.NoError(t, New(cfg, WithFile(path), WithEnvPrefix("axis")).Load())
	assert.Equal(t, "example.com", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	err := New(new(mock), WithFile(filepath.Join(dir, "missing.yaml"))).Load()
	assert.ErrorIs(t, err, ErrNotFound)

	invalid := writeFile(t, dir, "invalid.yaml", "server:\n  port: 80\n")
	err = New(new(mock), WithFile(invalid)).Load()
	assert.ErrorIs(t, err, ErrValidation)

	err = New(new(mock), WithFile(invalid), WithValidator(nil)).Load()
	assert.NoError(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "name: before\n")

	cfg := new(mock)
	c := New(cfg, WithFile(path))
	require.NoError(t, c.Load())

	var changes atomic.Int32
	require.NoError(t, c.Watch(func() { changes.Add(1) }))

	// Give the watcher time to subscribe before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "config.yaml", "name: after\n")

	assert.Eventually(t, func() bool {
		var name string
		c.Read(func(target any) { name = target.(*mock).Name })
		return name == "after" && changes.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
}
