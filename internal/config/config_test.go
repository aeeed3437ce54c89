package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cagate/remote/internal/input"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray .env or cagate.yaml is found.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://ghost-wheel.ru:50141/j-rpc/play", cfg.Control.URL)
	assert.Equal(t, 10*time.Second, cfg.Control.HandshakeTimeout)
	assert.Equal(t, 64, cfg.Control.QueueSize)
	assert.Equal(t, "http://ghost-wheel.ru:50157/wrtc-main/whep", cfg.WHEP.URL)
	assert.Equal(t, 6*time.Second, cfg.WHEP.Timeout)
	assert.Equal(t, "video/h264", cfg.WHEP.PreferCodec)
	assert.Empty(t, cfg.WHEP.ICEServers)
	assert.Equal(t, input.Scale10000, cfg.Touch.Scale)
	assert.Equal(t, 20*time.Millisecond, cfg.Touch.MinInterval)
	assert.Equal(t, 8, cfg.Touch.MinDelta)
	assert.Equal(t, 250*time.Millisecond, cfg.Button.Hold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("CAGATE_CONTROL_URL", "ws://127.0.0.1:9000/play")
	t.Setenv("CAGATE_WHEP_TIMEOUT", "3s")
	t.Setenv("CAGATE_WHEP_ICE_SERVERS", "stun:a.example:3478,stun:b.example:3478")
	t.Setenv("CAGATE_TOUCH_SCALE", "32767")
	t.Setenv("CAGATE_TOUCH_INVERT_Y", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:9000/play", cfg.Control.URL)
	assert.Equal(t, 3*time.Second, cfg.WHEP.Timeout)
	assert.Equal(t, []string{"stun:a.example:3478", "stun:b.example:3478"}, cfg.WHEP.ICEServers)
	assert.Equal(t, input.Scale0x7FFF, cfg.Touch.Scale)
	assert.True(t, cfg.Touch.InvertY)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CAGATE_WHEP_TOKEN=secret\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CAGATE_WHEP_TOKEN") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.WHEP.Token)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdir(t)
	yaml := `
whep:
  prefer_codec: vp8
  ice_servers:
    - stun:stun.example:3478
touch:
  min_delta: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cagate.yaml"), []byte(yaml), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "vp8", cfg.WHEP.PreferCodec)
	assert.Equal(t, []string{"stun:stun.example:3478"}, cfg.WHEP.ICEServers)
	assert.Equal(t, 4, cfg.Touch.MinDelta)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	dir := chdir(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Control: Control{URL: "ws://x"},
			WHEP:    WHEP{URL: "http://x", Timeout: time.Second},
			Touch:   Touch{Scale: input.Scale10000},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no control url", func(c *Config) { c.Control.URL = "" }},
		{"no whep url", func(c *Config) { c.WHEP.URL = "" }},
		{"short timeout", func(c *Config) { c.WHEP.Timeout = 500 * time.Millisecond }},
		{"bad scale", func(c *Config) { c.Touch.Scale = 1000 }},
		{"negative interval", func(c *Config) { c.Touch.MinInterval = -time.Millisecond }},
		{"negative delta", func(c *Config) { c.Touch.MinDelta = -1 }},
		{"negative hold", func(c *Config) { c.Button.Hold = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
