package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"depthsim/internal/exchange"
	"depthsim/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500*time.Millisecond, cfg.Venue(exchange.OKX).ThrottleInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Venue(exchange.Bybit).ThrottleInterval)
	assert.Equal(t, time.Second, cfg.Venue(exchange.Deribit).ThrottleInterval)
	assert.Equal(t, 15, cfg.Feed.MaxLevels)
	assert.Equal(t, 500*time.Millisecond, cfg.Feed.ConnectDebounce)
}

func TestVenueFallback(t *testing.T) {
	cfg := Default()
	vc := cfg.Venue(exchange.Venue("Kraken"))
	assert.Equal(t, DefaultThrottleInterval, vc.ThrottleInterval)
	assert.Empty(t, vc.Endpoint)
}

func TestSetters(t *testing.T) {
	cfg := Default()
	cfg.SetThrottleInterval(exchange.OKX, 50*time.Millisecond)
	cfg.SetEndpoint(exchange.OKX, "ws://127.0.0.1:9000/ws")

	vc := cfg.Venue(exchange.OKX)
	assert.Equal(t, 50*time.Millisecond, vc.ThrottleInterval)
	assert.Equal(t, "ws://127.0.0.1:9000/ws", vc.Endpoint)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Feed.MaxLevels = 0
	cfg.Server.Port = ""
	cfg.Display.DefaultTickLevel = types.TickLevel(3)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed.max_levels")
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "default_tick_level")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orderbook.yaml")
	content := `
venues:
  Deribit:
    throttle_interval: 250ms
    endpoint: ws://localhost:1234/ws
feed:
  max_levels: 20
  connect_debounce: 100ms
server:
  port: "9090"
log:
  level: debug
  pretty: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Venue(exchange.Deribit).ThrottleInterval)
	assert.Equal(t, "ws://localhost:1234/ws", cfg.Venue(exchange.Deribit).Endpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Venue(exchange.OKX).ThrottleInterval)
	assert.Equal(t, 20, cfg.Feed.MaxLevels)
	assert.Equal(t, 100*time.Millisecond, cfg.Feed.ConnectDebounce)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ORDERBOOK_PORT", "7000")
	t.Setenv("ORDERBOOK_BYBIT_THROTTLE", "2s")
	t.Setenv("ORDERBOOK_OKX_ENDPOINT", "ws://example.test/ws")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Venue(exchange.Bybit).ThrottleInterval)
	assert.Equal(t, "ws://example.test/ws", cfg.Venue(exchange.OKX).Endpoint)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("ORDERBOOK_MAX_LEVELS", "many")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
