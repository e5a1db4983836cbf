package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemstr/lnmock/internal/clock"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(`
port: 8000
debug: true
network: mainnet
encoder: mock
store: sqlite
default_expiry_seconds: 60
clock_start: "2021-06-01T12:00:00Z"
allowed_origins:
  - https://example.com
`), 0o600)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, cfg.Load(path))

	assert.Equal(t, 8000, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "mock", cfg.Encoder)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, time.Minute, cfg.defaultExpiry())
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowedOrigins)

	start, err := cfg.clockStart()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC), start)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENCODER", "bolt11")
	t.Setenv("CLOCK_START", "1600000000")

	var cfg Config
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "regtest", cfg.Network)

	start, err := cfg.clockStart()
	require.NoError(t, err)
	assert.Equal(t, int64(1600000000), start.Unix())
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, "regtest", cfg.Network)
	assert.Equal(t, "bolt11", cfg.Encoder)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, time.Hour, cfg.defaultExpiry())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)

	start, err := cfg.clockStart()
	require.NoError(t, err)
	assert.Equal(t, clock.DefaultEpoch, start)
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name string
		cfg  Config
		err  bool
	}{
		{name: "ok", cfg: Config{Encoder: "mock", Store: "memory"}},
		{name: "wall clock", cfg: Config{Encoder: "bolt11", Store: "sqlite", ClockWall: true}},
		{name: "unknown encoder", cfg: Config{Encoder: "lnd", Store: "memory"}, err: true},
		{name: "unknown store", cfg: Config{Encoder: "mock", Store: "postgres"}, err: true},
		{name: "negative expiry", cfg: Config{Encoder: "mock", Store: "memory", DefaultExpirySeconds: -1}, err: true},
		{name: "conflicting clock", cfg: Config{Encoder: "mock", Store: "memory", ClockStart: "0", ClockWall: true}, err: true},
		{name: "bad clock start", cfg: Config{Encoder: "mock", Store: "memory", ClockStart: "tomorrow"}, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
