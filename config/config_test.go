package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaultsWhenMissing(t *testing.T) {
	c, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":3001", c.Server.Port)
	assert.Equal(t, "memory", c.Queue.Backend)
	assert.Equal(t, "memory", c.History.Backend)
	assert.Equal(t, 3*time.Second, c.Match.Countdown)
	assert.Equal(t, 120*time.Second, c.Match.QueueTimeout)
	assert.Equal(t, time.Second, c.Match.EndGrace)
	assert.Equal(t, 10*time.Second, c.Match.RematchTimeout)
	assert.Equal(t, 2*time.Second, c.Match.TeardownDelay)
	assert.Equal(t, 60*time.Second, c.Match.DisconnectGrace)
	assert.Equal(t, time.Hour, c.Match.RoomIdleTimeout)
}

func TestLoadFileReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: ":9000"
queue:
  backend: redis
match:
  end_grace: 1500ms
  disconnect_grace: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Server.Port)
	assert.Equal(t, "redis", c.Queue.Backend)
	assert.Equal(t, 1500*time.Millisecond, c.Match.EndGrace)
	assert.Equal(t, 30*time.Second, c.Match.DisconnectGrace)
	// untouched keys keep defaults
	assert.Equal(t, 10*time.Second, c.Match.RematchTimeout)
}

func TestLoadFileEnvOverride(t *testing.T) {
	t.Setenv("BLOCKDUEL_SERVER_PORT", ":7777")
	t.Setenv("BLOCKDUEL_MATCH_COUNTDOWN", "5s")

	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", c.Server.Port)
	assert.Equal(t, 5*time.Second, c.Match.Countdown)
}

func TestLoadFileRejectsUnknownBackend(t *testing.T) {
	t.Setenv("BLOCKDUEL_QUEUE_BACKEND", "kafka")

	_, err := LoadFile("")
	assert.Error(t, err)
}

func TestLoadFilePostgresRequiresDSN(t *testing.T) {
	t.Setenv("BLOCKDUEL_HISTORY_BACKEND", "postgres")

	_, err := LoadFile("")
	assert.Error(t, err)

	t.Setenv("BLOCKDUEL_DATABASE_DSN", "postgres://localhost/blockduel?sslmode=disable")
	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.History.Backend)
}
