package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 7, cfg.WindowDays)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoadYAMLAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
window_days: 3
poll_interval: 30s
feed:
  client_id: abc
  lookahead_hours: 4
redis:
  address: localhost:6379
`), 0o600))

	t.Setenv("DEPARTUREBOARD_WINDOW_DAYS", "5")
	t.Setenv("DEPARTUREBOARD_FEED_TIMEOUT", "3s")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 5, cfg.WindowDays)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, "abc", cfg.Feed.ClientID)
	assert.Equal(t, 4, cfg.Feed.LookaheadHours)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("DEPARTUREBOARD_WINDOW_DAYS", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("DEPARTUREBOARD_TIMEZONE", "Mars/Olympus")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsNonNumericEnvironment(t *testing.T) {
	t.Setenv("DEPARTUREBOARD_REDIS_DATABASE", "first")
	_, err := Load("")
	assert.Error(t, err)
}
