package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	// Point the database into the temp dir so Load's MkdirAll stays contained.
	content = fmt.Sprintf("database:\n  path: %q\n%s", filepath.Join(dir, "test.db"), content)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "schedule", cfg.Matching.Strategy)
	assert.Equal(t, "08:00", cfg.Schedule.DefaultStart)
	assert.Equal(t, "20:00", cfg.Schedule.DefaultEnd)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, cfg.Schedule.WorkingDays)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "localhost:6379")
	path := writeConfig(t, "redis:\n  address: \"${TEST_REDIS_ADDR}\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}

func TestWorkingWeekdays(t *testing.T) {
	path := writeConfig(t, "schedule:\n  working_days: [1, 6, 7]\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	days, err := cfg.WorkingWeekdays()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Saturday, time.Sunday}, days)
}

func TestWorkingWeekdaysOutOfRange(t *testing.T) {
	path := writeConfig(t, "schedule:\n  working_days: [0]\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.WorkingWeekdays()
	assert.Error(t, err)
}

func TestMatchCacheTTL(t *testing.T) {
	path := writeConfig(t, "matching:\n  cache_ttl_seconds: 300\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.MatchCacheTTL())

	path = writeConfig(t, "matching:\n  cache_ttl_seconds: 0\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.MatchCacheTTL())
}
