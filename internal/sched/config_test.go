package sched

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "adv", cfg.Algorithm)
}

func TestLoad_OverridesAndClamps(t *testing.T) {
	path := writeConfig(t, `
algorithm: mq
tick_ms: -1
slice_ticks: 3
exit_when_idle: true
tasks:
  - id: 1
    class: realtime
    work_ms: 20
  - id: 2
    class: daemon
    work_ms: 40
    block_every_ms: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mq", cfg.Algorithm)
	assert.Equal(t, 5, cfg.TickMS)
	assert.Equal(t, 3, cfg.SliceTicks)
	assert.Equal(t, 10, cfg.WakeTicks)
	assert.True(t, cfg.ExitWhenIdle)
	require.Len(t, cfg.Tasks, 2)
	assert.Equal(t, TaskConfig{ID: 2, Class: "daemon", WorkMS: 40, BlockEveryMS: 10}, cfg.Tasks[1])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, "tick_ms: [oops"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "tasks:\n  - id: 1\n    class: batch\n"))
	assert.Error(t, err)
}
