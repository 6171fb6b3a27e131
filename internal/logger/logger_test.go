package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLogger(dir, "release")
	require.NoError(t, err)

	l.Info("hello %s", "info")
	l.Warning("careful %d", 42)
	l.Error("broken: %v", "boom")
	l.Sync()

	info, err := os.ReadFile(filepath.Join(dir, InfoFile))
	require.NoError(t, err)
	assert.Contains(t, string(info), "hello info")
	assert.NotContains(t, string(info), "careful")

	warning, err := os.ReadFile(filepath.Join(dir, WarningFile))
	require.NoError(t, err)
	assert.Contains(t, string(warning), "careful 42")

	errorLog, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	assert.Contains(t, string(errorLog), "broken: boom")
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLogger(dir, "release")
	require.NoError(t, err)
	defer l.Sync()

	l.Warning("to be removed")
	require.NoError(t, l.CleanLogs(WarningFile))

	data, err := os.ReadFile(filepath.Join(dir, WarningFile))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	assert.NoError(t, l.CleanLogs(InfoFile))
	l.Sync()
}
