package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_WritesConsoleAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	logger, err := newLogger("test", dir, zapcore.AddSync(&console), now)
	require.NoError(t, err)

	logger.Debug("debug only in file", zap.Int64("project_id", 7))
	logger.Info("visible everywhere")
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "visible everywhere")
	assert.NotContains(t, console.String(), "debug only in file")

	data, err := os.ReadFile(filepath.Join(dir, "test_2025-03-01_09-30-00.log"))
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "debug", first["level"])
	assert.Equal(t, "debug only in file", first["msg"])
	assert.Equal(t, float64(7), first["project_id"])
	assert.Contains(t, first, "timestamp")
}

func TestInitLogger_BadDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := InitLogger("test", filepath.Join(file, "logs"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create logs directory")
}
