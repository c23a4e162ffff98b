package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig()
	cfg.Format = "json"
	cfg.Level = "debug"

	logger, err := NewLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)
	logger.Debug("tick", zap.Int("units", 3))
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "ztk", entry["logger"])
	assert.Equal(t, "tick", entry["msg"])
	assert.EqualValues(t, 3, entry["units"])
}

func TestNewLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig()
	cfg.Level = "warn"

	logger, err := NewLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultLoggerConfig()
	cfg.Level = "chatty"
	_, err := NewLogger(cfg, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestNewLoggerFileSink(t *testing.T) {
	cfg := DefaultLoggerConfig()
	cfg.File = filepath.Join(t.TempDir(), "ztk.log")

	var console bytes.Buffer
	logger, err := NewLogger(cfg, zapcore.AddSync(&console))
	require.NoError(t, err)
	logger.Info("to both sinks")
	require.NoError(t, logger.Sync())

	b, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	line := strings.TrimSpace(string(b))
	assert.True(t, json.Valid([]byte(line)), "file sink must be JSON: %s", line)
	assert.Contains(t, console.String(), "to both sinks")
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	globalLogger.Store(nil)
	assert.NotNil(t, GetLogger())
}
