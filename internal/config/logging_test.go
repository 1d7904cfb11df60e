package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("job created", "job_id", 42)
	logger.Debug("poll scheduled")

	// stderr honors the requested level; the file records everything.
	assert.Contains(t, stderr.String(), "job created")
	assert.NotContains(t, stderr.String(), "poll scheduled")
	assert.Contains(t, file.String(), "poll scheduled")

	var entry map[string]any
	first, _, _ := bytes.Cut(file.Bytes(), []byte("\n"))
	require.NoError(t, json.Unmarshal(first, &entry))
	assert.Equal(t, "job created", entry["msg"])
	assert.Equal(t, float64(42), entry["job_id"])
}

func TestSetupLoggerFileFallback(t *testing.T) {
	// An unwritable path must not prevent logging.
	logger, cleanup := SetupLogger(filepath.Join(t.TempDir(), "no", "such", "dir", "x.log"), slog.LevelInfo)
	require.NotNil(t, logger)
	assert.NoError(t, cleanup())
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videogen.log")
	logger, cleanup := SetupLogger(path, slog.LevelDebug)

	logger.Debug("push channel connected")
	require.NoError(t, cleanup())

	assert.FileExists(t, path)
}
