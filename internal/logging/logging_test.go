// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IO_Shock_Propagation_Project/internal/config"
)

func TestNewJSONWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	ctx := WithRunID(context.Background(), "run-1")
	logger.InfoContext(ctx, "solved", "year", 2021)
	logger.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "solved", rec["msg"])
	assert.Equal(t, "run-1", rec["run_id"])
	assert.Equal(t, float64(2021), rec["year"])
}

func TestRunIDIsWrittenOnce(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	ctx := WithRunID(context.Background(), "run-ctx")
	logger.With(string(RunIDKey), "run-attr").InfoContext(ctx, "batch started")

	assert.Equal(t, 1, strings.Count(buf.String(), `"run_id"`))
	assert.Contains(t, buf.String(), `"run_id":"run-attr"`)
}

func TestNewTextWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "ioshock.log")
	logger, closer, err := New(config.LoggingConfig{Level: "debug", Format: "text", File: path}, &buf)
	require.NoError(t, err)

	logger.With("scheme", "eu28").Debug("weights ready")
	require.NoError(t, closer.Close())

	assert.Contains(t, buf.String(), "msg=\"weights ready\"")
	assert.Contains(t, buf.String(), "scheme=eu28")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(raw))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
	assert.Equal(t, "", RunID(context.Background()))
}
