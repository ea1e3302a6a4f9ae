package common

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSetupLoggerTo(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelInfo, "json"))

	LogDebug("hidden", nil)
	LogInfo("Imported package", Fields{"package": "Andalusian Summer", "cells": 12})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Imported package", entry["msg"])
	assert.Equal(t, "Andalusian Summer", entry["package"])
	assert.InDelta(t, 12, entry["cells"], 0)

	assert.ErrorIs(t, SetupLoggerTo(&buf, slog.LevelInfo, "xml"), ErrInvalidConfig)
}
