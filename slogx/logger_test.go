package slogx

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"testing"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelWarn})
	log.Info("Hidden")
	log.Warn("Shown", "key", "value")
	assert.NotContains(t, buf.String(), "Hidden")
	assert.Contains(t, buf.String(), "msg=Shown")
	assert.Contains(t, buf.String(), "key=value")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{JSON: true})
	log.Info("Shown", "key", "value")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Shown", record["msg"])
	assert.Equal(t, "value", record["key"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected slog.Level
		err      bool
	}{
		"Debug":      {input: "debug", expected: slog.LevelDebug},
		"Upper":      {input: "INFO", expected: slog.LevelInfo},
		"Warn":       {input: "warn", expected: slog.LevelWarn},
		"Warning":    {input: " Warning ", expected: slog.LevelWarn},
		"Error":      {input: "error", expected: slog.LevelError},
		"Offset":     {input: "info+2", expected: slog.LevelInfo + 2},
		"Invalid":    {input: "loud", expected: slog.LevelInfo, err: true},
		"Empty text": {input: "", expected: slog.LevelInfo, err: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			level, err := ParseLevel(tc.input)
			if tc.err {
				assert.ErrorIs(t, err, ErrInvalidLevel)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expected, level)
		})
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
	assert.NotPanics(t, func() {
		log.With("a", 1).WithGroup("g").Error("Discarded")
	})
}
