package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, format, level string) *bytes.Buffer {
	t.Helper()
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	var buf bytes.Buffer
	Set(New(&buf, format, level))
	return &buf
}

func TestInfoWritesJSONFields(t *testing.T) {
	buf := capture(t, "json", "info")

	Info("login resolved", map[string]any{
		"outcome": "success",
		"error":   errors.New("boom"),
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "login resolved", line["msg"])
	assert.Equal(t, "success", line["outcome"])
	assert.Equal(t, "boom", line["error"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "json", "warn")

	Debug("debug line", nil)
	Info("info line", nil)
	assert.Empty(t, buf.String())

	Warn("warn line", nil)
	Error("error line", nil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestTextFormat(t *testing.T) {
	buf := capture(t, "text", "debug")

	Debug("hello", map[string]any{"b": 2, "a": 1})
	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Less(t, strings.Index(out, "a=1"), strings.Index(out, "b=2"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
