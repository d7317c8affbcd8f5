// Package logger is the process-wide structured logger.
// Call sites pass a message and a field map; output goes through log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(New(os.Stdout, "json", "info"))
}

// New builds a slog logger writing to w. format is "json" or "text";
// level is one of debug, info, warn, error (default info).
func New(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

// Init replaces the process logger with one writing to stdout.
func Init(format, level string) {
	current.Store(New(os.Stdout, format, level))
	Info("logger initialized", map[string]any{"format": format, "level": level})
}

// Get returns the underlying *slog.Logger.
func Get() *slog.Logger {
	return current.Load()
}

// Set replaces the process logger. Intended for tests capturing output.
func Set(l *slog.Logger) {
	current.Store(l)
}

func Debug(msg string, fields map[string]any) {
	Get().Debug(msg, attrs(fields)...)
}

func Info(msg string, fields map[string]any) {
	Get().Info(msg, attrs(fields)...)
}

func Warn(msg string, fields map[string]any) {
	Get().Warn(msg, attrs(fields)...)
}

func Error(msg string, fields map[string]any) {
	Get().Error(msg, attrs(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	Get().Error(msg, attrs(fields)...)
	os.Exit(1)
}

// attrs flattens fields into slog key/value pairs in key order so the
// output is stable.
func attrs(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		v := fields[k]
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		out = append(out, slog.Any(k, v))
	}
	return out
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
