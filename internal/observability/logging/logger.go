package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Log messages are snake_case event names, so the message key is emitted as
// "event". Timestamps are UTC.
func NewJSONLogger(service, level string) *slog.Logger {
	return newJSONLogger(os.Stdout, service, level)
}

func newJSONLogger(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: replaceAttr,
	})
	return slog.New(handler).With("service", service)
}

func replaceAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.MessageKey:
		attr.Key = "event"
	case slog.TimeKey:
		if t, ok := attr.Value.Any().(time.Time); ok {
			attr.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
		}
	}
	return attr
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
