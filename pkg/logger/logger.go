package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the structured logging surface used across the API.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type jsonLogger struct {
	l *slog.Logger
}

// New creates a JSON logger writing to stdout at the given level. Unknown
// level names fall back to info.
func New(level string) Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a JSON logger writing to w. Tests use this to capture
// output.
func NewWithWriter(w io.Writer, level string) Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &jsonLogger{l: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func (j *jsonLogger) Debug(msg string, args ...any) { j.l.Debug(msg, args...) }
func (j *jsonLogger) Info(msg string, args ...any)  { j.l.Info(msg, args...) }
func (j *jsonLogger) Warn(msg string, args ...any)  { j.l.Warn(msg, args...) }
func (j *jsonLogger) Error(msg string, args ...any) { j.l.Error(msg, args...) }

// With returns a logger that attaches the given attributes to every record.
func (j *jsonLogger) With(args ...any) Logger {
	return &jsonLogger{l: j.l.With(args...)}
}
