package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. The second result is
// false for unrecognized values, which fall back to INFO.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New builds the process logger. Terminals get colored tint output,
// everything else plain text.
func New(w *os.File, level slog.Level) *slog.Logger {
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs the default logger for the given LOG_LEVEL value.
func Setup(levelName string) slog.Level {
	level, ok := ParseLevel(levelName)
	slog.SetDefault(New(os.Stderr, level))
	if !ok {
		slog.Warn("Invalid LOG_LEVEL, defaulting to INFO", "level", levelName)
	}
	slog.Debug("Logger initialized", "level", level)
	return level
}
