package data

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QueryLogger sends GORM output to slog, tagged with component=sql.
type QueryLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewQueryLogger returns a GORM logger for the given application level.
// Statements slower than slow are logged as warnings; zero disables that.
func NewQueryLogger(level slog.Level, slow time.Duration) *QueryLogger {
	return &QueryLogger{
		log:   slog.Default().With("component", "sql"),
		level: GORMLevel(level),
		slow:  slow,
	}
}

// GORMLevel maps the application log level to GORM's. SQL statements are
// only traced at debug.
func GORMLevel(level slog.Level) logger.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return logger.Info
	case level <= slog.LevelInfo:
		return logger.Warn
	default:
		return logger.Error
	}
}

func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *QueryLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, msg, args...)
	}
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, msg, args...)
	}
}

func (l *QueryLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, msg, args...)
	}
}

// Trace logs one statement. A failed statement aborts its batch, and the
// loader reports that with the batch's record refs, so errors stay at debug.
func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent || errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	if err == nil && l.level < logger.Info && (l.slow == 0 || elapsed <= l.slow) {
		return
	}

	sql, rows := fc()
	attrs := []any{
		slog.Duration("elapsed", elapsed),
		slog.String("sql", sql),
		slog.Int64("rows", rows),
	}
	switch {
	case err != nil:
		l.log.DebugContext(ctx, "Statement failed", append(attrs, slog.Any("error", err))...)
	case l.slow != 0 && elapsed > l.slow:
		l.log.WarnContext(ctx, "Slow statement", attrs...)
	default:
		l.log.DebugContext(ctx, "Statement", attrs...)
	}
}
