package logger

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	debugLevel = slog.LevelDebug
	infoLevel  = slog.LevelInfo
	warnLevel  = slog.LevelWarn
	errorLevel = slog.LevelError
)

type contextKey struct{}

var defaultLogger Logger = NewLogger()

// WithLogger attaches l to ctx so downstream code can retrieve it via
// FromContext without threading a Logger through every call.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the Logger attached to ctx, or the package default if
// none was attached.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return defaultLogger
}

// Debug logs at debug level using the Logger attached to ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	fromContextLogger(ctx).log(ctx, debugLevel, msg, args...)
}

// Info logs at info level using the Logger attached to ctx.
func Info(ctx context.Context, msg string, args ...any) {
	fromContextLogger(ctx).log(ctx, infoLevel, msg, args...)
}

// Warn logs at warn level using the Logger attached to ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	fromContextLogger(ctx).log(ctx, warnLevel, msg, args...)
}

// Error logs at error level using the Logger attached to ctx.
func Error(ctx context.Context, msg string, args ...any) {
	fromContextLogger(ctx).log(ctx, errorLevel, msg, args...)
}

// Debugf logs a formatted message at debug level using the Logger attached to ctx.
func Debugf(ctx context.Context, format string, args ...any) {
	fromContextLogger(ctx).log(ctx, debugLevel, fmt.Sprintf(format, args...))
}

// Infof logs a formatted message at info level using the Logger attached to ctx.
func Infof(ctx context.Context, format string, args ...any) {
	fromContextLogger(ctx).log(ctx, infoLevel, fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level using the Logger attached to ctx.
func Warnf(ctx context.Context, format string, args ...any) {
	fromContextLogger(ctx).log(ctx, warnLevel, fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level using the Logger attached to ctx.
func Errorf(ctx context.Context, format string, args ...any) {
	fromContextLogger(ctx).log(ctx, errorLevel, fmt.Sprintf(format, args...))
}

// fromContextLogger resolves ctx's Logger down to its concrete *logger so
// the package-level functions above can call its log method directly,
// keeping call-site source attribution exactly one hop deep regardless of
// whether the caller went through a Logger method or one of these
// functions.
func fromContextLogger(ctx context.Context) *logger {
	l := FromContext(ctx)
	if concrete, ok := l.(*logger); ok {
		return concrete
	}
	return defaultLogger.(*logger)
}
