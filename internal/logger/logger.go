// Package logger provides the structured logger used across the engine's
// processes: a slog-backed Logger interface whose call sites report the
// caller's own source location rather than a frame inside this package,
// with an optional fan-out to a per-run log file via slog-multi.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// Logger is the engine-wide logging interface: leveled messages, printf-style
// variants, and attribute/group scoping that returns a new Logger rather
// than mutating the receiver.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// callerSkip is the number of runtime.Callers frames to skip to land on the
// caller of the logging method itself, not this package's internals.
// Every public method and package-level function below calls log directly
// (one hop), so this constant holds regardless of which entry point is used.
const callerSkip = 3

type logger struct {
	handler slog.Handler
}

func (l *logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.handler.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(callerSkip, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.handler.Handle(ctx, r)
}

func (l *logger) Debug(msg string, args ...any) { l.log(context.Background(), slog.LevelDebug, msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.log(context.Background(), slog.LevelInfo, msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.log(context.Background(), slog.LevelWarn, msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.log(context.Background(), slog.LevelError, msg, args...) }

func (l *logger) Debugf(format string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, args...))
}
func (l *logger) Infof(format string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, fmt.Sprintf(format, args...))
}
func (l *logger) Warnf(format string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, fmt.Sprintf(format, args...))
}
func (l *logger) Errorf(format string, args ...any) {
	l.log(context.Background(), slog.LevelError, fmt.Sprintf(format, args...))
}

func (l *logger) With(args ...any) Logger {
	return &logger{handler: l.handler.WithAttrs(argsToAttrs(args))}
}

func (l *logger) WithGroup(name string) Logger {
	return &logger{handler: l.handler.WithGroup(name)}
}

func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, _ := args[i].(string)
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}

type options struct {
	debug   bool
	format  string
	writer  io.Writer
	quiet   bool
	logFile *os.File
}

// Option configures a Logger built by NewLogger.
type Option func(*options)

// WithDebug lowers the minimum level to Debug.
func WithDebug() Option { return func(o *options) { o.debug = true } }

// WithFormat selects the handler format: "json" or "text" (the default).
func WithFormat(format string) Option { return func(o *options) { o.format = format } }

// WithWriter overrides the primary destination, os.Stdout by default.
func WithWriter(w io.Writer) Option { return func(o *options) { o.writer = w } }

// WithQuiet suppresses the primary writer once a log file is also
// attached via WithLogFile — the run's log file remains the one place the
// output lands. Without a log file attached, the primary writer is used
// regardless, since there would otherwise be nowhere for output to go.
func WithQuiet() Option { return func(o *options) { o.quiet = true } }

// WithLogFile fans log records out to f in addition to the primary writer.
func WithLogFile(f *os.File) Option { return func(o *options) { o.logFile = f } }

// NewLogger builds a Logger from the given options.
func NewLogger(opts ...Option) Logger {
	o := options{writer: os.Stdout, format: "text"}
	for _, opt := range opts {
		opt(&o)
	}

	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: o.debug}

	var handlers []slog.Handler
	switch {
	case o.logFile == nil:
		handlers = append(handlers, newHandler(o.format, o.writer, handlerOpts))
	case o.quiet:
		handlers = append(handlers, newHandler(o.format, o.logFile, handlerOpts))
	default:
		handlers = append(handlers, newHandler(o.format, o.writer, handlerOpts))
		handlers = append(handlers, newHandler(o.format, o.logFile, handlerOpts))
	}

	var h slog.Handler
	if len(handlers) == 1 {
		h = handlers[0]
	} else {
		h = slogmulti.Fanout(handlers...)
	}
	return &logger{handler: h}
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
