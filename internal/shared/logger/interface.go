package logger

import (
	"log/slog"
	"os"
)

// Interface is the structured logger injected into every component. The
// w-suffixed methods take alternating key/value pairs.
type Interface interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Interface

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	// Fatalw logs at error level and exits the process.
	Fatalw(msg string, keysAndValues ...any)
}

type slogAdapter struct {
	*slog.Logger
}

// NewLogger returns the process logger set up by Init.
func NewLogger() Interface {
	return slogAdapter{Get()}
}

func NewLoggerWithSlog(l *slog.Logger) Interface {
	return slogAdapter{l}
}

// NewNopLogger discards everything.
func NewNopLogger() Interface {
	return slogAdapter{slog.New(slog.DiscardHandler)}
}

func (l slogAdapter) With(args ...any) Interface {
	return slogAdapter{l.Logger.With(args...)}
}

func (l slogAdapter) Debugw(msg string, kv ...any) { l.Logger.Debug(msg, kv...) }
func (l slogAdapter) Infow(msg string, kv ...any)  { l.Logger.Info(msg, kv...) }
func (l slogAdapter) Warnw(msg string, kv ...any)  { l.Logger.Warn(msg, kv...) }
func (l slogAdapter) Errorw(msg string, kv ...any) { l.Logger.Error(msg, kv...) }

func (l slogAdapter) Fatalw(msg string, kv ...any) {
	l.Logger.Error(msg, kv...)
	os.Exit(1)
}
