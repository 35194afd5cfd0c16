package camtex

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely,
// making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that SetLogger
// can be called concurrently with logging from the context thread.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for camtex and its backends. By default
// camtex produces no log output. Pass nil to restore the silent default.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
//
// Log levels used by camtex:
//   - [slog.LevelDebug]: per-frame diagnostics (frame rate, readback timing)
//   - [slog.LevelInfo]: lifecycle events (context created, pipeline ready)
//   - [slog.LevelWarn]: recoverable issues (offscreen fallback, skipped frame)
//   - [slog.LevelError]: transient GPU errors, fatal bootstrap failures
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by camtex. Backend packages call
// this to share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
