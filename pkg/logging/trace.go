package logging

import (
	"log/slog"
	"sync/atomic"
)

// LevelTrace is accepted by ParseLevel. It logs at DEBUG and additionally
// turns on per-frame tracing.
const LevelTrace = "TRACE"

var tracing atomic.Bool

// SetTrace switches per-frame logging on or off. It is off by default since
// at 60fps it dominates the log.
func SetTrace(on bool) { tracing.Store(on) }

// Tracing reports whether per-frame logging is on.
func Tracing() bool { return tracing.Load() }

// Trace logs msg at DEBUG when tracing is on.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if tracing.Load() {
		logger.Debug(msg, args...)
	}
}
