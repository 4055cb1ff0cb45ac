package logging

import (
	"strings"
	"sync"
)

// captureSize is how many recent lines LogCaptureWriter retains.
const captureSize = 64

// LogCaptureWriter is a thread-safe writer that retains the most recent log
// lines and counts every line seen.
type LogCaptureWriter struct {
	mu    sync.RWMutex
	ring  [captureSize]string
	lines uint64
}

// GlobalLogCapture receives INFO+ server logs for /api/log/latest.
var GlobalLogCapture = &LogCaptureWriter{}

// Write implements io.Writer. slog handlers write one record per call.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ring[w.lines%captureSize] = strings.TrimRight(string(p), "\n")
	w.lines++
	return len(p), nil
}

// GetLastLine returns the most recent log line.
func (w *LogCaptureWriter) GetLastLine() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.lines == 0 {
		return ""
	}
	return w.ring[(w.lines-1)%captureSize]
}

// Recent returns up to n of the latest lines, oldest first.
func (w *LogCaptureWriter) Recent(n int) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n = min(n, int(min(w.lines, captureSize)))
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	for i := range n {
		out[i] = w.ring[(w.lines-uint64(n-i))%captureSize]
	}
	return out
}

// Lines returns how many lines were captured.
func (w *LogCaptureWriter) Lines() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lines
}
