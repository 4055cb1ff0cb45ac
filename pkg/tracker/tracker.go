package tracker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tracker tracks request statistics per host.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*counters
}

// HostStats is a point-in-time copy of the counters for one host.
type HostStats struct {
	Success   int64     `json:"success"`
	Failures  int64     `json:"failures"`
	Bytes     int64     `json:"bytes"`
	LatencyMs int64     `json:"latency_ms"` // cumulative
	LastError string    `json:"last_error,omitempty"`
	LastAt    time.Time `json:"last_at"`
}

// counters are updated atomically; lastError and lastAt under mu.
type counters struct {
	success   int64
	failures  int64
	bytes     int64
	latencyMs int64

	mu        sync.Mutex
	lastError string
	lastAt    time.Time
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*counters),
	}
}

// getStats returns the stats object for a host, creating it if needed.
func (t *Tracker) getStats(host string) *counters {
	t.mu.RLock()
	s, ok := t.stats[host]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[host]; ok {
		return s
	}
	s = &counters{}
	t.stats[host] = s
	return s
}

// TrackSuccess records a completed request and its payload size.
func (t *Tracker) TrackSuccess(host string, bytes int, latency time.Duration) {
	s := t.getStats(host)
	atomic.AddInt64(&s.success, 1)
	atomic.AddInt64(&s.bytes, int64(bytes))
	atomic.AddInt64(&s.latencyMs, latency.Milliseconds())
	s.mu.Lock()
	s.lastAt = time.Now()
	s.mu.Unlock()
}

// TrackFailure records a failed request.
func (t *Tracker) TrackFailure(host string, err error) {
	s := t.getStats(host)
	atomic.AddInt64(&s.failures, 1)
	s.mu.Lock()
	s.lastAt = time.Now()
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]HostStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]HostStats, len(t.stats))
	for k, v := range t.stats {
		v.mu.Lock()
		lastErr, lastAt := v.lastError, v.lastAt
		v.mu.Unlock()
		result[k] = HostStats{
			Success:   atomic.LoadInt64(&v.success),
			Failures:  atomic.LoadInt64(&v.failures),
			Bytes:     atomic.LoadInt64(&v.bytes),
			LatencyMs: atomic.LoadInt64(&v.latencyMs),
			LastError: lastErr,
			LastAt:    lastAt,
		}
	}
	return result
}

// Reset zeroes all counters but keeps the known hosts.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.stats {
		t.stats[k] = &counters{}
	}
}
