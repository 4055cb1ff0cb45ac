package api

import (
	"net/http"
	"runtime"
	"sync"

	"adisglobe/pkg/events"
	"adisglobe/pkg/globe"
	"adisglobe/pkg/tracker"
)

// StatsHandler reports the globe, the request tracker and process memory.
type StatsHandler struct {
	host    *globe.Host
	tracker *tracker.Tracker
	hub     *events.Hub

	mu     sync.Mutex
	maxMem uint64
}

func NewStatsHandler(host *globe.Host, t *tracker.Tracker, hub *events.Hub) *StatsHandler {
	return &StatsHandler{host: host, tracker: t, hub: hub}
}

// DiagnosticsStats describes the server process.
type DiagnosticsStats struct {
	MemoryMB    uint64 `json:"memory_mb"`
	MemoryMaxMB uint64 `json:"memory_max_mb"`
	Goroutines  int    `json:"goroutines"`
}

// StreamStats describes the selection stream.
type StreamStats struct {
	Clients int    `json:"clients"`
	Dropped uint64 `json:"dropped"`
}

type StatsResponse struct {
	Globe       globe.Stats                  `json:"globe"`
	Hosts       map[string]tracker.HostStats `json:"hosts"`
	Stream      StreamStats                  `json:"stream"`
	Diagnostics DiagnosticsStats             `json:"diagnostics"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Globe:       h.host.Stats(),
		Hosts:       h.tracker.Snapshot(),
		Diagnostics: h.gatherDiagnostics(),
	}
	if h.hub != nil {
		resp.Stream = StreamStats{Clients: h.hub.Clients(), Dropped: h.hub.Dropped()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StatsHandler) gatherDiagnostics() DiagnosticsStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	h.mu.Lock()
	if ms.Sys > h.maxMem {
		h.maxMem = ms.Sys
	}
	peak := h.maxMem
	h.mu.Unlock()

	return DiagnosticsStats{
		MemoryMB:    bToMb(ms.Sys),
		MemoryMaxMB: bToMb(peak),
		Goroutines:  runtime.NumGoroutine(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
