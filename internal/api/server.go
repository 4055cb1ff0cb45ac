package api

import (
	"log/slog"
	"net/http"
	"time"

	"adisglobe/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
// A nil data handler disables reloads; a nil metrics handler disables /metrics.
func NewServer(addr string, globeH *GlobeHandler, stream *StreamHandler, data *DataHandler, stats *StatsHandler, metricsH http.Handler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health, version and log endpoints
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 2. Reference data
	mux.HandleFunc("GET /api/legend", handleLegend)
	mux.HandleFunc("GET /api/cities", globeH.HandleCities)

	// 3. Selection
	mux.HandleFunc("GET /api/selection", globeH.HandleSelection)
	mux.HandleFunc("DELETE /api/selection", globeH.HandleDismiss)
	mux.Handle("GET /api/selection/stream", stream)

	// 4. Camera
	mux.HandleFunc("GET /api/camera", globeH.HandleCamera)
	mux.HandleFunc("POST /api/camera/reset", globeH.HandleReset)
	mux.HandleFunc("POST /api/camera/fly", globeH.HandleFly)

	// 5. Surface input
	mux.HandleFunc("POST /api/surface/resize", globeH.HandleResize)
	mux.HandleFunc("POST /api/surface/click", globeH.HandleClick)

	// 6. Data and stats
	if data != nil {
		mux.HandleFunc("POST /api/data/reload", data.HandleReload)
	}
	mux.Handle("GET /api/stats", stats)
	if metricsH != nil {
		mux.Handle("GET /metrics", metricsH)
	}

	// 7. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// WriteTimeout is left unset: the selection stream is long-lived.
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}
