package api

import (
	"context"
	"log/slog"
	"net/http"

	"adisglobe/pkg/globe"
)

// ReloadFunc fetches the dataset again and replaces the pollution layer.
type ReloadFunc func(ctx context.Context) (globe.LayerStats, error)

// DataHandler serves dataset reloads.
type DataHandler struct {
	reload ReloadFunc
}

// NewDataHandler wraps reload.
func NewDataHandler(reload ReloadFunc) *DataHandler {
	return &DataHandler{reload: reload}
}

// HandleReload runs a fresh fetch. On failure the current layer is kept.
func (h *DataHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reload(r.Context())
	if err != nil {
		slog.Error("Dataset reload failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
