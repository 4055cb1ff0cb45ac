package api

import (
	"errors"
	"net/http"
	"strings"

	"adisglobe/pkg/colorscale"
	"adisglobe/pkg/geo"
	"adisglobe/pkg/globe"
	"adisglobe/pkg/model"
	"adisglobe/pkg/render"
)

// InputSurface is the part of a headless surface the API injects input into.
type InputSurface interface {
	Size() (width, height int)
	Resize(width, height int) error
	Click(x, y float64) error
}

// GlobeHandler exposes camera control, selection and pointer injection.
type GlobeHandler struct {
	host    *globe.Host
	surface InputSurface
	cities  []model.CityMarker
}

// NewGlobeHandler creates a handler for host. cities is the configured list
// used for /api/cities and fly-to by name.
func NewGlobeHandler(host *globe.Host, surface InputSurface, cities []model.CityMarker) *GlobeHandler {
	return &GlobeHandler{host: host, surface: surface, cities: cities}
}

// CityDTO is a marker as listed by /api/cities.
type CityDTO struct {
	Name     string       `json:"name"`
	Lat      float64      `json:"lat"`
	Lon      float64      `json:"lon"`
	AQI      int          `json:"aqi"`
	Category string       `json:"category"`
	Color    render.Color `json:"color"`
}

func handleLegend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, colorscale.Legend())
}

// HandleCities lists the configured markers with their colors.
func (h *GlobeHandler) HandleCities(w http.ResponseWriter, r *http.Request) {
	out := make([]CityDTO, len(h.cities))
	for i, c := range h.cities {
		sev := float64(c.Severity)
		out[i] = CityDTO{
			Name:     c.Name,
			Lat:      c.Coordinate.Lat,
			Lon:      c.Coordinate.Lon,
			AQI:      c.Severity,
			Category: colorscale.CategoryFor(sev).Level,
			Color:    colorscale.ColorFor(sev),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSelection returns the active selection or 204.
func (h *GlobeHandler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.host.Selection()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// HandleDismiss clears the selection.
func (h *GlobeHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"dismissed": h.host.Dismiss()})
}

// HandleCamera returns the camera snapshot.
func (h *GlobeHandler) HandleCamera(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.host.Director().State())
}

// HandleReset queues a view reset.
func (h *GlobeHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.host.Director().ResetView()
	w.WriteHeader(http.StatusAccepted)
}

type flyRequest struct {
	City string   `json:"city"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

// HandleFly starts a fly-to by city name or coordinate.
func (h *GlobeHandler) HandleFly(w http.ResponseWriter, r *http.Request) {
	var req flyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var target geo.Coordinate
	switch {
	case req.City != "":
		c, ok := h.findCity(req.City)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown city: "+req.City)
			return
		}
		target = c.Coordinate
	case req.Lat != nil && req.Lon != nil:
		if !geo.Valid(*req.Lat, *req.Lon) {
			writeError(w, http.StatusBadRequest, "coordinate out of range")
			return
		}
		target = geo.NewCoordinate(*req.Lat, *req.Lon)
	default:
		writeError(w, http.StatusBadRequest, "city or lat/lon required")
		return
	}

	h.host.Director().FlyToCity(target, nil)
	writeJSON(w, http.StatusAccepted, map[string]geo.Coordinate{"target": target})
}

func (h *GlobeHandler) findCity(name string) (model.CityMarker, bool) {
	for _, c := range h.cities {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.CityMarker{}, false
}

type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// HandleResize resizes the surface; the host applies it at the next frame.
func (h *GlobeHandler) HandleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}
	if err := h.surface.Resize(req.Width, req.Height); err != nil {
		h.surfaceError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type clickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClickResponse reports what a click picked. Selection is set when Hit.
type ClickResponse struct {
	Hit       bool             `json:"hit"`
	Selection *model.Selection `json:"selection,omitempty"`
}

// HandleClick injects a click and waits for the render goroutine to pick.
func (h *GlobeHandler) HandleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if !decodeBody(w, r, &req) {
		return
	}
	width, height := h.surface.Size()
	if req.X < 0 || req.Y < 0 || req.X > float64(width) || req.Y > float64(height) {
		writeError(w, http.StatusBadRequest, "click outside the surface")
		return
	}

	before, _ := h.host.Selection()
	if err := h.surface.Click(req.X, req.Y); err != nil {
		h.surfaceError(w, err)
		return
	}
	// Pointer events are queued ahead of this no-op, so once it runs the
	// pick has happened.
	if err := h.host.Do(r.Context(), func() {}); err != nil {
		h.surfaceError(w, err)
		return
	}

	resp := ClickResponse{}
	if sel, ok := h.host.Selection(); ok && sel.ID != before.ID {
		resp.Hit = true
		resp.Selection = &sel
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GlobeHandler) surfaceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, render.ErrDetached), errors.Is(err, globe.ErrTornDown):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
