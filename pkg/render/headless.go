package render

import (
	"fmt"
	"sync"
	"time"
)

// Stats is a point-in-time view of a Headless device.
type Stats struct {
	Frames      uint64         `json:"frames"`
	LastItems   int            `json:"last_items"`
	LastFrameAt time.Time      `json:"last_frame_at"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Created     map[string]int `json:"created"`
	Released    map[string]int `json:"released"`
	Outstanding int            `json:"outstanding"`
	Disposed    bool           `json:"disposed"`
}

// Headless is a Device that keeps no pixels. It records every allocation and
// frame so leaks and draw volume can be observed; it doubles as the
// resource-tracking device in tests.
type Headless struct {
	mu sync.Mutex

	next     ResourceID
	live     map[ResourceID]Kind
	created  [3]int
	released [3]int

	width, height int
	frames        uint64
	lastItems     int
	lastFrameAt   time.Time
	disposed      bool
}

// NewHeadless creates an empty headless device.
func NewHeadless() *Headless {
	return &Headless{live: make(map[ResourceID]Kind)}
}

func (h *Headless) alloc(k Kind) (ResourceID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return 0, ErrDisposed
	}
	h.next++
	h.live[h.next] = k
	h.created[k]++
	return h.next, nil
}

func (h *Headless) CreateGeometry(desc GeometryDesc) (ResourceID, error) {
	if desc.Radius <= 0 {
		return 0, fmt.Errorf("invalid sphere radius %v", desc.Radius)
	}
	return h.alloc(KindGeometry)
}

func (h *Headless) CreateMaterial(desc MaterialDesc) (ResourceID, error) {
	return h.alloc(KindMaterial)
}

func (h *Headless) CreateTexture(desc TextureDesc) (ResourceID, error) {
	return h.alloc(KindTexture)
}

// Release frees id. Releasing an id twice reports ErrUnknownResource.
func (h *Headless) Release(id ResourceID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	k, ok := h.live[id]
	if !ok {
		return fmt.Errorf("release %d: %w", id, ErrUnknownResource)
	}
	delete(h.live, id)
	h.released[k]++
	return nil
}

func (h *Headless) SetSize(width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
}

// Draw validates that every referenced resource is live and records the frame.
func (h *Headless) Draw(f *Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return ErrDisposed
	}
	for i := range f.Items {
		it := &f.Items[i]
		if _, ok := h.live[it.Geometry]; !ok {
			return fmt.Errorf("draw item %d geometry %d: %w", i, it.Geometry, ErrUnknownResource)
		}
		if _, ok := h.live[it.Material]; !ok {
			return fmt.Errorf("draw item %d material %d: %w", i, it.Material, ErrUnknownResource)
		}
	}
	h.frames++
	h.lastItems = len(f.Items)
	h.lastFrameAt = f.Time
	return nil
}

// Dispose shuts the device down. Outstanding resources are NOT reclaimed so
// callers that forgot a Release still show up in Outstanding.
func (h *Headless) Dispose() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disposed = true
	return nil
}

// Outstanding returns the number of live allocations.
func (h *Headless) Outstanding() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// OutstandingOf returns the number of live allocations of kind k.
func (h *Headless) OutstandingOf(k Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.created[k] - h.released[k]
}

// Stats returns a snapshot of the device counters.
func (h *Headless) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := Stats{
		Frames:      h.frames,
		LastItems:   h.lastItems,
		LastFrameAt: h.lastFrameAt,
		Width:       h.width,
		Height:      h.height,
		Created:     make(map[string]int, 3),
		Released:    make(map[string]int, 3),
		Outstanding: len(h.live),
		Disposed:    h.disposed,
	}
	for k := KindGeometry; k <= KindTexture; k++ {
		s.Created[k.String()] = h.created[k]
		s.Released[k.String()] = h.released[k]
	}
	return s
}
