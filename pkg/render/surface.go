package render

import (
	"errors"
	"sync"
)

// ErrDetached is returned by operations on a surface that was already detached.
var ErrDetached = errors.New("render: surface detached")

// PointerKind enumerates pointer event types.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerWheel
)

// PointerEvent is a pointer interaction in surface pixel coordinates
// (origin top-left).
type PointerEvent struct {
	Kind   PointerKind
	X, Y   float64
	DeltaY float64 // wheel only; positive zooms out
}

// Surface is a mountable drawing region whose size tracks its container.
// Listener callbacks may run on any goroutine.
type Surface interface {
	Size() (width, height int)
	OnResize(fn func(width, height int)) (remove func())
	OnPointer(fn func(PointerEvent)) (remove func())
	Attached() bool
	Detach() error
}

// VirtualSurface is an in-memory Surface. Resizes and pointer input are
// injected by the owner (tests, the HTTP API) and delivered synchronously to
// listeners on the caller's goroutine.
type VirtualSurface struct {
	mu       sync.Mutex
	width    int
	height   int
	attached bool
	nextID   int
	resize   map[int]func(int, int)
	pointer  map[int]func(PointerEvent)
}

// NewVirtualSurface creates an attached surface of the given size.
func NewVirtualSurface(width, height int) *VirtualSurface {
	return &VirtualSurface{
		width:    width,
		height:   height,
		attached: true,
		resize:   make(map[int]func(int, int)),
		pointer:  make(map[int]func(PointerEvent)),
	}
}

func (s *VirtualSurface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *VirtualSurface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

func (s *VirtualSurface) OnResize(fn func(width, height int)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.resize[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.resize, id)
	}
}

func (s *VirtualSurface) OnPointer(fn func(PointerEvent)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.pointer[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pointer, id)
	}
}

// Listeners returns the number of registered listeners.
func (s *VirtualSurface) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resize) + len(s.pointer)
}

// Detach releases the surface. A second call returns ErrDetached.
func (s *VirtualSurface) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrDetached
	}
	s.attached = false
	return nil
}

// Resize changes the surface size and notifies resize observers.
func (s *VirtualSurface) Resize(width, height int) error {
	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return ErrDetached
	}
	s.width, s.height = width, height
	fns := make([]func(int, int), 0, len(s.resize))
	for _, fn := range s.resize {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(width, height)
	}
	return nil
}

// Dispatch delivers a pointer event to listeners.
func (s *VirtualSurface) Dispatch(ev PointerEvent) error {
	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return ErrDetached
	}
	fns := make([]func(PointerEvent), 0, len(s.pointer))
	for _, fn := range s.pointer {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

// Click dispatches a press and release at (x, y).
func (s *VirtualSurface) Click(x, y float64) error {
	if err := s.Dispatch(PointerEvent{Kind: PointerDown, X: x, Y: y}); err != nil {
		return err
	}
	return s.Dispatch(PointerEvent{Kind: PointerUp, X: x, Y: y})
}

// Drag dispatches a press at (x0, y0), a move and a release at (x1, y1).
func (s *VirtualSurface) Drag(x0, y0, x1, y1 float64) error {
	for _, ev := range []PointerEvent{
		{Kind: PointerDown, X: x0, Y: y0},
		{Kind: PointerMove, X: x1, Y: y1},
		{Kind: PointerUp, X: x1, Y: y1},
	} {
		if err := s.Dispatch(ev); err != nil {
			return err
		}
	}
	return nil
}
