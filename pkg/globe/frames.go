package globe

import (
	"sync"
	"time"
)

// FrameSource delivers display ticks to the render loop. FrameDone is called
// by the loop after each frame has been drawn.
type FrameSource interface {
	Frames() <-chan time.Time
	FrameDone()
	Stop()
}

type tickerSource struct {
	t *time.Ticker
}

// NewTickerSource ticks fps times per second.
func NewTickerSource(fps int) FrameSource {
	if fps <= 0 {
		fps = 60
	}
	return &tickerSource{t: time.NewTicker(time.Second / time.Duration(fps))}
}

func (s *tickerSource) Frames() <-chan time.Time { return s.t.C }
func (s *tickerSource) FrameDone()               {}
func (s *tickerSource) Stop()                    { s.t.Stop() }

// ManualSource is a FrameSource driven by explicit Tick calls.
type ManualSource struct {
	frames chan time.Time
	acks   chan struct{}
	closed chan struct{}
	once   sync.Once
}

// NewManualSource creates a ManualSource.
func NewManualSource() *ManualSource {
	return &ManualSource{
		frames: make(chan time.Time),
		acks:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (m *ManualSource) Frames() <-chan time.Time { return m.frames }

// FrameDone releases the pending Tick.
func (m *ManualSource) FrameDone() {
	select {
	case m.acks <- struct{}{}:
	case <-m.closed:
	}
}

// Stop unblocks pending and future Tick calls.
func (m *ManualSource) Stop() {
	m.once.Do(func() { close(m.closed) })
}

// Tick delivers a frame stamped now and waits until it has been drawn. It
// reports false when the source was stopped first.
func (m *ManualSource) Tick(now time.Time) bool {
	select {
	case m.frames <- now:
	case <-m.closed:
		return false
	}
	select {
	case <-m.acks:
		return true
	case <-m.closed:
		return false
	}
}
