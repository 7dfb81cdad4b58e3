package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back pre-recorded frames for testing.
type MockSource struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
	ended   bool
}

// NewMockSource creates a mock source replaying the given frames.
// With loop=true the sequence repeats forever; otherwise the source
// ends after the last frame, like a video file.
func NewMockSource(frames []*gocv.Mat, loop bool) *MockSource {
	return &MockSource{
		frames: frames,
		loop:   loop,
	}
}

// Open marks the source as running and rewinds playback.
func (m *MockSource) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = true
	m.ended = false
	m.index = 0

	return nil
}

// Close marks the source as stopped.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false

	return nil
}

// ReadFrame returns a clone of the next frame so callers can close it
// without touching the recorded originals.
func (m *MockSource) ReadFrame() (*gocv.Mat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil, ErrSourceNotOpen
	}

	if m.index >= len(m.frames) {
		if !m.loop || len(m.frames) == 0 {
			m.ended = true
			return nil, ErrSourceEnded
		}
		m.index = 0
	}

	frame := m.frames[m.index].Clone()
	m.index++

	return &frame, nil
}

// Ended reports whether a non-looping mock ran out of frames.
func (m *MockSource) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ended
}

// IsOpen returns true if the source is open.
func (m *MockSource) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.running
}
