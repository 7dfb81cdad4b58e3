// Package stats maintains the rolling throughput and latency counters
// shown alongside the detection preview.
package stats

import (
	"math"
	"sync"
	"time"
)

// Window is the fps measurement window.
const Window = time.Second

// Snapshot is a point-in-time view of the tracker counters.
type Snapshot struct {
	FPS             int     `json:"fps"`
	LastFacesCount  int     `json:"last_faces_count"`
	LastDetectionMs float64 `json:"last_detection_time_ms"`
}

// Tracker counts sent (live) or processed (file video) frames over a
// one second rolling window and remembers the most recent detection
// result. Safe for use from the pipeline loop and HTTP handlers.
type Tracker struct {
	mu sync.Mutex

	now func() time.Time

	windowStart time.Time
	counter     int

	fps             int
	lastFacesCount  int
	lastDetectionMs float64
}

// NewTracker creates a Tracker using the real clock.
func NewTracker() *Tracker {
	return newTracker(time.Now)
}

func newTracker(now func() time.Time) *Tracker {
	return &Tracker{
		now:         now,
		windowStart: now(),
	}
}

// Frame records one frame. If the current window has lasted at least
// one second the counter is published as fps, the counter resets and
// the window boundary advances to now.
func (t *Tracker) Frame() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++

	now := t.now()
	if now.Sub(t.windowStart) >= Window {
		t.fps = t.counter
		t.counter = 0
		t.windowStart = now
	}
}

// Record overwrites the last-result counters. Detection time is
// rounded to two decimals for display.
func (t *Tracker) Record(facesCount int, detectionMs float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastFacesCount = facesCount
	t.lastDetectionMs = math.Round(detectionMs*100) / 100
}

// Reset zeroes all counters and restarts the window. Called on every
// session stop so the display returns to the idle state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter = 0
	t.fps = 0
	t.lastFacesCount = 0
	t.lastDetectionMs = 0
	t.windowStart = t.now()
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		FPS:             t.fps,
		LastFacesCount:  t.lastFacesCount,
		LastDetectionMs: t.lastDetectionMs,
	}
}
