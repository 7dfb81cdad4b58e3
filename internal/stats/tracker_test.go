package stats

import (
	"testing"
	"time"
)

// fakeClock advances manually so window boundaries are deterministic.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTracker_PublishesFPSAtWindowBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTracker(clock.now)

	// 22 frames inside the window, the 23rd lands on the boundary.
	for i := 0; i < 22; i++ {
		clock.advance(40 * time.Millisecond)
		tr.Frame()
	}
	if got := tr.Snapshot().FPS; got != 0 {
		t.Fatalf("fps published before window elapsed: %d", got)
	}

	clock.advance(time.Second) // well past the boundary
	tr.Frame()

	if got := tr.Snapshot().FPS; got != 23 {
		t.Errorf("fps = %d, want 23", got)
	}

	// Counter must have reset: one more frame inside the new window
	// does not change the published fps.
	clock.advance(10 * time.Millisecond)
	tr.Frame()
	if got := tr.Snapshot().FPS; got != 23 {
		t.Errorf("fps = %d after reset, want 23 until next boundary", got)
	}
}

func TestTracker_WindowRestartsAfterPublish(t *testing.T) {
	clock := &fakeClock{t: time.Unix(2000, 0)}
	tr := newTracker(clock.now)

	clock.advance(time.Second)
	tr.Frame() // publishes fps=1, resets

	for i := 0; i < 4; i++ {
		clock.advance(250 * time.Millisecond)
		tr.Frame()
	}
	// The fourth frame lands on the boundary: 4 frames in the window.
	if got := tr.Snapshot().FPS; got != 4 {
		t.Errorf("fps = %d, want 4", got)
	}
}

func TestTracker_RecordOverwritesUnconditionally(t *testing.T) {
	tr := NewTracker()

	tr.Record(3, 41.237)
	tr.Record(1, 12.004)

	snap := tr.Snapshot()
	if snap.LastFacesCount != 1 {
		t.Errorf("LastFacesCount = %d, want 1", snap.LastFacesCount)
	}
	if snap.LastDetectionMs != 12.0 {
		t.Errorf("LastDetectionMs = %v, want 12.0", snap.LastDetectionMs)
	}
}

func TestTracker_Reset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(3000, 0)}
	tr := newTracker(clock.now)

	clock.advance(time.Second)
	tr.Frame()
	tr.Record(5, 99.9)

	tr.Reset()

	snap := tr.Snapshot()
	if snap.FPS != 0 || snap.LastFacesCount != 0 || snap.LastDetectionMs != 0 {
		t.Errorf("counters not zeroed after Reset: %+v", snap)
	}
}
