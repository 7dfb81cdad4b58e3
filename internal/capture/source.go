// Package capture provides frame sources for the detection pipeline
// using GoCV (OpenCV): a live camera, a decoded video file and a mock
// for tests.
package capture

import (
	"errors"

	"gocv.io/x/gocv"
)

// Ideal capture resolution hint passed to the camera.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Errors returned by frame sources.
var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")
	// ErrSourceEnded is returned by a video file source once playback ended.
	ErrSourceEnded = errors.New("source has ended")
)

// Source is an acquired frame source. It is exclusively owned by the
// capture loop while a session is active and must be closed on every
// transition out of the active state.
type Source interface {
	// Open acquires the underlying device or file.
	Open() error

	// Close releases the device or file. Safe to call more than once.
	Close() error

	// ReadFrame reads the next frame. The caller owns the returned Mat
	// and must close it.
	ReadFrame() (*gocv.Mat, error)

	// IsOpen reports whether the source currently holds a live handle.
	IsOpen() bool
}
