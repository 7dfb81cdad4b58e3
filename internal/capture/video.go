package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// VideoFileSource decodes frames from a video file. Unlike a camera it
// is finite: once the decoder runs out of frames the source reports
// Ended and every further read returns ErrSourceEnded.
type VideoFileSource struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	ended   bool
	width   int
	height  int
}

// NewVideoFileSource creates a source decoding the given video file.
func NewVideoFileSource(path string) *VideoFileSource {
	return &VideoFileSource{path: path}
}

// Open opens the video file for decoding.
func (v *VideoFileSource) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("failed to open video file %s: %w", v.path, err)
	}

	v.capture = capture
	v.running = true
	v.ended = false
	v.width = int(capture.Get(gocv.VideoCaptureFrameWidth))
	v.height = int(capture.Get(gocv.VideoCaptureFrameHeight))

	return nil
}

// Close releases the decoder.
func (v *VideoFileSource) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		v.running = false
		return nil
	}

	err := v.capture.Close()
	v.capture = nil
	v.running = false

	return err
}

// ReadFrame reads the next decoded frame. A failed read on an open
// file marks the source as ended; end of file is a terminal state,
// not an error condition the caller should surface.
func (v *VideoFileSource) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		return nil, ErrSourceNotOpen
	}

	if v.ended {
		return nil, ErrSourceEnded
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		v.ended = true
		return nil, ErrSourceEnded
	}

	return &mat, nil
}

// Ended reports whether playback reached the end of the file.
func (v *VideoFileSource) Ended() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.ended
}

// Size returns the natural frame dimensions of the file.
// Only valid after Open.
func (v *VideoFileSource) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.width, v.height
}

// IsOpen returns true if the file is currently open for decoding.
func (v *VideoFileSource) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.running
}
