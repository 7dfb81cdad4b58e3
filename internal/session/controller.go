// Package session owns the detection session state machine: mode
// selection, frame pacing, transport lifecycle and the teardown
// guarantee that stopping leaves zero live resources.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/capture"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/settings"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/stats"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/transport"
)

// DefaultInterval caps capture at ~15 frames per second regardless of
// how fast the source can produce frames.
const DefaultInterval = 66 * time.Millisecond

// Mode identifies the active detection mode.
type Mode int

// Detection modes.
const (
	ModeIdle Mode = iota
	ModeLive
	ModeSingleImage
	ModeFileVideo
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLive:
		return "live"
	case ModeSingleImage:
		return "single-image"
	case ModeFileVideo:
		return "file-video"
	default:
		return "unknown"
	}
}

// ErrNoMode is returned by Start while no mode is selected.
var ErrNoMode = errors.New("no detection mode selected")

// Streamer is the persistent fire-and-forget transport used in live
// mode. Satisfied by transport.StreamClient.
type Streamer interface {
	Ready() bool
	Send(transport.FrameRequest) error
	Results() <-chan transport.Result
	Close() error
}

// FrameDetector is the awaited per-frame transport used for video
// files. Satisfied by transport.FrameClient.
type FrameDetector interface {
	Detect(ctx context.Context, frame string, scaleFactor float64, minNeighbors int) (transport.Result, error)
}

// ImageDetector is the one-shot transport for still images.
// Satisfied by transport.ImageClient.
type ImageDetector interface {
	Detect(ctx context.Context, filename string, data []byte, scaleFactor float64, minNeighbors int) (transport.ImageResult, error)
}

// FiniteSource is a frame source with an end, such as a video file.
type FiniteSource interface {
	capture.Source
	Ended() bool
}

// Sink receives the pipeline's output: annotated frames and
// user-visible error messages. Publish takes ownership of the Mat.
// Reset restores the idle view on teardown.
type Sink interface {
	Publish(frame *gocv.Mat)
	Error(msg string)
	Reset()
}

// Config wires a Controller. The injection points default to the real
// implementations; tests swap in mocks.
type Config struct {
	Settings *settings.Store
	Stats    *stats.Tracker
	Sink     Sink

	// DialStream opens the live streaming transport.
	DialStream func() (Streamer, error)
	// NewCamera acquires the live frame source.
	NewCamera func() capture.Source
	// NewVideoSource opens a video file frame source.
	NewVideoSource func(path string) FiniteSource
	// ReadFile loads a still image for one-shot detection.
	ReadFile func(path string) ([]byte, error)

	Frames FrameDetector
	Images ImageDetector

	// Interval paces capture; zero means DefaultInterval.
	Interval time.Duration
}

// Controller is the top-level session state machine. Exactly one
// exists per process. Control calls (SelectMode, Start, Stop) may come
// from the tray and HTTP goroutines; the capture loops themselves run
// on a single goroutine owned by the controller.
type Controller struct {
	config   Config
	interval time.Duration

	// startStop serializes SelectMode, Start and Stop end to end, so a
	// stop racing a concurrent start can never interleave its Wait with
	// the new session's Add on the shared WaitGroup.
	startStop sync.Mutex

	mu        sync.Mutex
	mode      Mode
	detecting bool
	source    capture.Source
	stream    Streamer
	stopCh    chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a Controller in the idle state.
func New(config Config) *Controller {
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Controller{
		config:   config,
		interval: interval,
		mode:     ModeIdle,
	}
}

// Mode returns the currently selected mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mode
}

// Detecting reports whether a session is active.
func (c *Controller) Detecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.detecting
}

// SelectMode switches the displayed mode. Any running session is fully
// torn down first, so switching away from live stops the camera.
func (c *Controller) SelectMode(m Mode) {
	c.startStop.Lock()
	defer c.startStop.Unlock()

	c.stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

// Start begins detection in the selected mode. For live mode the
// camera is acquired immediately; file modes take the chosen path.
// Acquisition failures are surfaced on the sink and leave the
// controller idle with no live resources.
func (c *Controller) Start(path string) error {
	c.startStop.Lock()
	defer c.startStop.Unlock()

	// Converge on a clean slate no matter what state we are in.
	c.stop()

	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()

	switch mode {
	case ModeLive:
		return c.startLive()
	case ModeFileVideo:
		return c.startFileVideo(path)
	case ModeSingleImage:
		return c.startSingleImage(path)
	default:
		return ErrNoMode
	}
}

// Stop tears the active session down: the next scheduled tick is
// canceled, any awaited request is aborted, the transport is closed,
// the capture device is released and the stats display resets.
// Idempotent; safe from any state. Returns promptly even while a
// request is in flight.
func (c *Controller) Stop() {
	c.startStop.Lock()
	defer c.startStop.Unlock()

	c.stop()
}

// stop does the actual teardown. Callers hold startStop.
func (c *Controller) stop() {
	c.mu.Lock()
	stop := c.stopCh
	stream := c.stream
	source := c.source
	cancel := c.cancel
	c.stopCh = nil
	c.stream = nil
	c.source = nil
	c.cancel = nil
	c.detecting = false
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if cancel != nil {
		// Abort an in-flight awaited request so the Wait below does
		// not ride out the HTTP client timeout.
		cancel()
	}
	if stream != nil {
		stream.Close()
	}
	if source != nil {
		source.Close()
	}

	c.wg.Wait()

	if c.config.Stats != nil {
		c.config.Stats.Reset()
	}
	if c.config.Sink != nil {
		c.config.Sink.Reset()
	}
}

// startLive acquires the camera and streaming transport and kicks off
// the live capture loop.
func (c *Controller) startLive() error {
	source := c.config.NewCamera()
	if err := source.Open(); err != nil {
		c.fail(fmt.Sprintf("Could not access the camera: %v", err))
		return err
	}

	stream, err := c.config.DialStream()
	if err != nil {
		source.Close()
		c.fail(fmt.Sprintf("Could not reach the detector: %v", err))
		return err
	}

	stop := make(chan struct{})
	id := shortID()

	c.mu.Lock()
	c.source = source
	c.stream = stream
	c.stopCh = stop
	c.detecting = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLive(stop, source, stream, id)

	log.Printf("[%s] Live detection started", id)
	return nil
}

// startFileVideo opens the video file and starts the sequential
// per-frame loop.
func (c *Controller) startFileVideo(path string) error {
	source := c.config.NewVideoSource(path)
	if err := source.Open(); err != nil {
		c.fail(fmt.Sprintf("Could not open video file: %v", err))
		return err
	}

	stop := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	id := shortID()

	c.mu.Lock()
	c.source = source
	c.stopCh = stop
	c.cancel = cancel
	c.detecting = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runFileVideo(ctx, stop, source, id)

	log.Printf("[%s] Video file detection started: %s", id, path)
	return nil
}

// fail guarantees full teardown, then reports a user-visible error.
// Teardown comes first so the sink reset cannot wipe the message.
// Only called from the start paths, which hold startStop.
func (c *Controller) fail(msg string) {
	log.Println(msg)
	c.stop()
	if c.config.Sink != nil {
		c.config.Sink.Error(msg)
	}
}

// setDetecting flips the detecting flag without touching resources.
// Used by loops reaching their terminal state on their own.
func (c *Controller) setDetecting(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detecting = v
}

// stopped reports whether the given session's stop channel fired.
func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}
