package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// CameraSource captures live frames from a camera device.
type CameraSource struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
}

// NewCameraSource creates a camera source for the given device ID.
func NewCameraSource(deviceID int) *CameraSource {
	return &CameraSource{deviceID: deviceID}
}

// Open acquires the camera. A missing device or denied permission
// surfaces here as an error; no resources are held on failure.
func (c *CameraSource) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("failed to open camera %d: %w", c.deviceID, err)
	}

	// Resolution hint; the driver may pick the closest supported mode.
	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)

	c.capture = capture
	c.running = true

	return nil
}

// Close stops the capture device and releases it.
func (c *CameraSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *CameraSource) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// IsOpen returns true if the camera is currently open and running.
func (c *CameraSource) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
