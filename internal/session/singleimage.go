package session

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/overlay"
)

// startSingleImage runs one-shot detection over a still image. The
// detector composites the annotation server-side; on success the
// returned image is decoded and published as-is, with no local overlay
// drawing. Any failure is user-visible and ends the session.
func (c *Controller) startSingleImage(path string) error {
	data, err := c.config.ReadFile(path)
	if err != nil {
		c.fail(fmt.Sprintf("Could not read image file: %v", err))
		return err
	}

	stop := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	id := shortID()

	c.mu.Lock()
	c.stopCh = stop
	c.cancel = cancel
	c.detecting = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runSingleImage(ctx, stop, filepath.Base(path), data, id)

	return nil
}

// runSingleImage performs the single request and publishes the
// annotated image. A stop during the request cancels it; a result that
// still arrives is discarded.
func (c *Controller) runSingleImage(ctx context.Context, stop chan struct{}, filename string, data []byte, id string) {
	defer c.wg.Done()

	snap := c.config.Settings.Snapshot()

	result, err := c.config.Images.Detect(ctx, filename, data, snap.ScaleFactor, snap.MinNeighbors)

	if stopped(stop) {
		return
	}

	if err != nil {
		msg := fmt.Sprintf("Image detection failed: %v", err)
		log.Printf("[%s] %s", id, msg)
		if c.config.Sink != nil {
			c.config.Sink.Error(msg)
		}
		c.setDetecting(false)
		return
	}

	annotated, err := overlay.DecodeDataURI(result.ImageData)
	if err != nil {
		msg := fmt.Sprintf("Detector returned an unreadable image: %v", err)
		log.Printf("[%s] %s", id, msg)
		if c.config.Sink != nil {
			c.config.Sink.Error(msg)
		}
		c.setDetecting(false)
		return
	}

	c.config.Stats.Record(result.FacesCount, result.DetectionTimeMs)

	if c.config.Sink != nil {
		c.config.Sink.Publish(annotated)
	} else {
		annotated.Close()
	}

	log.Printf("[%s] Image processed: %d face(s) in %.2f ms", id, result.FacesCount, result.DetectionTimeMs)
	c.setDetecting(false)
}
