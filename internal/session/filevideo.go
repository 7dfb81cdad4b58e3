package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/capture"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/overlay"
)

// runFileVideo is the sequential per-frame loop for video files. Each
// frame's request is awaited before the next frame is captured, so at
// most one request is in flight and results stay in frame order. End
// of file is terminal and not an error; per-frame transport errors are
// logged and swallowed, the loop proceeds with the next frame. The
// context is canceled on Stop, aborting the awaited request.
func (c *Controller) runFileVideo(ctx context.Context, stop chan struct{}, source FiniteSource, id string) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		frame, err := source.ReadFrame()
		if errors.Is(err, capture.ErrSourceEnded) {
			// Playback finished. Release the file and flip detecting
			// off; the stats display keeps its final values until the
			// user stops or switches mode.
			log.Printf("[%s] Video playback finished", id)
			source.Close()
			c.setDetecting(false)
			return
		}
		if err != nil {
			if stopped(stop) {
				return
			}
			log.Printf("[%s] Failed to read video frame: %v", id, err)
			continue
		}

		encoded, err := capture.EncodeFrame(frame, capture.JPEGQuality)
		if err != nil {
			log.Printf("[%s] Failed to encode video frame: %v", id, err)
			frame.Close()
			continue
		}

		snap := c.config.Settings.Snapshot()

		// The await below is the backpressure mechanism: the next
		// frame is not captured until this result (or error) is in.
		result, err := c.config.Frames.Detect(ctx, encoded, snap.ScaleFactor, snap.MinNeighbors)

		if stopped(stop) {
			// Session ended while the request was in flight; the
			// result no longer has a surface to land on.
			frame.Close()
			return
		}

		if err != nil {
			log.Printf("[%s] Frame detection failed: %v", id, err)
			frame.Close()
			c.config.Stats.Frame()
			continue
		}

		overlay.Draw(frame, result, snap)
		if c.config.Sink != nil {
			c.config.Sink.Publish(frame)
		} else {
			frame.Close()
		}

		c.config.Stats.Frame()
		c.config.Stats.Record(result.FacesCount, result.DetectionTimeMs)
	}
}
