package session

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/capture"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/overlay"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/transport"
)

// runLive is the live-mode capture loop. Sends are fire-and-forget:
// the tick never waits for a reply, so the feed stays responsive when
// the detector is slow, at the cost of unbounded in-flight requests
// (a known limitation carried over deliberately). Replies may arrive
// out of send order; each is rendered independently, last writer wins.
func (c *Controller) runLive(stop chan struct{}, source capture.Source, stream Streamer, id string) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Most recent captured frame, kept as the canvas for the next
	// result to arrive.
	var lastFrame *gocv.Mat
	defer func() {
		if lastFrame != nil {
			lastFrame.Close()
		}
	}()

	results := stream.Results()

	for {
		select {
		case <-stop:
			return

		case result, ok := <-results:
			if !ok {
				// Socket closed. The readiness check makes every
				// further tick a no-op; the session ends when the
				// user stops it.
				log.Printf("[%s] Detector stream ended", id)
				results = nil
				continue
			}
			c.renderLive(result, lastFrame)

		case <-ticker.C:
			c.liveTick(stream, source, &lastFrame, id)
		}
	}
}

// liveTick captures and submits one frame. Skip conditions come
// first: an unready stream (skip-frame backpressure, frames are never
// buffered) and a source that produced no frame.
func (c *Controller) liveTick(stream Streamer, source capture.Source, lastFrame **gocv.Mat, id string) {
	if !stream.Ready() {
		return
	}

	frame, err := source.ReadFrame()
	if err != nil {
		return
	}

	encoded, err := capture.EncodeFrame(frame, capture.JPEGQuality)
	if err != nil {
		log.Printf("[%s] Failed to encode frame: %v", id, err)
		frame.Close()
		return
	}

	// Settings are snapshotted at send time; later changes never
	// affect this request.
	snap := c.config.Settings.Snapshot()

	err = stream.Send(transport.FrameRequest{
		Frame:        encoded,
		ScaleFactor:  snap.ScaleFactor,
		MinNeighbors: snap.MinNeighbors,
	})
	if err != nil {
		log.Printf("[%s] Failed to send frame: %v", id, err)
		frame.Close()
		return
	}

	if *lastFrame != nil {
		(*lastFrame).Close()
	}
	*lastFrame = frame

	c.config.Stats.Frame()
}

// renderLive draws one result over a copy of the latest frame and
// publishes it. Results older than the newest rendered one simply get
// overwritten by the next arrival.
func (c *Controller) renderLive(result transport.Result, lastFrame *gocv.Mat) {
	c.config.Stats.Record(result.FacesCount, result.DetectionTimeMs)

	if lastFrame == nil || c.config.Sink == nil {
		return
	}

	canvas := lastFrame.Clone()
	overlay.Draw(&canvas, result, c.config.Settings.Snapshot())
	c.config.Sink.Publish(&canvas)
}
