package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// frameResponse mirrors the per-frame endpoint's reply envelope.
type frameResponse struct {
	Success         bool    `json:"success"`
	Faces           []Face  `json:"faces"`
	FacesCount      int     `json:"faces_count"`
	DetectionTimeMs float64 `json:"detection_time_ms"`
	Error           string  `json:"error,omitempty"`
}

// FrameClient issues one awaited request per video frame. The caller
// blocks on Detect before capturing the next frame, which is the
// backpressure mechanism for file playback: at most one request is in
// flight and results arrive in frame order.
type FrameClient struct {
	baseURL string
	client  *http.Client
}

// NewFrameClient creates a client for the per-frame detection endpoint.
func NewFrameClient(baseURL string) *FrameClient {
	return &FrameClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Detect submits one encoded frame and waits for its detection result.
func (c *FrameClient) Detect(ctx context.Context, frame string, scaleFactor float64, minNeighbors int) (Result, error) {
	form := url.Values{}
	form.Set("image_data", frame)
	form.Set("scale_factor", strconv.FormatFloat(scaleFactor, 'f', -1, 64))
	form.Set("min_neighbors", strconv.Itoa(minNeighbors))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+FramePath, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build frame request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("frame request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("frame request rejected: %s", resp.Status)
	}

	var body frameResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("failed to decode frame response: %w", err)
	}

	if !body.Success {
		if body.Error != "" {
			return Result{}, fmt.Errorf("detector rejected frame: %s", body.Error)
		}
		return Result{}, fmt.Errorf("detector rejected frame")
	}

	return Result{
		Faces:           body.Faces,
		FacesCount:      body.FacesCount,
		DetectionTimeMs: body.DetectionTimeMs,
	}, nil
}
