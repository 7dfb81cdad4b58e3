package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ImageClient uploads a whole image file for one-shot detection.
// The detector annotates the image server-side; no local overlay
// drawing happens for this mode.
type ImageClient struct {
	baseURL string
	client  *http.Client
}

// NewImageClient creates a client for the one-shot image endpoint.
func NewImageClient(baseURL string) *ImageClient {
	return &ImageClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Detect uploads the raw file bytes plus the settings snapshot and
// returns the detector's annotated result. A response with
// success=false is surfaced as an error carrying the detector's
// message.
func (c *ImageClient) Detect(ctx context.Context, filename string, data []byte, scaleFactor float64, minNeighbors int) (ImageResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return ImageResult{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return ImageResult{}, fmt.Errorf("failed to build upload: %w", err)
	}

	if err := w.WriteField("scale_factor", strconv.FormatFloat(scaleFactor, 'f', -1, 64)); err != nil {
		return ImageResult{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := w.WriteField("min_neighbors", strconv.Itoa(minNeighbors)); err != nil {
		return ImageResult{}, fmt.Errorf("failed to build upload: %w", err)
	}

	if err := w.Close(); err != nil {
		return ImageResult{}, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ImagePath, &buf)
	if err != nil {
		return ImageResult{}, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return ImageResult{}, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ImageResult{}, fmt.Errorf("image request rejected: %s", resp.Status)
	}

	var result ImageResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ImageResult{}, fmt.Errorf("failed to decode image response: %w", err)
	}

	if !result.Success {
		if result.Error != "" {
			return ImageResult{}, fmt.Errorf("detector error: %s", result.Error)
		}
		return ImageResult{}, fmt.Errorf("detector reported failure")
	}

	return result, nil
}
