// Package transport implements the client side of the detector
// service endpoints: a persistent WebSocket stream for live capture,
// an awaited per-frame HTTP call for video files and a one-shot
// multipart upload for still images.
package transport

// Default endpoint paths on the detector service.
const (
	StreamPath = "/ws/detect"
	FramePath  = "/api/detect/base64"
	ImagePath  = "/api/detect/image"
)

// Face is a detected bounding box in source-frame pixel coordinates.
type Face struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is a detection reply for one frame. Faces keep the order the
// detector returned them in; no re-sorting happens anywhere.
type Result struct {
	Faces           []Face  `json:"faces"`
	FacesCount      int     `json:"faces_count"`
	DetectionTimeMs float64 `json:"detection_time_ms"`
}

// FrameRequest is the unit sent over the stream: an encoded frame plus
// the settings snapshot taken at send time.
type FrameRequest struct {
	Frame        string  `json:"frame"`
	ScaleFactor  float64 `json:"scale_factor"`
	MinNeighbors int     `json:"min_neighbors"`
}

// ImageResult is the reply from the one-shot image endpoint. The
// detector composites the annotation server-side and returns the
// rendered image as a data URI.
type ImageResult struct {
	Success         bool    `json:"success"`
	Faces           []Face  `json:"faces"`
	FacesCount      int     `json:"faces_count"`
	DetectionTimeMs float64 `json:"detection_time_ms"`
	ImageData       string  `json:"image_data"`
	Error           string  `json:"error,omitempty"`
}
