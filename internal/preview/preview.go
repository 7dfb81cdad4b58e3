// Package preview exposes the pipeline output over HTTP: an MJPEG
// stream of annotated frames, the stats counters and the settings
// endpoint mutated by the UI shell.
package preview

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/settings"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/stats"
)

// frameInterval paces the MJPEG stream at ~15 FPS.
const frameInterval = 66 * time.Millisecond

// Config holds the preview server configuration.
type Config struct {
	Settings *settings.Store
	Stats    *stats.Tracker

	// OnSettingsChange is called after an accepted settings update,
	// typically to persist the new values.
	OnSettingsChange func(settings.Settings)
}

// Server is the HTTP surface of the client. It also implements
// session.Sink: the pipeline publishes annotated frames here and the
// MJPEG handler serves whichever frame is newest.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time

	mu        sync.Mutex
	latest    *gocv.Mat
	lastError string
}

// New creates a preview Server.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
	s.mux.HandleFunc("/api/stream", s.handleStream)
}

// Publish stores the newest annotated frame, taking ownership of it.
// Implements session.Sink; results landing out of order simply
// overwrite each other (last writer wins).
func (s *Server) Publish(frame *gocv.Mat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest != nil {
		s.latest.Close()
	}
	s.latest = frame
	s.lastError = ""
}

// Error records a user-visible error message. Implements session.Sink.
func (s *Server) Error(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = msg
}

// Reset drops the held frame and error message, restoring the idle
// view. Implements session.Sink; called on every session teardown.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest != nil {
		s.latest.Close()
		s.latest = nil
	}
	s.lastError = ""
}

// Close releases the held frame.
func (s *Server) Close() {
	s.Reset()
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	writeJSON(w, response)
}

// handleStats serves the current stats counters plus the last
// user-visible error, which the UI shell polls for display.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.config.Stats.Snapshot()

	s.mu.Lock()
	lastError := s.lastError
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"fps":                    snap.FPS,
		"last_faces_count":       snap.LastFacesCount,
		"last_detection_time_ms": snap.LastDetectionMs,
		"last_error":             lastError,
	})
}

// settingsPayload is the JSON shape of the settings endpoint.
type settingsPayload struct {
	ScaleFactor  float64 `json:"scale_factor"`
	MinNeighbors int     `json:"min_neighbors"`
	BoxColor     string  `json:"box_color"`
	BoxThickness int     `json:"box_thickness"`
}

// handleSettings serves and mutates the detection settings.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snap := s.config.Settings.Snapshot()
		writeJSON(w, settingsPayload{
			ScaleFactor:  snap.ScaleFactor,
			MinNeighbors: snap.MinNeighbors,
			BoxColor:     settings.FormatHexColor(snap.BoxColor),
			BoxThickness: snap.BoxThickness,
		})

	case http.MethodPost:
		var payload settingsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		boxColor, err := settings.ParseHexColor(payload.BoxColor)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		next := settings.Settings{
			ScaleFactor:  payload.ScaleFactor,
			MinNeighbors: payload.MinNeighbors,
			BoxColor:     boxColor,
			BoxThickness: payload.BoxThickness,
		}
		if err := s.config.Settings.Set(next); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if s.config.OnSettingsChange != nil {
			s.config.OnSettingsChange(next)
		}

		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStream serves the latest annotated frame as MJPEG.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		buf, ok := s.encodeLatest()
		if !ok {
			time.Sleep(frameInterval)
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		w.Write(buf)
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		time.Sleep(frameInterval)
	}
}

// encodeLatest JPEG-encodes the held frame under the lock.
func (s *Server) encodeLatest() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return nil, false
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *s.latest)
	if err != nil {
		log.Printf("Failed to encode preview frame: %v", err)
		return nil, false
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())

	return out, true
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
