// Package settings holds the tunable detection and overlay parameters
// shared between the UI surfaces and the capture pipeline.
package settings

import (
	"errors"
	"image/color"
	"sync"
)

// Default detection parameters, matching the detector service defaults.
const (
	DefaultScaleFactor  = 1.1
	DefaultMinNeighbors = 5
	DefaultBoxThickness = 2
)

// DefaultBoxColor is the default bounding box color (green).
var DefaultBoxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// Validation errors returned by Store.Set.
var (
	ErrScaleFactor  = errors.New("scale factor must be greater than 1.0")
	ErrMinNeighbors = errors.New("min neighbors must be non-negative")
	ErrBoxThickness = errors.New("box thickness must be at least 1")
)

// Settings is a plain value; copies taken via Store.Snapshot are
// immutable snapshots and are never affected by later updates.
type Settings struct {
	ScaleFactor  float64
	MinNeighbors int
	BoxColor     color.RGBA
	BoxThickness int
}

// Default returns the settings used when nothing is persisted.
func Default() Settings {
	return Settings{
		ScaleFactor:  DefaultScaleFactor,
		MinNeighbors: DefaultMinNeighbors,
		BoxColor:     DefaultBoxColor,
		BoxThickness: DefaultBoxThickness,
	}
}

// Validate checks the value ranges the detector and renderer rely on.
func (s Settings) Validate() error {
	if s.ScaleFactor <= 1.0 {
		return ErrScaleFactor
	}
	if s.MinNeighbors < 0 {
		return ErrMinNeighbors
	}
	if s.BoxThickness < 1 {
		return ErrBoxThickness
	}
	return nil
}

// Store guards the current Settings value. Every outbound request
// takes a Snapshot at send time, so in-flight requests keep the
// parameters they were sent with.
type Store struct {
	mu      sync.RWMutex
	current Settings
}

// NewStore creates a Store initialized with the given settings.
// Invalid initial settings fall back to the defaults.
func NewStore(initial Settings) *Store {
	if err := initial.Validate(); err != nil {
		initial = Default()
	}
	return &Store{current: initial}
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the current settings after validation.
func (s *Store) Set(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next

	return nil
}
