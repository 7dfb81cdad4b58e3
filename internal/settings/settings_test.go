package settings

import (
	"errors"
	"image/color"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr error
	}{
		{
			name:   "defaults are valid",
			mutate: func(s *Settings) {},
		},
		{
			name:    "scale factor at 1.0",
			mutate:  func(s *Settings) { s.ScaleFactor = 1.0 },
			wantErr: ErrScaleFactor,
		},
		{
			name:    "scale factor below 1.0",
			mutate:  func(s *Settings) { s.ScaleFactor = 0.5 },
			wantErr: ErrScaleFactor,
		},
		{
			name:    "negative min neighbors",
			mutate:  func(s *Settings) { s.MinNeighbors = -1 },
			wantErr: ErrMinNeighbors,
		},
		{
			name:   "zero min neighbors allowed",
			mutate: func(s *Settings) { s.MinNeighbors = 0 },
		},
		{
			name:    "zero thickness",
			mutate:  func(s *Settings) { s.BoxThickness = 0 },
			wantErr: ErrBoxThickness,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)

			err := s.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_SnapshotUnaffectedByLaterSet(t *testing.T) {
	store := NewStore(Default())

	snap := store.Snapshot()

	next := Default()
	next.ScaleFactor = 1.5
	next.BoxColor = color.RGBA{R: 255, A: 255}
	if err := store.Set(next); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// The earlier snapshot keeps the values it was taken with.
	if snap.ScaleFactor != DefaultScaleFactor {
		t.Errorf("snapshot ScaleFactor = %v, want %v", snap.ScaleFactor, DefaultScaleFactor)
	}
	if snap.BoxColor != DefaultBoxColor {
		t.Errorf("snapshot BoxColor = %+v, want %+v", snap.BoxColor, DefaultBoxColor)
	}

	if got := store.Snapshot().ScaleFactor; got != 1.5 {
		t.Errorf("current ScaleFactor = %v, want 1.5", got)
	}
}

func TestStore_SetRejectsInvalid(t *testing.T) {
	store := NewStore(Default())

	bad := Default()
	bad.MinNeighbors = -2

	if err := store.Set(bad); err == nil {
		t.Fatal("Set() accepted invalid settings")
	}

	if got := store.Snapshot(); got != Default() {
		t.Errorf("settings changed after rejected Set: %+v", got)
	}
}

func TestNewStore_InvalidInitialFallsBack(t *testing.T) {
	store := NewStore(Settings{})

	if got := store.Snapshot(); got != Default() {
		t.Errorf("NewStore with zero settings = %+v, want defaults", got)
	}
}
