package capture

import (
	"errors"
	"strings"
	"testing"

	"gocv.io/x/gocv"
)

func testFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()

	frames := make([]*gocv.Mat, n)
	for i := range frames {
		mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		frames[i] = &mat
	}
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})

	return frames
}

func TestCameraSource_ReadBeforeOpen(t *testing.T) {
	cam := NewCameraSource(0)

	if cam.IsOpen() {
		t.Error("camera should not be open initially")
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrSourceNotOpen", err)
	}
}

func TestVideoFileSource_OpenMissingFile(t *testing.T) {
	v := NewVideoFileSource("/nonexistent/clip.mp4")

	if err := v.Open(); err == nil {
		v.Close()
		t.Skip("decoder accepted a missing file; behavior is backend dependent")
	}

	if v.IsOpen() {
		t.Error("source open after failed Open()")
	}
}

func TestMockSource_EndsAfterLastFrame(t *testing.T) {
	src := NewMockSource(testFrames(t, 2), false)

	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	for i := 0; i < 2; i++ {
		frame, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() #%d error = %v", i, err)
		}
		frame.Close()
	}

	if src.Ended() {
		t.Error("Ended() true before the failing read")
	}

	if _, err := src.ReadFrame(); !errors.Is(err, ErrSourceEnded) {
		t.Errorf("ReadFrame() past end error = %v, want ErrSourceEnded", err)
	}

	if !src.Ended() {
		t.Error("Ended() false after exhausting frames")
	}
}

func TestMockSource_LoopRewinds(t *testing.T) {
	src := NewMockSource(testFrames(t, 1), true)

	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	for i := 0; i < 3; i++ {
		frame, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() #%d error = %v", i, err)
		}
		frame.Close()
	}
}

func TestMockSource_CloseStopsReads(t *testing.T) {
	src := NewMockSource(testFrames(t, 1), true)

	src.Open()
	src.Close()

	if _, err := src.ReadFrame(); !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("ReadFrame() after Close error = %v, want ErrSourceNotOpen", err)
	}
}

func TestEncodeFrame_DataURI(t *testing.T) {
	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()

	uri, err := EncodeFrame(&mat, JPEGQuality)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("EncodeFrame() missing data URI prefix: %.40s", uri)
	}

	if len(uri) <= len("data:image/jpeg;base64,") {
		t.Error("EncodeFrame() produced empty payload")
	}
}
