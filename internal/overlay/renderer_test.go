package overlay

import (
	"encoding/base64"
	"errors"
	"image/color"
	"testing"

	"gocv.io/x/gocv"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/settings"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/transport"
)

func blankCanvas(t *testing.T) *gocv.Mat {
	t.Helper()

	mat := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })

	return &mat
}

func nonZeroPixels(mat *gocv.Mat) bool {
	sum := mat.Sum()
	return sum.Val1 != 0 || sum.Val2 != 0 || sum.Val3 != 0
}

func TestDraw_NoFacesDrawsNothing(t *testing.T) {
	canvas := blankCanvas(t)

	Draw(canvas, transport.Result{Faces: []transport.Face{}}, settings.Default())

	if nonZeroPixels(canvas) {
		t.Error("canvas modified for an empty result")
	}
}

func TestDraw_SingleFace(t *testing.T) {
	canvas := blankCanvas(t)

	s := settings.Default()
	s.BoxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	s.BoxThickness = 2

	result := transport.Result{
		Faces:      []transport.Face{{X: 100, Y: 100, Width: 50, Height: 50}},
		FacesCount: 1,
	}

	Draw(canvas, result, s)

	// Box border pixel carries the box color (Mat channels are BGR).
	border := canvas.GetVecbAt(100, 100)
	if border[1] != 255 {
		t.Errorf("border pixel = %v, want green channel 255", border)
	}

	// Box interior stays untouched (stroked rectangle, not filled).
	center := canvas.GetVecbAt(125, 125)
	if center[0] != 0 || center[1] != 0 || center[2] != 0 {
		t.Errorf("interior pixel = %v, want black", center)
	}

	// Label background sits directly above the box.
	above := canvas.GetVecbAt(95, 105)
	if above[1] != 255 {
		t.Errorf("label background pixel = %v, want green channel 255", above)
	}
}

func TestDraw_LabelsAreOneIndexed(t *testing.T) {
	canvas := blankCanvas(t)

	// Two faces get separate labels; drawing must not panic and must
	// touch both regions.
	result := transport.Result{
		Faces: []transport.Face{
			{X: 20, Y: 60, Width: 40, Height: 40},
			{X: 200, Y: 120, Width: 40, Height: 40},
		},
		FacesCount: 2,
	}

	Draw(canvas, result, settings.Default())

	first := canvas.GetVecbAt(60, 20)
	second := canvas.GetVecbAt(120, 200)
	if first[1] == 0 || second[1] == 0 {
		t.Errorf("expected both boxes drawn, pixels %v and %v", first, second)
	}
}

func TestDraw_FaceAtTopEdge(t *testing.T) {
	canvas := blankCanvas(t)

	// A face at y=0 pushes the label background off-canvas; OpenCV
	// clips it, the call must not panic.
	result := transport.Result{
		Faces: []transport.Face{{X: 10, Y: 0, Width: 30, Height: 30}},
	}

	Draw(canvas, result, settings.Default())

	if !nonZeroPixels(canvas) {
		t.Error("nothing drawn for a face at the top edge")
	}
}

func TestDecodeDataURI(t *testing.T) {
	// Build a real JPEG payload to round-trip.
	src := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
	defer src.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, src)
	if err != nil {
		t.Fatalf("IMEncode() error = %v", err)
	}
	defer buf.Close()

	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.GetBytes())

	mat, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() error = %v", err)
	}
	defer mat.Close()

	if mat.Rows() != 32 || mat.Cols() != 32 {
		t.Errorf("decoded size = %dx%d, want 32x32", mat.Cols(), mat.Rows())
	}
}

func TestDecodeDataURI_Invalid(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{name: "not base64", uri: "data:image/jpeg;base64,!!!"},
		{name: "base64 but not an image", uri: "data:image/jpeg;base64,aGVsbG8="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeDataURI(tt.uri); !errors.Is(err, ErrBadImageData) {
				t.Errorf("DecodeDataURI(%q) error = %v, want ErrBadImageData", tt.uri, err)
			}
		})
	}
}
