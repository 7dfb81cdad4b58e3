// Package overlay draws detection results onto video frames.
package overlay

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/settings"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/transport"
)

// Label rendering constants.
const (
	labelFontScale = 0.5
	labelPad       = 4
)

var labelTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ErrBadImageData is returned when a data URI cannot be decoded.
var ErrBadImageData = errors.New("invalid image data")

// Draw renders a detection result onto the canvas: a stroked rectangle
// per face plus a filled "Face <n>" label directly above each box.
// Coordinates are used as returned by the detector; the canvas is
// assumed to be in the source frame's pixel space. The call is
// stateless: nothing accumulates between results, each result is drawn
// onto a fresh copy of its frame by the caller.
func Draw(canvas *gocv.Mat, result transport.Result, s settings.Settings) {
	for i, face := range result.Faces {
		box := image.Rect(face.X, face.Y, face.X+face.Width, face.Y+face.Height)
		gocv.Rectangle(canvas, box, s.BoxColor, s.BoxThickness)

		label := fmt.Sprintf("Face %d", i+1)
		size := gocv.GetTextSize(label, gocv.FontHersheySimplex, labelFontScale, 1)

		bg := image.Rect(
			face.X,
			face.Y-size.Y-2*labelPad,
			face.X+size.X+2*labelPad,
			face.Y,
		)
		gocv.Rectangle(canvas, bg, s.BoxColor, -1)

		gocv.PutText(canvas, label,
			image.Pt(face.X+labelPad, face.Y-labelPad),
			gocv.FontHersheySimplex, labelFontScale, labelTextColor, 1)
	}
}

// DecodeDataURI decodes a base64 data URI (as returned by the one-shot
// image endpoint) into a Mat. The caller owns the returned Mat.
func DecodeDataURI(uri string) (*gocv.Mat, error) {
	payload := uri
	if idx := strings.Index(uri, ","); idx >= 0 {
		payload = uri[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImageData, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImageData, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrBadImageData
	}

	return &mat, nil
}
