package capture

import (
	"encoding/base64"
	"fmt"

	"gocv.io/x/gocv"
)

// JPEGQuality is the lossy encoding quality used for outbound frames.
// 70 keeps frames small enough for ~15 requests per second without
// visibly hurting detection.
const JPEGQuality = 70

// EncodeFrame encodes a frame as JPEG and wraps it in the data URI
// form the detector endpoints expect.
func EncodeFrame(frame *gocv.Mat, quality int) (string, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return "", fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.GetBytes()), nil
}
