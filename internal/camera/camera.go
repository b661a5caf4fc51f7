// Package camera defines the video source the frame loop reads from.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/constants"
)

var (
	// ErrExhausted is returned by Read when the source has no more frames.
	ErrExhausted = errors.New("video source exhausted")
	// ErrBadFrame is returned by Read when a frame was captured but cannot
	// be decoded or encoded. The source stays usable.
	ErrBadFrame = errors.New("malformed frame")
)

// Frame is one captured image. It belongs to the loop iteration that read
// it and must not be retained afterwards.
type Frame struct {
	Image      image.Image
	Data       []byte // encoded image sent to the recognition service
	Seq        uint64
	CapturedAt time.Time
}

// Source produces frames. Read blocks until a frame is available. Close
// releases the underlying device and is safe to call more than once.
type Source interface {
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// EncodeJPEG encodes img for the recognition service.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
