// Package opencv reads frames from a local camera through OpenCV.
package opencv

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/camera"
	"github.com/kozaktomas/attendance-cam/internal/config"
	"github.com/kozaktomas/attendance-cam/internal/constants"
	"gocv.io/x/gocv"
)

// Camera is a camera.Source backed by gocv.VideoCapture.
type Camera struct {
	webcam *gocv.VideoCapture
	frame  gocv.Mat
	mirror bool
	seq    uint64

	mu     sync.Mutex
	closed bool
}

// Open opens the camera selected in cfg and requests its capture size.
func Open(cfg config.CameraConfig) (*Camera, error) {
	webcam, err := gocv.OpenVideoCapture(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", cfg.Index, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("camera %d is not available", cfg.Index)
	}

	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = constants.DefaultCaptureWidth
	}
	if height <= 0 {
		height = constants.DefaultCaptureHeight
	}
	webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	log.Printf("Camera %d: capture size %d x %d", cfg.Index,
		int(webcam.Get(gocv.VideoCaptureFrameWidth)), int(webcam.Get(gocv.VideoCaptureFrameHeight)))

	return &Camera{
		webcam: webcam,
		frame:  gocv.NewMat(),
		mirror: cfg.Mirror,
	}, nil
}

// Read captures the next frame, mirrored horizontally when configured.
func (c *Camera) Read(ctx context.Context) (camera.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return camera.Frame{}, camera.ErrExhausted
	}
	if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}

	if ok := c.webcam.Read(&c.frame); !ok || c.frame.Empty() {
		return camera.Frame{}, fmt.Errorf("%w: cannot read from camera", camera.ErrExhausted)
	}
	if c.mirror {
		gocv.Flip(c.frame, &c.frame, 1)
	}

	img, err := c.frame.ToImage()
	if err != nil {
		return camera.Frame{}, fmt.Errorf("%w: convert: %w", camera.ErrBadFrame, err)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, c.frame, []int{gocv.IMWriteJpegQuality, constants.JPEGQuality})
	if err != nil {
		return camera.Frame{}, fmt.Errorf("%w: encode: %w", camera.ErrBadFrame, err)
	}
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	buf.Close()

	c.seq++
	return camera.Frame{
		Image:      img,
		Data:       data,
		Seq:        c.seq,
		CapturedAt: time.Now(),
	}, nil
}

// Close releases the camera.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.frame.Close(); err != nil {
		log.Printf("Camera: failed to release frame buffer: %v", err)
	}
	if err := c.webcam.Close(); err != nil {
		return fmt.Errorf("failed to release camera: %w", err)
	}
	return nil
}

var _ camera.Source = (*Camera)(nil)
