// Package replay serves the images of a directory as camera frames, in
// file name order. It stands in for a camera when testing a setup.
package replay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/camera"
	"golang.org/x/image/draw"
)

// Source replays image files from a directory.
type Source struct {
	paths    []string
	loop     bool
	interval time.Duration

	mu     sync.Mutex
	next   int
	seq    uint64
	closed bool
}

// Option configures a Source.
type Option func(*Source)

// WithLoop restarts from the first image after the last one.
func WithLoop() Option {
	return func(s *Source) { s.loop = true }
}

// WithInterval waits d before returning each frame, simulating a frame rate.
func WithInterval(d time.Duration) Option {
	return func(s *Source) { s.interval = d }
}

// Open lists the JPEG and PNG images in dir.
func Open(dir string, opts ...Option) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay directory: %w", err)
	}

	s := &Source{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			s.paths = append(s.paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(s.paths) == 0 {
		return nil, fmt.Errorf("no images in replay directory %s", dir)
	}
	sort.Strings(s.paths)

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Read returns the next image. After the last image it returns
// camera.ErrExhausted unless looping.
func (s *Source) Read(ctx context.Context) (camera.Frame, error) {
	if s.interval > 0 {
		select {
		case <-ctx.Done():
			return camera.Frame{}, ctx.Err()
		case <-time.After(s.interval):
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return camera.Frame{}, camera.ErrExhausted
	}
	if s.next >= len(s.paths) {
		if !s.loop {
			return camera.Frame{}, camera.ErrExhausted
		}
		s.next = 0
	}
	path := s.paths[s.next]
	s.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return camera.Frame{}, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return camera.Frame{}, fmt.Errorf("%w: decode %s: %w", camera.ErrBadFrame, filepath.Base(path), err)
	}

	s.seq++
	return camera.Frame{
		Image:      toRGBA(img),
		Data:       data,
		Seq:        s.seq,
		CapturedAt: time.Now(),
	}, nil
}

// Close stops the replay.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// toRGBA copies img into a drawable RGBA image.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

var _ camera.Source = (*Source)(nil)
