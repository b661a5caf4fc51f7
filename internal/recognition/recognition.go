// Package recognition talks to the face representation service. The service
// is treated as an opaque capability: an image goes in, one embedding per
// detected face comes out.
package recognition

import (
	"context"
	"errors"
)

// ErrServiceUnavailable is returned when the representation service cannot be reached.
var ErrServiceUnavailable = errors.New("recognition service unavailable")

// Region is a face bounding box in image pixel coordinates.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Face is one detected face and its embedding.
type Face struct {
	Embedding  []float32
	Region     Region
	Confidence float64 // detector confidence in [0, 1]
}

// Representer computes face embeddings for an encoded image.
// An image without a detectable face yields an empty slice and no error.
type Representer interface {
	Represent(ctx context.Context, img []byte) ([]Face, error)
}
