package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Model selects the face embedding model used by the recognition service.
type Model string

// Supported recognition models.
const (
	ModelVGGFace  Model = "vgg-face"
	ModelFacenet  Model = "facenet"
	ModelOpenFace Model = "openface"
)

// Detector selects the face localization backend used by the recognition service.
type Detector string

// Supported face detectors.
const (
	DetectorOpenCV     Detector = "opencv"
	DetectorMTCNN      Detector = "mtcnn"
	DetectorRetinaFace Detector = "retinaface"
)

var (
	// ErrUnknownModel is returned when a model name is not one of the supported models.
	ErrUnknownModel = errors.New("unknown recognition model")
	// ErrUnknownDetector is returned when a detector name is not one of the supported detectors.
	ErrUnknownDetector = errors.New("unknown face detector")
)

// Models returns all supported models in a stable order.
func Models() []Model {
	return []Model{ModelVGGFace, ModelFacenet, ModelOpenFace}
}

// Detectors returns all supported detectors in a stable order.
func Detectors() []Detector {
	return []Detector{DetectorOpenCV, DetectorMTCNN, DetectorRetinaFace}
}

// ParseModel parses a model name case-insensitively.
// Wire names such as "VGG-Face" are accepted as well.
func ParseModel(s string) (Model, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, m := range Models() {
		if key == string(m) || key == strings.ToLower(profiles.Models[string(m)].Name) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownModel, s, joinNames(Models()))
}

// ParseDetector parses a detector name case-insensitively.
func ParseDetector(s string) (Detector, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Detectors() {
		if key == string(d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownDetector, s, joinNames(Detectors()))
}

// WireName returns the model name expected by the recognition service.
func (m Model) WireName() string {
	if p, ok := profiles.Models[string(m)]; ok && p.Name != "" {
		return p.Name
	}
	return string(m)
}

// Dim returns the embedding dimension produced by the model, or 0 if unknown.
func (m Model) Dim() int {
	return profiles.Models[string(m)].Dim
}

// WireName returns the detector name expected by the recognition service.
func (d Detector) WireName() string {
	if p, ok := profiles.Detectors[string(d)]; ok && p.Name != "" {
		return p.Name
	}
	return string(d)
}

func joinNames[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
