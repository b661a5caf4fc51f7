// Package matcher identifies the face in a frame against the gallery.
package matcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance-cam/internal/constants"
	"github.com/kozaktomas/attendance-cam/internal/database"
	"github.com/kozaktomas/attendance-cam/internal/recognition"
)

// Status tells why a match produced (or did not produce) candidates.
type Status int

const (
	// StatusMatched means a face was found and ranked against the gallery.
	StatusMatched Status = iota
	// StatusNoFace means no face was detected in the frame.
	StatusNoFace
	// StatusEmptyGallery means the gallery has no usable reference.
	StatusEmptyGallery
	// StatusAnalysisError means the frame could not be analyzed.
	StatusAnalysisError
)

func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusNoFace:
		return "no_face"
	case StatusEmptyGallery:
		return "empty_gallery"
	case StatusAnalysisError:
		return "analysis_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Candidate is one gallery identity ranked against the detected face.
type Candidate struct {
	Identity string
	FileName string
	Distance float64
	Box      recognition.Region
}

// Result of matching one frame. Candidates are ordered by ascending
// distance and are empty unless Status is StatusMatched.
type Result struct {
	Status     Status
	Candidates []Candidate
	Err        error // set for StatusAnalysisError
}

// Best returns the lowest-distance candidate.
func (r Result) Best() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Gallery is the part of the gallery store the matcher needs.
type Gallery interface {
	Sync(ctx context.Context, progress func(done, total int)) error
	Len() int
	Nearest(query []float32, k int) []database.RankedReference
}

// Matcher ranks the gallery against the first face of each frame.
type Matcher struct {
	gallery       Gallery
	rep           recognition.Representer
	maxCandidates int
}

// New creates a matcher.
func New(g Gallery, rep recognition.Representer) *Matcher {
	return &Matcher{
		gallery:       g,
		rep:           rep,
		maxCandidates: constants.MaxCandidates,
	}
}

// Match analyzes one encoded frame. It never returns an error: analysis
// failures are reported through StatusAnalysisError so that a bad frame
// cannot stop the caller.
func (m *Matcher) Match(ctx context.Context, frame []byte) Result {
	if err := m.gallery.Sync(ctx, nil); err != nil {
		return Result{Status: StatusAnalysisError, Err: fmt.Errorf("gallery: %w", err)}
	}
	if m.gallery.Len() == 0 {
		return Result{Status: StatusEmptyGallery}
	}

	faces, err := m.rep.Represent(ctx, frame)
	if err != nil {
		return Result{Status: StatusAnalysisError, Err: fmt.Errorf("represent frame: %w", err)}
	}
	if len(faces) == 0 {
		return Result{Status: StatusNoFace}
	}

	// Only the first detected face is identified.
	face := faces[0]
	ranked := m.gallery.Nearest(face.Embedding, m.maxCandidates)
	if len(ranked) == 0 {
		return Result{Status: StatusAnalysisError, Err: errors.New("no reference comparable with the detected face")}
	}

	candidates := make([]Candidate, len(ranked))
	for i, r := range ranked {
		candidates[i] = Candidate{
			Identity: r.Reference.Identity,
			FileName: r.Reference.FileName,
			Distance: r.Distance,
			Box:      face.Region,
		}
	}
	return Result{Status: StatusMatched, Candidates: candidates}
}
