// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Matching constants
const (
	// DefaultMatchThreshold is the default maximum distance at which the best
	// gallery candidate is accepted as a positive identification.
	// Tuned for cosine distance on VGG-Face embeddings.
	DefaultMatchThreshold = 0.45

	// ConfidenceDecimals is the number of decimals kept when a confidence
	// percentage is persisted to the attendance log.
	ConfidenceDecimals = 2
)

// Capture constants
const (
	// DefaultCaptureWidth is the requested camera frame width in pixels
	DefaultCaptureWidth = 640

	// DefaultCaptureHeight is the requested camera frame height in pixels
	DefaultCaptureHeight = 480

	// MaxCameraIndex is the highest accepted camera device index
	MaxCameraIndex = 9

	// JPEGQuality is the quality used when encoding frames for recognition and display
	JPEGQuality = 85
)

// Loop constants
const (
	// DefaultPacingDelay is the fixed delay between two frame loop iterations
	DefaultPacingDelay = 10 * time.Millisecond

	// FeedDisplaySize is the number of activity feed entries shown on the dashboard
	FeedDisplaySize = 10

	// FeedCapacity is the number of activity feed entries retained in memory
	FeedCapacity = 100
)

// Gallery index constants
const (
	// HNSWMinReferences is the gallery size from which reference search
	// switches from a linear scan to the HNSW index
	HNSWMinReferences = 64

	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	HNSWEfSearch = 100

	// HNSWSearchMultiplier is the factor to request more candidates from HNSW
	// than the number of candidates returned.
	HNSWSearchMultiplier = 3

	// MaxCandidates is the maximum number of ranked candidates returned per frame
	MaxCandidates = 20
)
