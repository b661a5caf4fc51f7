// Package decision turns ranked match candidates into an accept/reject
// decision and a confidence score.
package decision

import "github.com/kozaktomas/attendance-cam/internal/matcher"

// Result of deciding on one frame's candidates.
type Result struct {
	Accepted   bool
	Candidate  matcher.Candidate // best candidate, zero when there was none
	Confidence float64           // (1 - distance) * 100, also computed when rejected
	HasBest    bool
}

// Identity returns the accepted identity, or "" when rejected.
func (r Result) Identity() string {
	if !r.Accepted {
		return ""
	}
	return r.Candidate.Identity
}

// Confidence converts a distance to a percentage. It is not clamped: a
// distance above 1 yields a negative confidence.
func Confidence(distance float64) float64 {
	return (1 - distance) * 100
}

// Decide accepts the best (first) candidate when its distance is strictly
// below threshold.
func Decide(candidates []matcher.Candidate, threshold float64) Result {
	if len(candidates) == 0 {
		return Result{}
	}

	best := candidates[0]
	return Result{
		Accepted:   best.Distance < threshold,
		Candidate:  best,
		Confidence: Confidence(best.Distance),
		HasBest:    true,
	}
}
