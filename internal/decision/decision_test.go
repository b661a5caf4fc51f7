package decision

import (
	"testing"

	"github.com/kozaktomas/attendance-cam/internal/matcher"
)

const threshold = 0.45

func TestDecide_AcceptsBelowThreshold(t *testing.T) {
	for _, d := range []float64{0, 0.1, 0.2, 0.3, 0.44, 0.4499999} {
		res := Decide([]matcher.Candidate{{Identity: "Alice", Distance: d}}, threshold)
		if !res.Accepted {
			t.Errorf("distance %v rejected", d)
		}
		if res.Confidence != (1-d)*100 {
			t.Errorf("distance %v: confidence %v, want %v", d, res.Confidence, (1-d)*100)
		}
		if res.Identity() != "Alice" {
			t.Errorf("distance %v: identity %q", d, res.Identity())
		}
	}
}

func TestDecide_RejectsAtOrAboveThreshold(t *testing.T) {
	for _, d := range []float64{0.45, 0.46, 0.9, 1, 1.5, 2} {
		res := Decide([]matcher.Candidate{{Identity: "Alice", Distance: d}}, threshold)
		if res.Accepted {
			t.Errorf("distance %v accepted", d)
		}
		if res.Identity() != "" {
			t.Errorf("rejected result exposes identity %q", res.Identity())
		}
		if !res.HasBest || res.Confidence != Confidence(d) {
			t.Errorf("distance %v: confidence not computed for rejected candidate", d)
		}
	}
}

func TestDecide_UsesOnlyFirstCandidate(t *testing.T) {
	candidates := []matcher.Candidate{
		{Identity: "Bob", Distance: 0.5},
		{Identity: "Alice", Distance: 0.1},
	}
	res := Decide(candidates, threshold)
	if res.Accepted {
		t.Error("a later candidate must not be considered")
	}
	if res.Candidate.Identity != "Bob" {
		t.Errorf("candidate = %q, want Bob", res.Candidate.Identity)
	}
}

func TestDecide_NoCandidates(t *testing.T) {
	res := Decide(nil, threshold)
	if res.Accepted || res.HasBest {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 100},
		{0.25, 75},
		{1, 0},
		{1.5, -50},
	}
	for _, tt := range tests {
		if got := Confidence(tt.distance); got != tt.want {
			t.Errorf("Confidence(%v) = %v, want %v", tt.distance, got, tt.want)
		}
	}
}
