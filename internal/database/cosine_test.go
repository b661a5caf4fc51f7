package database

import (
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"scaled", []float32{1, 0}, []float32{5, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, MaxCosineDistance},
		{"empty", nil, nil, MaxCosineDistance},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, MaxCosineDistance},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineDistance(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("CosineDistance = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRankByDistance(t *testing.T) {
	refs := []StoredReference{
		{FileName: "far.jpg", Identity: "far", Embedding: []float32{0, 1}},
		{FileName: "near.jpg", Identity: "near", Embedding: []float32{1, 0.1}},
		{FileName: "exact.jpg", Identity: "exact", Embedding: []float32{1, 0}},
	}

	ranked := RankByDistance([]float32{1, 0}, refs)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked references, got %d", len(ranked))
	}
	want := []string{"exact", "near", "far"}
	for i, id := range want {
		if ranked[i].Reference.Identity != id {
			t.Errorf("position %d: expected %s, got %s", i, id, ranked[i].Reference.Identity)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Distance < ranked[i-1].Distance {
			t.Error("distances not sorted ascending")
		}
	}
}
