package database

import (
	"math"
	"sort"
)

// MaxCosineDistance is returned for vectors that cannot be compared.
const MaxCosineDistance = 2.0

// CosineDistance computes the cosine distance between two vectors.
// Returns a value between 0 (identical) and 2 (opposite).
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return MaxCosineDistance
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return MaxCosineDistance
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	similarity = max(-1, min(1, similarity))

	return 1 - similarity
}

// RankedReference pairs a reference with its distance to a query embedding.
type RankedReference struct {
	Reference *StoredReference
	Distance  float64
}

// RankByDistance computes the distance from query to every reference and
// returns them ordered by ascending distance. Ties keep gallery order.
func RankByDistance(query []float32, refs []StoredReference) []RankedReference {
	ranked := make([]RankedReference, 0, len(refs))
	for i := range refs {
		ranked = append(ranked, RankedReference{
			Reference: &refs[i],
			Distance:  CosineDistance(query, refs[i].Embedding),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	return ranked
}
