package gallery

import (
	"sort"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/attendance-cam/internal/constants"
	"github.com/kozaktomas/attendance-cam/internal/database"
)

// Index wraps the HNSW graph for reference embedding search.
type Index struct {
	graph *hnsw.Graph[int]
	refs  []database.StoredReference
	dim   int
}

// BuildIndex builds the index from reference representations. Node keys are
// positions in refs.
func BuildIndex(refs []database.StoredReference) *Index {
	g := hnsw.NewGraph[int]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = constants.HNSWEfSearch
	g.Distance = hnsw.CosineDistance

	// All nodes share the dimension of the first usable reference.
	dim := 0
	for i := range refs {
		n := len(refs[i].Embedding)
		if n == 0 || (dim != 0 && n != dim) {
			continue
		}
		dim = n
		g.Add(hnsw.MakeNode(i, refs[i].Embedding))
	}

	return &Index{graph: g, refs: refs, dim: dim}
}

// Len returns the number of indexed references.
func (x *Index) Len() int {
	return x.graph.Len()
}

// Search finds up to k references nearest to query, best first. More
// neighbours than requested are pulled from the graph and re-ranked by exact
// cosine distance, as the graph search is approximate.
func (x *Index) Search(query []float32, k int) []database.RankedReference {
	if k <= 0 || x.graph.Len() == 0 || len(query) != x.dim {
		return nil
	}

	neighbors := x.graph.Search(query, k*constants.HNSWSearchMultiplier)
	ranked := make([]database.RankedReference, 0, len(neighbors))
	for _, n := range neighbors {
		ranked = append(ranked, database.RankedReference{
			Reference: &x.refs[n.Key],
			Distance:  database.CosineDistance(query, n.Value),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
