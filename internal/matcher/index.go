package matcher

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/presia-labs/presia/internal/domain"
)

const (
	// indexMaxNeighbors (M) is the maximum number of neighbors per node.
	indexMaxNeighbors = 16

	// indexSearchMultiplier requests extra candidates from the graph so the
	// exact rescan can recover from approximate-ranking misses.
	indexSearchMultiplier = 8
)

// Index is an HNSW graph over the gallery, built lazily on first search and
// dropped on Invalidate. Graph keys are insertion positions in repository
// order, which the rescan uses to keep the earliest-inserted tie-break.
type Index struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[int]
	entries []domain.Embedding
}

func NewIndex() *Index {
	return &Index{}
}

// FindBestMatch searches the graph for nearest candidates, then rescores
// them with exact cosine similarity in ascending insertion order. The
// result matches what a brute-force scan would return for the same
// candidate set.
func (ix *Index) FindBestMatch(ctx context.Context, gallery GalleryReader, query []float64) (*domain.MatchCandidate, error) {
	if err := ix.ensureBuilt(ctx, gallery); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 {
		return nil, nil
	}

	k := indexSearchMultiplier
	if k > len(ix.entries) {
		k = len(ix.entries)
	}

	neighbors := ix.graph.Search(toFloat32(query), k)
	if len(neighbors) == 0 {
		// Zero-norm queries can defeat the graph metric; fall back to the
		// exact scan over the cached entries.
		return bestCandidate(ix.entries, query), nil
	}

	positions := make([]int, len(neighbors))
	for i, n := range neighbors {
		positions[i] = n.Key
	}
	sort.Ints(positions)

	var best *domain.MatchCandidate
	for _, pos := range positions {
		emb := ix.entries[pos]
		sim := CosineSimilarity(query, emb.Vector)
		if best == nil || sim > best.Similarity {
			best = &domain.MatchCandidate{
				IdentityID:  emb.IdentityID,
				EmbeddingID: emb.ID,
				Similarity:  sim,
			}
		}
	}
	return best, nil
}

// Invalidate drops the built graph so the next search rebuilds from the
// gallery.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.graph = nil
	ix.entries = nil
}

func (ix *Index) ensureBuilt(ctx context.Context, gallery GalleryReader) error {
	ix.mu.RLock()
	built := ix.graph != nil
	ix.mu.RUnlock()
	if built {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.graph != nil {
		return nil
	}

	embs, err := gallery.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	graph := hnsw.NewGraph[int]()
	graph.M = indexMaxNeighbors
	graph.Ml = 1.0 / float64(indexMaxNeighbors)
	graph.Distance = hnsw.CosineDistance

	for i := range embs {
		graph.Add(hnsw.MakeNode(i, toFloat32(embs[i].Vector)))
	}

	ix.graph = graph
	ix.entries = embs
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
