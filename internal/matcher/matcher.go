package matcher

import (
	"context"
	"fmt"

	"github.com/presia-labs/presia/internal/domain"
)

// GalleryReader is the slice of the embedding repository the matcher needs.
type GalleryReader interface {
	ListAll(ctx context.Context) ([]domain.Embedding, error)
}

// Matcher answers "who is this, if anyone?" for a query vector. The default
// strategy is a brute-force scan in repository order. An optional HNSW index
// accelerates larger galleries behind the same contract.
type Matcher struct {
	gallery GalleryReader
	index   *Index
}

func New(gallery GalleryReader) *Matcher {
	return &Matcher{gallery: gallery}
}

// WithIndex enables approximate candidate generation for large galleries.
// Final scoring stays exact, so threshold and tie semantics are unchanged.
func (m *Matcher) WithIndex(index *Index) *Matcher {
	m.index = index
	return m
}

// FindBestMatch returns the gallery embedding most similar to query, or nil
// when the gallery is empty. Ties are broken by insertion order: the first
// embedding encountered in repository order wins, deterministically.
func (m *Matcher) FindBestMatch(ctx context.Context, query []float64) (*domain.MatchCandidate, error) {
	if m.index != nil {
		return m.index.FindBestMatch(ctx, m.gallery, query)
	}

	embs, err := m.gallery.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find best match: %w", err)
	}

	return bestCandidate(embs, query), nil
}

// FindBestMatchAboveThreshold returns the best match only when its
// similarity strictly exceeds threshold. Equal-to-threshold is a non-match.
// The nil result does not distinguish "empty gallery" from "below
// threshold"; callers that need the distinction use FindBestMatch and apply
// the threshold themselves.
func (m *Matcher) FindBestMatchAboveThreshold(ctx context.Context, query []float64, threshold float64) (*domain.MatchCandidate, error) {
	best, err := m.FindBestMatch(ctx, query)
	if err != nil {
		return nil, err
	}

	if best == nil || best.Similarity <= threshold {
		return nil, nil
	}
	return best, nil
}

// Invalidate drops any cached index state. Called after every gallery
// insert or delete.
func (m *Matcher) Invalidate() {
	if m.index != nil {
		m.index.Invalidate()
	}
}

// bestCandidate scans embs in order tracking the maximum similarity. The
// strictly-greater comparison keeps the earliest-inserted winner on ties.
func bestCandidate(embs []domain.Embedding, query []float64) *domain.MatchCandidate {
	var best *domain.MatchCandidate
	for i := range embs {
		sim := CosineSimilarity(query, embs[i].Vector)
		if best == nil || sim > best.Similarity {
			best = &domain.MatchCandidate{
				IdentityID:  embs[i].IdentityID,
				EmbeddingID: embs[i].ID,
				Similarity:  sim,
			}
		}
	}
	return best
}
