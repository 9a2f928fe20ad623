// Package memory provides a mutex-guarded in-memory gallery. It backs unit
// tests and single-node deployments where Postgres is not available; the
// semantics match the Postgres repository, including insertion order and
// batch atomicity.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/presia-labs/presia/internal/domain"
	"github.com/presia-labs/presia/internal/repository"
)

type Repository struct {
	mu   sync.RWMutex
	embs []domain.Embedding
	dim  int
}

func New(dim int) *Repository {
	return &Repository{dim: dim}
}

// Dimension returns the gallery-wide vector length
func (r *Repository) Dimension() int {
	return r.dim
}

func (r *Repository) Insert(ctx context.Context, emb *domain.Embedding) error {
	if len(emb.Vector) != r.dim {
		return domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("got %d, gallery dimension is %d", len(emb.Vector), r.dim))
	}
	if emb.IdentityID == uuid.Nil {
		return domain.ErrBadRequest.WithError(fmt.Errorf("identity id is required"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store(emb)
	return nil
}

func (r *Repository) InsertBatch(ctx context.Context, embs []*domain.Embedding) error {
	// Validate everything before touching the slice so a failure leaves the
	// gallery untouched.
	for _, emb := range embs {
		if len(emb.Vector) != r.dim {
			return domain.ErrDimensionMismatch.WithError(
				fmt.Errorf("got %d, gallery dimension is %d", len(emb.Vector), r.dim))
		}
		if emb.IdentityID == uuid.Nil {
			return domain.ErrBadRequest.WithError(fmt.Errorf("identity id is required"))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, emb := range embs {
		r.store(emb)
	}
	return nil
}

// store appends one embedding; callers hold the write lock
func (r *Repository) store(emb *domain.Embedding) {
	if emb.ID == uuid.Nil {
		emb.ID = uuid.New()
	}
	if emb.CreatedAt.IsZero() {
		emb.CreatedAt = time.Now().UTC()
	}

	stored := *emb
	// Copy the vector so later caller mutation cannot reach the gallery.
	stored.Vector = append([]float64(nil), emb.Vector...)
	r.embs = append(r.embs, stored)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Embedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return copyOut(r.embs), nil
}

func (r *Repository) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]domain.Embedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Embedding
	for _, emb := range r.embs {
		if emb.IdentityID == identityID {
			matched = append(matched, emb)
		}
	}
	return copyOut(matched), nil
}

func (r *Repository) Delete(ctx context.Context, embeddingID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, emb := range r.embs {
		if emb.ID == embeddingID {
			r.embs = append(r.embs[:i], r.embs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.embs), nil
}

func copyOut(embs []domain.Embedding) []domain.Embedding {
	out := make([]domain.Embedding, len(embs))
	for i, emb := range embs {
		out[i] = emb
		out[i].Vector = append([]float64(nil), emb.Vector...)
	}
	return out
}

var _ repository.EmbeddingRepositoryInterface = (*Repository)(nil)
