package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/presia-labs/presia/internal/domain"
)

// EmbeddingRepositoryInterface is the gallery contract the matching core
// consumes. Implementations must make Insert/Delete atomic with respect to
// concurrent ListAll scans: a reader never observes a half-written embedding.
type EmbeddingRepositoryInterface interface {
	// Insert stores one embedding and assigns its ID. Fails with
	// domain.ErrDimensionMismatch when the vector length differs from the
	// gallery dimension.
	Insert(ctx context.Context, emb *domain.Embedding) error

	// InsertBatch stores a group of embeddings as one unit: either all
	// become visible or none do.
	InsertBatch(ctx context.Context, embs []*domain.Embedding) error

	// ListAll returns the complete gallery in insertion order
	// (created_at, id). The order is part of the contract: the matcher's
	// tie-break depends on it.
	ListAll(ctx context.Context) ([]domain.Embedding, error)

	// ListByIdentity returns the embeddings enrolled for one identity.
	ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]domain.Embedding, error)

	// Delete removes one embedding; false when the id is unknown.
	Delete(ctx context.Context, embeddingID uuid.UUID) (bool, error)

	// Count returns the gallery size.
	Count(ctx context.Context) (int, error)
}
