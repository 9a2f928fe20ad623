package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/presia-labs/presia/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories need. pgxmock's
// pool satisfies it too.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EmbeddingRepository is the Postgres-backed gallery. The vector dimension is
// fixed at construction and enforced before any write reaches the database.
type EmbeddingRepository struct {
	pool PgxPool
	dim  int
}

func NewEmbeddingRepository(pool PgxPool, dim int) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool, dim: dim}
}

// Dimension returns the gallery-wide vector length
func (r *EmbeddingRepository) Dimension() int {
	return r.dim
}

const insertEmbeddingQuery = `
		INSERT INTO embeddings (id, identity_id, embedding, quality, source_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

// ensureIdentityQuery provisions the identity row on first enrollment.
// Identities created this way carry their UUID as external_id until an
// upstream sync fills in the real one.
const ensureIdentityQuery = `
		INSERT INTO identities (id, external_id)
		VALUES ($1, $1::text)
		ON CONFLICT (id) DO NOTHING
	`

func (r *EmbeddingRepository) Insert(ctx context.Context, emb *domain.Embedding) error {
	if len(emb.Vector) != r.dim {
		return domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("got %d, gallery dimension is %d", len(emb.Vector), r.dim))
	}

	if emb.ID == uuid.Nil {
		emb.ID = uuid.New()
	}

	if _, err := r.pool.Exec(ctx, ensureIdentityQuery, emb.IdentityID); err != nil {
		return fmt.Errorf("ensure identity: %w", err)
	}

	err := r.pool.QueryRow(ctx, insertEmbeddingQuery,
		emb.ID,
		emb.IdentityID,
		toVector(emb.Vector),
		emb.Quality,
		emb.SourceRef,
	).Scan(&emb.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound.WithError(fmt.Errorf("identity %s: %w", emb.IdentityID, err))
		}
		return fmt.Errorf("insert embedding: %w", err)
	}

	return nil
}

// InsertBatch stores all embeddings inside one transaction. A failure on any
// row rolls the whole batch back; a concurrent recognition sees either the
// full enrollment or none of it.
func (r *EmbeddingRepository) InsertBatch(ctx context.Context, embs []*domain.Embedding) error {
	for _, emb := range embs {
		if len(emb.Vector) != r.dim {
			return domain.ErrDimensionMismatch.WithError(
				fmt.Errorf("got %d, gallery dimension is %d", len(emb.Vector), r.dim))
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	seen := make(map[uuid.UUID]bool, 1)
	for _, emb := range embs {
		if seen[emb.IdentityID] {
			continue
		}
		seen[emb.IdentityID] = true
		if _, err := tx.Exec(ctx, ensureIdentityQuery, emb.IdentityID); err != nil {
			return fmt.Errorf("ensure identity: %w", err)
		}
	}

	for _, emb := range embs {
		if emb.ID == uuid.Nil {
			emb.ID = uuid.New()
		}

		err := tx.QueryRow(ctx, insertEmbeddingQuery,
			emb.ID,
			emb.IdentityID,
			toVector(emb.Vector),
			emb.Quality,
			emb.SourceRef,
		).Scan(&emb.CreatedAt)

		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrNotFound.WithError(fmt.Errorf("identity %s: %w", emb.IdentityID, err))
			}
			return fmt.Errorf("insert batch embedding: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert batch: %w", err)
	}

	return nil
}

func (r *EmbeddingRepository) ListAll(ctx context.Context) ([]domain.Embedding, error) {
	query := `
		SELECT id, identity_id, embedding, quality, source_ref, created_at
		FROM embeddings
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	return scanEmbeddings(rows)
}

func (r *EmbeddingRepository) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]domain.Embedding, error) {
	query := `
		SELECT id, identity_id, embedding, quality, source_ref, created_at
		FROM embeddings
		WHERE identity_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("list embeddings by identity: %w", err)
	}
	defer rows.Close()

	return scanEmbeddings(rows)
}

func (r *EmbeddingRepository) Delete(ctx context.Context, embeddingID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM embeddings
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, embeddingID)
	if err != nil {
		return false, fmt.Errorf("delete embedding: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

func scanEmbeddings(rows pgx.Rows) ([]domain.Embedding, error) {
	var embs []domain.Embedding
	for rows.Next() {
		var emb domain.Embedding
		var vec pgvector.Vector

		if err := rows.Scan(
			&emb.ID,
			&emb.IdentityID,
			&vec,
			&emb.Quality,
			&emb.SourceRef,
			&emb.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}

		emb.Vector = fromVector(vec)
		embs = append(embs, emb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}

	return embs, nil
}

func toVector(v []float64) pgvector.Vector {
	floats := make([]float32, len(v))
	for i, x := range v {
		floats[i] = float32(x)
	}
	return pgvector.NewVector(floats)
}

func fromVector(vec pgvector.Vector) []float64 {
	s := vec.Slice()
	if s == nil {
		return nil
	}
	out := make([]float64, len(s))
	for i, x := range s {
		out[i] = float64(x)
	}
	return out
}

var _ EmbeddingRepositoryInterface = (*EmbeddingRepository)(nil)
