//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/presia-labs/presia/internal/domain"
)

const integrationDim = 8

func setupIntegrationTest(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "presia_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/presia_test?sslmode=disable", host, port.Port())

	db, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Exec(ctx, fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
		CREATE EXTENSION IF NOT EXISTS "vector";

		CREATE TABLE identities (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			external_id VARCHAR(255) NOT NULL UNIQUE,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE embeddings (
			id UUID PRIMARY KEY,
			identity_id UUID NOT NULL REFERENCES identities (id) ON DELETE CASCADE,
			embedding vector(%d) NOT NULL,
			quality DOUBLE PRECISION NOT NULL DEFAULT 0,
			source_ref VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, integrationDim))
	require.NoError(t, err)

	return db
}

func integrationVector(seed float64) []float64 {
	v := make([]float64, integrationDim)
	for i := range v {
		v[i] = seed + float64(i)/10
	}
	return v
}

func TestEmbeddingRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := setupIntegrationTest(t)
	repo := NewEmbeddingRepository(db, integrationDim)
	ctx := context.Background()

	identityID := uuid.New()

	t.Run("insert provisions identity and round-trips vector", func(t *testing.T) {
		emb := &domain.Embedding{
			IdentityID: identityID,
			Vector:     integrationVector(0.5),
			Quality:    0.9,
			SourceRef:  "kiosk-7",
		}
		require.NoError(t, repo.Insert(ctx, emb))
		assert.NotEqual(t, uuid.Nil, emb.ID)
		assert.False(t, emb.CreatedAt.IsZero())

		embs, err := repo.ListByIdentity(ctx, identityID)
		require.NoError(t, err)
		require.Len(t, embs, 1)
		assert.Equal(t, emb.ID, embs[0].ID)
		assert.Equal(t, "kiosk-7", embs[0].SourceRef)
		// pgvector stores float32; expect float32 precision, not exact bits.
		for i := range emb.Vector {
			assert.InDelta(t, emb.Vector[i], embs[0].Vector[i], 1e-6)
		}
	})

	t.Run("batch is atomic and ordered", func(t *testing.T) {
		other := uuid.New()
		batch := []*domain.Embedding{
			{IdentityID: other, Vector: integrationVector(1)},
			{IdentityID: other, Vector: integrationVector(2)},
			{IdentityID: other, Vector: integrationVector(3)},
		}
		require.NoError(t, repo.InsertBatch(ctx, batch))

		embs, err := repo.ListByIdentity(ctx, other)
		require.NoError(t, err)
		require.Len(t, embs, 3)
		assert.Equal(t, batch[0].ID, embs[0].ID)
		assert.Equal(t, batch[2].ID, embs[2].ID)
	})

	t.Run("list all follows insertion order", func(t *testing.T) {
		embs, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, embs, 4)
		for i := 1; i < len(embs); i++ {
			assert.False(t, embs[i].CreatedAt.Before(embs[i-1].CreatedAt))
		}
	})

	t.Run("delete removes one row", func(t *testing.T) {
		embs, err := repo.ListByIdentity(ctx, identityID)
		require.NoError(t, err)
		require.NotEmpty(t, embs)

		deleted, err := repo.Delete(ctx, embs[0].ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, embs[0].ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("identity cascade removes embeddings", func(t *testing.T) {
		cascade := uuid.New()
		require.NoError(t, repo.Insert(ctx, &domain.Embedding{
			IdentityID: cascade,
			Vector:     integrationVector(7),
		}))

		_, err := db.Exec(ctx, `DELETE FROM identities WHERE id = $1`, cascade)
		require.NoError(t, err)

		embs, err := repo.ListByIdentity(ctx, cascade)
		require.NoError(t, err)
		assert.Empty(t, embs)
	})
}
