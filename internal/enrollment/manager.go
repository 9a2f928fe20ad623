package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/presia-labs/presia/internal/domain"
	"github.com/presia-labs/presia/internal/extractor"
	"github.com/presia-labs/presia/internal/quality"
	"github.com/presia-labs/presia/internal/repository"
)

const (
	// MinSamples and MaxSamples bound the enrollment batch size. Fewer
	// samples give an unreliable template; more adds latency without
	// accuracy gains.
	MinSamples = 3
	MaxSamples = 5
)

// IndexInvalidator is notified after the gallery changes so cached search
// structures rebuild on next use.
type IndexInvalidator interface {
	Invalidate()
}

// Manager builds an identity's gallery template from a batch of sample
// images. Persistence is all-or-nothing: a failed batch leaves the gallery
// exactly as it was.
type Manager struct {
	extractor  extractor.FeatureExtractor
	validator  *quality.Validator
	repo       repository.EmbeddingRepositoryInterface
	index      IndexInvalidator
	logger     *slog.Logger
	minQuality float64
}

func NewManager(
	ext extractor.FeatureExtractor,
	validator *quality.Validator,
	repo repository.EmbeddingRepositoryInterface,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		extractor:  ext,
		validator:  validator,
		repo:       repo,
		logger:     logger,
		minQuality: 0.5,
	}
}

// WithMinQuality overrides the minimum quality score a sample needs to
// contribute an embedding.
func (m *Manager) WithMinQuality(min float64) *Manager {
	m.minQuality = min
	return m
}

// WithIndexInvalidator wires the search index that must rebuild after a
// successful enrollment.
func (m *Manager) WithIndexInvalidator(index IndexInvalidator) *Manager {
	m.index = index
	return m
}

// Enroll processes between MinSamples and MaxSamples images for identityID.
// Unusable samples (no face, low quality, failed extraction) are skipped
// with a warning; the call fails with domain.ErrEnrollmentFailed only when
// no sample at all yields an embedding. Accepted embeddings are persisted
// as one batch.
func (m *Manager) Enroll(ctx context.Context, identityID uuid.UUID, images [][]byte, sourceRef string) (*domain.EnrollmentResult, error) {
	if len(images) < MinSamples || len(images) > MaxSamples {
		return nil, domain.ErrInvalidSampleCount.WithError(
			fmt.Errorf("got %d samples, want %d to %d", len(images), MinSamples, MaxSamples))
	}

	result := &domain.EnrollmentResult{IdentityID: identityID}
	embs := make([]*domain.Embedding, 0, len(images))

	for i, img := range images {
		emb, score, warning := m.processSample(ctx, identityID, img, sourceRef)
		if warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("sample %d: %s", i+1, warning))
			m.logger.Warn("enrollment sample skipped",
				"identity_id", identityID,
				"sample", i+1,
				"reason", warning,
			)
			continue
		}
		result.Scores = append(result.Scores, score)
		embs = append(embs, emb)
	}

	if len(embs) == 0 {
		return nil, domain.ErrEnrollmentFailed.WithError(
			fmt.Errorf("no usable sample out of %d: %v", len(images), result.Warnings))
	}

	if err := m.repo.InsertBatch(ctx, embs); err != nil {
		return nil, fmt.Errorf("persist enrollment for identity %s: %w", identityID, err)
	}

	if m.index != nil {
		m.index.Invalidate()
	}

	result.EmbeddingsCount = len(embs)
	m.logger.Info("identity enrolled",
		"identity_id", identityID,
		"embeddings", result.EmbeddingsCount,
		"skipped", len(result.Warnings),
	)
	return result, nil
}

// processSample runs one image through the decode, detect, quality and
// extract stages. A non-empty warning means the sample was skipped.
func (m *Manager) processSample(ctx context.Context, identityID uuid.UUID, img []byte, sourceRef string) (*domain.Embedding, float64, string) {
	decoded, err := quality.Decode(img)
	if err != nil {
		return nil, 0, "unreadable image"
	}

	faces, err := m.extractor.DetectFaces(ctx, img)
	if err != nil {
		return nil, 0, fmt.Sprintf("face detection failed: %v", err)
	}
	if len(faces) == 0 {
		return nil, 0, "no face detected"
	}

	report, err := m.validator.Validate(decoded, faces[0].BoundingBox)
	if err != nil {
		return nil, 0, fmt.Sprintf("invalid face region: %v", err)
	}
	if report.Score < m.minQuality {
		return nil, 0, fmt.Sprintf("quality %.2f below minimum %.2f (%s)", report.Score, m.minQuality, report.Reason)
	}

	vector, err := m.extractor.ExtractEmbedding(ctx, img, faces[0].BoundingBox)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionFailed) {
			return nil, 0, "embedding extraction failed"
		}
		return nil, 0, fmt.Sprintf("embedding extraction failed: %v", err)
	}

	return &domain.Embedding{
		IdentityID: identityID,
		Vector:     vector,
		Quality:    report.Score,
		SourceRef:  sourceRef,
	}, report.Score, ""
}
