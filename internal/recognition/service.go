package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/presia-labs/presia/internal/domain"
	"github.com/presia-labs/presia/internal/extractor"
	"github.com/presia-labs/presia/internal/matcher"
	"github.com/presia-labs/presia/internal/quality"
	"github.com/presia-labs/presia/internal/repository"
)

// MatcherInterface is the gallery search contract the orchestrator consumes.
type MatcherInterface interface {
	FindBestMatch(ctx context.Context, query []float64) (*domain.MatchCandidate, error)
	Invalidate()
}

// RecognizeOptions carries attendance metadata attached to the outcome.
type RecognizeOptions struct {
	Location string
	DeviceID string
}

// Service orchestrates one recognition pass: detect, gate on quality,
// extract, match. Every way an image can fail to resolve maps to a reasoned
// Unknown outcome instead of an error; errors are reserved for broken
// inputs and infrastructure faults.
type Service struct {
	extractor   extractor.FeatureExtractor
	validator   *quality.Validator
	repo        repository.EmbeddingRepositoryInterface
	matcher     MatcherInterface
	logger      *slog.Logger
	threshold   float64
	minQuality  float64
	bulkWorkers int
}

func NewService(
	ext extractor.FeatureExtractor,
	validator *quality.Validator,
	repo repository.EmbeddingRepositoryInterface,
	m MatcherInterface,
	logger *slog.Logger,
) *Service {
	return &Service{
		extractor:   ext,
		validator:   validator,
		repo:        repo,
		matcher:     m,
		logger:      logger,
		threshold:   0.6,
		minQuality:  0.0,
		bulkWorkers: 4,
	}
}

// WithThreshold overrides the similarity a match must strictly exceed.
func (s *Service) WithThreshold(threshold float64) *Service {
	s.threshold = threshold
	return s
}

// WithMinQuality gates recognition on a minimum quality score. The default
// of zero accepts every detected face.
func (s *Service) WithMinQuality(min float64) *Service {
	s.minQuality = min
	return s
}

// WithBulkWorkers sets the concurrency of RecognizeBulk.
func (s *Service) WithBulkWorkers(n int) *Service {
	if n > 0 {
		s.bulkWorkers = n
	}
	return s
}

// Recognize resolves the face in image against the gallery. The outcome is
// Recognized when the best match strictly exceeds the threshold, otherwise
// Unknown with the first reason encountered in pipeline order.
func (s *Service) Recognize(ctx context.Context, image []byte, opts RecognizeOptions) (domain.RecognitionOutcome, error) {
	outcome, err := s.recognize(ctx, image)
	if err != nil {
		return domain.RecognitionOutcome{}, err
	}

	outcome.Location = opts.Location
	outcome.DeviceID = opts.DeviceID

	if outcome.Recognized {
		s.logger.Info("identity recognized",
			"identity_id", outcome.IdentityID,
			"score", outcome.Score,
			"device_id", opts.DeviceID,
		)
	} else {
		s.logger.Info("recognition returned unknown",
			"reason", outcome.Reason,
			"device_id", opts.DeviceID,
		)
	}
	return outcome, nil
}

func (s *Service) recognize(ctx context.Context, image []byte) (domain.RecognitionOutcome, error) {
	decoded, err := quality.Decode(image)
	if err != nil {
		return domain.RecognitionOutcome{}, err
	}

	faces, err := s.extractor.DetectFaces(ctx, image)
	if err != nil {
		return domain.RecognitionOutcome{}, fmt.Errorf("detect faces: %w", err)
	}
	if len(faces) == 0 {
		return domain.Unknown(domain.ReasonNoFaceDetected), nil
	}

	report, err := s.validator.Validate(decoded, faces[0].BoundingBox)
	if err != nil {
		return domain.RecognitionOutcome{}, err
	}
	if report.Score < s.minQuality {
		return domain.Unknown(domain.ReasonLowQuality), nil
	}

	vector, err := s.extractor.ExtractEmbedding(ctx, image, faces[0].BoundingBox)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionFailed) {
			return domain.Unknown(domain.ReasonExtractionFailed), nil
		}
		return domain.RecognitionOutcome{}, fmt.Errorf("extract embedding: %w", err)
	}

	best, err := s.matcher.FindBestMatch(ctx, vector)
	if err != nil {
		return domain.RecognitionOutcome{}, err
	}
	if best == nil || best.Similarity <= s.threshold {
		return domain.Unknown(domain.ReasonBelowThreshold), nil
	}

	return domain.Recognized(best.IdentityID, best.Similarity), nil
}

// RecognizeBulk runs Recognize over a batch of images with a bounded worker
// pool. Failures are isolated per image: a broken input becomes an Unknown
// outcome in the result instead of failing the batch.
func (s *Service) RecognizeBulk(ctx context.Context, images [][]byte, opts RecognizeOptions) (*domain.BulkResult, error) {
	outcomes := make([]domain.RecognitionOutcome, len(images))

	workers := s.bulkWorkers
	if workers > len(images) {
		workers = len(images)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcome, err := s.Recognize(ctx, images[i], opts)
				if err != nil {
					s.logger.Warn("bulk image failed", "index", i, "error", err)
					outcome = domain.Unknown(domain.ReasonExtractionFailed)
					outcome.Location = opts.Location
					outcome.DeviceID = opts.DeviceID
				}
				outcomes[i] = outcome
			}
		}()
	}

	for i := range images {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := &domain.BulkResult{}
	for _, outcome := range outcomes {
		if outcome.Recognized {
			result.Recognized = append(result.Recognized, outcome)
		} else {
			result.Unknown = append(result.Unknown, outcome)
		}
	}
	return result, nil
}

// Compare scores two face images against each other without touching the
// gallery. Both images must contain a detectable face with an extractable
// embedding.
func (s *Service) Compare(ctx context.Context, imageA, imageB []byte) (*domain.Comparison, error) {
	vecA, err := s.extractVector(ctx, imageA)
	if err != nil {
		return nil, fmt.Errorf("first image: %w", err)
	}
	vecB, err := s.extractVector(ctx, imageB)
	if err != nil {
		return nil, fmt.Errorf("second image: %w", err)
	}

	similarity := matcher.CosineSimilarity(vecA, vecB)
	return &domain.Comparison{
		Similarity:   similarity,
		IsSamePerson: similarity > s.threshold,
		Threshold:    s.threshold,
	}, nil
}

func (s *Service) extractVector(ctx context.Context, image []byte) ([]float64, error) {
	if _, err := quality.Decode(image); err != nil {
		return nil, err
	}

	faces, err := s.extractor.DetectFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(faces) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	return s.extractor.ExtractEmbedding(ctx, image, faces[0].BoundingBox)
}

// ListEmbeddings returns the embeddings enrolled for one identity.
func (s *Service) ListEmbeddings(ctx context.Context, identityID uuid.UUID) ([]domain.Embedding, error) {
	return s.repo.ListByIdentity(ctx, identityID)
}

// DeleteEmbedding removes one embedding from the gallery and invalidates
// the search index.
func (s *Service) DeleteEmbedding(ctx context.Context, embeddingID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, embeddingID)
	if err != nil {
		return fmt.Errorf("delete embedding %s: %w", embeddingID, err)
	}
	if !deleted {
		return domain.ErrEmbeddingNotFound
	}

	s.matcher.Invalidate()
	s.logger.Info("embedding deleted", "embedding_id", embeddingID)
	return nil
}
