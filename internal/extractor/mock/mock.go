package mock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/presia-labs/presia/internal/domain"
	"github.com/presia-labs/presia/internal/extractor"
)

// Extractor is a deterministic FeatureExtractor for tests and development.
// The same image bytes always produce the same unit-length embedding, so two
// submissions of one photo match at similarity 1.0.
type Extractor struct {
	dim int
}

// New creates a mock extractor producing vectors of the given dimension
func New(dim int) *Extractor {
	return &Extractor{dim: dim}
}

// DetectFaces reports one face covering the central 80% of any decodable
// image. Undersized payloads simulate "no face detected".
func (e *Extractor) DetectFaces(ctx context.Context, img []byte) ([]extractor.DetectedFace, error) {
	if len(img) < 1000 {
		return []extractor.DetectedFace{}, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	inX := cfg.Width / 10
	inY := cfg.Height / 10
	return []extractor.DetectedFace{
		{
			BoundingBox: domain.Region{
				X:      inX,
				Y:      inY,
				Width:  cfg.Width - 2*inX,
				Height: cfg.Height - 2*inY,
			},
			Confidence: 0.99,
		},
	}, nil
}

// ExtractEmbedding generates a deterministic embedding from the image hash
// and the requested region.
func (e *Extractor) ExtractEmbedding(ctx context.Context, img []byte, box domain.Region) ([]float64, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return nil, domain.ErrExtractionFailed
	}

	seed := make([]byte, 0, len(img)+16)
	seed = append(seed, img...)
	seed = binary.BigEndian.AppendUint64(seed, uint64(int64(box.X)<<32|int64(box.Y)&0xffffffff))
	seed = binary.BigEndian.AppendUint64(seed, uint64(int64(box.Width)<<32|int64(box.Height)&0xffffffff))

	return generateEmbedding(seed, e.dim), nil
}

// generateEmbedding maps a byte seed onto a unit vector
func generateEmbedding(seed []byte, dim int) []float64 {
	hash := sha256.Sum256(seed)
	embedding := make([]float64, dim)
	hashLen := len(hash)

	for i := 0; i < dim; i++ {
		// Re-hash every block so the vector is not periodic in the hash length
		if i > 0 && i%hashLen == 0 {
			hash = sha256.Sum256(hash[:])
		}
		embedding[i] = (float64(hash[i%hashLen])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return embedding
	}

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ extractor.FeatureExtractor = (*Extractor)(nil)
