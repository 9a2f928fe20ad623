package extractor

import (
	"context"

	"github.com/presia-labs/presia/internal/domain"
)

// FeatureExtractor is the boundary to the face model backend. Detection and
// embedding inference happen behind this interface; the matching core never
// touches model internals.
type FeatureExtractor interface {
	// DetectFaces returns every face found in the image, best first.
	// An empty slice means no face was detected.
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)

	// ExtractEmbedding turns the face inside box into a fixed-length vector.
	// Returns domain.ErrExtractionFailed when the backend cannot produce a
	// vector for the crop (degenerate box, model failure).
	ExtractEmbedding(ctx context.Context, image []byte, box domain.Region) ([]float64, error)
}

// DetectedFace is one face located by the backend.
type DetectedFace struct {
	BoundingBox domain.Region `json:"bounding_box"`
	Confidence  float64       `json:"confidence"`
}
