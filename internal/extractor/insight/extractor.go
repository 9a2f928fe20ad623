package insight

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/presia-labs/presia/internal/domain"
	"github.com/presia-labs/presia/internal/extractor"
)

// Extractor talks to an InsightFace inference sidecar over HTTP.
type Extractor struct {
	client *Client
}

// New creates an insight-backed extractor
func New(config Config) *Extractor {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	return &Extractor{client: NewClient(config)}
}

// Ping probes sidecar availability. Used once at startup by the factory.
func (e *Extractor) Ping(ctx context.Context) error {
	if err := e.client.Health(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DetectFaces locates faces in the image, best detection first.
func (e *Extractor) DetectFaces(ctx context.Context, image []byte) ([]extractor.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := e.client.Detect(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]extractor.DetectedFace, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		faces = append(faces, extractor.DetectedFace{
			BoundingBox: domain.Region{X: f.Bbox.X, Y: f.Bbox.Y, Width: f.Bbox.W, Height: f.Bbox.H},
			Confidence:  f.DetScore,
		})
	}

	return faces, nil
}

// ExtractEmbedding extracts the embedding vector for one face region.
// A null embedding from the sidecar means the crop was degenerate; that is
// reported as domain.ErrExtractionFailed, not as a transport error.
func (e *Extractor) ExtractEmbedding(ctx context.Context, image []byte, box domain.Region) ([]float64, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := e.client.Embed(ctx, imageBase64, BoundingBox{X: box.X, Y: box.Y, W: box.Width, H: box.Height})
	if err != nil {
		return nil, fmt.Errorf("extract embedding: %w", err)
	}

	if len(resp.Embedding) == 0 {
		return nil, domain.ErrExtractionFailed
	}

	return resp.Embedding, nil
}

// Ensure Extractor implements extractor.FeatureExtractor
var _ extractor.FeatureExtractor = (*Extractor)(nil)
