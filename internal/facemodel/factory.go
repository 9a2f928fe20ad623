package facemodel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/presia-labs/presia/internal/config"
	"github.com/presia-labs/presia/internal/extractor"
	"github.com/presia-labs/presia/internal/extractor/insight"
	"github.com/presia-labs/presia/internal/extractor/mock"
)

// ExtractorType defines supported face model backends
type ExtractorType string

const (
	// ExtractorTypeInsight is the InsightFace inference sidecar (primary)
	ExtractorTypeInsight ExtractorType = "insight"
	// ExtractorTypeMock is the deterministic hash-based backend (dev/test)
	ExtractorTypeMock ExtractorType = "mock"
)

// NewExtractor creates a FeatureExtractor based on configuration. The
// strategy is selected exactly once at startup; callers hold the returned
// value for the process lifetime and never re-probe per call.
//
// Environment variables:
//   - EXTRACTOR_TYPE: "insight" or "mock" (default: "insight")
//   - INSIGHT_URL: inference sidecar base URL (default: "http://localhost:5000")
//
// In development an unreachable sidecar degrades to the mock backend; in
// production it is a startup error.
func NewExtractor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (extractor.FeatureExtractor, error) {
	switch ExtractorType(cfg.ExtractorType) {
	case ExtractorTypeMock:
		return mock.New(cfg.EmbeddingDim), nil

	case ExtractorTypeInsight, "":
		ext := insight.New(insight.Config{BaseURL: cfg.InsightURL})
		if err := ext.Ping(ctx); err != nil {
			if cfg.IsDevelopment() {
				logger.Warn("insight sidecar unreachable, falling back to mock extractor",
					slog.String("url", cfg.InsightURL),
					slog.Any("error", err),
				)
				return mock.New(cfg.EmbeddingDim), nil
			}
			return nil, fmt.Errorf("probe insight sidecar at %s: %w", cfg.InsightURL, err)
		}
		return ext, nil

	default:
		return nil, fmt.Errorf("unknown extractor type: %s (supported: %s, %s)",
			cfg.ExtractorType, ExtractorTypeInsight, ExtractorTypeMock)
	}
}
