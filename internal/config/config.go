package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Extractor
	ExtractorType string `envconfig:"EXTRACTOR_TYPE" default:"insight"`
	InsightURL    string `envconfig:"INSIGHT_URL" default:"http://localhost:5000"`

	// Gallery
	EmbeddingDim   int     `envconfig:"EMBEDDING_DIM" default:"512"`
	MatchThreshold float64 `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	UseANNIndex    bool    `envconfig:"USE_ANN_INDEX" default:"false"`

	// Quality gates. The defaults are heuristic, so every threshold is
	// tunable per deployment.
	MinFaceSide     int     `envconfig:"QUALITY_MIN_FACE_SIDE" default:"50"`
	AspectRatioMin  float64 `envconfig:"QUALITY_ASPECT_MIN" default:"0.7"`
	AspectRatioMax  float64 `envconfig:"QUALITY_ASPECT_MAX" default:"1.3"`
	LuminanceMin    float64 `envconfig:"QUALITY_LUMINANCE_MIN" default:"30"`
	LuminanceMax    float64 `envconfig:"QUALITY_LUMINANCE_MAX" default:"225"`
	BlurVarianceMin float64 `envconfig:"QUALITY_BLUR_VARIANCE_MIN" default:"100"`

	// Enrollment / recognition policy
	MinEnrollQuality      float64 `envconfig:"MIN_ENROLL_QUALITY" default:"0.5"`
	MinRecognitionQuality float64 `envconfig:"MIN_RECOGNITION_QUALITY" default:"0.0"`
	BulkWorkers           int     `envconfig:"BULK_WORKERS" default:"4"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 1 {
		return nil, fmt.Errorf("load config: MATCH_THRESHOLD %v outside [0,1]", cfg.MatchThreshold)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
