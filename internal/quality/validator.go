package quality

import (
	"errors"
	"image"

	"github.com/presia-labs/presia/internal/config"
	"github.com/presia-labs/presia/internal/domain"
)

// Thresholds are the tunable gate settings. The defaults reproduce the
// heuristics the attendance product shipped with; they are not calibrated
// constants and deployments are expected to adjust them.
type Thresholds struct {
	MinFaceSide     int
	AspectRatioMin  float64
	AspectRatioMax  float64
	LuminanceMin    float64
	LuminanceMax    float64
	BlurVarianceMin float64
}

// DefaultThresholds returns the reference gate settings
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinFaceSide:     50,
		AspectRatioMin:  0.7,
		AspectRatioMax:  1.3,
		LuminanceMin:    30,
		LuminanceMax:    225,
		BlurVarianceMin: 100,
	}
}

// ThresholdsFromConfig maps the env-driven config onto gate settings
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		MinFaceSide:     cfg.MinFaceSide,
		AspectRatioMin:  cfg.AspectRatioMin,
		AspectRatioMax:  cfg.AspectRatioMax,
		LuminanceMin:    cfg.LuminanceMin,
		LuminanceMax:    cfg.LuminanceMax,
		BlurVarianceMin: cfg.BlurVarianceMin,
	}
}

// Gate scores for each failure mode. Checks run cheapest-first and
// short-circuit, so a face that is both tiny and blurry always scores 0.3:
// the ordering is part of the contract, not an optimization detail.
const (
	ScoreTooSmall     = 0.3
	ScoreBadAspect    = 0.4
	ScoreBadLuminance = 0.5
	ScoreTooBlurry    = 0.6
	ScoreAcceptable   = 0.9
)

// Report is the advisory result of one quality check. Callers decide
// accept/reject against their own minimum; the validator only scores.
type Report struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Validator scores a detected face region for usability before it is trusted
// for enrollment or matching. It is pure: no side effects, no state beyond
// its thresholds.
type Validator struct {
	t Thresholds
}

// NewValidator creates a validator with the given thresholds
func NewValidator(t Thresholds) *Validator {
	return &Validator{t: t}
}

// Validate scores the face inside region. It fails with
// domain.ErrInvalidRegion when the box has non-positive dimensions or lies
// outside the image bounds; a well-formed box never produces an error.
func (v *Validator) Validate(img image.Image, region domain.Region) (Report, error) {
	if err := checkRegion(img, region); err != nil {
		return Report{}, err
	}

	if region.Width < v.t.MinFaceSide || region.Height < v.t.MinFaceSide {
		return Report{Score: ScoreTooSmall, Reason: "too small"}, nil
	}

	aspect := float64(region.Width) / float64(region.Height)
	if aspect < v.t.AspectRatioMin || aspect > v.t.AspectRatioMax {
		return Report{Score: ScoreBadAspect, Reason: "bad aspect ratio"}, nil
	}

	gray := grayCrop(img, region)

	lum := meanLuminance(gray)
	if lum < v.t.LuminanceMin || lum > v.t.LuminanceMax {
		return Report{Score: ScoreBadLuminance, Reason: "too dark/bright"}, nil
	}

	if laplacianVariance(gray) < v.t.BlurVarianceMin {
		return Report{Score: ScoreTooBlurry, Reason: "too blurry"}, nil
	}

	return Report{Score: ScoreAcceptable, Reason: "acceptable"}, nil
}

func checkRegion(img image.Image, region domain.Region) error {
	if region.Width <= 0 || region.Height <= 0 {
		return domain.ErrInvalidRegion.WithError(errors.New("non-positive dimensions"))
	}

	b := img.Bounds()
	if region.X < b.Min.X || region.Y < b.Min.Y ||
		region.X+region.Width > b.Max.X || region.Y+region.Height > b.Max.Y {
		return domain.ErrInvalidRegion.WithError(errors.New("region outside image bounds"))
	}

	return nil
}
