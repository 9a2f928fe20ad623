package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnknownReason explains why a recognition call did not resolve to an identity.
type UnknownReason string

const (
	ReasonNoFaceDetected   UnknownReason = "no_face_detected"
	ReasonLowQuality       UnknownReason = "low_quality"
	ReasonBelowThreshold   UnknownReason = "below_threshold"
	ReasonExtractionFailed UnknownReason = "extraction_failed"
)

// RecognitionOutcome is the structured result of one recognition call.
// Exactly one of the two shapes applies: Recognized carries an identity and
// score, Unknown carries a reason. "Unknown person" is ordinary control flow,
// not an error.
type RecognitionOutcome struct {
	Recognized bool          `json:"recognized"`
	IdentityID *uuid.UUID    `json:"identity_id,omitempty"`
	Score      float64       `json:"score"`
	Reason     UnknownReason `json:"reason,omitempty"`
	Location   string        `json:"location,omitempty"`
	DeviceID   string        `json:"device_id,omitempty"`
	At         time.Time     `json:"recognition_time"`
}

// Recognized builds a positive outcome.
func Recognized(identityID uuid.UUID, score float64) RecognitionOutcome {
	id := identityID
	return RecognitionOutcome{
		Recognized: true,
		IdentityID: &id,
		Score:      score,
		At:         time.Now().UTC(),
	}
}

// Unknown builds a negative outcome with the given reason.
func Unknown(reason UnknownReason) RecognitionOutcome {
	return RecognitionOutcome{
		Recognized: false,
		Reason:     reason,
		At:         time.Now().UTC(),
	}
}

// BulkResult partitions a batch of recognition outcomes.
type BulkResult struct {
	Recognized []RecognitionOutcome `json:"recognized"`
	Unknown    []RecognitionOutcome `json:"unknown"`
}

// Comparison is the result of comparing two face images directly.
type Comparison struct {
	Similarity   float64 `json:"similarity_score"`
	IsSamePerson bool    `json:"is_same_person"`
	Threshold    float64 `json:"threshold"`
}
