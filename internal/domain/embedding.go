package domain

import (
	"time"

	"github.com/google/uuid"
)

// Embedding is one stored biometric sample for an identity. Vectors are
// immutable once persisted; corrections are delete + re-insert.
type Embedding struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"identity_id"`
	Vector     []float64 `json:"-"`
	Quality    float64   `json:"quality"`
	SourceRef  string    `json:"source_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Region is a face bounding box in pixel coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the region area in pixels².
func (r Region) Area() int {
	return r.Width * r.Height
}

// MatchCandidate is an ephemeral (identity, similarity) pair produced by a
// gallery search. It is never persisted.
type MatchCandidate struct {
	IdentityID  uuid.UUID `json:"identity_id"`
	EmbeddingID uuid.UUID `json:"embedding_id"`
	Similarity  float64   `json:"similarity"`
}

// EnrollmentResult reports the outcome of a multi-sample enrollment call.
type EnrollmentResult struct {
	IdentityID      uuid.UUID `json:"identity_id"`
	EmbeddingsCount int       `json:"embeddings_count"`
	Scores          []float64 `json:"confidence_scores"`
	Warnings        []string  `json:"warnings,omitempty"`
}
