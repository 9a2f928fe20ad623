package matcher

import (
	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity calculates the cosine similarity between two embedding
// vectors. Returns a value between -1.0 (opposite) and 1.0 (identical).
// Mismatched lengths and zero-norm vectors yield 0.0 rather than a division
// by zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0.0
	}

	sim := floats.Dot(a, b) / (normA * normB)

	// Clamp to [-1, 1] to absorb floating point drift
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

// NormalizeVector scales an embedding to unit length. Zero vectors are
// returned unchanged.
func NormalizeVector(v []float64) []float64 {
	if len(v) == 0 {
		return v
	}

	norm := floats.Norm(v, 2)
	if norm == 0 {
		return v
	}

	normalized := make([]float64, len(v))
	for i, x := range v {
		normalized[i] = x / norm
	}
	return normalized
}
