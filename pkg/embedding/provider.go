package embedding

import (
	"context"
	"math"
)

// Provider generates a vector representation of a piece of text. The task
// type distinguishes document indexing from query embedding for backends
// that support asymmetric embeddings.
type Provider interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

const (
	TaskDocument = "retrieval.passage"
	TaskQuery    = "retrieval.query"
)

// normalizeVector normalizes a vector to unit length. Cosine distance in
// pgvector requires normalized vectors (magnitude = 1).
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
