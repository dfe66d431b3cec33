// Package vector provides the nearest-neighbor index over chunk embeddings.
package vector

import "context"

// VectorIndex defines vector storage and similarity search. An index is built once per
// processing run and never persisted.
type VectorIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Size() int
	Dimensions() int
	Close() error
}

// VectorResult is a single vector search hit; ID is the chunk ID.
type VectorResult struct {
	ID    string
	Score float64 // inner product, equal to cosine similarity for normalized vectors
}
