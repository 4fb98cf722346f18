// Package store provides the vector index backends and the chunk bundle
// persistence. This is the persistence layer for all indexed data.
package store

import (
	"context"
	"fmt"
)

// Index backend identifiers.
const (
	BackendFlat = "flat"
	BackendHNSW = "hnsw"
)

// Hit is a single vector search result. Position is the chunk's slot in
// the parallel chunk and reference arrays of the bundle.
type Hit struct {
	Position int
	Score    float32
}

// IndexConfig configures a vector index.
type IndexConfig struct {
	// Dimensions is the vector dimension. Required.
	Dimensions int

	// Backend selects the index structure: "flat" (exact, default) or
	// "hnsw" (approximate).
	Backend string

	// M is HNSW max connections per layer (hnsw backend only, default 32).
	M int

	// EfSearch is HNSW query-time search width (hnsw backend only, default 64).
	EfSearch int
}

// VectorIndex holds unit-length embedding vectors in insertion order and
// answers top-k inner-product queries. On unit vectors inner product
// equals cosine similarity, so higher scores mean closer chunks.
type VectorIndex interface {
	// Add appends vectors. Position assignment is sequential: the first
	// vector ever added gets position 0, and so on.
	Add(ctx context.Context, vectors [][]float32) error

	// Search returns up to k hits ordered by descending score, ties
	// broken by ascending position.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)

	// Count returns the number of stored vectors.
	Count() int

	// Dimensions returns the vector dimension.
	Dimensions() int

	// Persistence
	Save(path string) error
	Load(path string) error
	Close() error
}

// NewVectorIndex creates an index for the configured backend.
func NewVectorIndex(cfg IndexConfig) (VectorIndex, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("index dimensions must be positive, got %d", cfg.Dimensions)
	}

	switch cfg.Backend {
	case BackendFlat, "":
		return NewFlatIndex(cfg.Dimensions), nil
	case BackendHNSW:
		return NewHNSWIndex(cfg)
	default:
		return nil, fmt.Errorf("unknown index backend: %q", cfg.Backend)
	}
}

// OpenVectorIndex loads a persisted index for the configured backend.
// The stored file carries its own dimension.
func OpenVectorIndex(backend, path string) (VectorIndex, error) {
	switch backend {
	case BackendFlat, "":
		idx := NewFlatIndex(0)
		if err := idx.Load(path); err != nil {
			return nil, err
		}
		return idx, nil
	case BackendHNSW:
		return LoadHNSWIndex(path)
	default:
		return nil, fmt.Errorf("unknown index backend: %q", backend)
	}
}

// ErrDimensionMismatch indicates a vector did not match the index dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (rebuild the index with 'lexkb index')", e.Expected, e.Got)
}
