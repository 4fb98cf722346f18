// Package embed generates unit-norm vector embeddings for legal text.
//
// Documents and queries are encoded asymmetrically: the E5 model family is
// trained to distinguish the two roles via the "passage: " and "query: "
// prefixes. Omitting a prefix silently degrades retrieval quality, so the
// prefixes are applied here, once, for every backend.
package embed

import (
	"context"
	"math"
	"time"
)

// Role prefixes for asymmetric encoding. These strings are part of the
// model contract and must match the prefixes used during model training.
const (
	PassagePrefix = "passage: "
	QueryPrefix   = "query: "
)

// Common embedding constants.
const (
	// DefaultBatchSize is how many passages are encoded per request.
	// Bounds peak memory; batch boundaries never change the vectors.
	DefaultBatchSize = 8

	// MaxBatchSize prevents memory exhaustion from misconfiguration.
	MaxBatchSize = 256

	// DefaultTimeout is the per-request timeout for embedding calls.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of attempts for a failed batch.
	DefaultMaxRetries = 3
)

// Static embedder constants.
const (
	// StaticDimensions matches the e5-small dimension so flat and static
	// indexes stay shape-compatible in tests and offline builds.
	StaticDimensions = 384

	// StaticModelName identifies offline-built bundles. Query-time
	// consumers reject bundles whose model does not match their own.
	StaticModelName = "lexkb-static-hash-384"
)

// Embedder generates unit-norm vector embeddings.
//
// Implementations apply the passage/query prefixes themselves; callers pass
// raw text. All returned vectors have L2 norm 1, which makes inner product
// equivalent to cosine similarity downstream.
type Embedder interface {
	// EmbedDocuments encodes passages in document mode ("passage: "
	// prefix), batched internally. Vector order matches input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery encodes one query in query mode ("query: " prefix).
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier stored in the index bundle.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v // zero vector stays as-is
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
