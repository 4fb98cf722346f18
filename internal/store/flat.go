package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lexerrors "github.com/legalguardian/lexkb/internal/errors"
)

// FlatIndex is an exhaustive inner-product index. Every query scores
// every stored vector, so results are exact. At the corpus sizes a legal
// knowledge base reaches (thousands of chunks) this is faster in practice
// than maintaining a graph structure.
type FlatIndex struct {
	mu      sync.RWMutex
	dims    int
	vectors [][]float32
	closed  bool
}

var _ VectorIndex = (*FlatIndex)(nil)

// flatIndexFile is the gob persistence format.
type flatIndexFile struct {
	Dimensions int
	Vectors    [][]float32
}

// NewFlatIndex creates an empty flat index for the given dimension.
func NewFlatIndex(dims int) *FlatIndex {
	return &FlatIndex{dims: dims}
}

// Add appends vectors in order. Positions are assigned sequentially and
// never reused, so vector i always corresponds to chunk i.
func (idx *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return fmt.Errorf("index is closed")
	}

	for _, v := range vectors {
		if len(v) != idx.dims {
			return ErrDimensionMismatch{Expected: idx.dims, Got: len(v)}
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

// Search scores every stored vector against the query by inner product
// and returns the top k, highest score first, ties by position.
func (idx *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if len(query) != idx.dims {
		return nil, ErrDimensionMismatch{Expected: idx.dims, Got: len(query)}
	}
	if k <= 0 || len(idx.vectors) == 0 {
		return []Hit{}, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	hits := make([]Hit, len(idx.vectors))
	for pos, vec := range idx.vectors {
		var dot float32
		for i, q := range query {
			dot += q * vec[i]
		}
		hits[pos] = Hit{Position: pos, Score: dot}
	}

	// Stable ordering: descending score, ascending position on equal
	// scores. Positions were filled in ascending order, so a stable sort
	// by score alone preserves the tiebreak.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Count returns the number of stored vectors.
func (idx *FlatIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimensions returns the vector dimension.
func (idx *FlatIndex) Dimensions() int {
	return idx.dims
}

// Save persists the index atomically (temp file + rename).
func (idx *FlatIndex) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return fmt.Errorf("index is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lexerrors.IOError("create index directory", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return lexerrors.IOError("create index file", err)
	}

	payload := flatIndexFile{Dimensions: idx.dims, Vectors: idx.vectors}
	if err := gob.NewEncoder(file).Encode(payload); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("encode index", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("close index file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("rename index file", err)
	}
	return nil
}

// Load replaces the index contents from disk. A file that does not
// decode, or whose vectors disagree with its declared dimension, is
// reported as corrupt rather than half-loaded.
func (idx *FlatIndex) Load(path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return fmt.Errorf("index is closed")
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lexerrors.New(lexerrors.ErrCodeFileNotFound,
				fmt.Sprintf("index file not found: %s", path), err)
		}
		return lexerrors.IOError("open index file", err)
	}
	defer func() { _ = file.Close() }()

	var payload flatIndexFile
	if err := gob.NewDecoder(file).Decode(&payload); err != nil {
		return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("decode index file %s", path), err)
	}

	if payload.Dimensions <= 0 {
		return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("index file %s declares invalid dimension %d", path, payload.Dimensions), nil)
	}
	for i, v := range payload.Vectors {
		if len(v) != payload.Dimensions {
			return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
				fmt.Sprintf("index file %s: vector %d has %d dimensions, expected %d",
					path, i, len(v), payload.Dimensions), nil)
		}
	}

	idx.dims = payload.Dimensions
	idx.vectors = payload.Vectors
	return nil
}

// Close releases resources.
func (idx *FlatIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true
	idx.vectors = nil
	return nil
}
