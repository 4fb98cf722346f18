package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	lexerrors "github.com/legalguardian/lexkb/internal/errors"
)

// HNSW tuning defaults.
const (
	defaultHNSWM        = 32
	defaultHNSWEfSearch = 64
)

// HNSWIndex is an approximate backend for large corpora, built on the
// pure Go coder/hnsw graph. Chunk positions are the graph keys directly,
// so no ID mapping layer is needed: vectors are append-only and position
// assignment is sequential exactly as in FlatIndex.
//
// Results are approximate; use the flat backend when exact ranking
// matters more than query latency.
type HNSWIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config IndexConfig
	count  int
	closed bool
}

var _ VectorIndex = (*HNSWIndex)(nil)

// hnswSidecar carries index state the graph export does not include.
type hnswSidecar struct {
	Config IndexConfig
	Count  int
}

// NewHNSWIndex creates an empty HNSW index.
func NewHNSWIndex(cfg IndexConfig) (*HNSWIndex, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("index dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.M <= 0 {
		cfg.M = defaultHNSWM
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = defaultHNSWEfSearch
	}

	return &HNSWIndex{graph: newGraph(cfg), config: cfg}, nil
}

// newGraph builds a cosine-distance graph with the configured parameters.
// Stored vectors are unit length, so cosine ranking equals inner-product
// ranking.
func newGraph(cfg IndexConfig) *hnsw.Graph[uint64] {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	return graph
}

// Add appends vectors, assigning the next sequential positions.
func (idx *HNSWIndex) Add(ctx context.Context, vectors [][]float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return fmt.Errorf("index is closed")
	}

	for _, v := range vectors {
		if len(v) != idx.config.Dimensions {
			return ErrDimensionMismatch{Expected: idx.config.Dimensions, Got: len(v)}
		}
	}

	for _, v := range vectors {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		vec := make([]float32, len(v))
		copy(vec, v)
		idx.graph.Add(hnsw.MakeNode(uint64(idx.count), vec))
		idx.count++
	}
	return nil
}

// Search returns up to k approximate nearest neighbors by descending score.
func (idx *HNSWIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if len(query) != idx.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: idx.config.Dimensions, Got: len(query)}
	}
	if k <= 0 || idx.count == 0 {
		return []Hit{}, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	nodes := idx.graph.Search(query, k)

	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		var dot float32
		for i, q := range query {
			dot += q * node.Value[i]
		}
		hits = append(hits, Hit{Position: int(node.Key), Score: dot})
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (idx *HNSWIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.count
}

// Dimensions returns the vector dimension.
func (idx *HNSWIndex) Dimensions() int {
	return idx.config.Dimensions
}

// Save persists the graph plus a gob sidecar, both atomically.
func (idx *HNSWIndex) Save(path string) error {
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
	if err := idx.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("export graph", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("close index file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("rename index file", err)
	}

	return idx.saveSidecar(path + ".meta")
}

func (idx *HNSWIndex) saveSidecar(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return lexerrors.IOError("create sidecar file", err)
	}

	meta := hnswSidecar{Config: idx.config, Count: idx.count}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("encode sidecar", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("close sidecar file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("rename sidecar file", err)
	}
	return nil
}

// LoadHNSWIndex opens a persisted HNSW index; configuration comes from
// the sidecar.
func LoadHNSWIndex(path string) (*HNSWIndex, error) {
	idx := &HNSWIndex{}
	if err := idx.Load(path); err != nil {
		return nil, err
	}
	return idx, nil
}

// Load restores the graph and sidecar written by Save.
func (idx *HNSWIndex) Load(path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return fmt.Errorf("index is closed")
	}

	if err := idx.loadSidecar(path + ".meta"); err != nil {
		return err
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

	// coder/hnsw Import requires an io.ByteReader.
	graph := newGraph(idx.config)
	if err := graph.Import(bufio.NewReader(file)); err != nil {
		return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("import graph from %s", path), err)
	}

	if graph.Len() != idx.count {
		return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("index file %s holds %d vectors, sidecar declares %d",
				path, graph.Len(), idx.count), nil)
	}

	idx.graph = graph
	return nil
}

func (idx *HNSWIndex) loadSidecar(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
				fmt.Sprintf("index sidecar not found: %s", path), err)
		}
		return lexerrors.IOError("open sidecar file", err)
	}
	defer func() { _ = file.Close() }()

	var meta hnswSidecar
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("decode sidecar %s", path), err)
	}
	if meta.Config.Dimensions <= 0 || meta.Count < 0 {
		return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("sidecar %s declares invalid state", path), nil)
	}

	idx.config = meta.Config
	idx.count = meta.Count
	return nil
}

// Close releases resources.
func (idx *HNSWIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true
	idx.graph = nil
	return nil
}
