// Package index builds the persisted index artifacts: the vector index
// and the chunk bundle that resolves positions back into legal text.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/legalguardian/lexkb/internal/chunk"
	"github.com/legalguardian/lexkb/internal/config"
	"github.com/legalguardian/lexkb/internal/corpus"
	"github.com/legalguardian/lexkb/internal/embed"
	lexerrors "github.com/legalguardian/lexkb/internal/errors"
	"github.com/legalguardian/lexkb/internal/store"
)

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Config is the loaded configuration (required).
	Config *config.Config

	// Embedder generates the chunk vectors (required).
	Embedder embed.Embedder

	// Chunker splits documents (defaults from config when nil).
	Chunker *chunk.Chunker

	// ProgressFunc, if set, receives (completed, total) after each
	// embedding batch.
	ProgressFunc func(completed, total int)
}

// Result contains the outcome of an index build.
type Result struct {
	// Documents is the number of source documents read.
	Documents int

	// Chunks is the number of chunks indexed.
	Chunks int

	// Dimensions is the embedding dimension of the built index.
	Dimensions int

	// IndexPath and BundlePath are the written artifacts.
	IndexPath  string
	BundlePath string

	// Duration is the total build time.
	Duration time.Duration
}

// Runner executes index builds. It accepts injected dependencies for
// testability.
type Runner struct {
	config   *config.Config
	embedder embed.Embedder
	chunker  *chunk.Chunker
	progress func(completed, total int)
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	chunker := deps.Chunker
	if chunker == nil {
		var err error
		chunker, err = chunk.NewChunker(
			deps.Config.Chunking.MaxChunkWords,
			deps.Config.Chunking.OverlapWords)
		if err != nil {
			return nil, err
		}
	}

	return &Runner{
		config:   deps.Config,
		embedder: deps.Embedder,
		chunker:  chunker,
		progress: deps.ProgressFunc,
	}, nil
}

// Run builds the index from the given corpus files and persists both
// artifacts to the configured output directory.
//
// The build holds a cross-process lock on the output directory for its
// whole duration. Vector positions are assigned in chunk order, so the
// index, the bundle chunks, and the bundle references stay parallel by
// construction.
func (r *Runner) Run(ctx context.Context, corpusPaths []string) (*Result, error) {
	start := time.Now()

	lock := NewBuildLock(r.config.Index.OutputDir)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("failed to release build lock", slog.String("error", err.Error()))
		}
	}()

	// Stage 1: load documents.
	docs, err := corpus.Load(ctx, corpusPaths)
	if err != nil {
		return nil, err
	}

	// Stage 2: chunk.
	chunks := r.chunker.Chunk(docs)
	slog.Info("documents chunked",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", len(chunks)))

	// Stage 3: embed chunk texts in document mode.
	if r.progress != nil {
		if p, ok := r.embedder.(interface{ SetProgressFunc(func(int, int)) }); ok {
			p.SetProgressFunc(r.progress)
		}
	}
	vectors, err := r.embedder.EmbedDocuments(ctx, chunk.Texts(chunks))
	if err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("embed %d chunks", len(chunks)), err)
	}
	if len(vectors) != len(chunks) {
		return nil, lexerrors.InternalError(
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)), nil)
	}

	// Stage 4: build the vector index in chunk order.
	dims := r.embedder.Dimensions()
	if dims <= 0 && len(vectors) > 0 {
		dims = len(vectors[0])
	}
	vectorIndex, err := store.NewVectorIndex(store.IndexConfig{
		Dimensions: dims,
		Backend:    r.config.Index.Backend,
		M:          r.config.Index.M,
		EfSearch:   r.config.Index.EfSearch,
	})
	if err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeIndexFailed, "create vector index", err)
	}
	defer func() { _ = vectorIndex.Close() }()

	if err := vectorIndex.Add(ctx, vectors); err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeIndexFailed, "add vectors", err)
	}

	// Stage 5: persist. Each artifact is written atomically; the bundle
	// goes last so a crash mid-build leaves at worst a pair the loader
	// rejects as misaligned, never a silently wrong one.
	bundle, err := store.NewBundle(
		chunk.Texts(chunks),
		chunk.References(chunks),
		r.embedder.ModelName())
	if err != nil {
		return nil, err
	}

	indexPath := r.config.IndexPath()
	bundlePath := r.config.BundlePath()
	if err := vectorIndex.Save(indexPath); err != nil {
		return nil, err
	}
	if err := bundle.Save(bundlePath); err != nil {
		return nil, err
	}

	result := &Result{
		Documents:  len(docs),
		Chunks:     len(chunks),
		Dimensions: dims,
		IndexPath:  indexPath,
		BundlePath: bundlePath,
		Duration:   time.Since(start),
	}

	slog.Info("index built",
		slog.Int("documents", result.Documents),
		slog.Int("chunks", result.Chunks),
		slog.Int("dimensions", result.Dimensions),
		slog.String("model", r.embedder.ModelName()),
		slog.Duration("duration", result.Duration))

	return result, nil
}
