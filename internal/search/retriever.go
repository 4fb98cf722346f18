// Package search answers user queries against a built index: it embeds
// the query, searches the vector index, and resolves hit positions into
// chunk texts and citations through the bundle.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/legalguardian/lexkb/internal/config"
	"github.com/legalguardian/lexkb/internal/embed"
	lexerrors "github.com/legalguardian/lexkb/internal/errors"
	"github.com/legalguardian/lexkb/internal/store"
)

// Result is one retrieved chunk with its citation and similarity score.
type Result struct {
	// Chunk is the retrieved text.
	Chunk string

	// Reference is the source citation, including the fragment suffix
	// for fragmented documents.
	Reference string

	// Score is the inner-product similarity in [-1, 1]; on unit vectors
	// this is the cosine similarity.
	Score float32
}

// RetrieverOptions tune query-time behavior.
type RetrieverOptions struct {
	// TopK is the maximum number of results per query.
	TopK int

	// QueryExpansion enables query rewriting before embedding.
	QueryExpansion bool

	// LegalFilter gates retrieval on the legal-question classifier.
	LegalFilter bool
}

// Retriever answers queries against loaded index artifacts.
type Retriever struct {
	index      store.VectorIndex
	bundle     *store.Bundle
	embedder   embed.Embedder
	expander   *QueryExpander
	classifier *LegalClassifier
	opts       RetrieverOptions
}

// Open loads both artifacts from the configured output directory and
// validates them against each other and against the embedder.
//
// Validation is strict: an index and bundle of different lengths, or a
// bundle built with a different embedding model, would silently return
// wrong citations, so both are fatal here.
func Open(cfg *config.Config, embedder embed.Embedder) (*Retriever, error) {
	index, err := store.OpenVectorIndex(cfg.Index.Backend, cfg.IndexPath())
	if err != nil {
		return nil, err
	}

	bundle, err := store.LoadBundle(cfg.BundlePath())
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	if index.Count() != bundle.Len() {
		_ = index.Close()
		return nil, lexerrors.New(lexerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("index holds %d vectors but bundle holds %d chunks",
				index.Count(), bundle.Len()), nil)
	}

	if embedder.ModelName() != bundle.EmbedderModel {
		_ = index.Close()
		return nil, lexerrors.ModelMismatchError(bundle.EmbedderModel, embedder.ModelName())
	}

	r := &Retriever{
		index:    index,
		bundle:   bundle,
		embedder: embedder,
		opts: RetrieverOptions{
			TopK:           cfg.Retrieval.TopK,
			QueryExpansion: cfg.Retrieval.QueryExpansion,
			LegalFilter:    cfg.Retrieval.LegalFilter,
		},
	}
	if r.opts.TopK <= 0 {
		r.opts.TopK = config.DefaultTopK
	}
	if r.opts.QueryExpansion {
		r.expander = NewQueryExpander()
	}
	if r.opts.LegalFilter {
		r.classifier = NewLegalClassifier()
	}

	slog.Info("retriever ready",
		slog.Int("chunks", bundle.Len()),
		slog.Int("dimensions", index.Dimensions()),
		slog.String("model", bundle.EmbedderModel))

	return r, nil
}

// Search returns up to TopK chunks relevant to the query, best first.
//
// A query gated out by the legal filter returns an empty result set, not
// an error; the caller decides how to phrase the refusal.
func (r *Retriever) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, lexerrors.New(lexerrors.ErrCodeQueryEmpty, "query is empty", nil)
	}

	if r.classifier != nil && !r.classifier.IsLegal(query) {
		slog.Info("query gated by legal filter", slog.String("query", query))
		return []Result{}, nil
	}

	embedQuery := query
	if r.expander != nil {
		embedQuery = r.expander.Expand(query)
	}

	queryVec, err := r.embedder.EmbedQuery(ctx, embedQuery)
	if err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeEmbeddingFailed,
			"embed query", err)
	}

	hits, err := r.index.Search(ctx, queryVec, r.opts.TopK)
	if err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeSearchFailed,
			"search index", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		text, reference, ok := r.bundle.At(hit.Position)
		if !ok {
			// Should be impossible after Open's alignment check.
			slog.Warn("hit position outside bundle",
				slog.Int("position", hit.Position),
				slog.Int("bundle_len", r.bundle.Len()))
			continue
		}
		results = append(results, Result{
			Chunk:     text,
			Reference: reference,
			Score:     hit.Score,
		})
	}

	slog.Info("query answered",
		slog.String("query", query),
		slog.Int("results", len(results)))

	return results, nil
}

// Count returns the number of indexed chunks.
func (r *Retriever) Count() int {
	return r.bundle.Len()
}

// Dimensions returns the index's embedding dimension.
func (r *Retriever) Dimensions() int {
	return r.index.Dimensions()
}

// ModelName returns the embedding model the index was built with.
func (r *Retriever) ModelName() string {
	return r.bundle.EmbedderModel
}

// Close releases the underlying index.
func (r *Retriever) Close() error {
	return r.index.Close()
}
