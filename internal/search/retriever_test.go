package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalguardian/lexkb/internal/config"
	"github.com/legalguardian/lexkb/internal/embed"
	lexerrors "github.com/legalguardian/lexkb/internal/errors"
	"github.com/legalguardian/lexkb/internal/store"
)

// testChunks is a tiny legal corpus; chunk i gets vector position i.
var testChunks = []string{
	"Наследование осуществляется по завещанию и по закону.",
	"Срок исковой давности составляет три года.",
	"Арендатор обязан своевременно вносить арендную плату.",
}

var testRefs = []string{
	"ГК РФ ст. 1111",
	"ГК РФ ст. 196",
	"ГК РФ ст. 614",
}

// buildArtifacts writes a flat index and bundle for the test chunks and
// returns a config pointing at them.
func buildArtifacts(t *testing.T, embedder embed.Embedder, model string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Embeddings.Provider = config.ProviderStatic
	cfg.Index.OutputDir = filepath.Join(t.TempDir(), "data")

	ctx := context.Background()
	vectors, err := embedder.EmbedDocuments(ctx, testChunks)
	require.NoError(t, err)

	idx := store.NewFlatIndex(embedder.Dimensions())
	require.NoError(t, idx.Add(ctx, vectors))
	require.NoError(t, idx.Save(cfg.IndexPath()))
	require.NoError(t, idx.Close())

	bundle, err := store.NewBundle(testChunks, testRefs, model)
	require.NoError(t, err)
	require.NoError(t, bundle.Save(cfg.BundlePath()))

	return cfg
}

func newTestRetriever(t *testing.T) (*Retriever, *embed.StaticEmbedder) {
	t.Helper()
	embedder := embed.NewStaticEmbedder()
	t.Cleanup(func() { _ = embedder.Close() })

	cfg := buildArtifacts(t, embedder, embedder.ModelName())
	r, err := Open(cfg, embedder)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, embedder
}

func TestOpen_LoadsAlignedArtifacts(t *testing.T) {
	// Given/When: a retriever over freshly built artifacts
	r, _ := newTestRetriever(t)

	// Then: its metadata reflects the build
	assert.Equal(t, len(testChunks), r.Count())
	assert.Equal(t, embed.StaticDimensions, r.Dimensions())
	assert.Equal(t, embed.StaticModelName, r.ModelName())
}

func TestOpen_RejectsModelMismatch(t *testing.T) {
	// Given: a bundle recorded with a different embedding model
	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()
	cfg := buildArtifacts(t, embedder, "some-other-model")

	// When: opening with the current embedder
	_, err := Open(cfg, embedder)

	// Then: the mismatch is fatal
	require.Error(t, err)
	assert.Equal(t, lexerrors.ErrCodeModelMismatch, lexerrors.GetCode(err))
	assert.True(t, lexerrors.IsFatal(err))
}

func TestOpen_RejectsMisalignedIndexAndBundle(t *testing.T) {
	// Given: a bundle with fewer chunks than the index has vectors
	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()
	cfg := buildArtifacts(t, embedder, embedder.ModelName())

	short, err := store.NewBundle(testChunks[:2], testRefs[:2], embedder.ModelName())
	require.NoError(t, err)
	require.NoError(t, short.Save(cfg.BundlePath()))

	// When: opening the pair
	_, err = Open(cfg, embedder)

	// Then: the misalignment is reported as corruption
	require.Error(t, err)
	assert.Equal(t, lexerrors.ErrCodeCorruptIndex, lexerrors.GetCode(err))
}

func TestOpen_MissingArtifacts(t *testing.T) {
	// Given: a config pointing at an empty directory
	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()
	cfg := config.NewConfig()
	cfg.Index.OutputDir = t.TempDir()

	// When/Then: opening fails with not-found
	_, err := Open(cfg, embedder)
	require.Error(t, err)
	assert.Equal(t, lexerrors.ErrCodeFileNotFound, lexerrors.GetCode(err))
}

func TestRetriever_SearchReturnsScoredCitations(t *testing.T) {
	// Given: a retriever over the test corpus
	r, _ := newTestRetriever(t)

	// When: I ask a legal question close to an indexed chunk
	results, err := r.Search(context.Background(), "наследование по завещанию и по закону")
	require.NoError(t, err)

	// Then: the inheritance chunk ranks first with its citation
	require.NotEmpty(t, results)
	assert.Equal(t, testChunks[0], results[0].Chunk)
	assert.Equal(t, "ГК РФ ст. 1111", results[0].Reference)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score,
			"results must be ordered best first")
	}
}

func TestRetriever_SearchRespectsTopK(t *testing.T) {
	// Given: a retriever limited to one result
	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()
	cfg := buildArtifacts(t, embedder, embedder.ModelName())
	cfg.Retrieval.TopK = 1

	r, err := Open(cfg, embedder)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	// When: I search
	results, err := r.Search(context.Background(), "срок исковой давности")
	require.NoError(t, err)

	// Then: exactly one result comes back
	assert.Len(t, results, 1)
}

func TestRetriever_NonLegalQueryGatedToEmpty(t *testing.T) {
	// Given: a retriever with the legal filter on (default)
	r, _ := newTestRetriever(t)

	// When: a non-legal query arrives
	results, err := r.Search(context.Background(), "как приготовить борщ")

	// Then: no results and no error
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetriever_FilterDisabledAnswersAnything(t *testing.T) {
	// Given: a retriever with the legal filter off
	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()
	cfg := buildArtifacts(t, embedder, embedder.ModelName())
	cfg.Retrieval.LegalFilter = false

	r, err := Open(cfg, embedder)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	// When: the same non-legal query arrives
	results, err := r.Search(context.Background(), "как приготовить борщ")

	// Then: retrieval proceeds
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestRetriever_EmptyQueryRejected(t *testing.T) {
	// Given: a retriever
	r, _ := newTestRetriever(t)

	// When/Then: empty and whitespace queries are validation errors
	_, err := r.Search(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, lexerrors.ErrCodeQueryEmpty, lexerrors.GetCode(err))

	_, err = r.Search(context.Background(), "  \t ")
	require.Error(t, err)
	assert.Equal(t, lexerrors.ErrCodeQueryEmpty, lexerrors.GetCode(err))
}
