package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalguardian/lexkb/internal/config"
	"github.com/legalguardian/lexkb/internal/embed"
	lexerrors "github.com/legalguardian/lexkb/internal/errors"
	"github.com/legalguardian/lexkb/internal/store"
)

// writeCorpus writes a corpus JSON file into dir and returns its path.
func writeCorpus(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Embeddings.Provider = config.ProviderStatic
	cfg.Index.OutputDir = filepath.Join(t.TempDir(), "data")
	// Small windows so short test documents fragment.
	cfg.Chunking.MaxChunkWords = 5
	cfg.Chunking.OverlapWords = 2
	return cfg
}

func TestRunner_BuildsAlignedArtifacts(t *testing.T) {
	// Given: a corpus with one short and one fragmenting document
	cfg := testConfig(t)
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir, "corpus.json", `[
		{"text": "short document", "reference": "Civil Code Art. 1"},
		{"text": "one two three four five six seven eight nine", "reference": "Civil Code Art. 2"}
	]`)

	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()

	runner, err := NewRunner(RunnerDependencies{Config: cfg, Embedder: embedder})
	require.NoError(t, err)

	// When: I run the build
	result, err := runner.Run(context.Background(), []string{corpusPath})
	require.NoError(t, err)

	// Then: the second document splits into fragments
	assert.Equal(t, 2, result.Documents)
	assert.Greater(t, result.Chunks, 2)
	assert.Equal(t, embed.StaticDimensions, result.Dimensions)

	// And: both artifacts exist and are aligned
	bundle, err := store.LoadBundle(cfg.BundlePath())
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, bundle.Len())
	assert.Equal(t, embed.StaticModelName, bundle.EmbedderModel)

	idx := store.NewFlatIndex(0)
	require.NoError(t, idx.Load(cfg.IndexPath()))
	defer func() { _ = idx.Close() }()
	assert.Equal(t, bundle.Len(), idx.Count())

	// And: fragment references carry their source citation
	_, ref, ok := bundle.At(1)
	require.True(t, ok)
	assert.Contains(t, ref, "Civil Code Art. 2")
	assert.Contains(t, ref, "Fragment 1")
}

func TestRunner_SearchFindsIndexedChunk(t *testing.T) {
	// Given: a built index
	cfg := testConfig(t)
	cfg.Chunking.MaxChunkWords = 50
	cfg.Chunking.OverlapWords = 10
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir, "corpus.json", `[
		{"text": "the tenant must give three months notice before terminating", "reference": "Rental Act §5"},
		{"text": "inheritance passes to the children in equal shares", "reference": "Succession Act §9"}
	]`)

	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()

	runner, err := NewRunner(RunnerDependencies{Config: cfg, Embedder: embedder})
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), []string{corpusPath})
	require.NoError(t, err)

	// When: I query the loaded index with an indexed chunk's text
	idx := store.NewFlatIndex(0)
	require.NoError(t, idx.Load(cfg.IndexPath()))
	defer func() { _ = idx.Close() }()

	bundle, err := store.LoadBundle(cfg.BundlePath())
	require.NoError(t, err)

	text, _, ok := bundle.At(0)
	require.True(t, ok)
	queryVec, err := embedder.EmbedDocuments(context.Background(), []string{text})
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), queryVec[0], 1)
	require.NoError(t, err)

	// Then: the chunk's own position is the top hit
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].Position)
}

func TestRunner_ConcurrentBuildRejected(t *testing.T) {
	// Given: another process holds the build lock
	cfg := testConfig(t)
	other := NewBuildLock(cfg.Index.OutputDir)
	require.NoError(t, other.Acquire())
	defer func() { _ = other.Release() }()

	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()
	runner, err := NewRunner(RunnerDependencies{Config: cfg, Embedder: embedder})
	require.NoError(t, err)

	// When: a second build starts on the same output directory
	corpusPath := writeCorpus(t, t.TempDir(), "corpus.json", `[{"text": "a", "reference": "r"}]`)
	_, err = runner.Run(context.Background(), []string{corpusPath})

	// Then: it fails fast with a retryable build-locked error
	require.Error(t, err)
	assert.Equal(t, lexerrors.ErrCodeBuildLocked, lexerrors.GetCode(err))
	assert.True(t, lexerrors.IsRetryable(err))
}

func TestRunner_MissingCorpusFileFailsWithoutArtifacts(t *testing.T) {
	// Given: a corpus path that does not exist
	cfg := testConfig(t)
	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()

	runner, err := NewRunner(RunnerDependencies{Config: cfg, Embedder: embedder})
	require.NoError(t, err)

	// When: I run the build
	_, err = runner.Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.json")})

	// Then: the build fails and no artifacts are written
	require.Error(t, err)
	assert.Equal(t, lexerrors.ErrCodeFileNotFound, lexerrors.GetCode(err))
	_, statErr := os.Stat(cfg.IndexPath())
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(cfg.BundlePath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunner_ReportsEmbeddingProgress(t *testing.T) {
	// Given: a runner with a progress callback over the cached embedder,
	// the same wrapping the factory applies
	cfg := testConfig(t)
	embedder, err := embed.NewCachedEmbedder(embed.NewStaticEmbedder(), 16)
	require.NoError(t, err)
	defer func() { _ = embedder.Close() }()

	var calls [][2]int
	runner, err := NewRunner(RunnerDependencies{
		Config:   cfg,
		Embedder: embedder,
		ProgressFunc: func(completed, total int) {
			calls = append(calls, [2]int{completed, total})
		},
	})
	require.NoError(t, err)

	corpusPath := writeCorpus(t, t.TempDir(), "corpus.json", `[
		{"text": "a b c", "reference": "r1"},
		{"text": "d e f", "reference": "r2"},
		{"text": "g h i", "reference": "r3"}
	]`)
	result, err := runner.Run(context.Background(), []string{corpusPath})
	require.NoError(t, err)

	// Then: the callback reaches through the cache wrapper and ends at
	// (chunks, chunks)
	require.NotEmpty(t, calls, "progress callback should fire during embedding")
	last := calls[len(calls)-1]
	assert.Equal(t, [2]int{result.Chunks, result.Chunks}, last)
	for _, c := range calls {
		assert.LessOrEqual(t, c[0], c[1])
	}
}

func TestNewRunner_RequiresDependencies(t *testing.T) {
	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()

	_, err := NewRunner(RunnerDependencies{Embedder: embedder})
	assert.Error(t, err, "config is required")

	_, err = NewRunner(RunnerDependencies{Config: config.NewConfig()})
	assert.Error(t, err, "embedder is required")
}
