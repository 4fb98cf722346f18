// Package config loads and validates lexkb configuration.
//
// Configuration hierarchy (later wins):
//  1. Hardcoded defaults (NewConfig)
//  2. Config file (lexkb.yaml, or --config)
//  3. Environment variables (LEXKB_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	lexerrors "github.com/legalguardian/lexkb/internal/errors"
)

// Default configuration values.
const (
	// DefaultMaxChunkWords is the word-count threshold above which a
	// document is split into overlapping fragments.
	DefaultMaxChunkWords = 256

	// DefaultOverlapWords is the number of words shared between
	// consecutive fragments of the same document.
	DefaultOverlapWords = 50

	// DefaultBatchSize bounds peak memory during embedding.
	DefaultBatchSize = 8

	// DefaultTopK is the number of chunks returned per query.
	DefaultTopK = 5

	// DefaultEmbeddingModel identifies the encoder the index is built with.
	// The model follows the E5 contract ("passage: "/"query: " prefixes).
	DefaultEmbeddingModel = "intfloat/multilingual-e5-small"

	// DefaultOllamaHost is the local Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOutputDir is where index artifacts are written.
	DefaultOutputDir = "data"
)

// Artifact file names inside the output directory.
// These names are a fixed contract with query-time consumers.
const (
	IndexFileName  = "legal_index.gob"
	BundleFileName = "chunks_references.gob"
)

// Embedding provider and index backend identifiers.
const (
	ProviderOllama = "ollama"
	ProviderStatic = "static"

	BackendFlat = "flat"
	BackendHNSW = "hnsw"
)

// Config represents the complete lexkb configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
}

// ChunkingConfig configures how documents are split into chunks.
type ChunkingConfig struct {
	// MaxChunkWords is the window size in words.
	MaxChunkWords int `yaml:"max_chunk_words"`
	// OverlapWords is the overlap between consecutive windows.
	// Must be strictly less than MaxChunkWords.
	OverlapWords int `yaml:"overlap_words"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder backend: "ollama" or "static".
	Provider string `yaml:"provider"`
	// Model is the embedding model identifier stored in the bundle.
	Model string `yaml:"model"`
	// Dimensions is the embedding dimension (0 = auto-detect).
	Dimensions int `yaml:"dimensions"`
	// BatchSize is how many passages are embedded per request.
	BatchSize int `yaml:"batch_size"`
	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`
	// CacheSize is the LRU query-embedding cache size (0 = default).
	CacheSize int `yaml:"cache_size"`
}

// IndexConfig configures the vector index.
type IndexConfig struct {
	// Backend selects the index structure: "flat" (exact, default)
	// or "hnsw" (approximate, for large corpora).
	Backend string `yaml:"backend"`
	// OutputDir is the directory holding the persisted artifacts.
	OutputDir string `yaml:"output_dir"`
	// M is HNSW max connections per layer (hnsw backend only).
	M int `yaml:"m"`
	// EfSearch is HNSW query-time search width (hnsw backend only).
	EfSearch int `yaml:"ef_search"`
}

// RetrievalConfig configures query-time behavior.
type RetrievalConfig struct {
	// TopK is the maximum number of chunks returned per query.
	TopK int `yaml:"top_k"`
	// QueryExpansion enables legal-term query expansion.
	QueryExpansion bool `yaml:"query_expansion"`
	// LegalFilter gates retrieval on the legal-question classifier.
	LegalFilter bool `yaml:"legal_filter"`
}

// GenerationConfig is the pass-through surface for the chat consumer.
// The indexing core does not interpret these values.
type GenerationConfig struct {
	MaxHistory  int     `yaml:"max_history"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Chunking: ChunkingConfig{
			MaxChunkWords: DefaultMaxChunkWords,
			OverlapWords:  DefaultOverlapWords,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   ProviderOllama,
			Model:      DefaultEmbeddingModel,
			BatchSize:  DefaultBatchSize,
			OllamaHost: DefaultOllamaHost,
		},
		Index: IndexConfig{
			Backend:   BackendFlat,
			OutputDir: DefaultOutputDir,
			M:         32,
			EfSearch:  64,
		},
		Retrieval: RetrievalConfig{
			TopK:           DefaultTopK,
			QueryExpansion: true,
			LegalFilter:    true,
		},
		Generation: GenerationConfig{
			MaxHistory:  8,
			MaxTokens:   1024,
			Temperature: 0.7,
			TopP:        0.9,
		},
	}
}

// Load reads configuration from the given file path (optional) and applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, lexerrors.New(lexerrors.ErrCodeConfigNotFound,
					fmt.Sprintf("config file not found: %s", path), err)
			}
			return nil, lexerrors.Wrap(lexerrors.ErrCodeConfigInvalid, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, lexerrors.New(lexerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("parse %s: %v", path, err), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies LEXKB_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEXKB_OLLAMA_HOST"); v != "" {
		cfg.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("LEXKB_EMBEDDING_MODEL"); v != "" {
		cfg.Embeddings.Model = v
	}
	if v := os.Getenv("LEXKB_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embeddings.Provider = v
	}
	if v := os.Getenv("LEXKB_OUTPUT_DIR"); v != "" {
		cfg.Index.OutputDir = v
	}
	if v, ok := envInt("LEXKB_MAX_CHUNK_WORDS"); ok {
		cfg.Chunking.MaxChunkWords = v
	}
	if v, ok := envInt("LEXKB_OVERLAP_WORDS"); ok {
		cfg.Chunking.OverlapWords = v
	}
	if v, ok := envInt("LEXKB_BATCH_SIZE"); ok {
		cfg.Embeddings.BatchSize = v
	}
	if v, ok := envInt("LEXKB_TOP_K"); ok {
		cfg.Retrieval.TopK = v
	}
	if v, ok := envInt("LEXKB_MAX_HISTORY"); ok {
		cfg.Generation.MaxHistory = v
	}
	if v, ok := envInt("LEXKB_MAX_TOKENS"); ok {
		cfg.Generation.MaxTokens = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Chunking.MaxChunkWords <= 0 {
		return lexerrors.ConfigError(
			fmt.Sprintf("max_chunk_words must be positive, got %d", c.Chunking.MaxChunkWords), nil)
	}
	if c.Chunking.OverlapWords < 0 {
		return lexerrors.ConfigError(
			fmt.Sprintf("overlap_words must not be negative, got %d", c.Chunking.OverlapWords), nil)
	}
	// overlap >= chunk size makes the window step non-positive, which
	// would loop forever. Rejected here, never clamped silently.
	if c.Chunking.OverlapWords >= c.Chunking.MaxChunkWords {
		return lexerrors.New(lexerrors.ErrCodeChunkOverlap,
			fmt.Sprintf("overlap_words (%d) must be strictly less than max_chunk_words (%d)",
				c.Chunking.OverlapWords, c.Chunking.MaxChunkWords), nil)
	}

	switch c.Embeddings.Provider {
	case ProviderOllama, ProviderStatic:
	default:
		return lexerrors.ConfigError(
			fmt.Sprintf("unknown embeddings provider %q (want ollama or static)", c.Embeddings.Provider), nil)
	}
	if c.Embeddings.BatchSize <= 0 {
		return lexerrors.ConfigError(
			fmt.Sprintf("batch_size must be positive, got %d", c.Embeddings.BatchSize), nil)
	}
	if c.Embeddings.Model == "" {
		return lexerrors.ConfigError("embeddings model must not be empty", nil)
	}

	switch c.Index.Backend {
	case BackendFlat, BackendHNSW:
	default:
		return lexerrors.ConfigError(
			fmt.Sprintf("unknown index backend %q (want flat or hnsw)", c.Index.Backend), nil)
	}

	if c.Retrieval.TopK <= 0 {
		return lexerrors.ConfigError(
			fmt.Sprintf("top_k must be positive, got %d", c.Retrieval.TopK), nil)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return lexerrors.ConfigError(
			fmt.Sprintf("temperature must be in [0, 2], got %g", c.Generation.Temperature), nil)
	}
	if c.Generation.TopP <= 0 || c.Generation.TopP > 1 {
		return lexerrors.ConfigError(
			fmt.Sprintf("top_p must be in (0, 1], got %g", c.Generation.TopP), nil)
	}

	return nil
}

// IndexPath returns the path of the serialized vector index.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Index.OutputDir, IndexFileName)
}

// BundlePath returns the path of the serialized chunk/reference bundle.
func (c *Config) BundlePath() string {
	return filepath.Join(c.Index.OutputDir, BundleFileName)
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return lexerrors.InternalError("marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lexerrors.IOError("create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return lexerrors.IOError("write config file", err)
	}
	return nil
}
