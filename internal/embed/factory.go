package embed

import (
	"context"
	"fmt"

	"github.com/legalguardian/lexkb/internal/config"
)

// New creates an embedder from configuration. The concrete provider is
// wrapped in an LRU cache unless the cache size is negative.
func New(ctx context.Context, cfg config.EmbeddingsConfig) (Embedder, error) {
	var inner Embedder

	switch cfg.Provider {
	case config.ProviderStatic:
		inner = NewStaticEmbedder()
	case config.ProviderOllama, "":
		ollama, err := NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		inner = ollama
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}

	if cfg.CacheSize < 0 {
		return inner, nil
	}
	return NewCachedEmbedder(inner, cfg.CacheSize)
}
