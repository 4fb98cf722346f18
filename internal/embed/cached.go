package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of cached embeddings.
const DefaultCacheSize = 10000

// CachedEmbedder wraps an Embedder with an LRU cache. Cache keys include
// the encoding role and model name, so document and query encodings of
// the same text never collide and a model change invalidates all entries.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]

	hits   int64
	misses int64
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with an LRU cache of the given size.
// A size of 0 uses DefaultCacheSize.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// cacheKey builds a collision-resistant key from role, text and model.
func (e *CachedEmbedder) cacheKey(role, text string) string {
	h := sha256.New()
	h.Write([]byte(role))
	h.Write([]byte{0})
	h.Write([]byte(e.inner.ModelName()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// EmbedDocuments encodes passages, serving cached vectors where possible
// and forwarding only the misses to the inner embedder in one batch.
func (e *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var missTexts []string
	var missIndexes []int
	for i, text := range texts {
		key := e.cacheKey("passage", text)
		if vec, ok := e.cache.Get(key); ok {
			results[i] = vec
			e.hits++
			continue
		}
		e.misses++
		missTexts = append(missTexts, text)
		missIndexes = append(missIndexes, i)
	}

	if len(missTexts) > 0 {
		vectors, err := e.inner.EmbedDocuments(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, vec := range vectors {
			i := missIndexes[j]
			results[i] = vec
			e.cache.Add(e.cacheKey("passage", texts[i]), vec)
		}
	}

	return results, nil
}

// EmbedQuery encodes one query with caching.
func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := e.cacheKey("query", text)
	if vec, ok := e.cache.Get(key); ok {
		e.hits++
		return vec, nil
	}
	e.misses++

	vec, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}

// Dimensions returns the inner embedder's dimension.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// ModelName returns the inner embedder's model identifier.
func (e *CachedEmbedder) ModelName() string {
	return e.inner.ModelName()
}

// Available reports whether the inner embedder is reachable.
func (e *CachedEmbedder) Available(ctx context.Context) bool {
	return e.inner.Available(ctx)
}

// SetProgressFunc forwards the progress callback to the inner embedder.
// Reported counts cover backend work only; cache hits are served without
// a progress tick.
func (e *CachedEmbedder) SetProgressFunc(fn func(completed, total int)) {
	if p, ok := e.inner.(interface{ SetProgressFunc(func(int, int)) }); ok {
		p.SetProgressFunc(fn)
	}
}

// Stats returns cache hit and miss counts.
func (e *CachedEmbedder) Stats() (hits, misses int64) {
	return e.hits, e.misses
}

// Close flushes the cache and closes the inner embedder.
func (e *CachedEmbedder) Close() error {
	if e.hits+e.misses > 0 {
		slog.Debug("embedding cache stats",
			"hits", e.hits,
			"misses", e.misses,
			"entries", e.cache.Len())
	}
	e.cache.Purge()
	return e.inner.Close()
}
