// Package chunk splits legal documents into overlapping word-bounded
// fragments suitable for embedding and retrieval.
package chunk

import (
	"fmt"
	"strings"

	lexerrors "github.com/legalguardian/lexkb/internal/errors"
)

// Chunker splits documents into overlapping word windows.
type Chunker struct {
	maxChunkWords int
	overlapWords  int
}

// NewChunker creates a chunker with the given window size and overlap.
//
// Overlap must be strictly less than maxChunkWords: an overlap at or above
// the window size makes the window step non-positive and the slide would
// never terminate. That is a configuration error, not something to clamp.
func NewChunker(maxChunkWords, overlapWords int) (*Chunker, error) {
	if maxChunkWords <= 0 {
		return nil, lexerrors.ConfigError(
			fmt.Sprintf("max chunk words must be positive, got %d", maxChunkWords), nil)
	}
	if overlapWords < 0 {
		return nil, lexerrors.ConfigError(
			fmt.Sprintf("overlap words must not be negative, got %d", overlapWords), nil)
	}
	if overlapWords >= maxChunkWords {
		return nil, lexerrors.New(lexerrors.ErrCodeChunkOverlap,
			fmt.Sprintf("overlap (%d) must be strictly less than max chunk words (%d)",
				overlapWords, maxChunkWords), nil)
	}

	return &Chunker{
		maxChunkWords: maxChunkWords,
		overlapWords:  overlapWords,
	}, nil
}

// NewDefaultChunker creates a chunker with the default window and overlap.
func NewDefaultChunker() *Chunker {
	c, err := NewChunker(DefaultMaxChunkWords, DefaultOverlapWords)
	if err != nil {
		// Defaults are compile-time constants and always valid.
		panic(err)
	}
	return c
}

// Chunk splits the documents into retrieval-sized chunks, preserving
// document order. Chunk positions are assigned sequentially across the
// whole corpus and match the vector index insertion order.
func (c *Chunker) Chunk(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		chunks = c.appendDocumentChunks(chunks, doc)
	}
	return chunks
}

// ChunkDocument splits a single document.
func (c *Chunker) ChunkDocument(doc Document) []Chunk {
	return c.appendDocumentChunks(nil, doc)
}

func (c *Chunker) appendDocumentChunks(chunks []Chunk, doc Document) []Chunk {
	words := strings.Fields(doc.Text)

	// An empty document yields no chunks, not an error.
	if len(words) == 0 {
		return chunks
	}

	// Short documents pass through whole, reference unchanged.
	if len(words) <= c.maxChunkWords {
		return append(chunks, Chunk{
			Text:      doc.Text,
			Reference: doc.Reference,
			Position:  len(chunks),
		})
	}

	step := c.maxChunkWords - c.overlapWords
	fragment := 1
	for start := 0; start < len(words); start += step {
		end := start + c.maxChunkWords
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, Chunk{
			Text:      strings.Join(words[start:end], " "),
			Reference: fmt.Sprintf("%s - Fragment %d", doc.Reference, fragment),
			Position:  len(chunks),
		})
		fragment++

		// The last window already reached the end of the document.
		if end == len(words) {
			break
		}
	}

	return chunks
}

// MaxChunkWords returns the configured window size.
func (c *Chunker) MaxChunkWords() int { return c.maxChunkWords }

// OverlapWords returns the configured overlap.
func (c *Chunker) OverlapWords() int { return c.overlapWords }
