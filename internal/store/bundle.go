package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	lexerrors "github.com/legalguardian/lexkb/internal/errors"
)

// Bundle holds the retrievable payload of an index: chunk texts and
// their source references as parallel arrays, plus the embedding model
// the vectors were built with. Position i in the vector index maps to
// Chunks[i] and References[i].
type Bundle struct {
	Chunks        []string
	References    []string
	EmbedderModel string
}

// NewBundle creates a bundle from parallel chunk and reference slices.
func NewBundle(chunks, references []string, embedderModel string) (*Bundle, error) {
	b := &Bundle{Chunks: chunks, References: references, EmbedderModel: embedderModel}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Len returns the number of chunks.
func (b *Bundle) Len() int {
	return len(b.Chunks)
}

// At returns the chunk text and reference at a position. The second
// return is false when the position is out of range.
func (b *Bundle) At(position int) (text, reference string, ok bool) {
	if position < 0 || position >= len(b.Chunks) {
		return "", "", false
	}
	return b.Chunks[position], b.References[position], true
}

// validate enforces the parallel-array and model invariants.
func (b *Bundle) validate() error {
	if len(b.Chunks) != len(b.References) {
		return lexerrors.New(lexerrors.ErrCodeCorruptBundle,
			fmt.Sprintf("bundle misaligned: %d chunks but %d references",
				len(b.Chunks), len(b.References)), nil)
	}
	if b.EmbedderModel == "" {
		return lexerrors.New(lexerrors.ErrCodeCorruptBundle,
			"bundle has no embedder model recorded", nil)
	}
	return nil
}

// Save persists the bundle atomically (temp file + rename).
func (b *Bundle) Save(path string) error {
	if err := b.validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lexerrors.IOError("create bundle directory", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return lexerrors.IOError("create bundle file", err)
	}

	if err := gob.NewEncoder(file).Encode(b); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("encode bundle", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("close bundle file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return lexerrors.IOError("rename bundle file", err)
	}
	return nil
}

// LoadBundle reads and validates a bundle from disk. Misaligned arrays
// or a missing model name are reported as corruption, not tolerated.
func LoadBundle(path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lexerrors.New(lexerrors.ErrCodeFileNotFound,
				fmt.Sprintf("bundle file not found: %s", path), err)
		}
		return nil, lexerrors.IOError("open bundle file", err)
	}
	defer func() { _ = file.Close() }()

	var b Bundle
	if err := gob.NewDecoder(file).Decode(&b); err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeCorruptBundle,
			fmt.Sprintf("decode bundle file %s", path), err)
	}

	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
