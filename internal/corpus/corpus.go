// Package corpus loads source legal documents for indexing.
//
// A corpus file is a JSON array of records with fixed field names:
//
//	[{"text": "...", "reference": "Civil Code Art. 15"}, ...]
//
// The field names are a contract with the document producer, not
// configuration.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/legalguardian/lexkb/internal/chunk"
	lexerrors "github.com/legalguardian/lexkb/internal/errors"
)

// record mirrors one JSON document record.
type record struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

// LoadFile reads one corpus file and returns its documents in file order.
//
// A missing or unreadable file is fatal. A record missing its text or
// reference field is skipped with a warning; a reference is never
// fabricated for it.
func LoadFile(ctx context.Context, path string) ([]chunk.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lexerrors.New(lexerrors.ErrCodeFileNotFound,
				fmt.Sprintf("corpus file not found: %s", path), err)
		}
		return nil, lexerrors.New(lexerrors.ErrCodeFileNotFound,
			fmt.Sprintf("read corpus file %s: %v", path, err), err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeCorpusInvalid,
			fmt.Sprintf("parse corpus file %s: %v", path, err), err)
	}

	docs := make([]chunk.Document, 0, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Text) == "" || strings.TrimSpace(r.Reference) == "" {
			slog.Warn("skipping malformed corpus record",
				slog.String("file", path),
				slog.Int("record", i),
				slog.Bool("has_text", strings.TrimSpace(r.Text) != ""),
				slog.Bool("has_reference", strings.TrimSpace(r.Reference) != ""))
			continue
		}
		docs = append(docs, chunk.Document{Text: r.Text, Reference: r.Reference})
	}

	return docs, nil
}

// Load reads all corpus files concurrently and returns the documents in
// file-argument order. Any file error aborts the whole load: no index
// should be built from a partially read corpus.
func Load(ctx context.Context, paths []string) ([]chunk.Document, error) {
	if len(paths) == 0 {
		return nil, lexerrors.ValidationError("no corpus files given", nil)
	}

	perFile := make([][]chunk.Document, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			docs, err := LoadFile(gctx, path)
			if err != nil {
				return err
			}
			perFile[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var docs []chunk.Document
	for _, d := range perFile {
		docs = append(docs, d...)
	}

	slog.Info("corpus loaded",
		slog.Int("files", len(paths)),
		slog.Int("documents", len(docs)))

	return docs, nil
}
