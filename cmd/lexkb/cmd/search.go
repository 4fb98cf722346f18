package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/legalguardian/lexkb/internal/config"
	"github.com/legalguardian/lexkb/internal/embed"
	"github.com/legalguardian/lexkb/internal/output"
	"github.com/legalguardian/lexkb/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit    int
	format   string // "text", "json"
	offline  bool
	noExpand bool
	noFilter bool
	dataDir  string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the legal knowledge base",
		Long: `Search the built index for chunks relevant to a query.

The query is embedded with the same model the index was built with and
matched by inner product. Every result carries its source citation.

Examples:
  lexkb search "срок исковой давности"
  lexkb search "наследование по завещанию" --limit 3
  lexkb search "права арендатора" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (no Ollama required)")
	cmd.Flags().BoolVar(&opts.noExpand, "no-expand", false, "Disable query expansion")
	cmd.Flags().BoolVar(&opts.noFilter, "no-filter", false, "Disable the legal-question filter")
	cmd.Flags().StringVarP(&opts.dataDir, "data", "d", "", "Directory holding the index artifacts")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.dataDir != "" {
		cfg.Index.OutputDir = opts.dataDir
	}
	if opts.offline {
		cfg.Embeddings.Provider = config.ProviderStatic
	}
	if opts.limit > 0 {
		cfg.Retrieval.TopK = opts.limit
	}
	if opts.noExpand {
		cfg.Retrieval.QueryExpansion = false
	}
	if opts.noFilter {
		cfg.Retrieval.LegalFilter = false
	}

	embedder, err := embed.New(ctx, cfg.Embeddings)
	if err != nil {
		out.Errorf("Embedder unavailable: %v", err)
		return err
	}
	defer func() { _ = embedder.Close() }()

	retriever, err := search.Open(cfg, embedder)
	if err != nil {
		out.Errorf("Cannot open index: %v", err)
		out.Status("", "Hint: run 'lexkb index <corpus.json>' first")
		return err
	}
	defer func() { _ = retriever.Close() }()

	results, err := retriever.Search(ctx, query)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toJSONResults(results))
	}

	if len(results) == 0 {
		out.Statusf("", "No results for %q", query)
		return nil
	}

	out.Statusf("🔍", "Found %d result(s) for %q:", len(results), query)
	out.Newline()
	for i, r := range results {
		out.Hit(i+1, r.Score, r.Reference, r.Chunk)
	}
	return nil
}

// jsonResult is the machine-readable result shape.
type jsonResult struct {
	Chunk     string  `json:"chunk"`
	Reference string  `json:"reference"`
	Score     float32 `json:"score"`
}

func toJSONResults(results []search.Result) []jsonResult {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{Chunk: r.Chunk, Reference: r.Reference, Score: r.Score}
	}
	return out
}
