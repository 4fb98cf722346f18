package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/legalguardian/lexkb/internal/config"
	"github.com/legalguardian/lexkb/internal/embed"
	"github.com/legalguardian/lexkb/internal/index"
	"github.com/legalguardian/lexkb/internal/output"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	outputDir string
	offline   bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <corpus.json> [more.json...]",
		Short: "Build the index from corpus files",
		Long: `Build the vector index and chunk bundle from corpus files.

Each corpus file is a JSON array of {"text", "reference"} records.
Documents longer than the chunk window are split into overlapping
fragments whose references gain a " - Fragment N" suffix.

Examples:
  lexkb index corpus.json
  lexkb index laws/*.json --output data
  lexkb index corpus.json --offline`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory for index artifacts")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (no Ollama required)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, corpusPaths []string, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.outputDir != "" {
		cfg.Index.OutputDir = opts.outputDir
	}
	if opts.offline {
		cfg.Embeddings.Provider = config.ProviderStatic
	}

	out.Statusf("📚", "Building index from %d corpus file(s)", len(corpusPaths))

	embedder, err := embed.New(ctx, cfg.Embeddings)
	if err != nil {
		out.Errorf("Embedder unavailable: %v", err)
		if !opts.offline {
			out.Status("", "Hint: start Ollama or rerun with --offline")
		}
		return err
	}
	defer func() { _ = embedder.Close() }()

	out.Statusf("🧮", "Embedding model: %s", embedder.ModelName())

	runner, err := index.NewRunner(index.RunnerDependencies{
		Config:   cfg,
		Embedder: embedder,
		ProgressFunc: func(completed, total int) {
			out.Progress(completed, total, "embedding chunks")
		},
	})
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, corpusPaths)
	if err != nil {
		out.Errorf("Build failed: %v", err)
		return err
	}

	out.Successf("Indexed %d documents as %d chunks (%d dimensions) in %s",
		result.Documents, result.Chunks, result.Dimensions, result.Duration.Round(10*time.Millisecond))
	out.Statusf("", "Index:  %s", result.IndexPath)
	out.Statusf("", "Bundle: %s", result.BundlePath)

	return nil
}
