package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/legalguardian/lexkb/internal/config"
	"github.com/legalguardian/lexkb/internal/embed"
	"github.com/legalguardian/lexkb/internal/output"
	"github.com/legalguardian/lexkb/internal/store"
)

func newInfoCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show information about the built index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, dataDir)
		},
	}

	cmd.Flags().StringVarP(&dataDir, "data", "d", "", "Directory holding the index artifacts")

	return cmd
}

func runInfo(cmd *cobra.Command, dataDir string) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.Index.OutputDir = dataDir
	}

	bundle, err := store.LoadBundle(cfg.BundlePath())
	if err != nil {
		out.Errorf("Cannot read bundle: %v", err)
		out.Status("", "Hint: run 'lexkb index <corpus.json>' first")
		return err
	}

	index, err := store.OpenVectorIndex(cfg.Index.Backend, cfg.IndexPath())
	if err != nil {
		out.Errorf("Cannot read index: %v", err)
		return err
	}
	defer func() { _ = index.Close() }()

	out.Status("📖", "Legal knowledge base")
	out.Statusf("", "Location:   %s", cfg.Index.OutputDir)
	out.Statusf("", "Backend:    %s", cfg.Index.Backend)
	out.Statusf("", "Model:      %s", bundle.EmbedderModel)
	out.Statusf("", "Chunks:     %d", bundle.Len())
	out.Statusf("", "Dimensions: %d", index.Dimensions())
	out.Statusf("", "Index size:  %s", fileSize(cfg.IndexPath()))
	out.Statusf("", "Bundle size: %s", fileSize(cfg.BundlePath()))

	if index.Count() != bundle.Len() {
		out.Warningf("Index holds %d vectors but bundle holds %d chunks; rebuild with 'lexkb index'",
			index.Count(), bundle.Len())
	}

	configured := cfg.Embeddings.Model
	if cfg.Embeddings.Provider == config.ProviderStatic {
		configured = embed.StaticModelName
	}
	if configured != bundle.EmbedderModel {
		out.Warningf("Configured model %q differs from index model %q; searches against this index will be rejected",
			configured, bundle.EmbedderModel)
	}

	return nil
}

// fileSize returns a human-readable file size, or "-" when unreadable.
func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return formatBytes(info.Size())
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < len(suffixes)-1; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", float64(n)/float64(div), suffixes[exp])
}
