package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/legalguardian/lexkb/configs"
	"github.com/legalguardian/lexkb/internal/output"
)

const configFileName = "lexkb.yaml"

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write an annotated configuration file",
		Long: `Write the default configuration template to lexkb.yaml.

The template documents every supported key with its default value.
Edit it and pass it via --config, or keep it next to your corpus.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing lexkb.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); err == nil && !force {
		out.Warningf("%s already exists, use --force to overwrite", path)
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	out.Successf("Wrote %s", path)
	out.Status("", "Edit it and run 'lexkb index <corpus.json> --config "+path+"'")
	return nil
}
