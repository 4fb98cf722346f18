// Package cmd provides the CLI commands for lexkb.
package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/legalguardian/lexkb/internal/config"
	"github.com/legalguardian/lexkb/internal/logging"
	"github.com/legalguardian/lexkb/pkg/version"
)

// Persistent flags shared by all commands.
var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the lexkb CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexkb",
		Short: "Legal knowledge base indexing and retrieval",
		Long: `lexkb builds and queries a semantic index over legal documents.

Documents are split into overlapping chunks, embedded with an E5-family
model, and stored in an inner-product vector index. Every retrieved
chunk carries its source citation.

Typical flow:
  lexkb index corpus.json      build the index artifacts
  lexkb search "запрос"        retrieve relevant chunks
  lexkb info                   inspect the built index`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("lexkb version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (YAML)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = teardownLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging loads .env and installs the default logger. Log records
// go to stderr so stdout stays clean for command output.
func setupLogging(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup

	if debugMode {
		slog.Debug("debug logging enabled", slog.String("version", version.Version))
	}
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// loadConfig loads configuration from the --config flag path, or from
// defaults plus environment overrides when no file is given.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
