// Package cmd provides the CLI commands for polisearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/logging"
	"github.com/polisearch/polisearch/pkg/version"
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// Global overrides applied on top of the loaded configuration.
var (
	dataDirFlag string
	configDir   string
)

// NewRootCmd creates the root command for the polisearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polisearch",
		Short: "Hybrid search and Q&A over insurance policy documents",
		Long: `Polisearch indexes a policy document (PDF or extracted pages JSON)
and answers natural-language questions about it.

Retrieval is hybrid: keyword matching and embedding similarity are
fused into a single ranking, and the top passages are assembled into
a page-cited context for answer generation.

Typical flow:
  polisearch index --pages pages.json
  polisearch search "암 진단시 보험금"
  polisearch ask "면책 기간은 얼마나 되나요?"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("polisearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.polisearch/logs/")
	cmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Override the index data directory")
	cmd.PersistentFlags().StringVarP(&configDir, "config", "C", ".", "Directory to load polisearch.yaml from")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging enables debug logging if the flag is set.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version))

	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads the effective configuration and applies global flag
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		cfg.Paths.DataDir = dataDirFlag
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
