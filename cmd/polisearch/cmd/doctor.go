package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment for indexing and querying",
		Long: `Run diagnostic checks against the current configuration:
  - Data directory access and free disk space
  - File descriptor limits
  - Ollama reachability and pulled models
  - Document source and index snapshot presence

Required failures exit non-zero; warnings mean the pipeline works in a
degraded mode (static embeddings, no answer generation).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			checker := preflight.New(cfg,
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose))

			results := checker.RunAll(cmd.Context())
			checker.PrintResults(results)

			if checker.HasCriticalFailures(results) {
				return fmt.Errorf("system check failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show per-check details")

	return cmd
}
