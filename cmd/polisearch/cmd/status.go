package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/index"
	"github.com/polisearch/polisearch/internal/store"
	"github.com/polisearch/polisearch/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index health and status",
		Long: `Display information about the current index snapshot:
  - Snapshot version and build time
  - Number of indexed chunks and vectors
  - Embedding model and dimension the index was built with
  - Vector backend availability`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// statusInfo is the collected index status.
type statusInfo struct {
	DataDir      string `json:"data_dir"`
	Version      int    `json:"version"`
	Chunks       int    `json:"chunks"`
	Vectors      int    `json:"vectors"`
	EmbedModel   string `json:"embed_model"`
	Dimensions   int    `json:"dimensions"`
	BuiltAt      string `json:"built_at"`
	SourceDigest string `json:"source_digest"`
	Degraded     bool   `json:"vector_leg_degraded"`
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	layout := index.Layout{DataDir: cfg.Paths.DataDir}

	vnum, err := index.CurrentVersion(cfg.Paths.DataDir)
	if err != nil {
		return err
	}
	if vnum == 0 {
		return fmt.Errorf("no index found in %s\nRun 'polisearch index' to create one", cfg.Paths.DataDir)
	}

	snapshot, err := index.Open(ctx, layout, index.OpenOptions{
		Backend:     cfg.Vector.Backend,
		PostgresURL: cfg.Vector.PostgresURL,
		Table:       cfg.Vector.Table,
		Logger:      slog.Default(),
	})
	if err != nil {
		return err
	}
	defer snapshot.Close()

	info := statusInfo{
		DataDir: cfg.Paths.DataDir,
		Version: snapshot.Version,
		Vectors: snapshot.Vector.Count(),
	}
	if n, err := snapshot.Metadata.CountChunks(ctx); err == nil {
		info.Chunks = n
	} else if n, err := snapshot.Lexical.Count(); err == nil {
		info.Chunks = n
	}
	info.EmbedModel, _ = snapshot.Metadata.GetState(ctx, store.StateKeyIndexModel)
	info.BuiltAt, _ = snapshot.Metadata.GetState(ctx, store.StateKeyIndexBuiltAt)
	info.SourceDigest, _ = snapshot.Metadata.GetState(ctx, store.StateKeySourceDigest)
	if dims, err := snapshot.Metadata.GetState(ctx, store.StateKeyIndexDimension); err == nil {
		info.Dimensions, _ = strconv.Atoi(dims)
	}
	info.Degraded = info.Vectors == 0 && info.Chunks > 0

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	render := ui.NewRenderer(cmd.OutOrStdout())
	render.StatusRow("data dir", info.DataDir)
	render.StatusRow("version", fmt.Sprintf("v%d", info.Version))
	render.StatusRow("chunks", strconv.Itoa(info.Chunks))
	render.StatusRow("vectors", strconv.Itoa(info.Vectors))
	render.StatusRow("embed model", info.EmbedModel)
	render.StatusRow("dimensions", strconv.Itoa(info.Dimensions))
	render.StatusRow("built at", info.BuiltAt)
	if len(info.SourceDigest) >= 16 {
		render.StatusRow("source digest", info.SourceDigest[:16])
	}
	if info.Degraded {
		render.StatusRow("vector leg", "unavailable (lexical-only)")
	}

	return nil
}
