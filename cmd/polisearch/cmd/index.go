package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/embed"
	"github.com/polisearch/polisearch/internal/extract"
	"github.com/polisearch/polisearch/internal/index"
	"github.com/polisearch/polisearch/internal/ui"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	pages   string
	pdf     string
	offline bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the search index from a policy document",
		Long: `Build the search index from a policy document.

The source is either an extracted pages JSON file (--pages) or a PDF
(--pdf). Each build produces a new snapshot version; readers keep
serving the previous version until the new one is published.`,
		Example: `  # Index extracted pages
  polisearch index --pages pages.json

  # Index a PDF directly
  polisearch index --pdf policy.pdf

  # Index without an embedding server (keyword-quality vectors)
  polisearch index --pages pages.json --offline`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.pages, "pages", "", "Path to extracted pages JSON")
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "Path to the source PDF")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (skip Ollama)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.pages != "" {
		cfg.Paths.Pages = opts.pages
	}
	if opts.pdf != "" {
		cfg.Paths.PDF = opts.pdf
	}
	if opts.offline {
		cfg.Embed.Provider = "static"
	}

	render := ui.NewRenderer(cmd.OutOrStdout())

	pages, err := loadSourcePages(cfg)
	if err != nil {
		return err
	}

	embedder, err := embed.NewEmbedder(ctx, embed.FactoryOptions{
		Provider:      cfg.Embed.Provider,
		Model:         cfg.Embed.Model,
		OllamaHost:    cfg.Embed.OllamaHost,
		CacheSize:     cfg.Embed.CacheSize,
		MaxConcurrent: cfg.Embed.MaxConcurrent,
	})
	if err != nil {
		return err
	}
	defer embedder.Close()

	builder, err := index.NewBuilder(index.Layout{DataDir: cfg.Paths.DataDir}, embedder, index.BuilderOptions{
		ChunkTarget:    cfg.Chunk.TargetSize,
		ChunkOverlap:   cfg.Chunk.Overlap,
		EmbedBatchSize: cfg.Embed.BatchSize,
		Backend:        cfg.Vector.Backend,
		PostgresURL:    cfg.Vector.PostgresURL,
		Table:          cfg.Vector.Table,
		Logger:         slog.Default(),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	snapshot, stats, err := builder.Build(ctx, pages)
	if err != nil {
		return err
	}
	defer snapshot.Close()

	render.StatusRow("version", fmt.Sprintf("v%d", stats.Version))
	render.StatusRow("pages", fmt.Sprintf("%d", stats.Pages))
	render.StatusRow("chunks", fmt.Sprintf("%d", stats.Chunks))
	render.StatusRow("vectors", fmt.Sprintf("%d", stats.Vectors))
	render.StatusRow("embedder", embedder.ModelName())
	render.StatusRow("took", time.Since(start).Round(time.Millisecond).String())

	return nil
}

// loadSourcePages loads the document pages from the configured source,
// preferring extracted JSON over PDF.
func loadSourcePages(cfg *config.Config) ([]extract.SourcePage, error) {
	switch {
	case cfg.Paths.Pages != "":
		return extract.LoadPages(cfg.Paths.Pages)
	case cfg.Paths.PDF != "":
		return extract.ExtractPDF(cfg.Paths.PDF)
	default:
		return nil, fmt.Errorf("no document source configured: pass --pages or --pdf, or set paths.pages in polisearch.yaml")
	}
}
