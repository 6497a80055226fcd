package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/embed"
	"github.com/polisearch/polisearch/internal/extract"
	"github.com/polisearch/polisearch/internal/index"
	"github.com/polisearch/polisearch/internal/ui"
)

func newWatchCmd() *cobra.Command {
	var pagesPath string
	var offline bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the index when the source pages file changes",
		Long: `Watch the extracted pages JSON file and rebuild the index when it
changes. Writes are debounced so a burst of saves triggers a single
rebuild; a failed rebuild keeps the previous snapshot serving.

Runs until interrupted.`,
		Example: `  polisearch watch --pages pages.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, pagesPath, offline)
		},
	}

	cmd.Flags().StringVar(&pagesPath, "pages", "", "Path to extracted pages JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (skip Ollama)")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, pagesPath string, offline bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if pagesPath != "" {
		cfg.Paths.Pages = pagesPath
	}
	if offline {
		cfg.Embed.Provider = "static"
	}
	if cfg.Paths.Pages == "" {
		return fmt.Errorf("watch requires a pages JSON source: pass --pages or set paths.pages in polisearch.yaml")
	}

	debounce := index.DefaultDebounce
	if cfg.Watch.Debounce != "" {
		d, err := time.ParseDuration(cfg.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("invalid watch.debounce %q: %w", cfg.Watch.Debounce, err)
		}
		debounce = d
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

	render := ui.NewRenderer(cmd.OutOrStdout())

	// The manager swaps snapshots atomically: a failed rebuild never
	// touches the active one, and the replaced snapshot is closed only
	// after the swap.
	manager := index.NewManager()
	defer func() {
		if s := manager.Current(); s != nil {
			s.Close()
		}
	}()

	rebuild := func(ctx context.Context) error {
		pages, err := extract.LoadPages(cfg.Paths.Pages)
		if err != nil {
			return err
		}
		snapshot, stats, err := builder.Build(ctx, pages)
		if err != nil {
			return err
		}
		if prev := manager.Publish(snapshot); prev != nil {
			prev.Close()
		}
		render.StatusRow("rebuilt", fmt.Sprintf("v%d (%d chunks)", stats.Version, stats.Chunks))
		return nil
	}

	// Build once up front so the watcher starts from a fresh snapshot.
	if err := rebuild(ctx); err != nil {
		return err
	}

	watcher, err := index.NewWatcher(cfg.Paths.Pages, debounce, rebuild, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	render.StatusRow("watching", cfg.Paths.Pages)
	if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
