// Package polisearch wires the retrieval pipeline into a single engine:
// open the current index snapshot, run hybrid queries, assemble cited
// context, and optionally generate answers.
package polisearch

import (
	"context"
	"log/slog"

	"github.com/polisearch/polisearch/internal/answer"
	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/embed"
	"github.com/polisearch/polisearch/internal/index"
	"github.com/polisearch/polisearch/internal/search"
)

// Engine is the top-level query interface over a built index.
type Engine struct {
	cfg       *config.Config
	snapshot  *index.Snapshot
	embedder  embed.Embedder
	retriever *search.Retriever
	assembler *search.Assembler
	logger    *slog.Logger
}

// Open loads the current index snapshot and prepares the query pipeline.
// The caller owns the returned engine and must Close it.
func Open(ctx context.Context, cfg *config.Config) (*Engine, error) {
	logger := slog.Default()

	embedder, err := embed.NewEmbedder(ctx, embed.FactoryOptions{
		Provider:      cfg.Embed.Provider,
		Model:         cfg.Embed.Model,
		OllamaHost:    cfg.Embed.OllamaHost,
		CacheSize:     cfg.Embed.CacheSize,
		MaxConcurrent: cfg.Embed.MaxConcurrent,
	})
	if err != nil {
		return nil, err
	}

	layout := index.Layout{DataDir: cfg.Paths.DataDir}
	snapshot, err := index.Open(ctx, layout, index.OpenOptions{
		Backend:     cfg.Vector.Backend,
		PostgresURL: cfg.Vector.PostgresURL,
		Table:       cfg.Vector.Table,
		Embedder:    embedder,
		Logger:      logger,
	})
	if err != nil {
		embedder.Close()
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		snapshot:  snapshot,
		embedder:  embedder,
		retriever: search.NewRetriever(snapshot.Lexical, snapshot.Vector, snapshot.Metadata, embedder, logger),
		assembler: search.NewAssembler(cfg.Assemble.MaxContextTokens),
		logger:    logger,
	}, nil
}

// Options returns search options derived from the engine configuration.
func (e *Engine) Options() search.Options {
	opts := search.DefaultOptions()
	if e.cfg.Search.TopK > 0 {
		opts.TopK = e.cfg.Search.TopK
	}
	opts.VectorWeight = e.cfg.Search.VectorWeight
	if e.cfg.Search.CandidateMultiplier > 0 {
		opts.CandidateMultiplier = e.cfg.Search.CandidateMultiplier
	}
	return opts
}

// Search runs a hybrid query and returns the ranked chunks.
func (e *Engine) Search(ctx context.Context, query string, opts search.Options) (*search.Result, error) {
	return e.retriever.Retrieve(ctx, query, opts)
}

// Assemble packs a search result into a page-cited context under the
// configured token budget.
func (e *Engine) Assemble(result *search.Result) *search.Context {
	return e.assembler.Assemble(result)
}

// Answer generates an answer to the query from already-retrieved
// evidence. When stream is non-nil it receives answer fragments as they
// arrive; the returned result holds the complete text with page
// references appended.
func (e *Engine) Answer(ctx context.Context, query string, result *search.Result, stream func(fragment string) error) (*answer.Result, error) {
	gen, err := answer.NewGenerator(e.cfg.Embed.OllamaHost, e.cfg.Answer.Model,
		answer.WithTemperature(e.cfg.Answer.Temperature))
	if err != nil {
		return nil, err
	}

	return gen.Stream(ctx, query, e.Assemble(result), stream)
}

// Ask retrieves evidence for the query and generates an answer from it
// in one call.
func (e *Engine) Ask(ctx context.Context, query string, opts search.Options, stream func(fragment string) error) (*answer.Result, *search.Result, error) {
	result, err := e.Search(ctx, query, opts)
	if err != nil {
		return nil, nil, err
	}

	res, err := e.Answer(ctx, query, result, stream)
	if err != nil {
		return nil, result, err
	}
	return res, result, nil
}

// Close releases the snapshot and the embedder.
func (e *Engine) Close() error {
	err := e.snapshot.Close()
	if cerr := e.embedder.Close(); err == nil {
		err = cerr
	}
	return err
}
