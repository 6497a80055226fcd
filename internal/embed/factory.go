package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	polierrors "github.com/polisearch/polisearch/internal/errors"
)

// FactoryOptions selects and configures the embedding provider.
type FactoryOptions struct {
	// Provider is "ollama", "static", or "" for auto-detection.
	Provider string
	// Model is the Ollama model name.
	Model string
	// OllamaHost is the Ollama endpoint; empty uses the environment default.
	OllamaHost string
	// CacheSize is the LRU embedding cache size; 0 uses the default.
	CacheSize int
	// MaxConcurrent bounds in-flight Ollama requests; 0 uses the default.
	MaxConcurrent int
	// Retry overrides the transient-failure retry policy.
	Retry *polierrors.RetryConfig
}

// NewEmbedder creates the configured embedder, wrapped in an LRU cache.
// With an empty provider it auto-detects: Ollama when the server is
// reachable, the static embedder otherwise.
func NewEmbedder(ctx context.Context, opts FactoryOptions) (Embedder, error) {
	inner, err := newProvider(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewCachedEmbedder(inner, opts.CacheSize), nil
}

func newProvider(ctx context.Context, opts FactoryOptions) (Embedder, error) {
	switch strings.ToLower(opts.Provider) {
	case "static":
		return NewStaticEmbedder(), nil

	case "ollama":
		return NewOllamaEmbedder(opts.OllamaHost, opts.Model, ollamaOptions(opts)...)

	case "":
		ollama, err := NewOllamaEmbedder(opts.OllamaHost, opts.Model, ollamaOptions(opts)...)
		if err != nil {
			return nil, err
		}
		if ollama.Available(ctx) {
			slog.Debug("embedder auto-detect: using ollama", "model", opts.Model)
			return ollama, nil
		}
		slog.Warn("ollama unreachable, falling back to static embedder",
			"host", opts.OllamaHost)
		return NewStaticEmbedder(), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", opts.Provider)
	}
}

func ollamaOptions(opts FactoryOptions) []OllamaOption {
	var oo []OllamaOption
	if opts.MaxConcurrent > 0 {
		oo = append(oo, WithMaxConcurrent(opts.MaxConcurrent))
	}
	if opts.Retry != nil {
		oo = append(oo, WithRetryConfig(*opts.Retry))
	}
	return oo
}
