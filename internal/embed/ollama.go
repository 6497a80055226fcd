package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	polierrors "github.com/polisearch/polisearch/internal/errors"
)

// OllamaEmbedder generates embeddings through a running Ollama server.
type OllamaEmbedder struct {
	client        *api.Client
	model         string
	timeout       time.Duration
	maxConcurrent int
	retry         polierrors.RetryConfig

	mu         sync.RWMutex
	dimensions int // learned from the first successful response
	closed     bool
}

// OllamaOption configures an OllamaEmbedder.
type OllamaOption func(*OllamaEmbedder)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) OllamaOption {
	return func(e *OllamaEmbedder) { e.timeout = d }
}

// WithMaxConcurrent limits in-flight embedding requests.
func WithMaxConcurrent(n int) OllamaOption {
	return func(e *OllamaEmbedder) {
		if n > 0 {
			e.maxConcurrent = n
		}
	}
}

// WithRetryConfig overrides the retry policy for transient failures.
func WithRetryConfig(cfg polierrors.RetryConfig) OllamaOption {
	return func(e *OllamaEmbedder) { e.retry = cfg }
}

// NewOllamaEmbedder creates an embedder talking to the Ollama server at
// host. An empty host uses the OLLAMA_HOST environment or the default
// local endpoint.
func NewOllamaEmbedder(host, model string, opts ...OllamaOption) (*OllamaEmbedder, error) {
	base := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, polierrors.ConfigError(
				fmt.Sprintf("invalid ollama host %q", host), err)
		}
		base = parsed
	}

	e := &OllamaEmbedder{
		client:        api.NewClient(base, http.DefaultClient),
		model:         model,
		timeout:       DefaultTimeout,
		maxConcurrent: DefaultMaxConcurrent,
		retry:         polierrors.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Embed generates embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	var vec []float32
	err := polierrors.WithRetry(ctx, e.retry, func() error {
		v, err := e.embedOnce(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// embedOnce performs one embedding request.
func (e *OllamaEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings(reqCtx, &api.EmbeddingRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, polierrors.New(polierrors.ErrCodeCapabilityTimeout,
				fmt.Sprintf("embedding request timed out after %s", e.timeout), err)
		}
		return nil, polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"embedding request failed", err)
	}

	if len(resp.Embedding) == 0 {
		return nil, polierrors.New(polierrors.ErrCodeMalformedResult,
			"embedding response contained no vector", nil)
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}

	e.mu.Lock()
	if e.dimensions == 0 {
		e.dimensions = len(vec)
	}
	e.mu.Unlock()

	return normalizeVector(vec), nil
}

// EmbedBatch generates embeddings for multiple texts, with bounded
// concurrency against the server.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, polierrors.ValidationError(
			fmt.Sprintf("batch size %d exceeds maximum %d", len(texts), MaxBatchSize), nil)
	}

	results := make([][]float32, len(texts))
	sem := make(chan struct{}, e.maxConcurrent)
	errCh := make(chan error, len(texts))
	var wg sync.WaitGroup

	for i := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			vec, err := e.Embed(ctx, texts[i])
			if err != nil {
				errCh <- fmt.Errorf("failed to embed text %d: %w", i, err)
				return
			}
			results[i] = vec
		}()
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return results, nil
}

// Dimensions returns the embedding dimension, or 0 before the first
// successful request.
func (e *OllamaEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimensions
}

// ModelName returns the model identifier.
func (e *OllamaEmbedder) ModelName() string {
	return e.model
}

// Available checks if the Ollama server is reachable.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return e.client.Heartbeat(pingCtx) == nil
}

// Close releases resources.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

var _ Embedder = (*OllamaEmbedder)(nil)
