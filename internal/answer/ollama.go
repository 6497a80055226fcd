package answer

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	polierrors "github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/search"
)

const (
	// DefaultTemperature keeps the model close to the source text.
	DefaultTemperature = 0.1

	// DefaultNumPredict bounds answer length.
	DefaultNumPredict = 1024

	// DefaultTimeout covers one full generation.
	DefaultTimeout = 120 * time.Second
)

// Result is one generated answer with its provenance.
type Result struct {
	Text       string
	Pages      []int
	NoEvidence bool
}

// Generator produces answers with an Ollama chat model.
type Generator struct {
	client      *api.Client
	model       string
	temperature float64
	numPredict  int
	timeout     time.Duration
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) { g.temperature = t }
}

// WithTimeout overrides the per-generation timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// NewGenerator creates a generator against the given Ollama host.
// An empty host falls back to OLLAMA_HOST / the local default.
func NewGenerator(host, model string, opts ...Option) (*Generator, error) {
	var hostURL *url.URL
	if host == "" {
		hostURL = envconfig.Host()
	} else {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, polierrors.ConfigError("invalid ollama host: "+host, err)
		}
		hostURL = parsed
	}

	g := &Generator{
		client:      api.NewClient(hostURL, http.DefaultClient),
		model:       model,
		temperature: DefaultTemperature,
		numPredict:  DefaultNumPredict,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Answer generates a grounded answer for the query from the assembled
// context. An empty context short-circuits to the no-evidence answer.
func (g *Generator) Answer(ctx context.Context, query string, sc *search.Context) (*Result, error) {
	return g.generate(ctx, query, sc, nil)
}

// Stream behaves like Answer but also forwards each generated fragment to
// fn as it arrives.
func (g *Generator) Stream(ctx context.Context, query string, sc *search.Context, fn func(fragment string) error) (*Result, error) {
	return g.generate(ctx, query, sc, fn)
}

func (g *Generator) generate(ctx context.Context, query string, sc *search.Context, fn func(string) error) (*Result, error) {
	if sc == nil || sc.NoEvidence || len(sc.Citations) == 0 {
		return &Result{Text: NoEvidenceAnswer, NoEvidence: true}, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := api.GenerateRequest{
		Model:  g.model,
		Prompt: BuildPrompt(query, sc),
		Options: map[string]interface{}{
			"temperature": g.temperature,
			"num_predict": g.numPredict,
		},
	}

	var sb strings.Builder
	err := g.client.Generate(genCtx, &req, func(resp api.GenerateResponse) error {
		if _, werr := sb.WriteString(resp.Response); werr != nil {
			return werr
		}
		if fn != nil {
			return fn(resp.Response)
		}
		return nil
	})
	if err != nil {
		if genCtx.Err() == context.DeadlineExceeded {
			return nil, polierrors.New(polierrors.ErrCodeCapabilityTimeout,
				"answer generation timed out", err)
		}
		return nil, polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"answer generation failed", err)
	}

	return &Result{
		Text:  sb.String() + referenceSuffix(sc.Pages),
		Pages: sc.Pages,
	}, nil
}
