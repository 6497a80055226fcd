package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// ollamaCheckTimeout bounds each probe so a dead server cannot stall
// the whole check run.
const ollamaCheckTimeout = 3 * time.Second

// ollamaClient builds an API client for the configured host.
func (c *Checker) ollamaClient() (*api.Client, error) {
	base := envconfig.Host()
	if c.cfg.Embed.OllamaHost != "" {
		parsed, err := url.Parse(c.cfg.Embed.OllamaHost)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", c.cfg.Embed.OllamaHost, err)
		}
		base = parsed
	}
	return api.NewClient(base, http.DefaultClient), nil
}

// CheckOllamaServer verifies the Ollama server responds. Non-critical:
// indexing falls back to static embeddings without it.
func (c *Checker) CheckOllamaServer(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:     "ollama_server",
		Required: false,
	}

	client, err := c.ollamaClient()
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	pingCtx, cancel := context.WithTimeout(ctx, ollamaCheckTimeout)
	defer cancel()
	if err := client.Heartbeat(pingCtx); err != nil {
		result.Status = StatusWarn
		result.Message = "unreachable (indexing will use static embeddings, ask is unavailable)"
		result.Details = err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = "reachable"
	return result
}

// CheckEmbedModel verifies the configured embedding model is pulled.
func (c *Checker) CheckEmbedModel(ctx context.Context) CheckResult {
	return c.checkModel(ctx, "embed_model", c.cfg.Embed.Model,
		"pull it with 'ollama pull %s' or index with --offline")
}

// CheckAnswerModel verifies the configured generation model is pulled.
func (c *Checker) CheckAnswerModel(ctx context.Context) CheckResult {
	return c.checkModel(ctx, "answer_model", c.cfg.Answer.Model,
		"pull it with 'ollama pull %s'; 'polisearch ask' needs it")
}

func (c *Checker) checkModel(ctx context.Context, name, model, hint string) CheckResult {
	result := CheckResult{
		Name:     name,
		Required: false,
	}
	if model == "" {
		result.Status = StatusWarn
		result.Message = "no model configured"
		return result
	}

	client, err := c.ollamaClient()
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	listCtx, cancel := context.WithTimeout(ctx, ollamaCheckTimeout)
	defer cancel()
	resp, err := client.List(listCtx)
	if err != nil {
		result.Status = StatusWarn
		result.Message = "cannot list models (server unreachable)"
		return result
	}

	for _, m := range resp.Models {
		// Installed tags look like "nomic-embed-text:latest".
		if m.Name == model || strings.SplitN(m.Name, ":", 2)[0] == model {
			result.Status = StatusPass
			result.Message = m.Name
			return result
		}
	}

	result.Status = StatusWarn
	result.Message = fmt.Sprintf("%s not pulled", model)
	result.Details = fmt.Sprintf(hint, model)
	return result
}
