package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/polisearch/polisearch/internal/chunk"
	"github.com/polisearch/polisearch/internal/embed"
	polierrors "github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/store"
)

// Retriever runs hybrid queries against one corpus snapshot.
type Retriever struct {
	lexical  store.LexicalIndex
	vector   store.VectorStore
	metadata store.MetadataStore
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewRetriever wires a retriever over the given index backends.
func NewRetriever(
	lexical store.LexicalIndex,
	vector store.VectorStore,
	metadata store.MetadataStore,
	embedder embed.Embedder,
	logger *slog.Logger,
) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		lexical:  lexical,
		vector:   vector,
		metadata: metadata,
		embedder: embedder,
		logger:   logger,
	}
}

// Retrieve runs both search legs concurrently, fuses them with a weighted
// sum, deduplicates overlapping neighbors, and returns the top results.
//
// A vector-leg failure (embedder or store) degrades the query to
// lexical-only ranking with a warning; both legs failing fails the query.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, polierrors.New(polierrors.ErrCodeQueryEmpty, "query is empty", nil)
	}
	opts = normalizeOptions(opts)

	candidates := opts.TopK * opts.CandidateMultiplier

	var (
		lexResults []*store.LexicalMatch
		vecResults []*store.VectorResult
		lexErr     error
		vecErr     error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lexResults, lexErr = r.lexical.Search(gctx, query, candidates)
		return nil // a failed leg never cancels the other
	})

	g.Go(func() error {
		embedding, err := r.embedder.Embed(gctx, query)
		if err != nil {
			vecErr = err
			return nil
		}
		vecResults, vecErr = r.vector.Search(gctx, embedding, candidates)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err // context cancelled
	}

	if lexErr != nil && vecErr != nil {
		return nil, polierrors.New(polierrors.ErrCodeSearchFailed,
			"both search legs failed", fmt.Errorf("lexical: %v; vector: %w", lexErr, vecErr))
	}

	result := &Result{Query: query}

	if vecErr != nil {
		result.Degraded = true
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("vector search unavailable, ranking by keywords only: %v", vecErr))
		r.logger.Warn("vector_leg_degraded",
			slog.String("query", query),
			slog.String("error", vecErr.Error()))
		vecResults = nil
	}
	if lexErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("keyword search unavailable, ranking by similarity only: %v", lexErr))
		r.logger.Warn("lexical_leg_degraded",
			slog.String("query", query),
			slog.String("error", lexErr.Error()))
		lexResults = nil
	}

	scored, err := r.fuse(ctx, lexResults, vecResults, opts.VectorWeight, result.Degraded)
	if err != nil {
		return nil, err
	}

	scored = dedupeAdjacent(scored)
	if len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}
	result.Chunks = scored

	r.logger.Debug("retrieval_complete",
		slog.String("query", query),
		slog.Int("lexical_candidates", len(lexResults)),
		slog.Int("vector_candidates", len(vecResults)),
		slog.Int("results", len(result.Chunks)),
		slog.Bool("degraded", result.Degraded))

	return result, nil
}

// fuse merges the two candidate lists into scored chunks with metadata
// attached. When degraded, the lexical score alone ranks the results.
func (r *Retriever) fuse(
	ctx context.Context,
	lexResults []*store.LexicalMatch,
	vecResults []*store.VectorResult,
	vectorWeight float64,
	degraded bool,
) ([]*ScoredChunk, error) {
	byID := make(map[string]*ScoredChunk, len(lexResults)+len(vecResults))
	order := make([]string, 0, len(lexResults)+len(vecResults))

	get := func(id string) *ScoredChunk {
		if sc, ok := byID[id]; ok {
			return sc
		}
		sc := &ScoredChunk{}
		byID[id] = sc
		order = append(order, id)
		return sc
	}

	for _, m := range lexResults {
		sc := get(m.ID)
		sc.LexicalScore = clamp01(m.Score)
		sc.MatchedTerms = m.MatchedTerms
	}
	for _, v := range vecResults {
		get(v.ID).VectorScore = clamp01(float64(v.Score))
	}

	if len(order) == 0 {
		return []*ScoredChunk{}, nil
	}

	chunks, err := r.metadata.GetChunks(ctx, order)
	if err != nil {
		return nil, polierrors.New(polierrors.ErrCodeSearchFailed,
			"failed to load chunk metadata", err)
	}

	scored := make([]*ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		sc := byID[c.ID]
		sc.Chunk = c
		if degraded {
			sc.Combined = sc.LexicalScore
		} else {
			sc.Combined = vectorWeight*sc.VectorScore + (1-vectorWeight)*sc.LexicalScore
		}
		scored = append(scored, sc)
	}

	// Deterministic ranking: score, then document position.
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Combined != b.Combined {
			return a.Combined > b.Combined
		}
		if a.Chunk.PageNumber != b.Chunk.PageNumber {
			return a.Chunk.PageNumber < b.Chunk.PageNumber
		}
		if a.Chunk.SequenceIndex != b.Chunk.SequenceIndex {
			return a.Chunk.SequenceIndex < b.Chunk.SequenceIndex
		}
		return a.Chunk.Source < b.Chunk.Source
	})

	return scored, nil
}

// dedupeAdjacent drops a candidate when a higher-ranked one from the same
// page is its window neighbor and the shared overlap exceeds half the
// shorter chunk. Input must already be sorted best-first.
func dedupeAdjacent(scored []*ScoredChunk) []*ScoredChunk {
	kept := make([]*ScoredChunk, 0, len(scored))
	for _, cand := range scored {
		redundant := false
		for _, k := range kept {
			if chunksOverlap(k.Chunk, cand.Chunk) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, cand)
		}
	}
	return kept
}

// chunksOverlap reports whether two chunks are consecutive windows of the
// same page sharing more than half of the shorter one.
func chunksOverlap(a, b chunk.Chunk) bool {
	if a.Source != b.Source || a.PageNumber != b.PageNumber {
		return false
	}
	diff := a.SequenceIndex - b.SequenceIndex
	if diff != 1 && diff != -1 {
		return false
	}

	// Order by position within the page.
	lo, hi := a, b
	if lo.SequenceIndex > hi.SequenceIndex {
		lo, hi = hi, lo
	}

	overlap := lo.EndToken() - hi.StartToken
	if overlap <= 0 {
		return false
	}
	shorter := min(lo.TokenCount, hi.TokenCount)
	return overlap > shorter/2
}

func normalizeOptions(opts Options) Options {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.CandidateMultiplier <= 0 {
		opts.CandidateMultiplier = DefaultCandidateMultiplier
	}
	// Weight 0 is a valid lexical-only setting; only out-of-range values
	// fall back to the default.
	if opts.VectorWeight < 0 || opts.VectorWeight > 1 || math.IsNaN(opts.VectorWeight) {
		opts.VectorWeight = DefaultVectorWeight
	}
	return opts
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
