// Package search provides hybrid retrieval over an indexed policy corpus,
// combining lexical term coverage and vector similarity with a weighted
// sum, and assembles the ranked evidence into a token-budgeted context.
package search

import (
	"github.com/polisearch/polisearch/internal/chunk"
)

// Default retrieval parameters.
const (
	DefaultTopK = 5

	// DefaultVectorWeight is the share of the combined score contributed
	// by vector similarity; the lexical score gets the remainder.
	DefaultVectorWeight = 0.6

	// DefaultCandidateMultiplier sizes each leg's candidate fetch as a
	// multiple of top_k, so fusion has enough overlap to rank from.
	DefaultCandidateMultiplier = 3

	// DefaultMaxContextTokens is the assembly budget.
	DefaultMaxContextTokens = 6000
)

// Options configures a retrieval query.
type Options struct {
	// TopK is the number of results to return (default 5).
	TopK int

	// VectorWeight is the vector share of the combined score, in [0, 1].
	VectorWeight float64

	// CandidateMultiplier scales per-leg candidate fetches relative to
	// TopK (default 3).
	CandidateMultiplier int
}

// DefaultOptions returns the default retrieval options.
func DefaultOptions() Options {
	return Options{
		TopK:                DefaultTopK,
		VectorWeight:        DefaultVectorWeight,
		CandidateMultiplier: DefaultCandidateMultiplier,
	}
}

// ScoredChunk is one retrieved chunk with its per-leg and combined scores.
type ScoredChunk struct {
	Chunk chunk.Chunk

	// VectorScore is the normalized vector similarity in [0, 1];
	// 0 when the chunk was not a vector candidate or the leg degraded.
	VectorScore float64

	// LexicalScore is the distinct-query-term coverage in [0, 1].
	LexicalScore float64

	// Combined is vectorWeight*VectorScore + (1-vectorWeight)*LexicalScore.
	Combined float64

	// MatchedTerms are the query terms found in the chunk.
	MatchedTerms []string
}

// Result is the outcome of one retrieval query.
type Result struct {
	Query  string
	Chunks []*ScoredChunk

	// Degraded is true when the vector leg failed and ranking fell back
	// to lexical-only.
	Degraded bool

	// Warnings carries human-readable degradation notices.
	Warnings []string
}

// Citation locates one piece of evidence in the source document.
type Citation struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	Text   string `json:"text"`
}

// Context is an assembled, token-budgeted evidence set in document order.
type Context struct {
	// Chunks are the selected chunks re-sorted by page then sequence.
	Chunks []*ScoredChunk

	// Citations mirror Chunks in render order.
	Citations []Citation

	// Pages are the distinct page numbers cited, ascending.
	Pages []int

	// TotalTokens is the token sum of the selected chunks.
	TotalTokens int

	// BudgetExceeded is set when the single best chunk alone was larger
	// than the budget and was included anyway.
	BudgetExceeded bool

	// NoEvidence is set when retrieval produced no candidates at all.
	NoEvidence bool
}
