package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredChunk(id string, page, seq, tokens int, combined float64) *ScoredChunk {
	c := testChunk(id, page, seq, seq*200, tokens)
	return &ScoredChunk{Chunk: c, Combined: combined}
}

func TestAssembler_GreedyPackingStopsAtFirstOverflow(t *testing.T) {
	// Given: ranked chunks of 300, 300, 300 tokens under a 700 budget
	result := &Result{Chunks: []*ScoredChunk{
		scoredChunk("a", 2, 0, 300, 0.9),
		scoredChunk("b", 1, 0, 300, 0.8),
		scoredChunk("c", 3, 0, 300, 0.7),
	}}

	ctx := NewAssembler(700).Assemble(result)

	// Then: only the first two fit; packing stops at the overflow
	require.Len(t, ctx.Chunks, 2)
	assert.Equal(t, 600, ctx.TotalTokens)
	assert.False(t, ctx.BudgetExceeded)
	assert.False(t, ctx.NoEvidence)
}

func TestAssembler_DocumentOrderWins(t *testing.T) {
	// Score order is b(page 5), a(page 1), c(page 3)
	result := &Result{Chunks: []*ScoredChunk{
		scoredChunk("b", 5, 0, 100, 0.9),
		scoredChunk("a", 1, 0, 100, 0.8),
		scoredChunk("c", 3, 0, 100, 0.7),
	}}

	ctx := NewAssembler(1000).Assemble(result)

	// Rendering order is page order, not score order
	require.Len(t, ctx.Chunks, 3)
	assert.Equal(t, "a", ctx.Chunks[0].Chunk.ID)
	assert.Equal(t, "c", ctx.Chunks[1].Chunk.ID)
	assert.Equal(t, "b", ctx.Chunks[2].Chunk.ID)

	assert.Equal(t, []int{1, 3, 5}, ctx.Pages)

	require.Len(t, ctx.Citations, 3)
	assert.Equal(t, 1, ctx.Citations[0].Page)
	assert.Equal(t, 3, ctx.Citations[1].Page)
	assert.Equal(t, 5, ctx.Citations[2].Page)
}

func TestAssembler_SamePageSequenceOrder(t *testing.T) {
	result := &Result{Chunks: []*ScoredChunk{
		scoredChunk("second", 1, 2, 100, 0.9),
		scoredChunk("first", 1, 0, 100, 0.8),
	}}

	ctx := NewAssembler(1000).Assemble(result)

	require.Len(t, ctx.Chunks, 2)
	assert.Equal(t, "first", ctx.Chunks[0].Chunk.ID)
	assert.Equal(t, "second", ctx.Chunks[1].Chunk.ID)
}

func TestAssembler_OversizedSingleChunkFlagged(t *testing.T) {
	// Given: a budget of 50 smaller than any single chunk
	result := &Result{Chunks: []*ScoredChunk{
		scoredChunk("big", 1, 0, 300, 0.9),
		scoredChunk("other", 2, 0, 300, 0.8),
	}}

	ctx := NewAssembler(50).Assemble(result)

	// Then: exactly one chunk is included and the overflow is flagged
	require.Len(t, ctx.Chunks, 1)
	assert.Equal(t, "big", ctx.Chunks[0].Chunk.ID)
	assert.Equal(t, 300, ctx.TotalTokens)
	assert.True(t, ctx.BudgetExceeded)
	assert.False(t, ctx.NoEvidence)
}

func TestAssembler_ExactBudgetFit(t *testing.T) {
	result := &Result{Chunks: []*ScoredChunk{
		scoredChunk("a", 1, 0, 300, 0.9),
		scoredChunk("b", 2, 0, 300, 0.8),
	}}

	ctx := NewAssembler(600).Assemble(result)

	require.Len(t, ctx.Chunks, 2)
	assert.Equal(t, 600, ctx.TotalTokens)
	assert.False(t, ctx.BudgetExceeded)
}

func TestAssembler_NoEvidence(t *testing.T) {
	for name, result := range map[string]*Result{
		"nil result":   nil,
		"empty chunks": {Chunks: []*ScoredChunk{}},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := NewAssembler(6000).Assemble(result)

			assert.True(t, ctx.NoEvidence)
			assert.Empty(t, ctx.Chunks)
			assert.Empty(t, ctx.Citations)
			assert.Empty(t, ctx.Pages)
			assert.Equal(t, 0, ctx.TotalTokens)
			assert.False(t, ctx.BudgetExceeded)
		})
	}
}

func TestAssembler_DuplicatePageCitedOnce(t *testing.T) {
	result := &Result{Chunks: []*ScoredChunk{
		scoredChunk("a", 1, 0, 100, 0.9),
		scoredChunk("b", 1, 2, 100, 0.8),
	}}

	ctx := NewAssembler(1000).Assemble(result)

	assert.Equal(t, []int{1}, ctx.Pages)
	assert.Len(t, ctx.Citations, 2)
}

func TestAssembler_BudgetRespected(t *testing.T) {
	// Without the single-oversized case, the total never exceeds budget
	result := &Result{Chunks: []*ScoredChunk{
		scoredChunk("a", 1, 0, 250, 0.9),
		scoredChunk("b", 2, 0, 250, 0.8),
		scoredChunk("c", 3, 0, 250, 0.7),
		scoredChunk("d", 4, 0, 250, 0.6),
	}}

	for _, budget := range []int{250, 400, 500, 749, 750, 1000} {
		ctx := NewAssembler(budget).Assemble(result)
		if !ctx.BudgetExceeded {
			assert.LessOrEqual(t, ctx.TotalTokens, budget, "budget %d", budget)
		}
	}
}
