package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisearch/polisearch/internal/chunk"
)

func newTestLexicalIndex(t *testing.T) *BleveLexicalIndex {
	t.Helper()
	idx, err := NewBleveLexicalIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func makeChunk(id, source string, page, seq int, text string) chunk.Chunk {
	return chunk.Chunk{
		ID:            id,
		Source:        source,
		PageNumber:    page,
		SequenceIndex: seq,
		TokenCount:    chunk.CountTokens(text),
		Text:          text,
	}
}

func TestBleveLexicalIndex_DistinctTermCoverage(t *testing.T) {
	// Given: an index with chunks covering different subsets of terms
	idx := newTestLexicalIndex(t)

	chunks := []chunk.Chunk{
		makeChunk("c1", "policy.pdf", 1, 0, "암 진단 확정 시 보험금 을 지급 합니다"),
		makeChunk("c2", "policy.pdf", 2, 0, "암 치료 를 위한 입원 비용"),
		makeChunk("c3", "policy.pdf", 3, 0, "화재 로 인한 손해 는 보상 하지 않습니다"),
	}
	require.NoError(t, idx.Index(context.Background(), chunks))

	// When: I search with three distinct terms
	results, err := idx.Search(context.Background(), "암 진단 보험금", 10)
	require.NoError(t, err)

	// Then: c1 matches all 3 terms, c2 matches only "암", c3 matches none
	require.Len(t, results, 2)

	assert.Equal(t, "c1", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.ElementsMatch(t, []string{"암", "진단", "보험금"}, results[0].MatchedTerms)

	assert.Equal(t, "c2", results[1].ID)
	assert.InDelta(t, 1.0/3.0, results[1].Score, 1e-9)
	assert.Equal(t, []string{"암"}, results[1].MatchedTerms)
}

func TestBleveLexicalIndex_RepeatedQueryTermsCountOnce(t *testing.T) {
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(context.Background(), []chunk.Chunk{
		makeChunk("c1", "policy.pdf", 1, 0, "보험금 지급 기준"),
	}))

	// "보험금" repeated in the query still counts as one distinct term
	results, err := idx.Search(context.Background(), "보험금 보험금 지급", 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestBleveLexicalIndex_CaseInsensitive(t *testing.T) {
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(context.Background(), []chunk.Chunk{
		makeChunk("c1", "policy.pdf", 1, 0, "CI 보험 특약 Premium 안내"),
	}))

	results, err := idx.Search(context.Background(), "ci premium", 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestBleveLexicalIndex_EmptyQuery(t *testing.T) {
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(context.Background(), []chunk.Chunk{
		makeChunk("c1", "policy.pdf", 1, 0, "보험금 지급"),
	}))

	for _, q := range []string{"", "   ", "!!! ---"} {
		results, err := idx.Search(context.Background(), q, 10)
		require.NoError(t, err)
		assert.Empty(t, results, "query %q", q)
	}
}

func TestBleveLexicalIndex_TieBreakByID(t *testing.T) {
	// Chunks with identical coverage sort by ID for determinism
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(context.Background(), []chunk.Chunk{
		makeChunk("zz", "policy.pdf", 1, 0, "해지 환급금 안내"),
		makeChunk("aa", "policy.pdf", 2, 0, "해지 환급금 기준"),
	}))

	results, err := idx.Search(context.Background(), "해지 환급금", 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "aa", results[0].ID)
	assert.Equal(t, "zz", results[1].ID)
}

func TestBleveLexicalIndex_Limit(t *testing.T) {
	idx := newTestLexicalIndex(t)

	chunks := make([]chunk.Chunk, 0, 5)
	for i, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		chunks = append(chunks, makeChunk(id, "policy.pdf", i+1, 0, "면책 사항"))
	}
	require.NoError(t, idx.Index(context.Background(), chunks))

	results, err := idx.Search(context.Background(), "면책", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestBleveLexicalIndex_Delete(t *testing.T) {
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(context.Background(), []chunk.Chunk{
		makeChunk("c1", "policy.pdf", 1, 0, "납입 면제 조건"),
		makeChunk("c2", "policy.pdf", 2, 0, "납입 기간 안내"),
	}))

	require.NoError(t, idx.Delete(context.Background(), []string{"c1"}))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := idx.Search(context.Background(), "납입", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c2", results[0].ID)
}

func TestBleveLexicalIndex_Reindex(t *testing.T) {
	// Re-indexing the same ID replaces the document
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(context.Background(), []chunk.Chunk{
		makeChunk("c1", "policy.pdf", 1, 0, "기존 본문"),
	}))
	require.NoError(t, idx.Index(context.Background(), []chunk.Chunk{
		makeChunk("c1", "policy.pdf", 1, 0, "갱신 본문"),
	}))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := idx.Search(context.Background(), "갱신", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = idx.Search(context.Background(), "기존", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveLexicalIndex_Closed(t *testing.T) {
	idx, err := NewBleveLexicalIndex("")
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.Error(t, idx.Index(context.Background(), []chunk.Chunk{
		makeChunk("c1", "policy.pdf", 1, 0, "text"),
	}))
	_, err = idx.Search(context.Background(), "text", 10)
	assert.Error(t, err)

	// Double close is a no-op
	assert.NoError(t, idx.Close())
}

func TestPolicyTokenizer(t *testing.T) {
	tok := &blevePolicyTokenizer{}

	stream := tok.Tokenize([]byte("제1조 (보험금의 지급) 100만원"))

	terms := make([]string, 0, len(stream))
	for _, token := range stream {
		terms = append(terms, string(token.Term))
	}
	assert.Equal(t, []string{"제1조", "보험금의", "지급", "100만원"}, terms)
}
