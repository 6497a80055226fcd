package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polisearch/polisearch/internal/chunk"
	"github.com/polisearch/polisearch/internal/search"
)

func plainRenderer() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRendererWithStyles(&buf, NoColorStyles()), &buf
}

func TestRenderer_Result(t *testing.T) {
	r, buf := plainRenderer()

	r.Result(&search.Result{
		Query: "면책 사항",
		Chunks: []*search.ScoredChunk{
			{
				Chunk: chunk.Chunk{
					Source:     "policy.pdf",
					PageNumber: 3,
					Text:       "면책 사항은 다음 각 호와 같다",
				},
				VectorScore:  0.8,
				LexicalScore: 1.0,
				Combined:     0.88,
				MatchedTerms: []string{"면책", "사항"},
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, `1 passages for "면책 사항"`)
	assert.Contains(t, out, "policy.pdf p.3")
	assert.Contains(t, out, "score 0.880 (vec 0.800 / lex 1.000)")
	assert.Contains(t, out, "matched: 면책, 사항")
	assert.Contains(t, out, "면책 사항은 다음 각 호와 같다")
}

func TestRenderer_ResultWarningsAndEmpty(t *testing.T) {
	r, buf := plainRenderer()

	r.Result(&search.Result{
		Query:    "면책",
		Degraded: true,
		Warnings: []string{"vector search unavailable, ranking by keywords only: timeout"},
	})

	out := buf.String()
	assert.Contains(t, out, "warning: vector search unavailable")
	assert.Contains(t, out, "no matching passages")
}

func TestRenderer_Context(t *testing.T) {
	r, buf := plainRenderer()

	r.Context(&search.Context{
		Chunks:         make([]*search.ScoredChunk, 2),
		TotalTokens:    450,
		Pages:          []int{1, 3},
		BudgetExceeded: true,
	})

	out := buf.String()
	assert.Contains(t, out, "context: 2 chunks, 450 tokens, pages 1, 3")
	assert.Contains(t, out, "exceeds the token budget")
}

func TestRenderer_ContextNoEvidence(t *testing.T) {
	r, buf := plainRenderer()
	r.Context(&search.Context{NoEvidence: true})
	assert.Contains(t, buf.String(), "no evidence found")
}

func TestSnippet(t *testing.T) {
	// Whitespace collapses
	assert.Equal(t, "a b c", Snippet("a\n b\t\tc"))

	// Long Korean text truncates at a rune boundary
	long := strings.Repeat("보험금 지급 ", 60)
	got := Snippet(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), snippetRunes+1)

	short := "짧은 본문"
	assert.Equal(t, short, Snippet(short))
}

func TestIsTerminal_NonFileWriter(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
