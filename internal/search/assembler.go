package search

import (
	"sort"
)

// Assembler packs ranked chunks into a token-budgeted context for the
// answer model.
type Assembler struct {
	maxTokens int
}

// NewAssembler creates an assembler with the given token budget.
// Non-positive budgets fall back to the default.
func NewAssembler(maxTokens int) *Assembler {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	return &Assembler{maxTokens: maxTokens}
}

// Assemble selects chunks greedily in rank order until the next chunk
// would overflow the budget, then re-sorts the selection into document
// order for rendering.
//
// When even the single best chunk exceeds the budget it is included alone
// and the context is flagged BudgetExceeded: an oversized answer basis
// beats an empty one. No candidates at all yields a NoEvidence context.
func (a *Assembler) Assemble(result *Result) *Context {
	if result == nil || len(result.Chunks) == 0 {
		return &Context{
			Chunks:     []*ScoredChunk{},
			Citations:  []Citation{},
			Pages:      []int{},
			NoEvidence: true,
		}
	}

	selected := make([]*ScoredChunk, 0, len(result.Chunks))
	total := 0
	exceeded := false

	for i, sc := range result.Chunks {
		if total+sc.Chunk.TokenCount > a.maxTokens {
			if i == 0 {
				selected = append(selected, sc)
				total += sc.Chunk.TokenCount
				exceeded = true
			}
			// Whole chunks only: stop at the first overflow rather than
			// skipping ahead to smaller, lower-ranked chunks.
			break
		}
		selected = append(selected, sc)
		total += sc.Chunk.TokenCount
	}

	// Evidence reads in document order regardless of score order.
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.Chunk.Source != b.Chunk.Source {
			return a.Chunk.Source < b.Chunk.Source
		}
		if a.Chunk.PageNumber != b.Chunk.PageNumber {
			return a.Chunk.PageNumber < b.Chunk.PageNumber
		}
		return a.Chunk.SequenceIndex < b.Chunk.SequenceIndex
	})

	citations := make([]Citation, 0, len(selected))
	pageSet := make(map[int]struct{}, len(selected))
	for _, sc := range selected {
		citations = append(citations, Citation{
			Source: sc.Chunk.Source,
			Page:   sc.Chunk.PageNumber,
			Text:   sc.Chunk.Text,
		})
		pageSet[sc.Chunk.PageNumber] = struct{}{}
	}

	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	return &Context{
		Chunks:         selected,
		Citations:      citations,
		Pages:          pages,
		TotalTokens:    total,
		BudgetExceeded: exceeded,
	}
}
