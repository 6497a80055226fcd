// Package answer turns an assembled retrieval context into a grounded
// natural-language answer via a local Ollama model. It never re-ranks or
// re-filters passages: ranking is fully resolved upstream.
package answer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/polisearch/polisearch/internal/search"
)

// NoEvidenceAnswer is returned without consulting the model when
// retrieval produced nothing to ground an answer in.
const NoEvidenceAnswer = "관련 문서를 찾을 수 없습니다."

// BuildPrompt renders the retrieval context into the consultation prompt.
// Passages are grouped per page under a [페이지 N] tag so the model can
// cite page numbers, and pages appear in ascending order.
func BuildPrompt(query string, ctx *search.Context) string {
	byPage := make(map[int][]string)
	for _, c := range ctx.Citations {
		byPage[c.Page] = append(byPage[c.Page], c.Text)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var parts []string
	for _, p := range pages {
		parts = append(parts, fmt.Sprintf("[페이지 %d]\n%s", p, strings.Join(byPage[p], "\n")))
	}
	context := strings.Join(parts, "\n\n")

	return fmt.Sprintf(`당신은 보험 약관 전문 상담사입니다. 문서 내용을 바탕으로 정확하게 답변하세요.

문서 내용:
%s

질문: %s

답변 규칙:
1. 문서 내용만을 근거로 답변
2. 구체적이고 명확하게 설명
3. 전문 용어는 쉽게 풀어서 설명
4. 페이지 번호를 언급

답변:`, context, query)
}

// referenceSuffix renders the trailing page reference list appended to
// every generated answer.
func referenceSuffix(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	strs := make([]string, len(pages))
	for i, p := range pages {
		strs[i] = fmt.Sprintf("%d", p)
	}
	return "\n\n참고 페이지: " + strings.Join(strs, ", ")
}
