package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/polisearch/polisearch/internal/search"
)

// snippetRunes bounds how much chunk text a result row shows.
const snippetRunes = 160

// Renderer writes human-readable query output.
type Renderer struct {
	w      io.Writer
	styles Styles
}

// NewRenderer creates a renderer for w, styled when w is a TTY.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, styles: GetStyles(!IsTerminal(w))}
}

// NewRendererWithStyles creates a renderer with an explicit palette.
func NewRendererWithStyles(w io.Writer, styles Styles) *Renderer {
	return &Renderer{w: w, styles: styles}
}

// Result prints one retrieval result set with scores and provenance.
func (r *Renderer) Result(result *search.Result) {
	for _, warning := range result.Warnings {
		fmt.Fprintln(r.w, r.styles.Warning.Render("warning: "+warning))
	}

	if len(result.Chunks) == 0 {
		fmt.Fprintln(r.w, r.styles.Dim.Render("no matching passages"))
		return
	}

	fmt.Fprintln(r.w, r.styles.Header.Render(
		fmt.Sprintf("%d passages for %q", len(result.Chunks), result.Query)))
	fmt.Fprintln(r.w)

	for i, sc := range result.Chunks {
		head := fmt.Sprintf("%d. %s p.%d",
			i+1, sc.Chunk.Source, sc.Chunk.PageNumber)
		score := fmt.Sprintf("score %.3f (vec %.3f / lex %.3f)",
			sc.Combined, sc.VectorScore, sc.LexicalScore)

		fmt.Fprintf(r.w, "%s  %s\n",
			r.styles.Page.Render(head),
			r.styles.Score.Render(score))

		if len(sc.MatchedTerms) > 0 {
			fmt.Fprintln(r.w, r.styles.Label.Render("   matched: "+strings.Join(sc.MatchedTerms, ", ")))
		}
		fmt.Fprintln(r.w, r.styles.Snippet.Render("   "+Snippet(sc.Chunk.Text)))
		fmt.Fprintln(r.w)
	}
}

// Context prints the assembled context summary line.
func (r *Renderer) Context(ctx *search.Context) {
	if ctx.NoEvidence {
		fmt.Fprintln(r.w, r.styles.Dim.Render("no evidence found"))
		return
	}

	line := fmt.Sprintf("context: %d chunks, %d tokens, pages %s",
		len(ctx.Chunks), ctx.TotalTokens, joinPages(ctx.Pages))
	fmt.Fprintln(r.w, r.styles.Label.Render(line))

	if ctx.BudgetExceeded {
		fmt.Fprintln(r.w, r.styles.Warning.Render(
			"warning: best passage alone exceeds the token budget"))
	}
}

// Answer prints a generated answer.
func (r *Renderer) Answer(text string) {
	fmt.Fprintln(r.w, text)
}

// Error prints an error line.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.w, r.styles.Error.Render("error: "+err.Error()))
}

// StatusRow prints one aligned key/value status line.
func (r *Renderer) StatusRow(key, value string) {
	fmt.Fprintf(r.w, "%s %s\n",
		r.styles.Label.Render(fmt.Sprintf("%-18s", key+":")),
		value)
}

// Snippet trims text to one result row's worth of runes.
func Snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= snippetRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetRunes]) + "…"
}

func joinPages(pages []int) string {
	if len(pages) == 0 {
		return "-"
	}
	strs := make([]string, len(pages))
	for i, p := range pages {
		strs[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(strs, ", ")
}
