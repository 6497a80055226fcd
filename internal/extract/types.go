// Package extract loads policy document pages, either from the page-indexed
// JSON produced by the extraction pipeline or directly from a PDF.
package extract

// SourcePage is one page of the source document with its extracted text.
// Table content, when present, is already rendered as text records appended
// to the page text by the extraction pipeline.
type SourcePage struct {
	// Page is the 1-based page number in the source document.
	Page int `json:"page"`
	// Text is the extracted page text, tables included.
	Text string `json:"text"`
	// Tables holds table rows rendered as pipe-joined records, when the
	// extraction pipeline emits them separately from the page text.
	Tables []string `json:"tables,omitempty"`
	// Source is the originating document name.
	Source string `json:"source"`
}

// FullText returns the page text with any separately extracted table
// records appended, matching the layout the extraction pipeline produces
// when it inlines tables itself.
func (p SourcePage) FullText() string {
	text := p.Text
	for _, t := range p.Tables {
		if t == "" {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += t
	}
	return text
}
