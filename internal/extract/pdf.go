package extract

import (
	"fmt"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	polierrors "github.com/polisearch/polisearch/internal/errors"
)

// ExtractPDF extracts per-page text directly from a PDF file.
//
// This is a convenience path for users without the upstream extraction
// pipeline. It does not reconstruct tables; for table-heavy documents the
// pipeline's page-indexed JSON gives better fidelity.
func ExtractPDF(path string) ([]SourcePage, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, polierrors.New(polierrors.ErrCodeFileNotFound,
			fmt.Sprintf("failed to open PDF: %s", path), err)
	}
	defer func() { _ = f.Close() }()

	source := filepath.Base(path)
	numPages := r.NumPage()
	pages := make([]SourcePage, 0, numPages)

	for i := 1; i <= numPages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to decode rather than losing the document
			continue
		}

		pages = append(pages, SourcePage{
			Page:   i,
			Text:   CleanText(text),
			Source: source,
		})
	}

	return pages, nil
}
