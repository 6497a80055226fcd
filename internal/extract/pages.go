package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	polierrors "github.com/polisearch/polisearch/internal/errors"
)

var (
	multiSpaceRe = regexp.MustCompile(` +`)
	multiBlankRe = regexp.MustCompile(`\n\s*\n+`)
)

// CleanText normalizes extracted page text: collapses runs of spaces,
// collapses runs of blank lines to a single paragraph break, and trims
// surrounding whitespace.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiBlankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// LoadPages reads a page-indexed JSON file into SourcePages.
// The file holds an array of {page, text, tables, source} objects. Pages
// are validated (positive, unique page numbers) and returned sorted by
// page number with their text cleaned.
func LoadPages(path string) ([]SourcePage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, polierrors.New(polierrors.ErrCodeFileNotFound,
				fmt.Sprintf("pages file not found: %s", path), err)
		}
		return nil, polierrors.New(polierrors.ErrCodeFileNotFound,
			fmt.Sprintf("failed to read pages file: %s", path), err)
	}

	var pages []SourcePage
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, polierrors.New(polierrors.ErrCodeInvalidPages,
			fmt.Sprintf("failed to parse pages file %s", path), err)
	}

	if err := validatePages(pages); err != nil {
		return nil, err
	}

	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Source != pages[j].Source {
			return pages[i].Source < pages[j].Source
		}
		return pages[i].Page < pages[j].Page
	})

	for i := range pages {
		pages[i].Text = CleanText(pages[i].FullText())
		pages[i].Tables = nil
	}

	return pages, nil
}

// validatePages checks that page numbers are positive and unique per source.
func validatePages(pages []SourcePage) error {
	type key struct {
		source string
		page   int
	}
	seen := make(map[key]bool, len(pages))
	for _, p := range pages {
		if p.Page <= 0 {
			return polierrors.New(polierrors.ErrCodeInvalidPages,
				fmt.Sprintf("page numbers must be positive, got %d", p.Page), nil)
		}
		k := key{source: p.Source, page: p.Page}
		if seen[k] {
			return polierrors.New(polierrors.ErrCodeInvalidPages,
				fmt.Sprintf("duplicate page number %d in %s", p.Page, p.Source), nil)
		}
		seen[k] = true
	}
	return nil
}
