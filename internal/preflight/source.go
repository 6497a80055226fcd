package preflight

import (
	"fmt"
	"os"

	"github.com/polisearch/polisearch/internal/extract"
	"github.com/polisearch/polisearch/internal/index"
)

// CheckSourcePages verifies the configured document source exists and,
// for pages JSON, parses cleanly.
func (c *Checker) CheckSourcePages() CheckResult {
	result := CheckResult{
		Name:     "document_source",
		Required: false,
	}

	switch {
	case c.cfg.Paths.Pages != "":
		pages, err := extract.LoadPages(c.cfg.Paths.Pages)
		if err != nil {
			result.Status = StatusFail
			result.Message = fmt.Sprintf("cannot load %s: %v", c.cfg.Paths.Pages, err)
			return result
		}
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%s (%d pages)", c.cfg.Paths.Pages, len(pages))

	case c.cfg.Paths.PDF != "":
		if _, err := os.Stat(c.cfg.Paths.PDF); err != nil {
			result.Status = StatusFail
			result.Message = fmt.Sprintf("cannot access %s: %v", c.cfg.Paths.PDF, err)
			return result
		}
		result.Status = StatusPass
		result.Message = c.cfg.Paths.PDF

	default:
		result.Status = StatusWarn
		result.Message = "no document source configured"
		result.Details = "Set paths.pages or paths.pdf in polisearch.yaml"
	}

	return result
}

// CheckIndexSnapshot verifies a published snapshot exists.
func (c *Checker) CheckIndexSnapshot() CheckResult {
	result := CheckResult{
		Name:     "index_snapshot",
		Required: false,
	}

	version, err := index.CurrentVersion(c.cfg.Paths.DataDir)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("version marker unreadable: %v", err)
		return result
	}
	if version == 0 {
		result.Status = StatusWarn
		result.Message = "no index built yet"
		result.Details = "Run 'polisearch index' to create one"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("v%d", version)
	return result
}
