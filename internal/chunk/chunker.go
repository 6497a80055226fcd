package chunk

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	polierrors "github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/extract"
)

// Chunker splits pages into overlapping token windows.
type Chunker struct {
	opts Options
}

// NewChunker creates a chunker after validating the options.
func NewChunker(opts Options) (*Chunker, error) {
	if opts.TargetSize <= 0 {
		return nil, polierrors.ConfigError(
			fmt.Sprintf("chunk target size must be positive, got %d", opts.TargetSize), nil)
	}
	if opts.Overlap < 0 {
		return nil, polierrors.ConfigError(
			fmt.Sprintf("chunk overlap must be non-negative, got %d", opts.Overlap), nil)
	}
	if opts.Overlap >= opts.TargetSize {
		return nil, polierrors.ConfigError(
			fmt.Sprintf("chunk overlap (%d) must be less than target size (%d)",
				opts.Overlap, opts.TargetSize), nil)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Chunker{opts: opts}, nil
}

// ChunkPage splits a single page into windows of TargetSize tokens,
// each window starting TargetSize-Overlap tokens after the previous one.
// The final window may be shorter but is never empty. Pages with no
// tokens produce no chunks.
func (c *Chunker) ChunkPage(page extract.SourcePage) []Chunk {
	tokens := Tokenize(page.Text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.opts.TargetSize - c.opts.Overlap
	var chunks []Chunk

	for start, seq := 0, 0; start < len(tokens); start, seq = start+step, seq+1 {
		end := start + c.opts.TargetSize
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		chunks = append(chunks, Chunk{
			ID:            ChunkID(page.Page, seq, page.Source),
			Source:        page.Source,
			PageNumber:    page.Page,
			SequenceIndex: seq,
			StartToken:    start,
			TokenCount:    len(window),
			Text:          strings.Join(window, " "),
		})

		// The window that reaches the end of the page is the last one;
		// advancing further would only re-emit its overlap suffix.
		if end == len(tokens) {
			break
		}
	}

	return chunks
}

// ChunkPages chunks all pages, processing pages concurrently. The result
// is deterministic: chunks are ordered by source, then page number, then
// sequence index, regardless of worker scheduling.
func (c *Chunker) ChunkPages(ctx context.Context, pages []extract.SourcePage) ([]Chunk, error) {
	perPage := make([][]Chunk, len(pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i := range pages {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			perPage[i] = c.ChunkPage(pages[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Chunk
	for _, chunks := range perPage {
		all = append(all, chunks...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Source != all[j].Source {
			return all[i].Source < all[j].Source
		}
		if all[i].PageNumber != all[j].PageNumber {
			return all[i].PageNumber < all[j].PageNumber
		}
		return all[i].SequenceIndex < all[j].SequenceIndex
	})

	return all, nil
}
