package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/search"
	"github.com/polisearch/polisearch/internal/ui"
	"github.com/polisearch/polisearch/pkg/polisearch"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK         int
	vectorWeight float64
	format       string // "text", "json"
	showContext  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed document",
		Long: `Search the indexed document with hybrid retrieval.

Keyword matches and embedding similarity are combined into a single
score per passage; overlapping neighbors from the same page are
deduplicated before the top results are returned.`,
		Example: `  polisearch search "암 진단시 보험금 지급"
  polisearch search "면책 기간" --top-k 10
  polisearch search "보험료 납입" --vector-weight 0.3 --format json
  polisearch search "해지 환급금" --context`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 0, "Number of results (default from config)")
	cmd.Flags().Float64VarP(&opts.vectorWeight, "vector-weight", "w", -1, "Vector score weight 0.0-1.0 (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.showContext, "context", false, "Also show the assembled context summary")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := polisearch.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	searchOpts := engine.Options()
	if opts.topK > 0 {
		searchOpts.TopK = opts.topK
	}
	if opts.vectorWeight >= 0 {
		searchOpts.VectorWeight = opts.vectorWeight
	}

	result, err := engine.Search(ctx, query, searchOpts)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return writeSearchJSON(cmd, engine, result, opts.showContext)
	}

	render := ui.NewRenderer(cmd.OutOrStdout())
	render.Result(result)
	if opts.showContext {
		render.Context(engine.Assemble(result))
	}
	return nil
}

// searchJSON is the machine-readable search output.
type searchJSON struct {
	Query    string       `json:"query"`
	Degraded bool         `json:"degraded,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
	Results  []resultJSON `json:"results"`
	Context  *contextJSON `json:"context,omitempty"`
}

type resultJSON struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Page         int      `json:"page"`
	Sequence     int      `json:"sequence"`
	VectorScore  float64  `json:"vector_score"`
	LexicalScore float64  `json:"lexical_score"`
	Combined     float64  `json:"combined"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
	Text         string   `json:"text"`
}

type contextJSON struct {
	Pages          []int             `json:"pages"`
	TotalTokens    int               `json:"total_tokens"`
	BudgetExceeded bool              `json:"budget_exceeded,omitempty"`
	NoEvidence     bool              `json:"no_evidence,omitempty"`
	Citations      []search.Citation `json:"citations"`
}

func writeSearchJSON(cmd *cobra.Command, engine *polisearch.Engine, result *search.Result, withContext bool) error {
	out := searchJSON{
		Query:    result.Query,
		Degraded: result.Degraded,
		Warnings: result.Warnings,
		Results:  make([]resultJSON, 0, len(result.Chunks)),
	}
	for _, sc := range result.Chunks {
		out.Results = append(out.Results, resultJSON{
			ID:           sc.Chunk.ID,
			Source:       sc.Chunk.Source,
			Page:         sc.Chunk.PageNumber,
			Sequence:     sc.Chunk.SequenceIndex,
			VectorScore:  sc.VectorScore,
			LexicalScore: sc.LexicalScore,
			Combined:     sc.Combined,
			MatchedTerms: sc.MatchedTerms,
			Text:         sc.Chunk.Text,
		})
	}
	if withContext {
		sc := engine.Assemble(result)
		out.Context = &contextJSON{
			Pages:          sc.Pages,
			TotalTokens:    sc.TotalTokens,
			BudgetExceeded: sc.BudgetExceeded,
			NoEvidence:     sc.NoEvidence,
			Citations:      sc.Citations,
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
