package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/ui"
	"github.com/polisearch/polisearch/pkg/polisearch"
)

// askOptions holds CLI flags for ask.
type askOptions struct {
	topK         int
	vectorWeight float64
	showSources  bool
}

func newAskCmd() *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about the indexed document",
		Long: `Answer a natural-language question about the indexed document.

The question is answered from retrieved passages only, streamed to
stdout as the model generates, and suffixed with the source pages the
answer was grounded on.`,
		Example: `  polisearch ask "암 진단시 보험금은 얼마인가요?"
  polisearch ask "면책 기간은 얼마나 되나요?" --sources`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runAsk(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 0, "Number of passages to retrieve (default from config)")
	cmd.Flags().Float64VarP(&opts.vectorWeight, "vector-weight", "w", -1, "Vector score weight 0.0-1.0 (default from config)")
	cmd.Flags().BoolVar(&opts.showSources, "sources", false, "Show the retrieved passages before the answer")

	return cmd
}

func runAsk(ctx context.Context, cmd *cobra.Command, query string, opts askOptions) error {
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

	out := cmd.OutOrStdout()
	render := ui.NewRenderer(out)

	result, err := engine.Search(ctx, query, searchOpts)
	if err != nil {
		return err
	}

	if opts.showSources {
		render.Result(result)
		fmt.Fprintln(out)
	}

	var streamed strings.Builder
	res, err := engine.Answer(ctx, query, result, func(fragment string) error {
		streamed.WriteString(fragment)
		_, werr := fmt.Fprint(out, fragment)
		return werr
	})
	if err != nil {
		return err
	}

	// Fragments carry the answer body; the full text additionally holds
	// the page reference line (or the whole no-evidence message).
	if rest := strings.TrimPrefix(res.Text, streamed.String()); rest != "" {
		fmt.Fprint(out, rest)
	}
	fmt.Fprintln(out)

	return nil
}
