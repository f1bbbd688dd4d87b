package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/dsl"
	"github.com/Aman-CERP/hybridsearch/internal/output"
	"github.com/Aman-CERP/hybridsearch/internal/ui"
	"github.com/Aman-CERP/hybridsearch/pkg/hybrid"
)

type searchOptions struct {
	dir                 string
	limit               int
	format              string // "text", "json"
	textOnly            bool
	vectorOnly          bool
	weightText          float64
	weightVec           float64
	inspect             bool
	filter              string
	efSearch            int
	overfetchMultiplier int
	rrfK                int
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index",
		Long: `Search runs a hybrid query: BM25 lexical matching and HNSW vector
similarity, fused by Reciprocal Rank Fusion.

Examples:
  hybridsearch search "concurrency patterns"
  hybridsearch search "goroutine leak" --text-only --limit 5
  hybridsearch search "error handling" --format json
  hybridsearch search "channels" --inspect`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".hybridsearch", "Index directory")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.textOnly, "text-only", false, "Use lexical (BM25) search only")
	cmd.Flags().BoolVar(&opts.vectorOnly, "vector-only", false, "Use vector (HNSW) search only")
	cmd.Flags().Float64Var(&opts.weightText, "weight-text", 1.0, "RRF weight for the lexical list")
	cmd.Flags().Float64Var(&opts.weightVec, "weight-vector", 1.0, "RRF weight for the vector list")
	cmd.Flags().BoolVar(&opts.inspect, "inspect", false, "Browse results in the interactive TUI")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter expression (bleve query-string syntax) applied to every result")
	cmd.Flags().IntVar(&opts.efSearch, "ef-search", 0, "HNSW candidate list width for this query (0 uses the index default)")
	cmd.Flags().IntVar(&opts.overfetchMultiplier, "overfetch", 0, "Multiplier for ANN candidates overfetched before filtering (0 uses the default of 3)")
	cmd.Flags().IntVar(&opts.rrfK, "rrf-k", 0, "RRF rank-damping constant for this query (0 uses the index default)")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	spec, err := documentSpec()
	if err != nil {
		return fmt.Errorf("reflect document schema: %w", err)
	}
	idx, err := hybrid.Load[Document](opts.dir, "", spec)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	info, err := idx.Info(ctx)
	if err != nil {
		return fmt.Errorf("index info: %w", err)
	}

	fallbackFields := textFieldNames(spec)
	q := dsl.HybridTextQuery{RawQuery: query}.Build(fallbackFields)
	filter := dsl.All()
	if opts.filter != "" {
		filter = dsl.QueryString(opts.filter)
	}
	vec := staticVector(query, info.Dimension)

	var hits []hybrid.Hit[Document]
	switch {
	case opts.textOnly:
		hits, err = idx.SearchText(ctx, q, filter, opts.limit, 0)
	case opts.vectorOnly:
		hits, err = idx.SearchVector(ctx, vec, filter, opts.limit, 0, opts.efSearch, opts.overfetchMultiplier)
	default:
		hits, err = idx.SearchHybrid(ctx, q, filter, vec, opts.limit, 0, opts.weightText, opts.weightVec, opts.efSearch, opts.rrfK, opts.overfetchMultiplier)
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(hits) == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	if opts.inspect {
		browser := ui.NewBrowser(ui.Config{Output: cmd.OutOrStdout(), Query: query})
		return browser.Run(hitsToRows(hits))
	}

	switch opts.format {
	case "json":
		return formatSearchJSON(cmd, hits)
	default:
		return formatSearchText(out, query, hits)
	}
}

func formatSearchText(out *output.Writer, query string, hits []hybrid.Hit[Document]) error {
	out.Statusf("", "Found %d results for %q:", len(hits), query)
	out.Newline()

	for i, h := range hits {
		out.Statusf("", "%d. %s (score: %.4f)", i+1, h.Doc.Title, h.Score)
		out.Status("", "   "+truncateSnippet(h.Doc.Body, 160))
		out.Newline()
	}
	return nil
}

func formatSearchJSON(cmd *cobra.Command, hits []hybrid.Hit[Document]) error {
	type jsonHit struct {
		DocID uint64   `json:"doc_id"`
		Score float64  `json:"score"`
		Doc   Document `json:"doc"`
	}

	results := make([]jsonHit, len(hits))
	for i, h := range hits {
		results[i] = jsonHit{DocID: h.DocID, Score: h.Score, Doc: h.Doc}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func hitsToRows(hits []hybrid.Hit[Document]) []ui.Row {
	rows := make([]ui.Row, len(hits))
	for i, h := range hits {
		rows[i] = ui.Row{
			DocID: h.Doc.Slug,
			Score: h.Score,
			Fields: map[string]string{
				"title": h.Doc.Title,
				"body":  h.Doc.Body,
				"views": strconv.FormatInt(h.Doc.Views, 10),
			},
			FieldOrder: []string{"title", "body", "views"},
		}
	}
	return rows
}

func truncateSnippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
