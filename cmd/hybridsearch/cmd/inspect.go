package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// newInspectCmd is a thin alias for `search --inspect`: it runs a query
// and always opens the interactive result browser.
func newInspectCmd() *cobra.Command {
	var (
		dir                 string
		limit               int
		textOnly            bool
		vectorOnly          bool
		weightText          float64
		weightVec           float64
		filter              string
		efSearch            int
		overfetchMultiplier int
		rrfK                int
	)

	cmd := &cobra.Command{
		Use:   "inspect <query>",
		Short: "Search and browse results interactively",
		Long:  `Inspect runs a hybrid search and opens the TUI result browser (or a plain table when not attached to a TTY).`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			opts := searchOptions{
				dir:                 dir,
				limit:               limit,
				format:              "text",
				textOnly:            textOnly,
				vectorOnly:          vectorOnly,
				weightText:          weightText,
				weightVec:           weightVec,
				inspect:             true,
				filter:              filter,
				efSearch:            efSearch,
				overfetchMultiplier: overfetchMultiplier,
				rrfK:                rrfK,
			}
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".hybridsearch", "Index directory")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum number of results")
	cmd.Flags().BoolVar(&textOnly, "text-only", false, "Use lexical (BM25) search only")
	cmd.Flags().BoolVar(&vectorOnly, "vector-only", false, "Use vector (HNSW) search only")
	cmd.Flags().Float64Var(&weightText, "weight-text", 1.0, "RRF weight for the lexical list")
	cmd.Flags().Float64Var(&weightVec, "weight-vector", 1.0, "RRF weight for the vector list")
	cmd.Flags().StringVar(&filter, "filter", "", "Filter expression (bleve query-string syntax) applied to every result")
	cmd.Flags().IntVar(&efSearch, "ef-search", 0, "HNSW candidate list width for this query (0 uses the index default)")
	cmd.Flags().IntVar(&overfetchMultiplier, "overfetch", 0, "Multiplier for ANN candidates overfetched before filtering (0 uses the default of 3)")
	cmd.Flags().IntVar(&rrfK, "rrf-k", 0, "RRF rank-damping constant for this query (0 uses the index default)")

	return cmd
}
