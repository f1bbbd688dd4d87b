package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/config"
	"github.com/Aman-CERP/hybridsearch/internal/output"
	"github.com/Aman-CERP/hybridsearch/internal/store"
	"github.com/Aman-CERP/hybridsearch/pkg/hybrid"
)

func newCreateCmd() *cobra.Command {
	var (
		dir       string
		dimension int
		distance  string
		m         int
		efSearch  int
		rrfK      int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Initialize a new hybrid index",
		Long:  `Create initializes a fresh lexical + vector index at the given directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			cfg, err := config.Load(".")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if dir == "" {
				dir = cfg.Index.Dir
			}
			if dimension == 0 {
				dimension = cfg.Index.Dimension
			}
			if distance == "" {
				distance = cfg.Index.Distance
			}
			if m == 0 {
				m = cfg.Index.M
			}
			if efSearch == 0 {
				efSearch = cfg.Index.EfSearch
			}
			if rrfK == 0 {
				rrfK = cfg.Search.RRFK
			}
			if dimension == 0 {
				dimension = 32
			}
			if distance == "" {
				distance = string(store.DistanceCosine)
			}

			spec, err := documentSpec()
			if err != nil {
				return fmt.Errorf("reflect document schema: %w", err)
			}

			hcfg := hybrid.Config{
				Dimension: dimension,
				Distance:  store.Distance(distance),
				M:         m,
				EfSearch:  efSearch,
				RRFK:      rrfK,
			}

			idx, err := hybrid.Create[Document](dir, spec, hcfg)
			if err != nil {
				return fmt.Errorf("create index: %w", err)
			}
			defer func() { _ = idx.Close() }()

			out.Success(fmt.Sprintf("created index at %s (dimension=%d distance=%s)", dir, dimension, distance))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Index directory (default from config)")
	cmd.Flags().IntVar(&dimension, "dimension", 0, "Embedding vector dimension")
	cmd.Flags().StringVar(&distance, "distance", "", "Distance metric: cosine, l2, dot, l1")
	cmd.Flags().IntVar(&m, "m", 0, "HNSW max connections per layer")
	cmd.Flags().IntVar(&efSearch, "ef-search", 0, "HNSW search-time candidate list size")
	cmd.Flags().IntVar(&rrfK, "rrf-k", 0, "RRF rank-damping constant")

	return cmd
}
