package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/output"
	"github.com/Aman-CERP/hybridsearch/pkg/hybrid"
)

func newCompactCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Reclaim space from deleted documents",
		Long:  `Compact rebuilds the vector index from its live vectors, dropping tombstoned entries, and saves it. The lexical store is left as it is.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			ctx := cmd.Context()

			spec, err := documentSpec()
			if err != nil {
				return fmt.Errorf("reflect document schema: %w", err)
			}
			idx, err := hybrid.Load[Document](dir, "", spec)
			if err != nil {
				return fmt.Errorf("load index: %w", err)
			}
			defer func() { _ = idx.Close() }()

			out.Status("•", "compacting index...")
			if err := idx.Compact(ctx); err != nil {
				return fmt.Errorf("compact: %w", err)
			}

			out.Success("compaction complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".hybridsearch", "Index directory")

	return cmd
}
