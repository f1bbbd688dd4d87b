package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/pkg/hybrid"
)

func newInfoCmd() *cobra.Command {
	var (
		dir        string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print index configuration and size",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			info, err := idx.Info(ctx)
			if err != nil {
				return fmt.Errorf("index info: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "dir:          %s\n", info.Dir)
			fmt.Fprintf(w, "fingerprint:  %s\n", info.Fingerprint)
			fmt.Fprintf(w, "dimension:    %d\n", info.Dimension)
			fmt.Fprintf(w, "distance:     %s\n", info.Distance)
			fmt.Fprintf(w, "documents:    %d\n", info.DocCount)
			fmt.Fprintf(w, "vectors:      %d\n", info.VectorCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".hybridsearch", "Index directory")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
