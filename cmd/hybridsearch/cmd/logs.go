package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		file    string
		level   string
		pattern string
		n       int
		follow  bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Tail or follow the debug log",
		Long:  `Logs reads ~/.hybridsearch/logs/hybridsearch.log (written by --debug runs) and prints matching entries.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}

			var re *regexp.Regexp
			if pattern != "" {
				re, err = regexp.Compile(pattern)
				if err != nil {
					return fmt.Errorf("invalid --pattern: %w", err)
				}
			}

			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: re,
				NoColor: noColor,
			}, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, n)
			if err != nil {
				return fmt.Errorf("tail %s: %w", path, err)
			}
			viewer.Print(entries)

			if !follow {
				return nil
			}

			ch := make(chan logging.LogEntry, 64)
			ctx := cmd.Context()
			go func() {
				for entry := range ch {
					viewer.Print([]logging.LogEntry{entry})
				}
			}()
			return viewer.Follow(ctx, path, ch)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Log file path (default: ~/.hybridsearch/logs/hybridsearch.log)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show: debug, info, warn, error")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Regex filter applied to raw lines")
	cmd.Flags().IntVarP(&n, "lines", "n", 100, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow the log file for new entries")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored level output")

	return cmd
}
