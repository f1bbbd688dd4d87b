package ui

import (
	"fmt"
	"io"
	"strings"
)

// PlainBrowser prints hits as a simple table (for CI/pipes).
type PlainBrowser struct {
	out     io.Writer
	noColor bool
	query   string
}

// NewPlainBrowser creates a plain table renderer.
func NewPlainBrowser(cfg Config) *PlainBrowser {
	return &PlainBrowser{
		out:     cfg.Output,
		noColor: cfg.NoColor,
		query:   cfg.Query,
	}
}

// Run implements Browser.
func (b *PlainBrowser) Run(rows []Row) error {
	if b.query != "" {
		_, _ = fmt.Fprintf(b.out, "query: %q\n\n", b.query)
	}
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(b.out, "no results")
		return nil
	}

	for i, row := range rows {
		title := row.Fields["title"]
		if title == "" {
			title = row.DocID
		}
		_, _ = fmt.Fprintf(b.out, "%3d. %-40s score=%.4f", i+1, title, row.Score)
		if len(row.Rank) > 0 {
			var ranks []string
			for _, name := range []string{"text", "vector"} {
				if r, ok := row.Rank[name]; ok {
					ranks = append(ranks, fmt.Sprintf("%s#%d", name, r))
				}
			}
			if len(ranks) > 0 {
				_, _ = fmt.Fprintf(b.out, "  (%s)", strings.Join(ranks, " "))
			}
		}
		_, _ = fmt.Fprintln(b.out)
		if snippet, ok := row.Fields["body"]; ok && snippet != "" {
			_, _ = fmt.Fprintf(b.out, "     %s\n", truncate(snippet, 100))
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Browser = (*PlainBrowser)(nil)
