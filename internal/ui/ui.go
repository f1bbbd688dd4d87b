// Package ui provides terminal components for browsing hybrid search
// results: a bubbletea list/detail browser for interactive terminals, and
// a plain table renderer for pipes and CI.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Row is one search hit, rendered generically so the browser has no
// dependency on any particular document type. DocID and Score come
// straight off hybrid.Hit; Fields holds whatever decoded document fields
// the caller wants shown (e.g. title, a body snippet).
type Row struct {
	DocID string
	Score float64
	// Rank sources reports which engines contributed the hit and at
	// what rank, e.g. {"text": 1, "vector": 3}.
	Rank   map[string]int
	Fields map[string]string
	// FieldOrder controls display order of Fields; fields not listed
	// are appended in map iteration order.
	FieldOrder []string
}

// Browser displays a set of Rows and lets the user navigate them.
type Browser interface {
	// Run displays the rows and blocks until the user exits.
	Run(rows []Row) error
}

// Config configures a Browser.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Query      string // the query string that produced these rows, for the header
}

// NewBrowser returns a TUI browser for interactive terminals, and a plain
// table renderer for pipes, CI, or when ForcePlain is set.
func NewBrowser(cfg Config) Browser {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainBrowser(cfg)
	}

	tui, err := NewTUIBrowser(cfg)
	if err != nil {
		return NewPlainBrowser(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
