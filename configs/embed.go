// Package configs provides the embedded default configuration template
// for hybridsearch.
//
// Templates are embedded at build time with Go's //go:embed directive so
// they are available in every distribution (go install, binary release).
//
// Configuration hierarchy (see internal/config.Load):
//  1. Hardcoded defaults (internal/config.NewConfig)
//  2. User config (~/.config/hybridsearch/config.yaml)
//  3. Project config (.hybridsearch.yaml)
//  4. Environment variables (HYBRIDSEARCH_*)
package configs

import _ "embed"

// ProjectConfigTemplate is written by `hybridsearch config init` to
// .hybridsearch.yaml in the current directory.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
