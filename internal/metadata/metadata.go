// Package metadata persists the small JSON sidecar describing an
// index directory's configuration: schema fingerprint, vector
// dimension, distance metric, HNSW build parameters and document
// counts. It is the contract an Index uses to detect a stale or
// foreign directory on Load.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CurrentVersion is bumped whenever the on-disk shape changes in a
// way that isn't forward compatible.
const CurrentVersion = 1

// FileName is the sidecar's fixed name inside an index directory.
const FileName = "hybrid.meta.json"

// ErrMissing is returned by Load when the sidecar file does not exist.
var ErrMissing = errors.New("metadata: sidecar file is missing")

// ErrCorrupt is returned by Load when the sidecar file exists but
// cannot be parsed as valid metadata.
var ErrCorrupt = errors.New("metadata: sidecar file is corrupt")

// Meta is the persisted shape of an index's configuration.
type Meta struct {
	Version        int    `json:"version"`
	Fingerprint    string `json:"fingerprint"`
	Dimension      int    `json:"dimension"`
	Distance       string `json:"distance"`
	M              int    `json:"m"`
	EfSearch       int    `json:"ef_search"`
	RRFK           int    `json:"rrf_k"`
	DocCount       int    `json:"doc_count"`
	NextDocID      uint64 `json:"next_doc_id"`
	PrimaryIDField string `json:"primary_id_field"`
}

// Path returns the sidecar path for an index directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Save writes m to dir's sidecar file atomically: write to a temp file
// in the same directory, fsync, then rename over the final path.
func Save(dir string, m Meta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("metadata: create directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("metadata: marshal: %w", err)
	}

	final := Path(dir)
	tmp, err := os.CreateTemp(dir, ".hybrid.meta.*.tmp")
	if err != nil {
		return fmt.Errorf("metadata: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("metadata: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("metadata: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("metadata: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("metadata: rename temp file: %w", err)
	}
	return nil
}

// Load reads and parses dir's sidecar file.
func Load(dir string) (Meta, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, ErrMissing
		}
		return Meta{}, fmt.Errorf("metadata: read: %w", err)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return Meta{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m.Version != CurrentVersion || m.Fingerprint == "" {
		return Meta{}, ErrCorrupt
	}
	return m, nil
}

// Exists reports whether dir already has a sidecar file, used by
// Create to refuse clobbering an existing index.
func Exists(dir string) bool {
	_, err := os.Stat(Path(dir))
	return err == nil
}
