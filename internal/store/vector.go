package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// Distance identifies one of the four metrics SPEC_FULL.md names.
// coder/hnsw only ships CosineDistance and EuclideanDistance; Dot and
// L1 are implemented here directly, assignable to graph.Distance
// because it is a plain func(a, b []float32) float32 field.
type Distance string

const (
	DistanceCosine    Distance = "cosine"
	DistanceEuclidean Distance = "l2"
	DistanceDot       Distance = "dot"
	DistanceL1        Distance = "l1"
)

// VectorHit is a single nearest-neighbor result.
type VectorHit struct {
	DocID    uint64
	Distance float32
}

// VectorConfig configures a VectorIndex's HNSW graph.
type VectorConfig struct {
	Dimension int
	Distance  Distance
	M         int
	EfSearch  int
}

func (c VectorConfig) withDefaults() VectorConfig {
	if c.M == 0 {
		c.M = 16
	}
	if c.EfSearch == 0 {
		c.EfSearch = 20
	}
	if c.Distance == "" {
		c.Distance = DistanceCosine
	}
	return c
}

func distanceFunc(d Distance) (func(a, b []float32) float32, error) {
	switch d {
	case DistanceCosine:
		return hnsw.CosineDistance, nil
	case DistanceEuclidean:
		return hnsw.EuclideanDistance, nil
	case DistanceDot:
		return dotDistance, nil
	case DistanceL1:
		return l1Distance, nil
	default:
		return nil, fmt.Errorf("store: unknown distance metric %q", d)
	}
}

// dotDistance returns the negative dot product, so that "more similar"
// (larger dot product) still sorts as "smaller distance" like every
// other metric coder/hnsw's graph expects.
func dotDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return -sum
}

// l1Distance is the Manhattan (taxicab) distance.
func l1Distance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// VectorIndex wraps a coder/hnsw graph keyed directly by the internal
// uint64 docId. Deletion is always lazy: coder/hnsw has a documented
// bug where physically deleting the last node corrupts the graph, so
// deleted ids are only removed from the `live` map, never from the
// graph itself. `live` is the authoritative membership set: Search
// results are filtered against it, and Compact rebuilds a fresh graph
// containing only `live` entries, reclaiming the tombstoned nodes'
// space.
type VectorIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config VectorConfig
	live   map[uint64][]float32
	closed bool
}

// NewVectorIndex creates an empty vector index.
func NewVectorIndex(cfg VectorConfig) (*VectorIndex, error) {
	cfg = cfg.withDefaults()
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("store: vector dimension must be positive, got %d", cfg.Dimension)
	}
	df, err := distanceFunc(cfg.Distance)
	if err != nil {
		return nil, err
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = df
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &VectorIndex{
		graph:  graph,
		config: cfg,
		live:   make(map[uint64][]float32),
	}, nil
}

// Insert adds or replaces the vector for docID.
func (v *VectorIndex) Insert(docID uint64, vec []float32) error {
	return v.InsertBatch(map[uint64][]float32{docID: vec})
}

// InsertBatch adds or replaces vectors for many docIds at once.
func (v *VectorIndex) InsertBatch(vecs map[uint64][]float32) error {
	if len(vecs) == 0 {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("store: vector index is closed")
	}

	for _, vec := range vecs {
		if len(vec) != v.config.Dimension {
			return DimensionMismatchError{Expected: v.config.Dimension, Got: len(vec)}
		}
	}

	for docID, vec := range vecs {
		cp := make([]float32, len(vec))
		copy(cp, vec)
		// Replacing an existing id: lazily orphan the old graph node by
		// just overwriting `live`; do not call graph.Delete.
		v.graph.Add(hnsw.MakeNode(docID, cp))
		v.live[docID] = cp
	}
	return nil
}

// Delete lazily tombstones docID: it is removed from `live` (so future
// Search and Get calls never see it) but the underlying graph node is
// left in place, per the coder/hnsw last-node-deletion bug.
func (v *VectorIndex) Delete(docID uint64) error {
	return v.DeleteBatch([]uint64{docID})
}

// DeleteBatch lazily tombstones many docIds.
func (v *VectorIndex) DeleteBatch(docIDs []uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("store: vector index is closed")
	}
	for _, id := range docIDs {
		delete(v.live, id)
	}
	return nil
}

// Search returns up to k nearest neighbors to query, filtered to live
// (non-tombstoned) docIds. Because tombstoned nodes still occupy graph
// slots, k is overfetched internally and the result re-trimmed so
// callers still get up to k live hits when enough exist. ef, when
// positive, temporarily overrides the graph's configured EfSearch for
// the duration of this call — callers must already hold exclusive
// access to the index (pkg/hybrid serializes every operation on one
// lock) since coder/hnsw's graph has no per-call ef argument.
func (v *VectorIndex) Search(query []float32, k, ef int) ([]VectorHit, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, fmt.Errorf("store: vector index is closed")
	}
	if len(query) != v.config.Dimension {
		return nil, DimensionMismatchError{Expected: v.config.Dimension, Got: len(query)}
	}
	if v.graph.Len() == 0 || len(v.live) == 0 {
		return []VectorHit{}, nil
	}

	if ef > 0 {
		prev := v.graph.EfSearch
		v.graph.EfSearch = ef
		defer func() { v.graph.EfSearch = prev }()
	}

	overfetch := k
	if orphanRatio := v.graph.Len() - len(v.live); orphanRatio > 0 {
		overfetch = k + orphanRatio
	}
	if overfetch > v.graph.Len() {
		overfetch = v.graph.Len()
	}

	nodes := v.graph.Search(query, overfetch)
	hits := make([]VectorHit, 0, k)
	for _, n := range nodes {
		if _, ok := v.live[n.Key]; !ok {
			continue
		}
		hits = append(hits, VectorHit{DocID: n.Key, Distance: v.graph.Distance(query, n.Value)})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Len returns the number of live (non-tombstoned) vectors.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.live)
}

// Get returns the stored vector for docID, if live.
func (v *VectorIndex) Get(docID uint64) ([]float32, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	vec, ok := v.live[docID]
	return vec, ok
}

// Compact rebuilds the graph from scratch containing only live
// vectors, reclaiming space occupied by tombstoned nodes. This is the
// only way to actually remove a deleted vector's footprint, since
// Delete never calls the graph's own delete.
func (v *VectorIndex) Compact() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("store: vector index is closed")
	}

	df, err := distanceFunc(v.config.Distance)
	if err != nil {
		return err
	}
	fresh := hnsw.NewGraph[uint64]()
	fresh.Distance = df
	fresh.M = v.config.M
	fresh.EfSearch = v.config.EfSearch
	fresh.Ml = 0.25

	for docID, vec := range v.live {
		fresh.Add(hnsw.MakeNode(docID, vec))
	}
	v.graph = fresh
	return nil
}

// Save persists the graph and live-set to <path>.graph / <path>.data
// via atomic temp-file-then-rename writes.
func (v *VectorIndex) Save(path string) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return fmt.Errorf("store: vector index is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create directory: %w", err)
	}

	graphPath := path + ".graph"
	if err := atomicWrite(graphPath, func(f *os.File) error {
		return v.graph.Export(f)
	}); err != nil {
		return fmt.Errorf("store: save graph: %w", err)
	}

	dataPath := path + ".data"
	if err := atomicWrite(dataPath, func(f *os.File) error {
		return gobEncodeLive(f, v.live, v.config)
	}); err != nil {
		return fmt.Errorf("store: save live set: %w", err)
	}

	return nil
}

// Load restores the graph and live-set previously written by Save.
func (v *VectorIndex) Load(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("store: vector index is closed")
	}

	dataPath := path + ".data"
	f, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("store: open live set: %w", err)
	}
	live, cfg, err := gobDecodeLive(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("store: decode live set: %w", err)
	}

	df, err := distanceFunc(cfg.Distance)
	if err != nil {
		return err
	}
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = df
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	graphPath := path + ".graph"
	gf, err := os.Open(graphPath)
	if err != nil {
		return fmt.Errorf("store: open graph: %w", err)
	}
	defer gf.Close()
	if err := graph.Import(bufio.NewReader(gf)); err != nil {
		return fmt.Errorf("store: import graph: %w", err)
	}

	v.graph = graph
	v.config = cfg
	v.live = live
	return nil
}

// Clear resets the index to empty in memory. It does not touch any
// previously persisted files — those are only overwritten on the next
// Save, matching the facade's deferred on-disk cleanup contract.
func (v *VectorIndex) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("store: vector index is closed")
	}
	df, err := distanceFunc(v.config.Distance)
	if err != nil {
		return err
	}
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = df
	graph.M = v.config.M
	graph.EfSearch = v.config.EfSearch
	graph.Ml = 0.25

	v.graph = graph
	v.live = make(map[uint64][]float32)
	return nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	v.graph = nil
	return nil
}

// DimensionMismatchError is returned whenever a vector's length
// doesn't match the index's configured dimension.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e DimensionMismatchError) Error() string {
	return fmt.Sprintf("store: dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
