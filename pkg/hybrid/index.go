// Package hybrid is the public facade: a generic Index[D] that fuses
// a lexical (BM25) engine and a vector (HNSW) engine behind a single
// lock, combining their results with Reciprocal Rank Fusion.
package hybrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/hybridsearch/internal/dsl"
	"github.com/Aman-CERP/hybridsearch/internal/fusion"
	"github.com/Aman-CERP/hybridsearch/internal/metadata"
	"github.com/Aman-CERP/hybridsearch/internal/schema"
	"github.com/Aman-CERP/hybridsearch/internal/store"
)

const (
	lexicalDirName             = "bleve"
	vectorFileBase             = "hnsw"
	getCacheSize               = 4096
	defaultOverfetchMultiplier = 3
)

// Hit is a single search result: the fused/ranked score, the internal
// docId, and the fully decoded document.
type Hit[D any] struct {
	DocID uint64
	Score float64
	Doc   D
}

// Info summarizes an index's configuration and size, the payload for
// an administrative "info" command.
type Info struct {
	Dir         string
	Fingerprint string
	Dimension   int
	Distance    store.Distance
	DocCount    uint64
	VectorCount int
}

// Index is the hybrid search facade for documents of type D. All
// public methods serialize on a single mutex: Index is not a
// multi-writer store, and concurrent readers are only achieved
// internally (the two legs of SearchHybrid) where it cannot change
// the result a caller observes.
type Index[D any] struct {
	mu sync.Mutex

	dir    string
	spec   schema.Spec[D]
	idName string
	cfg    Config

	lexical *store.LexicalIndex
	vector  *store.VectorIndex
	lock    *dirLock
	cache   *lru.Cache[uint64, D]

	meta   metadata.Meta
	logger *slog.Logger

	closed bool
}

func resolvePrimaryID[D any](spec schema.Spec[D]) (string, error) {
	ids := spec.IDFields()
	if len(ids) == 0 {
		return "", ErrMissingIDField
	}
	if spec.PrimaryID != "" {
		for _, f := range ids {
			if f.Name == spec.PrimaryID {
				return f.Name, nil
			}
		}
		return "", InvalidPrimaryIDFieldError{Field: spec.PrimaryID}
	}
	if len(ids) > 1 {
		names := make([]string, len(ids))
		for i, f := range ids {
			names[i] = f.Name
		}
		return "", AmbiguousIDFieldError{Candidates: names}
	}
	return ids[0].Name, nil
}

// Create initializes a brand new index at dir. It fails if dir
// already holds an index (ErrIndexAlreadyExists), if cfg doesn't
// validate, or if D's schema has no usable id field.
func Create[D any](dir string, spec schema.Spec[D], cfg Config) (*Index[D], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hybrid: invalid config: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("hybrid: invalid schema: %w", err)
	}
	idName, err := resolvePrimaryID(spec)
	if err != nil {
		return nil, err
	}
	if metadata.Exists(dir) {
		return nil, ErrIndexAlreadyExists
	}

	lock := newDirLock(dir)
	if err := lock.TryLock(); err != nil {
		return nil, err
	}

	lexical, err := store.OpenLexicalIndex(filepath.Join(dir, lexicalDirName), spec.Fields)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	vector, err := store.NewVectorIndex(cfg.vectorConfig())
	if err != nil {
		lexical.Close()
		lock.Unlock()
		return nil, err
	}
	cache, _ := lru.New[uint64, D](getCacheSize)

	m := metadata.Meta{
		Version:        metadata.CurrentVersion,
		Fingerprint:    spec.Fingerprint(),
		Dimension:      cfg.Dimension,
		Distance:       string(cfg.Distance),
		M:              cfg.M,
		EfSearch:       cfg.EfSearch,
		RRFK:           cfg.RRFK,
		NextDocID:      0,
		PrimaryIDField: idName,
	}
	if err := metadata.Save(dir, m); err != nil {
		lexical.Close()
		vector.Close()
		lock.Unlock()
		return nil, fmt.Errorf("hybrid: save initial metadata: %w", err)
	}

	return &Index[D]{
		dir: dir, spec: spec, idName: idName, cfg: cfg,
		lexical: lexical, vector: vector, lock: lock, cache: cache,
		meta: m, logger: slog.Default().With(slog.String("component", "hybrid")),
	}, nil
}

// Load opens a previously created index at dir. primaryIDField
// overrides the primary id field recorded in the index's metadata at
// Create time; pass "" to use the persisted value. A non-empty
// override must name one of D's declared id fields.
// It fails if the directory has no metadata sidecar
// (ErrMetadataMissing), if it's corrupt, or if its schema fingerprint
// doesn't match D's current schema (ErrMetadataCorrupt).
func Load[D any](dir string, primaryIDField string, spec schema.Spec[D]) (*Index[D], error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("hybrid: invalid schema: %w", err)
	}

	m, err := metadata.Load(dir)
	if err != nil {
		if errors.Is(err, metadata.ErrMissing) {
			return nil, ErrMetadataMissing
		}
		return nil, fmt.Errorf("%w: %v", ErrMetadataCorrupt, err)
	}
	if m.Fingerprint != spec.Fingerprint() {
		return nil, fmt.Errorf("%w: schema fingerprint %s does not match persisted %s", ErrMetadataCorrupt, spec.Fingerprint(), m.Fingerprint)
	}

	idName := primaryIDField
	if idName == "" {
		idName = m.PrimaryIDField
	}
	if idName == "" {
		// Metadata predates PrimaryIDField (or was never set); fall back
		// to resolving it from D's schema the way Create would have.
		idName, err = resolvePrimaryID(spec)
		if err != nil {
			return nil, err
		}
	} else {
		found := false
		for _, f := range spec.IDFields() {
			if f.Name == idName {
				found = true
				break
			}
		}
		if !found {
			return nil, InvalidPrimaryIDFieldError{Field: idName}
		}
	}

	lock := newDirLock(dir)
	if err := lock.TryLock(); err != nil {
		return nil, err
	}

	lexical, err := store.OpenLexicalIndex(filepath.Join(dir, lexicalDirName), spec.Fields)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	vCfg := store.VectorConfig{Dimension: m.Dimension, Distance: store.Distance(m.Distance), M: m.M, EfSearch: m.EfSearch}
	vector, err := store.NewVectorIndex(vCfg)
	if err != nil {
		lexical.Close()
		lock.Unlock()
		return nil, err
	}
	vectorPath := filepath.Join(dir, vectorFileBase)
	if err := vector.Load(vectorPath); err != nil {
		lexical.Close()
		vector.Close()
		lock.Unlock()
		return nil, fmt.Errorf("hybrid: load vector index: %w", err)
	}

	cache, _ := lru.New[uint64, D](getCacheSize)

	cfg := Config{Dimension: m.Dimension, Distance: store.Distance(m.Distance), M: m.M, EfSearch: m.EfSearch, RRFK: m.RRFK}

	return &Index[D]{
		dir: dir, spec: spec, idName: idName, cfg: cfg,
		lexical: lexical, vector: vector, lock: lock, cache: cache,
		meta: m, logger: slog.Default().With(slog.String("component", "hybrid")),
	}, nil
}

// Close flushes nothing by itself (call Commit first if needed),
// releases the engines and the directory lock. Safe to call more than
// once.
func (idx *Index[D]) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true

	var merr *multierror.Error
	if err := idx.lexical.Close(); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := idx.vector.Close(); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := idx.lock.Unlock(); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

func (idx *Index[D]) checkOpen() error {
	if idx.closed {
		return ErrClosed
	}
	return nil
}

func idValueString(fields map[string]any, idName string) (string, error) {
	v, ok := fields[idName]
	if !ok {
		return "", fmt.Errorf("hybrid: encoded document has no value for id field %q", idName)
	}
	return fmt.Sprintf("%v", v), nil
}

func (idx *Index[D]) lookupDocID(ctx context.Context, idField, idValue string) (uint64, bool, error) {
	hits, err := idx.lexical.SearchDSL(ctx, dsl.Term(idField, idValue), 1, 0)
	if err != nil {
		return 0, false, err
	}
	if len(hits) == 0 {
		return 0, false, nil
	}
	return hits[0].DocID, true, nil
}

// Add inserts doc, always allocating a fresh docId — even when a
// document with the same primary id value was already indexed, so two
// successive calls never collide (spec.md §5's docId ordering
// guarantee: the second call's docId is always the first's + 1).
// Re-adding the same external id therefore leaves both entries
// indexed side by side rather than replacing the earlier one.
func (idx *Index[D]) Add(ctx context.Context, doc D, vec []float32) (uint64, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return 0, err
	}
	return idx.addLocked(ctx, doc, vec)
}

func (idx *Index[D]) addLocked(ctx context.Context, doc D, vec []float32) (uint64, error) {
	fields, err := idx.spec.Encode(doc)
	if err != nil {
		return 0, fmt.Errorf("hybrid: encode document: %w", err)
	}
	if _, err := idValueString(fields, idx.idName); err != nil {
		return 0, err
	}

	docID := idx.meta.NextDocID
	idx.meta.NextDocID++

	// Two-phase insert: vector first, lexical second. A lexical
	// failure after a successful vector insert is compensated by
	// removing the vector so the two engines don't disagree about
	// which docIds exist.
	if err := idx.vector.Insert(docID, vec); err != nil {
		var dim store.DimensionMismatchError
		if errors.As(err, &dim) {
			return 0, DimensionMismatchError{Expected: dim.Expected, Got: dim.Got}
		}
		return 0, fmt.Errorf("hybrid: insert vector: %w", err)
	}
	if err := idx.lexical.IndexDoc(docID, fields); err != nil {
		_ = idx.vector.Delete(docID)
		return 0, fmt.Errorf("hybrid: index document: %w", err)
	}

	idx.cache.Add(docID, doc)
	return docID, nil
}

// batchItem pairs one AddBatch input with its outcome.
type batchItem struct {
	docID uint64
	err   error
}

// AddBatch inserts many documents, each under a freshly allocated
// docId (like Add, it never replaces an existing document). Per spec, a failure on
// one item does not abort the rest: every item is attempted, and the
// returned error (if any) aggregates every failure via multierror.
// nextDocId is not rewound for items that failed after a fresh id was
// allocated, so docIds may have gaps.
func (idx *Index[D]) AddBatch(ctx context.Context, docs []D, vecs [][]float32) ([]uint64, error) {
	if len(docs) != len(vecs) {
		return nil, fmt.Errorf("hybrid: docs and vecs length mismatch: %d vs %d", len(docs), len(vecs))
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return nil, err
	}

	results := make([]batchItem, len(docs))
	var merr *multierror.Error
	for i := range docs {
		docID, err := idx.addLocked(ctx, docs[i], vecs[i])
		results[i] = batchItem{docID: docID, err: err}
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("item %d: %w", i, err))
		}
	}

	ids := make([]uint64, len(results))
	for i, r := range results {
		ids[i] = r.docID
	}
	return ids, merr.ErrorOrNil()
}

// Delete removes the document whose primary id equals idValue,
// immediately persisting the vector index and metadata sidecar
// (spec.md §4.3's delete(docId, persist=true) default).
func (idx *Index[D]) Delete(ctx context.Context, idValue string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return err
	}
	return idx.deleteLocked(ctx, idx.idName, idValue, true)
}

// DeleteField removes the document whose declared id field idField
// equals idValue — the field-qualified delete overload (spec.md
// §4.3's delete(idField, idValue, persist)). idField need not be the
// primary id field, only one of D's declared RoleID fields. When
// persist is false, the deletion is visible to subsequent Get/Search
// calls but not yet durable; call Commit to persist it later.
func (idx *Index[D]) DeleteField(ctx context.Context, idField, idValue string, persist bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return err
	}
	if err := idx.checkIDField(idField); err != nil {
		return err
	}
	return idx.deleteLocked(ctx, idField, idValue, persist)
}

func (idx *Index[D]) checkIDField(idField string) error {
	f, ok := idx.spec.Field(idField)
	if !ok || f.Role != schema.RoleID {
		return InvalidPrimaryIDFieldError{Field: idField}
	}
	return nil
}

func (idx *Index[D]) deleteLocked(ctx context.Context, idField, idValue string, persist bool) error {
	docID, found, err := idx.lookupDocID(ctx, idField, idValue)
	if err != nil {
		return fmt.Errorf("hybrid: lookup document: %w", err)
	}
	if !found {
		return ErrMissingDocID
	}
	var merr *multierror.Error
	if err := idx.lexical.DeleteDoc(docID); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := idx.vector.Delete(docID); err != nil {
		merr = multierror.Append(merr, err)
	}
	idx.cache.Remove(docID)
	if persist {
		if err := idx.persistLocked(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// persistLocked saves the vector index and refreshed metadata sidecar.
// Callers must already hold idx.mu.
func (idx *Index[D]) persistLocked() error {
	if err := idx.vector.Save(filepath.Join(idx.dir, vectorFileBase)); err != nil {
		return fmt.Errorf("hybrid: persist vector index: %w", err)
	}
	count, err := idx.lexical.DocsCount()
	if err != nil {
		return fmt.Errorf("hybrid: count documents: %w", err)
	}
	idx.meta.DocCount = int(count)
	if err := metadata.Save(idx.dir, idx.meta); err != nil {
		return fmt.Errorf("hybrid: persist metadata: %w", err)
	}
	return nil
}

// DeleteBatch removes many documents by primary id, persisting once
// after the whole batch rather than after each item. Every id is
// attempted; failures are aggregated.
func (idx *Index[D]) DeleteBatch(ctx context.Context, idValues []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return err
	}
	var merr *multierror.Error
	var any bool
	for _, id := range idValues {
		if err := idx.deleteLocked(ctx, idx.idName, id, false); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("id %q: %w", id, err))
			continue
		}
		any = true
	}
	if any {
		if err := idx.persistLocked(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func (idx *Index[D]) decodeDocID(docID uint64) (D, error) {
	if doc, ok := idx.cache.Get(docID); ok {
		return doc, nil
	}
	var zero D
	fields, ok, err := idx.lexical.GetDoc(docID)
	if err != nil {
		return zero, fmt.Errorf("hybrid: fetch document %d: %w", docID, err)
	}
	if !ok {
		return zero, ErrMissingDocID
	}
	doc, err := idx.spec.Decode(fields)
	if err != nil {
		return zero, fmt.Errorf("hybrid: decode document %d: %w", docID, err)
	}
	idx.cache.Add(docID, doc)
	return doc, nil
}

// Get retrieves the document whose primary id equals idValue.
func (idx *Index[D]) Get(ctx context.Context, idValue string) (D, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var zero D
	if err := idx.checkOpen(); err != nil {
		return zero, err
	}
	docID, found, err := idx.lookupDocID(ctx, idx.idName, idValue)
	if err != nil {
		return zero, fmt.Errorf("hybrid: lookup document: %w", err)
	}
	if !found {
		return zero, ErrMissingDocID
	}
	return idx.decodeDocID(docID)
}

// GetField retrieves the document whose declared id field idField
// equals idValue — the field-qualified get overload (spec.md §4.3).
// idField need not be the primary id field, only one of D's declared
// RoleID fields.
func (idx *Index[D]) GetField(ctx context.Context, idField, idValue string) (D, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var zero D
	if err := idx.checkOpen(); err != nil {
		return zero, err
	}
	if err := idx.checkIDField(idField); err != nil {
		return zero, err
	}
	docID, found, err := idx.lookupDocID(ctx, idField, idValue)
	if err != nil {
		return zero, fmt.Errorf("hybrid: lookup document: %w", err)
	}
	if !found {
		return zero, ErrMissingDocID
	}
	return idx.decodeDocID(docID)
}

// GetBatch retrieves many documents by primary id. Missing ids are
// simply absent from the result map rather than causing an error.
func (idx *Index[D]) GetBatch(ctx context.Context, idValues []string) (map[string]D, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return nil, err
	}
	out := make(map[string]D, len(idValues))
	var merr *multierror.Error
	for _, idValue := range idValues {
		docID, found, err := idx.lookupDocID(ctx, idx.idName, idValue)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("id %q: %w", idValue, err))
			continue
		}
		if !found {
			continue
		}
		doc, err := idx.decodeDocID(docID)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("id %q: %w", idValue, err))
			continue
		}
		out[idValue] = doc
	}
	return out, merr.ErrorOrNil()
}

// Commit persists the vector index and refreshes the metadata
// sidecar's document count. The lexical engine is always durable as
// of its own last write, so Commit's only real work is the vector
// side and the sidecar.
func (idx *Index[D]) Commit(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return err
	}

	traceID := uuid.New().String()
	count, err := idx.lexical.DocsCount()
	if err != nil {
		return fmt.Errorf("hybrid: commit: count documents: %w", err)
	}
	idx.meta.DocCount = int(count)

	if err := idx.vector.Save(filepath.Join(idx.dir, vectorFileBase)); err != nil {
		return fmt.Errorf("hybrid: commit: save vector index: %w", err)
	}
	if err := metadata.Save(idx.dir, idx.meta); err != nil {
		return fmt.Errorf("hybrid: commit: save metadata: %w", err)
	}

	idx.logger.Info("commit", slog.String("trace_id", traceID), slog.Int("doc_count", int(count)))
	return nil
}

// SearchText runs a lexical query ANDed with filter (pass dsl.All() for
// no filter) and returns up to limit hits after skipping offset,
// ordered by descending BM25 score.
func (idx *Index[D]) SearchText(ctx context.Context, q, filter dsl.Query, limit, offset int) ([]Hit[D], error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return nil, err
	}
	effective := dsl.ApplyFilter(q, filter)
	hits, err := idx.lexical.SearchDSL(ctx, effective, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("hybrid: search text: %w", err)
	}
	return idx.decodeHits(hits, func(h store.LexicalHit) float64 { return h.Score })
}

// resolveEf picks the effective HNSW ef parameter for one query: the
// caller's explicit override when positive, otherwise the index's
// configured default.
func (idx *Index[D]) resolveEf(efSearch int) int {
	if efSearch > 0 {
		return efSearch
	}
	return idx.cfg.EfSearch
}

// resolveOverfetchMultiplier picks the multiplier used to fetch extra
// ANN candidates so that intersecting them with a lexical filter still
// leaves at least limit+offset survivors when possible.
func resolveOverfetchMultiplier(overfetchMultiplier int) int {
	if overfetchMultiplier > 0 {
		return overfetchMultiplier
	}
	return defaultOverfetchMultiplier
}

// SearchVector runs an ANN query and returns up to limit hits after
// skipping offset. filter (pass dsl.All() for no filter) is evaluated
// against the lexical engine and intersected with the ANN candidate
// set per spec.md §4.3 step 4: the HNSW graph has no native filter
// predicate, so filtering works by overfetching k*overfetchMultiplier
// candidates and discarding any whose docId the lexical filter query
// does not also match. When <= 0, efSearch falls back to the index's
// configured default and overfetchMultiplier to
// defaultOverfetchMultiplier (3). Score is always
// score = 1/(1+distance), uniformly across distance metrics.
func (idx *Index[D]) SearchVector(ctx context.Context, vec []float32, filter dsl.Query, limit, offset, efSearch, overfetchMultiplier int) ([]Hit[D], error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return nil, err
	}

	desired := limit + offset
	ef := idx.resolveEf(efSearch)
	hasFilter := !dsl.IsAll(filter)

	fetchLimit := desired
	if hasFilter {
		fetchLimit = desired * resolveOverfetchMultiplier(overfetchMultiplier)
	}

	raw, err := idx.vector.Search(vec, fetchLimit, ef)
	if err != nil {
		var dim store.DimensionMismatchError
		if errors.As(err, &dim) {
			return nil, DimensionMismatchError{Expected: dim.Expected, Got: dim.Got}
		}
		return nil, fmt.Errorf("hybrid: search vector: %w", err)
	}

	if hasFilter && len(raw) > 0 {
		raw, err = idx.intersectWithFilter(ctx, raw, filter)
		if err != nil {
			return nil, fmt.Errorf("hybrid: apply vector filter: %w", err)
		}
	}

	if offset >= len(raw) {
		return nil, nil
	}
	raw = raw[offset:]
	if len(raw) > limit {
		raw = raw[:limit]
	}

	out := make([]Hit[D], 0, len(raw))
	for _, r := range raw {
		doc, err := idx.decodeDocID(r.DocID)
		if err != nil {
			continue
		}
		out = append(out, Hit[D]{DocID: r.DocID, Score: 1.0 / (1.0 + float64(r.Distance)), Doc: doc})
	}
	return out, nil
}

// intersectWithFilter keeps only the candidates whose docId the
// lexical engine also matches under filter, preserving candidate
// order (== ascending distance).
func (idx *Index[D]) intersectWithFilter(ctx context.Context, candidates []store.VectorHit, filter dsl.Query) ([]store.VectorHit, error) {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = fmt.Sprintf("%d", c.DocID)
	}
	scoped := dsl.Boolean([]dsl.Query{filter, dsl.TermSet(store.DocIDField, ids)}, nil, nil)
	matched, err := idx.lexical.SearchDSL(ctx, scoped, len(candidates), 0)
	if err != nil {
		return nil, err
	}
	allowed := make(map[uint64]struct{}, len(matched))
	for _, m := range matched {
		allowed[m.DocID] = struct{}{}
	}
	out := make([]store.VectorHit, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := allowed[c.DocID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// SearchHybrid fuses a lexical query and an ANN query with weighted
// RRF. filter (pass dsl.All() for no filter) is applied to the
// lexical leg via dsl.ApplyFilter and to the vector leg via the same
// candidate-intersection logic SearchVector uses. The two legs are
// fetched concurrently — purely a latency optimization, since both are
// read-only and run under the same lock a caller observes as atomic.
// When <= 0, efSearch and rrfK fall back to the index's configured
// defaults and overfetchMultiplier to defaultOverfetchMultiplier (3).
func (idx *Index[D]) SearchHybrid(ctx context.Context, q, filter dsl.Query, vec []float32, limit, offset int, wText, wVec float64, efSearch, rrfK, overfetchMultiplier int) ([]Hit[D], error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return nil, err
	}

	mult := resolveOverfetchMultiplier(overfetchMultiplier)
	overfetch := (limit + offset) * mult
	if overfetch < limit+offset {
		overfetch = limit + offset
	}
	ef := idx.resolveEf(efSearch)
	effectiveText := dsl.ApplyFilter(q, filter)
	hasFilter := !dsl.IsAll(filter)

	var textHits []store.LexicalHit
	var vecHits []store.VectorHit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		textHits, err = idx.lexical.SearchDSL(gctx, effectiveText, overfetch, 0)
		return err
	})
	g.Go(func() error {
		var err error
		vecHits, err = idx.vector.Search(vec, overfetch, ef)
		return err
	})
	if err := g.Wait(); err != nil {
		var dim store.DimensionMismatchError
		if errors.As(err, &dim) {
			return nil, DimensionMismatchError{Expected: dim.Expected, Got: dim.Got}
		}
		return nil, fmt.Errorf("hybrid: search hybrid: %w", err)
	}

	if hasFilter && len(vecHits) > 0 {
		var err error
		vecHits, err = idx.intersectWithFilter(ctx, vecHits, filter)
		if err != nil {
			return nil, fmt.Errorf("hybrid: apply vector filter: %w", err)
		}
	}

	textIDs := make([]uint64, len(textHits))
	for i, h := range textHits {
		textIDs[i] = h.DocID
	}
	vecIDs := make([]uint64, len(vecHits))
	for i, h := range vecHits {
		vecIDs[i] = h.DocID
	}

	k := rrfK
	if k <= 0 {
		k = idx.cfg.RRFK
	}
	ranked := fusion.Merge(textIDs, vecIDs, wText, wVec, k)
	if offset >= len(ranked) {
		return nil, nil
	}
	ranked = ranked[offset:]
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]Hit[D], 0, len(ranked))
	for _, r := range ranked {
		doc, err := idx.decodeDocID(r.DocID)
		if err != nil {
			continue
		}
		out = append(out, Hit[D]{DocID: r.DocID, Score: r.Score, Doc: doc})
	}
	return out, nil
}

func (idx *Index[D]) decodeHits(hits []store.LexicalHit, scoreOf func(store.LexicalHit) float64) ([]Hit[D], error) {
	out := make([]Hit[D], 0, len(hits))
	for _, h := range hits {
		doc, err := idx.decodeDocID(h.DocID)
		if err != nil {
			continue
		}
		out = append(out, Hit[D]{DocID: h.DocID, Score: scoreOf(h), Doc: doc})
	}
	return out, nil
}

// Compact reclaims space occupied by lazily tombstoned vectors by
// rebuilding the ANN graph from scratch with only live vectors, then
// saves the vector index and the metadata sidecar.
func (idx *Index[D]) Compact(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return err
	}
	if err := idx.vector.Compact(); err != nil {
		return fmt.Errorf("hybrid: compact: %w", err)
	}
	if err := idx.persistLocked(); err != nil {
		return fmt.Errorf("hybrid: compact: %w", err)
	}
	return nil
}

// Clear removes every document from both engines. On-disk vector
// files are left untouched until the next Commit/Compact overwrites
// them — an accepted, documented simplification (see DESIGN.md).
func (idx *Index[D]) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return err
	}
	var merr *multierror.Error
	if err := idx.lexical.Clear(); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := idx.vector.Clear(); err != nil {
		merr = multierror.Append(merr, err)
	}
	idx.cache.Purge()
	idx.meta.DocCount = 0
	return merr.ErrorOrNil()
}

// Info reports the index's current configuration and size.
func (idx *Index[D]) Info(ctx context.Context) (Info, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.checkOpen(); err != nil {
		return Info{}, err
	}
	count, err := idx.lexical.DocsCount()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Dir:         idx.dir,
		Fingerprint: idx.meta.Fingerprint,
		Dimension:   idx.cfg.Dimension,
		Distance:    idx.cfg.Distance,
		DocCount:    count,
		VectorCount: idx.vector.Len(),
	}, nil
}
