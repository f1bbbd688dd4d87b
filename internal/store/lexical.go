// Package store implements the two physical index engines a
// pkg/hybrid.Index composes: a bleve-backed lexical (BM25) engine and
// a coder/hnsw-backed vector (ANN) engine. Both engines are keyed
// solely by the internal uint64 docId; the mapping from a caller's own
// document type to that docId lives one layer up, in pkg/hybrid.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/hybridsearch/internal/dsl"
	"github.com/Aman-CERP/hybridsearch/internal/schema"
)

// DocIDField is the reserved, not-analyzed keyword field every
// document carries in the lexical index, and the sole join key
// between the lexical and vector engines. It is never surfaced as a
// schema.Field — callers cannot name a field this.
const DocIDField = "__doc_id"

// LexicalHit is a single lexical search result.
type LexicalHit struct {
	DocID uint64
	Score float64
}

// LexicalIndex wraps a bleve index whose mapping is derived from a
// schema.Spec: one sub-field per declared Field, plus the reserved
// DocIDField. Stored field values round-trip through GetDoc(s) so the
// caller can reconstruct D without consulting a second store.
type LexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// BuildMapping derives a bleve IndexMapping from a field list. Role to
// bleve field-mapping rules:
//
//	Text          -> analyzed text field (BM25 scored)
//	Bool          -> bleve boolean field
//	U64/I64/F64   -> bleve numeric field (stored as float64 internally)
//	Date          -> bleve datetime field
//	Bytes         -> not-analyzed keyword (base64-ish exact match only)
//	Facet         -> not-analyzed keyword + bleve facet-eligible
//	ID            -> not-analyzed keyword (exact match only, never scored)
func BuildMapping(fields []schema.Field) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	for _, f := range fields {
		switch f.Role {
		case schema.RoleText:
			fm := bleve.NewTextFieldMapping()
			doc.AddFieldMappingsAt(f.Name, fm)
		case schema.RoleBool:
			fm := bleve.NewBooleanFieldMapping()
			doc.AddFieldMappingsAt(f.Name, fm)
		case schema.RoleU64, schema.RoleI64, schema.RoleF64:
			fm := bleve.NewNumericFieldMapping()
			doc.AddFieldMappingsAt(f.Name, fm)
		case schema.RoleDate:
			fm := bleve.NewDateTimeFieldMapping()
			doc.AddFieldMappingsAt(f.Name, fm)
		case schema.RoleBytes, schema.RoleFacet, schema.RoleID:
			fm := bleve.NewTextFieldMapping()
			fm.Analyzer = "keyword"
			fm.IncludeInAll = false
			doc.AddFieldMappingsAt(f.Name, fm)
		default:
			return nil, fmt.Errorf("store: unsupported role %q for field %q", f.Role, f.Name)
		}
	}

	docIDField := bleve.NewTextFieldMapping()
	docIDField.Analyzer = "keyword"
	docIDField.IncludeInAll = false
	doc.AddFieldMappingsAt(DocIDField, docIDField)

	im.DefaultMapping = doc
	return im, nil
}

// OpenLexicalIndex creates (if path doesn't exist) or opens (if it
// does) a bleve index at path using the mapping derived from fields.
// An empty path creates an in-memory index, used by tests.
func OpenLexicalIndex(path string, fields []schema.Field) (*LexicalIndex, error) {
	im, err := BuildMapping(fields)
	if err != nil {
		return nil, err
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("store: create directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, im)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("store: open lexical index: %w", err)
	}

	return &LexicalIndex{index: idx, path: path}, nil
}

func docIDKey(docID uint64) string {
	return strconv.FormatUint(docID, 10)
}

// IndexDoc upserts a single document's field map under docID.
func (l *LexicalIndex) IndexDoc(docID uint64, fields map[string]any) error {
	return l.IndexDocs(map[uint64]map[string]any{docID: fields})
}

// IndexDocs upserts many documents in a single batch.
func (l *LexicalIndex) IndexDocs(docs map[uint64]map[string]any) error {
	if len(docs) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("store: lexical index is closed")
	}

	batch := l.index.NewBatch()
	for docID, fields := range docs {
		body := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			body[k] = v
		}
		body[DocIDField] = docIDKey(docID)
		if err := batch.Index(docIDKey(docID), body); err != nil {
			return fmt.Errorf("store: index doc %d: %w", docID, err)
		}
	}
	return l.index.Batch(batch)
}

// DeleteDoc removes a document by its internal docId.
func (l *LexicalIndex) DeleteDoc(docID uint64) error {
	return l.DeleteDocs([]uint64{docID})
}

// DeleteDocs removes many documents by their internal docIds.
func (l *LexicalIndex) DeleteDocs(docIDs []uint64) error {
	if len(docIDs) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("store: lexical index is closed")
	}
	batch := l.index.NewBatch()
	for _, docID := range docIDs {
		batch.Delete(docIDKey(docID))
	}
	return l.index.Batch(batch)
}

// GetDoc retrieves the stored field map for a single docId.
func (l *LexicalIndex) GetDoc(docID uint64) (map[string]any, bool, error) {
	docs, err := l.GetDocs([]uint64{docID})
	if err != nil {
		return nil, false, err
	}
	fields, ok := docs[docID]
	return fields, ok, nil
}

// GetDocs retrieves stored field maps for many docIds in one round
// trip, via a TermSet query over the reserved docId field.
func (l *LexicalIndex) GetDocs(docIDs []uint64) (map[uint64]map[string]any, error) {
	out := make(map[uint64]map[string]any, len(docIDs))
	if len(docIDs) == 0 {
		return out, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, fmt.Errorf("store: lexical index is closed")
	}

	keys := make([]string, len(docIDs))
	keyToID := make(map[string]uint64, len(docIDs))
	for i, id := range docIDs {
		key := docIDKey(id)
		keys[i] = key
		keyToID[key] = id
	}

	q := dsl.TermSet(DocIDField, keys).Unwrap()
	req := bleve.NewSearchRequest(q)
	req.Size = len(keys)
	req.Fields = []string{"*"}

	res, err := l.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("store: get docs: %w", err)
	}
	for _, hit := range res.Hits {
		docID, ok := keyToID[hit.ID]
		if !ok {
			continue
		}
		fields := make(map[string]any, len(hit.Fields))
		for k, v := range hit.Fields {
			if k == DocIDField {
				continue
			}
			fields[k] = v
		}
		out[docID] = fields
	}
	return out, nil
}

// SearchDSL executes a dsl.Query (a term, boolean, or match query) and
// returns up to limit hits ordered by descending BM25 score, applying
// offset for pagination.
func (l *LexicalIndex) SearchDSL(ctx context.Context, q dsl.Query, limit, offset int) ([]LexicalHit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, fmt.Errorf("store: lexical index is closed")
	}

	req := bleve.NewSearchRequest(q.Unwrap())
	req.Size = limit
	req.From = offset
	req.Fields = nil

	res, err := l.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}

	hits := make([]LexicalHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		docID, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, LexicalHit{DocID: docID, Score: hit.Score})
	}
	return hits, nil
}

// DocsCount returns the number of live documents in the lexical index.
func (l *LexicalIndex) DocsCount() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, fmt.Errorf("store: lexical index is closed")
	}
	return l.index.DocCount()
}

// Commit flushes any buffered state. Bleve persists synchronously on
// every Batch call, so this is a no-op. pkg/hybrid's Index.Commit does
// not call it.
func (l *LexicalIndex) Commit() error {
	return nil
}

// Clear removes every document from the index, keeping its mapping.
func (l *LexicalIndex) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("store: lexical index is closed")
	}

	count, err := l.index.DocCount()
	if err != nil {
		return fmt.Errorf("store: clear: count docs: %w", err)
	}
	if count == 0 {
		return nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = nil
	res, err := l.index.Search(req)
	if err != nil {
		return fmt.Errorf("store: clear: list docs: %w", err)
	}
	batch := l.index.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	return l.index.Batch(batch)
}

// Close releases the underlying bleve index.
func (l *LexicalIndex) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.index.Close()
}
