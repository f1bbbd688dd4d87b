// Package dsl builds filter and query trees for the lexical engine and
// (de)serializes them to JSON. It is a thin builder over bleve's own
// query package: the actual parsing and matching logic belongs to
// bleve, not to this package.
package dsl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Query wraps a bleve query tree so callers outside internal/store
// never need to import bleve directly.
type Query struct {
	q query.Query
}

// Unwrap returns the underlying bleve query for use by internal/store.
func (q Query) Unwrap() query.Query {
	return q.q
}

// Term builds an exact-match query against a single not-analyzed
// field, such as a facet or the reserved docId field.
func Term(field, value string) Query {
	tq := bleve.NewTermQuery(value)
	tq.SetField(field)
	return Query{q: tq}
}

// TermSet builds an OR of Term across the given values — "field is
// one of values".
func TermSet(field string, values []string) Query {
	if len(values) == 0 {
		return Query{q: bleve.NewMatchNoneQuery()}
	}
	disjuncts := make([]query.Query, 0, len(values))
	for _, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		disjuncts = append(disjuncts, tq)
	}
	return Query{q: bleve.NewDisjunctionQuery(disjuncts...)}
}

// Match builds an analyzed match query against a Text-role field —
// ordinary BM25-scored keyword search.
func Match(field, text string) Query {
	mq := bleve.NewMatchQuery(text)
	mq.SetField(field)
	return Query{q: mq}
}

// Boolean composes must/should/mustNot clauses, mirroring bleve's own
// BooleanQuery shape.
func Boolean(must, should, mustNot []Query) Query {
	bq := bleve.NewBooleanQuery()
	if len(must) > 0 {
		bq.AddMust(unwrapAll(must)...)
	}
	if len(should) > 0 {
		bq.AddShould(unwrapAll(should)...)
	}
	if len(mustNot) > 0 {
		bq.AddMustNot(unwrapAll(mustNot)...)
	}
	return Query{q: bq}
}

// QueryString parses bleve's own query-string mini-language
// ("title:foo AND views:>10"). Out of scope for this package to
// implement a parser of its own — this delegates entirely to bleve's.
func QueryString(expr string) Query {
	return Query{q: bleve.NewQueryStringQuery(expr)}
}

// All matches every document — used for filter-less hybrid search and
// as the identity element when composing filters.
func All() Query {
	return Query{q: bleve.NewMatchAllQuery()}
}

// None matches no document.
func None() Query {
	return Query{q: bleve.NewMatchNoneQuery()}
}

// ComposeFilter builds the effective filter for a search: MATCH_ALL
// when no filters are given, otherwise a Boolean AND of every filter.
func ComposeFilter(filters []Query) Query {
	if len(filters) == 0 {
		return All()
	}
	if len(filters) == 1 {
		return filters[0]
	}
	return Boolean(filters, nil, nil)
}

// isMatchAll reports whether q is the identity MATCH_ALL query.
func isMatchAll(q Query) bool {
	_, ok := q.q.(*query.MatchAllQuery)
	return ok
}

// IsAll reports whether q is the identity MATCH_ALL query built by
// All() — the "no filter given" sentinel callers outside this package
// test for before deciding whether a filter needs applying.
func IsAll(q Query) bool {
	return isMatchAll(q)
}

// ApplyFilter composes a base query with a filter per the Query
// Translator's filter composition rule: if base is MATCH_ALL, the
// filter alone is the effective query; otherwise the two are ANDed.
// Callers that have no real filter pass All() for filter, which is the
// identity element — composing with it never narrows the base query.
func ApplyFilter(base, filter Query) Query {
	if isMatchAll(base) {
		return filter
	}
	if isMatchAll(filter) {
		return base
	}
	return Boolean([]Query{base, filter}, nil, nil)
}

// FuzzyField configures fuzzy (edit-distance) matching for one default
// field of a HybridTextQuery.
type FuzzyField struct {
	Field    string
	Prefix   bool
	Distance uint8
	// TransposeCostOne is part of the Query Translator's input contract
	// but bleve's fuzzy matcher (search/query.FuzzyQuery) has no
	// transposition-cost knob, so it is accepted and otherwise ignored.
	TransposeCostOne bool
}

// HybridTextQuery is the Query Translator's input (spec.md §4.4): a raw
// query string, the default fields searched when the string carries no
// field qualifier, and optional per-field fuzzy-matching specs.
type HybridTextQuery struct {
	RawQuery      string
	DefaultFields []string
	FuzzyFields   []FuzzyField
}

// Build translates a HybridTextQuery into a Query following the
// algorithm in spec.md §4.4:
//   - Trim the query string; an empty result produces MATCH_ALL.
//   - DefaultFields wins if set; otherwise fallbackFields is used (the
//     caller passes the text fields of D, minus its id fields).
//   - Emits a disjunction of per-field match queries over the winning
//     field list (bleve's query-string mini-language has no notion of
//     a caller-supplied default-field list, only its own "_all"
//     composite), applying any configured FuzzyField's Distance/Prefix.
//     Falls back to bleve's own QueryString parser when no fields are
//     known at all.
func (q HybridTextQuery) Build(fallbackFields []string) Query {
	raw := strings.TrimSpace(q.RawQuery)
	if raw == "" {
		return All()
	}

	fields := q.DefaultFields
	if len(fields) == 0 {
		fields = fallbackFields
	}
	if len(fields) == 0 {
		return QueryString(raw)
	}

	fuzzyByField := make(map[string]FuzzyField, len(q.FuzzyFields))
	for _, ff := range q.FuzzyFields {
		fuzzyByField[ff.Field] = ff
	}

	disjuncts := make([]query.Query, 0, len(fields))
	for _, f := range fields {
		mq := bleve.NewMatchQuery(raw)
		mq.SetField(f)
		if ff, ok := fuzzyByField[f]; ok {
			mq.Fuzziness = int(ff.Distance)
			if ff.Prefix {
				mq.Prefix = 1
			}
		}
		disjuncts = append(disjuncts, mq)
	}
	return Query{q: bleve.NewDisjunctionQuery(disjuncts...)}
}

// ToJSON serializes the query tree using bleve's own MarshalJSON.
func (q Query) ToJSON() ([]byte, error) {
	return json.Marshal(q.q)
}

// FromJSON parses a previously serialized query tree via bleve's
// generic query.ParseQuery, which dispatches on shape.
func FromJSON(data []byte) (Query, error) {
	bq, err := query.ParseQuery(data)
	if err != nil {
		return Query{}, fmt.Errorf("dsl: parse query: %w", err)
	}
	return Query{q: bq}, nil
}

func unwrapAll(qs []Query) []query.Query {
	out := make([]query.Query, len(qs))
	for i, q := range qs {
		out[i] = q.q
	}
	return out
}
