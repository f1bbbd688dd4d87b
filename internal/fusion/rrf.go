// Package fusion merges two independently ranked result lists with
// Reciprocal Rank Fusion.
package fusion

import "sort"

// DefaultK is the RRF rank-damping constant used when callers don't
// supply their own. 60 is the value from the original RRF paper and
// matches this codebase's prior lexical+vector fusion stage.
const DefaultK = 60

// Ranked pairs a docId with its fused score, for callers that want the
// intermediate score alongside the final order.
type Ranked struct {
	DocID uint64
	Score float64
}

// Merge fuses two rank-ordered (best first) docId lists into a single
// rank-ordered list using weighted RRF:
//
//	score(d) = wText/(k+rankText(d)) + wVec/(k+rankVec(d))
//
// A docId present in only one list contributes only that list's term.
// Ties are broken by ascending docId, which makes merge results
// reproducible in tests independent of map iteration order.
func Merge(textRanked, vecRanked []uint64, wText, wVec float64, k int) []Ranked {
	if k <= 0 {
		k = DefaultK
	}
	scores := make(map[uint64]float64)
	order := make([]uint64, 0, len(textRanked)+len(vecRanked))

	add := func(docID uint64, rank int, weight float64) {
		if _, seen := scores[docID]; !seen {
			order = append(order, docID)
		}
		scores[docID] += weight / float64(k+rank)
	}

	for i, id := range textRanked {
		add(id, i+1, wText)
	}
	for i, id := range vecRanked {
		add(id, i+1, wVec)
	}

	out := make([]Ranked, 0, len(order))
	for _, id := range order {
		out = append(out, Ranked{DocID: id, Score: scores[id]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})

	return out
}

// MergeIDs is a convenience wrapper returning only the fused docId
// order, discarding scores.
func MergeIDs(textRanked, vecRanked []uint64, wText, wVec float64, k int) []uint64 {
	ranked := Merge(textRanked, vecRanked, wText, wVec, k)
	ids := make([]uint64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.DocID
	}
	return ids
}
