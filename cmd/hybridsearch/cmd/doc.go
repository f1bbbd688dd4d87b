package cmd

import (
	"hash/fnv"
	"math"

	"github.com/Aman-CERP/hybridsearch/internal/schema"
)

// Document is the demo document type the hybridsearch CLI operates
// over: an article with a title and body (both lexically indexed) and
// a view counter (a filterable scalar).
type Document struct {
	Slug  string `hybrid:"id"`
	Title string `hybrid:"text"`
	Body  string `hybrid:"text"`
	Views int64  `hybrid:"i64"`
}

func documentSpec() (schema.Spec[Document], error) {
	return schema.Reflect[Document]("")
}

// textFieldNames returns spec's Text-role field names, the default
// field list the Query Translator falls back to when a caller supplies
// no DefaultFields of its own.
func textFieldNames(spec schema.Spec[Document]) []string {
	fields := spec.TextFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// staticVector derives a deterministic pseudo-embedding from text, for
// exercising the vector engine without a real embedding model. Each
// dimension is the cosine of a hash of the text salted by its index,
// giving a stable, roughly-uniform unit-ish vector for the same input.
func staticVector(text string, dim int) []float32 {
	out := make([]float32, dim)
	for i := range out {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		_, _ = h.Write([]byte{byte(i), byte(i >> 8)})
		out[i] = float32(math.Cos(float64(h.Sum64())))
	}
	return out
}
