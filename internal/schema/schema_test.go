package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type article struct {
	Slug    string  `hybrid:"id"`
	Title   string  `hybrid:"text"`
	Body    string  `hybrid:"text"`
	Views   int64   `hybrid:"i64"`
	Rating  float64 `hybrid:"f64"`
	Draft   bool    `hybrid:"bool"`
	Section string  `hybrid:"facet"`
	Ignored string
}

func TestReflectDerivesFields(t *testing.T) {
	spec, err := Reflect[article]("")
	require.NoError(t, err)

	assert.Len(t, spec.Fields, 7)
	assert.Equal(t, "slug", spec.ResolvedPrimaryID())

	names := make(map[string]Role)
	for _, f := range spec.Fields {
		names[f.Name] = f.Role
	}
	assert.Equal(t, RoleID, names["slug"])
	assert.Equal(t, RoleText, names["title"])
	assert.Equal(t, RoleI64, names["views"])
	assert.Equal(t, RoleF64, names["rating"])
	assert.Equal(t, RoleBool, names["draft"])
	assert.Equal(t, RoleFacet, names["section"])
	assert.NotContains(t, names, "ignored")
}

func TestReflectRejectsNonStruct(t *testing.T) {
	_, err := Reflect[int]("")
	assert.Error(t, err)
}

func TestReflectRejectsUntaggedStruct(t *testing.T) {
	type bare struct{ X string }
	_, err := Reflect[bare]("")
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	spec, err := Reflect[article]("")
	require.NoError(t, err)

	in := article{Slug: "hello-world", Title: "Hello", Body: "World", Views: 42, Rating: 4.5, Draft: true, Section: "news"}
	fields, err := spec.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", fields["slug"])
	assert.Equal(t, int64(42), fields["views"])

	// bleve hands back float64 for everything numeric.
	lossy := map[string]any{
		"slug":    fields["slug"],
		"title":   fields["title"],
		"body":    fields["body"],
		"views":   float64(42),
		"rating":  float64(4.5),
		"draft":   true,
		"section": "news",
	}
	out, err := spec.Decode(lossy)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFingerprintStableAcrossOrder(t *testing.T) {
	s1 := Spec[article]{Fields: []Field{
		{Name: "slug", Role: RoleID},
		{Name: "title", Role: RoleText},
	}}
	s2 := Spec[article]{Fields: []Field{
		{Name: "title", Role: RoleText},
		{Name: "slug", Role: RoleID},
	}}
	assert.Equal(t, s1.Fingerprint(), s2.Fingerprint())
}

func TestFingerprintChangesWithRole(t *testing.T) {
	s1 := Spec[article]{Fields: []Field{{Name: "slug", Role: RoleID}}}
	s2 := Spec[article]{Fields: []Field{{Name: "slug", Role: RoleText}}}
	assert.NotEqual(t, s1.Fingerprint(), s2.Fingerprint())
}

func TestValidateRejectsReservedName(t *testing.T) {
	s := Spec[article]{Fields: []Field{{Name: "__doc_id", Role: RoleID}}}
	assert.Error(t, s.Validate())
}

func TestValidateRejectsAmbiguousPrimaryID(t *testing.T) {
	s := Spec[article]{Fields: []Field{
		{Name: "a", Role: RoleID},
		{Name: "b", Role: RoleID},
	}}
	assert.Error(t, s.Validate())
}

func TestValidateAcceptsExplicitPrimaryID(t *testing.T) {
	s := Spec[article]{
		Fields: []Field{
			{Name: "a", Role: RoleID},
			{Name: "b", Role: RoleID},
		},
		PrimaryID: "b",
	}
	assert.NoError(t, s.Validate())
	assert.Equal(t, "b", s.ResolvedPrimaryID())
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	s := Spec[article]{Fields: []Field{{Name: "a", Role: Role("weird")}}}
	assert.Error(t, s.Validate())
}
