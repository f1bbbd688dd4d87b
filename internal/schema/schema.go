// Package schema inspects a document type once and exposes a stable,
// typed description of its indexable fields: which ones are text,
// which are filterable scalars, and which one is the primary id.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
)

// Role classifies how a field participates in the lexical and filter
// indices. The set is closed: callers cannot invent new roles.
type Role string

const (
	RoleID    Role = "id"
	RoleText  Role = "text"
	RoleBool  Role = "bool"
	RoleU64   Role = "u64"
	RoleI64   Role = "i64"
	RoleF64   Role = "f64"
	RoleDate  Role = "date"
	RoleBytes Role = "bytes"
	RoleFacet Role = "facet"
)

var validRoles = map[Role]bool{
	RoleID: true, RoleText: true, RoleBool: true, RoleU64: true,
	RoleI64: true, RoleF64: true, RoleDate: true, RoleBytes: true,
	RoleFacet: true,
}

// Field describes one indexable field of D.
type Field struct {
	// Name is the lexical field name (the string the DSL and bleve
	// mapping use). Never "__doc_id" — that name is reserved.
	Name string
	Role Role
	// GoName is the originating Go struct field name, used by the
	// reflective Encode/Decode helpers. Empty for hand-built Specs
	// that supply their own Encode/Decode.
	GoName string
}

// Spec is a stable, typed description of how values of type D are
// projected into the lexical and vector indices. Build one explicitly,
// or derive one with Reflect.
type Spec[D any] struct {
	Fields    []Field
	PrimaryID string // Name of the field acting as the document's external id

	// Encode turns a D into a flat field map for the lexical engine.
	Encode func(doc D) (map[string]any, error)
	// Decode reconstructs a D from a flat field map returned by the
	// lexical engine (field names keyed as in Fields, values loosely
	// typed per bleve's retrieval conventions).
	Decode func(fields map[string]any) (D, error)
}

// IDFields returns the fields tagged as RoleID.
func (s Spec[D]) IDFields() []Field {
	return s.withRole(RoleID)
}

// TextFields returns the fields tagged as RoleText.
func (s Spec[D]) TextFields() []Field {
	return s.withRole(RoleText)
}

func (s Spec[D]) withRole(r Role) []Field {
	out := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Role == r {
			out = append(out, f)
		}
	}
	return out
}

// Field looks up a field by lexical name.
func (s Spec[D]) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

const reservedDocIDField = "__doc_id"

// Validate checks that the spec is internally consistent: exactly one
// primary id field, no duplicate or reserved names, closed role set.
func (s Spec[D]) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema: spec has no fields")
	}
	seen := make(map[string]bool, len(s.Fields))
	var idCandidates []string
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema: field has empty name")
		}
		if f.Name == reservedDocIDField {
			return fmt.Errorf("schema: field name %q is reserved", reservedDocIDField)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema: duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		if !validRoles[f.Role] {
			return fmt.Errorf("schema: field %q has unknown role %q", f.Name, f.Role)
		}
		if f.Role == RoleID {
			idCandidates = append(idCandidates, f.Name)
		}
	}
	if s.PrimaryID == "" {
		if len(idCandidates) == 1 {
			// Caller may leave PrimaryID blank if there's exactly one
			// candidate; Reflect always fills it explicitly.
		} else if len(idCandidates) == 0 {
			return fmt.Errorf("schema: no field has role %q", RoleID)
		} else {
			return fmt.Errorf("schema: multiple id fields %v and no PrimaryID chosen", idCandidates)
		}
	} else {
		f, ok := s.Field(s.PrimaryID)
		if !ok {
			return fmt.Errorf("schema: PrimaryID %q is not a declared field", s.PrimaryID)
		}
		if f.Role != RoleID {
			return fmt.Errorf("schema: PrimaryID %q does not have role %q", s.PrimaryID, RoleID)
		}
	}
	return nil
}

// ResolvedPrimaryID returns the primary id field name, resolving the
// single-candidate-by-default case Validate allows.
func (s Spec[D]) ResolvedPrimaryID() string {
	if s.PrimaryID != "" {
		return s.PrimaryID
	}
	for _, f := range s.IDFields() {
		return f.Name
	}
	return ""
}

// Fingerprint is a stable digest of the field set: sorted "name:role"
// pairs, pipe-joined, sha256-truncated to 16 hex characters. Two
// specs with the same fields (any order) and roles fingerprint the
// same; schema drift versus a persisted index's metadata is detected
// by comparing fingerprints.
func (s Spec[D]) Fingerprint() string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, f.Name+":"+string(f.Role))
	}
	sort.Strings(parts)
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])[:16]
}

// tagName is the struct tag Reflect reads: `hybrid:"<role>[,name=<override>]"`.
const tagName = "hybrid"

// Reflect derives a Spec[D] from struct tags on D, which must be a
// struct type (or pointer to struct). primaryIDField names the Go
// struct field to use as the primary id when more than one field
// carries RoleID; pass "" when there is exactly one id field.
//
// Example:
//
//	type Article struct {
//	    Slug  string `hybrid:"id"`
//	    Title string `hybrid:"text"`
//	    Body  string `hybrid:"text"`
//	    Views int64  `hybrid:"i64"`
//	}
func Reflect[D any](primaryIDField string) (Spec[D], error) {
	var zero D
	t := reflect.TypeOf(zero)
	if t == nil {
		return Spec[D]{}, fmt.Errorf("schema: cannot reflect nil type, use an explicit Spec")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Spec[D]{}, fmt.Errorf("schema: Reflect requires a struct type, got %s", t.Kind())
	}

	var fields []Field
	goNameToField := make(map[string]string) // lexical name -> go field name
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup(tagName)
		if !ok || tag == "-" {
			continue
		}
		role, name := parseTag(tag, sf.Name)
		fields = append(fields, Field{Name: name, Role: Role(role), GoName: sf.Name})
		goNameToField[name] = sf.Name
	}
	if len(fields) == 0 {
		return Spec[D]{}, fmt.Errorf("schema: %s has no fields tagged with %q", t.Name(), tagName)
	}

	spec := Spec[D]{Fields: fields}
	if primaryIDField != "" {
		for _, f := range fields {
			if f.GoName == primaryIDField {
				spec.PrimaryID = f.Name
				break
			}
		}
		if spec.PrimaryID == "" {
			return Spec[D]{}, fmt.Errorf("schema: primary id field %q not found among tagged fields", primaryIDField)
		}
	}

	spec.Encode = func(doc D) (map[string]any, error) {
		v := reflect.ValueOf(doc)
		for v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return nil, fmt.Errorf("schema: cannot encode nil %T", doc)
			}
			v = v.Elem()
		}
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			fv := v.FieldByName(f.GoName)
			if !fv.IsValid() {
				continue
			}
			out[f.Name] = fv.Interface()
		}
		return out, nil
	}

	roleByGoName := make(map[string]Role, len(fields))
	for _, f := range fields {
		roleByGoName[f.GoName] = f.Role
	}

	spec.Decode = func(values map[string]any) (D, error) {
		var out D
		// Translate from lexical field names (bleve's vocabulary) to Go
		// struct field names, coercing Date-role strings through
		// dateparse first since mapstructure's weak typing doesn't know
		// how to parse free-form timestamps.
		byGoName := make(map[string]any, len(goNameToField))
		for lexName, goName := range goNameToField {
			raw, ok := values[lexName]
			if !ok {
				continue
			}
			if roleByGoName[goName] == RoleDate {
				if s, ok := raw.(string); ok {
					t, err := dateparse.ParseAny(s)
					if err != nil {
						return out, fmt.Errorf("schema: decode field %q: parse date: %w", lexName, err)
					}
					raw = t
				}
			}
			byGoName[goName] = raw
		}

		target := reflect.New(t)
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           target.Interface(),
		})
		if err != nil {
			return out, fmt.Errorf("schema: build decoder: %w", err)
		}
		if err := decoder.Decode(byGoName); err != nil {
			return out, fmt.Errorf("schema: decode: %w", err)
		}

		result := target.Elem().Interface()
		if d, ok := result.(D); ok {
			return d, nil
		}
		// D is itself a pointer type.
		if dp, ok := target.Interface().(D); ok {
			return dp, nil
		}
		return out, fmt.Errorf("schema: could not convert decoded value to %T", out)
	}

	if err := spec.Validate(); err != nil {
		return Spec[D]{}, err
	}
	return spec, nil
}

func parseTag(tag, goFieldName string) (role string, name string) {
	parts := strings.Split(tag, ",")
	role = strings.TrimSpace(parts[0])
	name = strcase.ToSnake(goFieldName)
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "name=") {
			name = strings.TrimPrefix(p, "name=")
		}
	}
	return role, name
}
