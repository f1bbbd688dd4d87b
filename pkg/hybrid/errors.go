package hybrid

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra context.
var (
	// ErrMetadataMissing is returned by Load when the target directory
	// has no hybrid.meta.json sidecar.
	ErrMetadataMissing = errors.New("hybrid: metadata sidecar is missing")

	// ErrMetadataCorrupt is returned by Load when the sidecar exists
	// but cannot be parsed, records a format version other than the
	// current one, or its schema fingerprint doesn't match D.
	ErrMetadataCorrupt = errors.New("hybrid: metadata sidecar is corrupt or incompatible")

	// ErrIndexAlreadyExists is returned by Create when the target
	// directory already has a sidecar file.
	ErrIndexAlreadyExists = errors.New("hybrid: index already exists at this directory")

	// ErrMissingIDField is returned when D's schema declares no field
	// with schema.RoleID.
	ErrMissingIDField = errors.New("hybrid: document type has no id field")

	// ErrMissingDocID is returned by Get/Delete when a document's
	// primary id value doesn't match any indexed document.
	ErrMissingDocID = errors.New("hybrid: no document with that id")

	// ErrClosed is returned by any operation on an Index after Close.
	ErrClosed = errors.New("hybrid: index is closed")
)

// AmbiguousIDFieldError is returned when D's schema declares more than
// one RoleID field and the caller didn't pick a PrimaryID.
type AmbiguousIDFieldError struct {
	Candidates []string
}

func (e AmbiguousIDFieldError) Error() string {
	return fmt.Sprintf("hybrid: multiple id fields %v, specify schema.Spec.PrimaryID", e.Candidates)
}

// InvalidPrimaryIDFieldError is returned when a caller-supplied
// PrimaryID does not name a declared RoleID field.
type InvalidPrimaryIDFieldError struct {
	Field string
}

func (e InvalidPrimaryIDFieldError) Error() string {
	return fmt.Sprintf("hybrid: primary id field %q is not a declared id field", e.Field)
}

// DimensionMismatchError is returned when a vector's length doesn't
// match the index's configured Dimension.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e DimensionMismatchError) Error() string {
	return fmt.Sprintf("hybrid: vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
