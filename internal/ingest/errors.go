package ingest

import "fmt"

// ParseError is a non-fatal record-level error encountered while merging CSV
// rows. Load collects these rather than aborting, matching the original
// parser's "skip the bad row, keep going" behavior.
type ParseError struct {
	Kind ObjectKind
	Err  ParseErrorKind
}

func (e *ParseError) Error() string {
	return e.Err.message(e.Kind)
}

// ParseErrorKind is the taxonomy of record-level failures.
type ParseErrorKind interface {
	message(kind ObjectKind) string
}

// InvalidValue reports an int-coded boolean/enum field outside its legal
// range (e.g. a "locked" column holding anything but 0 or 1).
type InvalidValue struct {
	UUID  string
	Field string
	Value int8
}

func (e InvalidValue) message(kind ObjectKind) string {
	return fmt.Sprintf("parsing error: field %s in %s %s contained an invalid value: %d", e.Field, kind, e.UUID, e.Value)
}

// MismatchedUUIDs reports a join where a sub-table row's UUID did not match
// the parent row it was looked up against.
type MismatchedUUIDs struct {
	StructName string
	UUIDMain   string
	UUIDSub    string
}

func (e MismatchedUUIDs) message(kind ObjectKind) string {
	return fmt.Sprintf("merge error: component %s of %s %s had a different UUID: %s", e.StructName, kind, e.UUIDMain, e.UUIDSub)
}

// MissingSubobject reports a row with no matching companion row in a joined
// table (e.g. a thumbnail with no ThumbnailVotes entry).
type MissingSubobject struct {
	StructName string
	UUID       string
}

func (e MissingSubobject) message(kind ObjectKind) string {
	return fmt.Sprintf("parsing error: %s %s was missing an associated %s object", kind, e.UUID, e.StructName)
}

func newParseError(kind ObjectKind, detail ParseErrorKind) *ParseError {
	return &ParseError{Kind: kind, Err: detail}
}

// MissingSubobjectError builds the exported equivalent of newParseError for
// callers outside this package (internal/pgsource's row-level joins).
func MissingSubobjectError(kind ObjectKind, structName, uuid string) *ParseError {
	return newParseError(kind, MissingSubobject{StructName: structName, UUID: uuid})
}
