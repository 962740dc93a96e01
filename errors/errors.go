package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseHeader   Phase = "header"   // preamble and section table
	PhaseInflate  Phase = "inflate"  // decompression collaborator
	PhaseDecode   Phase = "decode"   // CTF bytes to type graph
	PhaseResolve  Phase = "resolve"  // type id and name lookup
	PhaseEncode   Phase = "encode"   // type graph to CTF bytes
	PhaseValidate Phase = "validate" // graph reference checks
	PhaseDescribe Phase = "describe" // YAML description
)

// Kind categorizes the error
type Kind string

const (
	KindBadMagic                  Kind = "bad_magic"
	KindUnsupportedVersion        Kind = "unsupported_version"
	KindTruncatedSection          Kind = "truncated_section"
	KindDecompressionSizeMismatch Kind = "decompression_size_mismatch"
	KindTruncatedRecord           Kind = "truncated_record"
	KindUnknownKind               Kind = "unknown_kind"
	KindValueOutOfRange           Kind = "value_out_of_range"
	KindNameOffsetOutOfRange      Kind = "name_offset_out_of_range"
	KindTrailingGarbage           Kind = "trailing_garbage"
	KindNoParentContainer         Kind = "no_parent_container"
	KindTypeIDOutOfRange          Kind = "type_id_out_of_range"
	KindInvalidInput              Kind = "invalid_input"
)

// Sentinels for errors.Is matching on Kind alone, whatever the phase.
var (
	ErrBadMagic                  = &Error{Kind: KindBadMagic}
	ErrUnsupportedVersion        = &Error{Kind: KindUnsupportedVersion}
	ErrTruncatedSection          = &Error{Kind: KindTruncatedSection}
	ErrDecompressionSizeMismatch = &Error{Kind: KindDecompressionSizeMismatch}
	ErrTruncatedRecord           = &Error{Kind: KindTruncatedRecord}
	ErrUnknownKind               = &Error{Kind: KindUnknownKind}
	ErrValueOutOfRange           = &Error{Kind: KindValueOutOfRange}
	ErrNameOffsetOutOfRange      = &Error{Kind: KindNameOffsetOutOfRange}
	ErrTrailingGarbage           = &Error{Kind: KindTrailingGarbage}
	ErrNoParentContainer         = &Error{Kind: KindNoParentContainer}
	ErrTypeIDOutOfRange          = &Error{Kind: KindTypeIDOutOfRange}
	ErrInvalidInput              = &Error{Kind: KindInvalidInput}
)

// NoOffset marks an error that is not tied to a byte position.
const NoOffset = -1

// Error is the structured error type used throughout ctfkit
type Error struct {
	Expected any
	Actual   any
	Cause    error
	Phase    Phase
	Kind     Kind
	Detail   string
	Path     []string
	Offset   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset 0x%x)", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Expected != nil || e.Actual != nil {
		fmt.Fprintf(&b, " [expected %v, got %v]", e.Expected, e.Actual)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: NoOffset,
		},
	}
}

// Path sets the record path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the byte offset of the malformed data
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Expected sets the expected value
func (b *Builder) Expected(v any) *Builder {
	b.err.Expected = v
	return b
}

// Actual sets the offending value
func (b *Builder) Actual(v any) *Builder {
	b.err.Actual = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BadMagic creates a bad magic error
func BadMagic(got uint16) *Error {
	return &Error{
		Phase:    PhaseHeader,
		Kind:     KindBadMagic,
		Offset:   0,
		Expected: "0xcff1",
		Actual:   fmt.Sprintf("0x%04x", got),
	}
}

// UnsupportedVersion creates an unsupported version error
func UnsupportedVersion(got uint8) *Error {
	return &Error{
		Phase:  PhaseHeader,
		Kind:   KindUnsupportedVersion,
		Offset: 2,
		Detail: "version must be 1 or 2",
		Actual: got,
	}
}

// TruncatedSection creates a section bounds error
func TruncatedSection(section string, end, length int) *Error {
	return &Error{
		Phase:    PhaseHeader,
		Kind:     KindTruncatedSection,
		Path:     []string{section},
		Offset:   end,
		Detail:   fmt.Sprintf("section ends at %d beyond buffer length %d", end, length),
		Expected: length,
		Actual:   end,
	}
}

// SectionOrder creates an error for section offsets that decrease
func SectionOrder(section string, off, prev uint32) *Error {
	return &Error{
		Phase:    PhaseHeader,
		Kind:     KindTruncatedSection,
		Path:     []string{section},
		Offset:   int(off),
		Detail:   "section offsets must be non-decreasing",
		Expected: fmt.Sprintf(">= %d", prev),
		Actual:   off,
	}
}

// SizeMismatch creates a decompression size mismatch error
func SizeMismatch(expected, actual int) *Error {
	return &Error{
		Phase:    PhaseInflate,
		Kind:     KindDecompressionSizeMismatch,
		Offset:   NoOffset,
		Expected: expected,
		Actual:   actual,
	}
}

// TruncatedRecord creates a record truncation error
func TruncatedRecord(path []string, offset, need, have int) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindTruncatedRecord,
		Path:     path,
		Offset:   offset,
		Detail:   "record runs past the end of the section",
		Expected: need,
		Actual:   have,
	}
}

// UnknownKind creates an unknown type kind error
func UnknownKind(path []string, offset int, kind uint8) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindUnknownKind,
		Path:     path,
		Offset:   offset,
		Expected: "1..13",
		Actual:   kind,
	}
}

// OutOfRange creates a value out of range error
func OutOfRange(phase Phase, path []string, what string, value, limit any) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindValueOutOfRange,
		Path:     path,
		Offset:   NoOffset,
		Detail:   what,
		Expected: fmt.Sprintf("<= %v", limit),
		Actual:   value,
	}
}

// NameOffsetOutOfRange creates a string table bounds error
func NameOffsetOutOfRange(table uint8, offset uint32, length int) *Error {
	return &Error{
		Phase:    PhaseResolve,
		Kind:     KindNameOffsetOutOfRange,
		Path:     []string{fmt.Sprintf("strtab %d", table)},
		Offset:   int(offset),
		Expected: fmt.Sprintf("< %d", length),
		Actual:   offset,
	}
}

// TrailingGarbage creates an error for leftover bytes in a section
func TrailingGarbage(section string, offset, remaining int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTrailingGarbage,
		Path:   []string{section},
		Offset: offset,
		Detail: fmt.Sprintf("%d byte(s) left after the last complete record", remaining),
		Actual: remaining,
	}
}

// NoParent creates a missing parent container error
func NoParent(id uint16) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNoParentContainer,
		Offset: NoOffset,
		Detail: fmt.Sprintf("type 0x%04x refers to a parent container", id),
		Actual: id,
	}
}

// TypeIDOutOfRange creates a type id bounds error
func TypeIDOutOfRange(id uint16, count int) *Error {
	return &Error{
		Phase:    PhaseResolve,
		Kind:     KindTypeIDOutOfRange,
		Offset:   NoOffset,
		Detail:   fmt.Sprintf("type 0x%04x", id),
		Expected: fmt.Sprintf("1..%d", count),
		Actual:   id & 0x7fff,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Offset: NoOffset,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: NoOffset,
		Detail: detail,
		Cause:  cause,
	}
}

// At returns a copy of err with path prefixed, leaving other fields intact.
// Errors that are not *Error are returned unchanged.
func At(err error, path ...string) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	cp := *e
	cp.Path = append(append([]string{}, path...), e.Path...)
	return &cp
}
