package types

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindUnknown        ErrKind = iota
	ErrKindStructural             // archive header/size mismatch, malformed magic
	ErrKindSchema                 // undefined typename/field, field-kind mismatch
	ErrKindBounds                 // index or offset out of range
	ErrKindFormatContract         // placement/count contract violated
	ErrKindEncoding               // text not representable in the archive encoding
	ErrKindReference              // lookup miss (only fatal under a strict policy)
	ErrKindState                  // invalid operation for current state
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindStructural:
		return "structural"
	case ErrKindSchema:
		return "schema"
	case ErrKindBounds:
		return "bounds"
	case ErrKindFormatContract:
		return "format-contract"
	case ErrKindEncoding:
		return "encoding"
	case ErrKindReference:
		return "reference"
	case ErrKindState:
		return "state"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels commonly returned by implementations.
var (
	// ErrStructural indicates the archive header disagrees with the buffer.
	ErrStructural = &Error{Kind: ErrKindStructural, Msg: "structural mismatch"}
	// ErrUndefinedType indicates a typename missing from the schema table.
	ErrUndefinedType = &Error{Kind: ErrKindSchema, Msg: "undefined type"}
	// ErrUndefinedField indicates a field id missing from a record.
	ErrUndefinedField = &Error{Kind: ErrKindSchema, Msg: "undefined field"}
	// ErrFieldKind indicates an operation requested on the wrong field kind.
	ErrFieldKind = &Error{Kind: ErrKindSchema, Msg: "field kind mismatch"}
	// ErrOutOfBounds indicates an index or offset outside the valid range.
	ErrOutOfBounds = &Error{Kind: ErrKindBounds, Msg: "out of bounds"}
	// ErrContract indicates a placement or count contract was violated.
	ErrContract = &Error{Kind: ErrKindFormatContract, Msg: "format contract violated"}
	// ErrEncoding indicates text that cannot be represented in the archive encoding.
	ErrEncoding = &Error{Kind: ErrKindEncoding, Msg: "unrepresentable text"}
	// ErrUnresolved indicates a reference that could not be resolved.
	ErrUnresolved = &Error{Kind: ErrKindReference, Msg: "unresolved reference"}
	// ErrNoRecord indicates a RecordID that does not name a live record.
	ErrNoRecord = &Error{Kind: ErrKindState, Msg: "no such record"}
)

// KindOf returns the first ErrKind found along err's chain.
func KindOf(err error) ErrKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ErrKindUnknown
}

// IsKind reports whether err carries the given category anywhere in its chain.
func IsKind(err error, kind ErrKind) bool {
	for err != nil {
		if te, ok := err.(*Error); ok && te.Kind == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// -----------------------------------------------------------------------------
// Breadcrumbs
// -----------------------------------------------------------------------------

// FrameError annotates an error with the record/field context in which it
// surfaced. Nested FrameErrors render outermost first.
type FrameError struct {
	Typename string // enclosing record type ("" when not inside a record)
	Field    string // field id ("" when the failure is at record level)
	Offset   int    // byte offset of the cursor, -1 when unknown
	Err      error
}

func (e *FrameError) Error() string {
	var b strings.Builder
	b.WriteString(e.frame())
	if e.Err != nil {
		b.WriteString(" > ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FrameError) frame() string {
	var parts []string
	if e.Typename != "" {
		if e.Offset >= 0 {
			parts = append(parts, fmt.Sprintf("%s@0x%x", e.Typename, e.Offset))
		} else {
			parts = append(parts, e.Typename)
		}
	} else if e.Offset >= 0 {
		parts = append(parts, fmt.Sprintf("0x%x", e.Offset))
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	return strings.Join(parts, " > ")
}

func (e *FrameError) Unwrap() error { return e.Err }

// Frame wraps err with record context. A nil err stays nil.
func Frame(err error, typename, field string, offset int) error {
	if err == nil {
		return nil
	}
	return &FrameError{Typename: typename, Field: field, Offset: offset, Err: err}
}
